package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"pmeta/internal/metaser"
	"pmeta/internal/metastore"
	"pmeta/internal/project"
)

var errNoStore = errors.New("no store directory: pass one or create " + project.ConfigFile)

// loadProject reads --config or searches pmeta.toml upwards; nil when none exists.
func loadProject(cmd *cobra.Command) (*project.Project, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath == "" {
		proj, _, err := project.Load(".")
		return proj, err
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := project.LoadConfig(abs)
	if err != nil {
		return nil, err
	}
	return &project.Project{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

func storeDir(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if cliProject == nil {
		return "", errNoStore
	}
	return cliProject.StoreDir(), nil
}

func configuredVersion() int {
	if cliProject == nil {
		return 0
	}
	return cliProject.Config.Serializer.Version
}

func configuredJobs() int {
	if cliProject == nil {
		return 0
	}
	return cliProject.Config.Generate.Jobs
}

func openStore(args []string) (*metastore.Store, error) {
	dir, err := storeDir(args)
	if err != nil {
		return nil, err
	}
	return metastore.Open(dir, metaser.Default(),
		metastore.WithFormatVersion(configuredVersion()),
		metastore.WithJobs(configuredJobs()))
}
