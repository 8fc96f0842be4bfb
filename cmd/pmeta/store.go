package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage a metadata store",
}

var storeLsCmd = &cobra.Command{
	Use:   "ls [store-dir]",
	Short: "List catalogued modules",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(args)
		if err != nil {
			return err
		}
		entries, err := s.Modules()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if !isQuiet(cmd) {
			if err := title(w, "%s: %d modules", s.Root(), len(entries)); err != nil {
				return err
			}
		}
		t := newTable("module", "format", "elements", "dependencies", "digest")
		for _, e := range entries {
			deps := "-"
			if len(e.Dependencies) > 0 {
				deps = fmt.Sprint(e.Dependencies)
			}
			t.add(e.Module, "v"+itoa(e.Version), itoa(e.Elements), deps, e.Digest.Short())
		}
		return t.render(w)
	},
}

var storeVerifyCmd = &cobra.Command{
	Use:   "verify [store-dir]",
	Short: "Check stored blobs against catalog digests",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(args)
		if err != nil {
			return err
		}
		entries, err := s.Modules()
		if err != nil {
			return err
		}
		var errs []error
		w := cmd.OutOrStdout()
		for _, e := range entries {
			if err := s.Verify(e.Module); err != nil {
				errs = append(errs, err)
				fmt.Fprintf(w, "%s %s\n", badColor.Sprint("FAIL"), e.Module)
				continue
			}
			if !isQuiet(cmd) {
				fmt.Fprintf(w, "%s %s\n", okColor.Sprint("ok  "), e.Module)
			}
		}
		return errors.Join(errs...)
	},
}

var storeRmCmd = &cobra.Command{
	Use:   "rm <module>...",
	Short: "Remove modules from the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cmd.Flags().GetString("dir")
		if err != nil {
			return fmt.Errorf("failed to get dir flag: %w", err)
		}
		s, err := openStore([]string{dir})
		if err != nil {
			return err
		}
		for _, name := range args {
			if err := s.RemoveModule(cmd.Context(), name); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	storeRmCmd.Flags().String("dir", "", "store directory (default: from pmeta.toml)")
	storeCmd.AddCommand(storeLsCmd, storeVerifyCmd, storeRmCmd)
}
