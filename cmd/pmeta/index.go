package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"pmeta/internal/meta"
	"pmeta/internal/metaindex"
)

var indexCmd = &cobra.Command{
	Use:   "index [store-dir]",
	Short: "Index all stored modules and print the package tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		children, err := flags.GetString("children")
		if err != nil {
			return fmt.Errorf("failed to get children flag: %w", err)
		}
		classifier, err := flags.GetString("classifier")
		if err != nil {
			return fmt.Errorf("failed to get classifier flag: %w", err)
		}
		depth, err := flags.GetInt("depth")
		if err != nil {
			return fmt.Errorf("failed to get depth flag: %w", err)
		}

		s, err := openStore(args)
		if err != nil {
			return err
		}
		var idx *metaindex.Index
		err = timer.Track("index", func() (err error) {
			idx, err = s.Index(cmd.Context())
			return err
		})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch {
		case children != "":
			return renderChildren(w, idx, norm.NFC.String(children))
		case classifier != "":
			return renderClassifier(w, idx, norm.NFC.String(classifier))
		}
		if !isQuiet(cmd) {
			if err := renderModules(w, idx); err != nil {
				return err
			}
		}
		if err := title(w, "packages"); err != nil {
			return err
		}
		return renderTree(w, idx, meta.RootPath, 0, depth)
	},
}

func init() {
	indexCmd.Flags().String("children", "", "list direct children of a package")
	indexCmd.Flags().String("classifier", "", "list elements with a classifier")
	indexCmd.Flags().Int("depth", 0, "limit package tree depth (0: unlimited)")
}

func renderModules(w io.Writer, idx *metaindex.Index) error {
	t := newTable("module", "elements", "sources", "dependencies")
	for _, name := range idx.ModuleNames() {
		m := idx.ModuleMetadata(name)
		sources := 0
		if m != nil {
			sources = m.Sources().SourceCount()
		}
		manifest := idx.Module(name)
		t.add(name, itoa(manifest.ElementCount()), itoa(sources), orDash(strings.Join(manifest.Dependencies(), ", ")))
	}
	if err := title(w, "%d modules, %d elements, %d packages", len(idx.ModuleNames()), idx.ElementCount(), len(idx.PackagePaths())); err != nil {
		return err
	}
	return t.render(w)
}

func renderTree(w io.Writer, idx *metaindex.Index, path string, level, depth int) error {
	label := meta.ShortName(path)
	if p, ok := idx.Package(path); ok && p.IsVirtual() {
		label = virtualColor.Sprint(label)
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", level), label); err != nil {
		return err
	}
	if depth > 0 && level+1 >= depth {
		return nil
	}
	for _, child := range idx.PackageChildren(path) {
		if !idx.HasPackage(child.Path()) {
			if _, err := fmt.Fprintf(w, "%s%s  %s\n", strings.Repeat("  ", level+1),
				meta.ShortName(child.Path()), virtualColor.Sprint(meta.ShortName(child.ClassifierPath()))); err != nil {
				return err
			}
			continue
		}
		if err := renderTree(w, idx, child.Path(), level+1, depth); err != nil {
			return err
		}
	}
	return nil
}

func renderChildren(w io.Writer, idx *metaindex.Index, pkg string) error {
	if !idx.HasPackage(pkg) {
		return fmt.Errorf("unknown package %q", pkg)
	}
	t := newTable("path", "classifier", "module", "source")
	for _, child := range idx.PackageChildren(pkg) {
		module, source := "-", "-"
		if e, ok := idx.Element(child.Path()); ok {
			module, _ = idx.ElementModule(child.Path())
			source = e.Source().Message()
		}
		t.add(child.Path(), meta.ShortName(child.ClassifierPath()), module, source)
	}
	return t.render(w)
}

func renderClassifier(w io.Writer, idx *metaindex.Index, classifier string) error {
	if !idx.HasClassifier(classifier) {
		return fmt.Errorf("no elements with classifier %q", classifier)
	}
	t := newTable("path", "module", "source")
	for _, e := range idx.ClassifierElements(classifier) {
		module, _ := idx.ElementModule(e.Path())
		t.add(e.Path(), module, e.Source().Message())
	}
	return t.render(w)
}
