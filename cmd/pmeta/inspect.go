package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pmeta/internal/meta"
	"pmeta/internal/metaser"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <blob>",
	Short: "Decode a metadata blob and print its contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		err := timer.Track("read", func() (err error) {
			data, err = os.ReadFile(args[0])
			return err
		})
		if err != nil {
			return err
		}
		var b blob
		err = timer.Track("decode", func() (err error) {
			b, err = decodeBlob(metaser.Default(), data)
			return err
		})
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		return renderBlob(cmd.OutOrStdout(), args[0], b, isQuiet(cmd))
	},
}

func renderBlob(w io.Writer, name string, b blob, quiet bool) error {
	if !quiet {
		if err := title(w, "%s: %s, format v%d", name, b.kind, b.version); err != nil {
			return err
		}
	}
	switch v := b.value.(type) {
	case *meta.Manifest:
		return renderManifest(w, v)
	case *meta.ModuleSources:
		t := newTable("source", "parser", "elements")
		for _, s := range v.Sources() {
			for _, sec := range s.Sections() {
				t.add(s.SourceID(), sec.Parser(), strings.Join(sec.Elements(), ", "))
			}
		}
		if _, err := fmt.Fprintf(w, "module %s, %d sources\n", v.ModuleName(), v.SourceCount()); err != nil {
			return err
		}
		return t.render(w)
	case *meta.ModuleExternalReferences:
		t := newTable("element", "references")
		for _, e := range v.Elements() {
			t.add(e.ElementPath(), strings.Join(e.ExternalReferences(), ", "))
		}
		if _, err := fmt.Fprintf(w, "module %s, reference id version %d\n", v.ModuleName(), v.ReferenceIDVersion()); err != nil {
			return err
		}
		return t.render(w)
	case meta.ElementBackReferences:
		t := newTable("instance", "kind", "back reference")
		for _, g := range v.InstanceBackReferences() {
			for _, ref := range g.BackReferences() {
				t.add(g.InstanceRefID(), ref.Kind().String(), ref.String())
			}
		}
		if _, err := fmt.Fprintf(w, "element %s, reference id version %d\n", v.ElementPath(), v.ReferenceIDVersion()); err != nil {
			return err
		}
		return t.render(w)
	case *meta.ModuleFunctionNames:
		t := newTable("name", "paths")
		for _, f := range v.Functions() {
			t.add(f.Name(), strings.Join(f.Paths(), ", "))
		}
		if _, err := fmt.Fprintf(w, "module %s\n", v.ModuleName()); err != nil {
			return err
		}
		return t.render(w)
	default:
		return fmt.Errorf("unsupported blob value %T", b.value)
	}
}

func renderManifest(w io.Writer, m *meta.Manifest) error {
	if _, err := fmt.Fprintf(w, "module %s, depends on [%s], %d elements\n",
		m.ModuleName(), strings.Join(m.Dependencies(), ", "), m.ElementCount()); err != nil {
		return err
	}
	t := newTable("path", "classifier", "source")
	for _, e := range m.Elements() {
		t.add(e.Path(), meta.ShortName(e.ClassifierPath()), e.Source().Message())
	}
	return t.render(w)
}

func itoa(n int) string { return strconv.Itoa(n) }
