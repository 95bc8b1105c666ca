package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/wbemctl/internal/engine"
	"github.com/leapstack-labs/wbemctl/pkg/providers/fixture"
)

// generateCatalogDocs writes a reference of the built-in fixture catalog.
func generateCatalogDocs(outDir string) error {
	log.Printf("Generating catalog docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	cat := fixture.Default()

	w := NewMarkdownWriter()
	w.Frontmatter("Fixture Catalog", "Classes served by the built-in fixture provider")
	w.GeneratedMarker()

	w.Header(1, "Fixture Catalog")
	w.Paragraph("The fixture provider serves this catalog when no " + InlineCode("fixture") +
		" file is configured. It is the default provider outside Windows.")

	for _, ns := range cat.Namespaces() {
		classes, err := describeNamespace(cat, ns)
		if err != nil {
			return fmt.Errorf("namespace %s: %w", ns, err)
		}
		w.Header(2, InlineCode(ns))
		for _, c := range classes {
			w.Header(3, c.Name)
			w.Paragraph("Properties: " + inlineList(c.Properties))
			if len(c.Methods) == 0 {
				continue
			}
			var rows [][]string
			for _, m := range c.Methods {
				rows = append(rows, []string{InlineCode(m.Name), inlineList(m.In), inlineList(m.Out)})
			}
			w.Table([]string{"Method", "In", "Out"}, rows)
		}
	}

	filename := filepath.Join(outDir, "fixture-catalog.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated fixture-catalog.md")
	return nil
}

func describeNamespace(cat *fixture.Catalog, ns string) ([]engine.ClassInfo, error) {
	eng, err := engine.New(engine.Config{
		Subsystem: fixture.New(cat, nil),
		Namespace: ns,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = eng.Close() }()

	return eng.Classes(engine.ClassQuery{WithProperties: true, WithMethods: true})
}

func inlineList(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = InlineCode(s)
	}
	return strings.Join(out, ", ")
}
