package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const moduleBase = "github.com/leapstack-labs/wbemctl/"

// imports returns the imports of every non-test Go file in dir, by file name.
func imports(t *testing.T, dir string) map[string][]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	fset := token.NewFileSet()
	out := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			out[path] = append(out[path], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return out
}

// TestCoreImportsOnlyStdlib verifies pkg/core only imports the standard library.
// The Golden Rule: providers and the bridge depend on core, never the reverse.
func TestCoreImportsOnlyStdlib(t *testing.T) {
	for file, paths := range imports(t, ".") {
		for _, importPath := range paths {
			// Stdlib paths have no dot in their first element
			if strings.Contains(strings.SplitN(importPath, "/", 2)[0], ".") {
				t.Errorf("%s imports forbidden package: %s", file, importPath)
			}
		}
	}
}

// TestProvidersImportOnlyContract verifies providers reach the rest of the
// module only through pkg/core and the pkg/provider registry.
func TestProvidersImportOnlyContract(t *testing.T) {
	allowed := map[string]bool{
		moduleBase + "pkg/core":     true,
		moduleBase + "pkg/provider": true,
	}

	dirs, err := filepath.Glob(filepath.Join("..", "providers", "*"))
	if err != nil {
		t.Fatalf("Failed to list providers: %v", err)
	}
	dirs = append(dirs, filepath.Join("..", "provider"))

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		for file, paths := range imports(t, dir) {
			for _, importPath := range paths {
				if strings.HasPrefix(importPath, moduleBase) && !allowed[importPath] {
					t.Errorf("%s imports %s (providers may only use pkg/core and pkg/provider)", file, importPath)
				}
			}
		}
	}
}
