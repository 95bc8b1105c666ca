package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/wbemctl/internal/cli/config"
)

// configDescriptions documents each key returned by config.Defaults.
var configDescriptions = map[string]string{
	"namespace":                     "Namespace to connect to",
	"provider":                      "Catalog provider: ole (Windows) or fixture",
	"fixture":                       "Fixture catalog file; the built-in catalog when empty",
	"history_path":                  "SQLite database recording method invocations",
	"history_enabled":               "Record method invocations",
	"output":                        "Output format: auto, text, markdown or json",
	"verbose":                       "Log at debug level",
	"log_level":                     "Log level: debug, info, warn or error",
	"require_elevation":             "Refuse to invoke methods unless the process is elevated",
	"security.authentication":       "Process authentication level",
	"security.impersonation":        "Impersonation level",
	"security.proxy_authentication": "Authentication level of the service proxy",
}

// generateConfigDocs writes the configuration key reference.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating configuration docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	defaults := config.Defaults()
	keys := sortedConfigKeys()
	for _, k := range keys {
		if _, ok := configDescriptions[k]; !ok {
			return fmt.Errorf("configuration key %s has no description", k)
		}
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "Configuration file, environment and flag reference for wbemctl")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("wbemctl reads " + InlineCode("wbemctl.yaml") + " from the working directory, or the file named by " +
		InlineCode("--config") + ". Environment variables override the file and explicitly set flags override both.")

	var rows [][]string
	for _, k := range keys {
		def := fmt.Sprint(defaults[k])
		if def != "" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode(k), InlineCode(envName(k)), def, configDescriptions[k]})
	}
	w.Table([]string{"Key", "Environment", "Default", "Description"}, rows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `namespace: ROOT\CIMV2
provider: fixture
fixture: ./catalog.yaml
history_path: .wbemctl/history.db
security:
  impersonation: impersonate`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}

func envName(key string) string {
	return config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

func sortedConfigKeys() []string {
	defaults := config.Defaults()
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
