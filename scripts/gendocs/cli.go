package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/wbemctl/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// generateCLIDocs generates CLI documentation from Cobra commands.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	// Create output directory
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Get root command
	rootCmd := cli.NewRootCmd()

	if err := checkCommandGroups(rootCmd); err != nil {
		return err
	}

	// Generate index page
	if err := generateCLIIndex(rootCmd, outDir); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	// Generate page for each command
	for _, cmd := range rootCmd.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		if err := generateCommandPage(cmd, outDir); err != nil {
			return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
		}
		log.Printf("  Generated %s.md", cmd.Name())
	}

	return nil
}

// generateCLIIndex generates the CLI overview page.
func generateCLIIndex(rootCmd *cobra.Command, outDir string) error {
	w := NewMarkdownWriter()

	// Frontmatter
	w.Frontmatter("CLI Reference", "Command-line interface reference for wbemctl")
	w.GeneratedMarker()

	// Title and intro
	w.Header(1, "CLI Reference")
	w.Paragraph("wbemctl browses a management catalog from the command line: it lists classes, dumps instances, inspects method signatures, invokes methods and keeps a history of every invocation.")

	// Installation
	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/wbemctl/cmd/wbemctl@latest")

	// Basic usage
	w.Header(2, "Basic Usage")
	w.CodeBlock("bash", "wbemctl <command> [options]")

	// Commands, grouped by what they touch
	for _, group := range commandGroups {
		w.Header(2, group.title)
		var rows [][]string
		for _, name := range group.commands {
			cmd, _, err := rootCmd.Find([]string{name})
			if err != nil || cmd == rootCmd {
				return fmt.Errorf("command %s is not registered", name)
			}
			link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
			rows = append(rows, []string{link, cleanDescription(cmd.Short)})
		}
		w.Table([]string{"Command", "Description"}, rows)
	}

	// Global flags
	w.Header(2, "Global Options")
	w.Paragraph("These flags are available for all commands:")
	writeFlagsTable(w, rootCmd.PersistentFlags())

	// Environment variables
	w.Header(2, "Environment Variables")
	w.Paragraph("wbemctl respects these environment variables. Nested keys use a double underscore.")

	var envRows [][]string
	for _, key := range sortedConfigKeys() {
		envRows = append(envRows, []string{InlineCode(envName(key)), configDescriptions[key]})
	}
	w.Table([]string{"Variable", "Description"}, envRows)

	w.Paragraph("Command-line flags take precedence over environment variables, which take precedence over the configuration file.")

	// Exit codes
	w.Header(2, "Exit Codes")
	exitHeaders := []string{"Code", "Meaning"}
	exitRows := [][]string{
		{InlineCode("0"), "Success"},
		{InlineCode("1"), "Error (check stderr for details)"},
		{InlineCode("2"), "A method invoked with --strict returned a non-zero ReturnValue"},
	}
	w.Table(exitHeaders, exitRows)

	w.Header(2, "Quick Start")
	w.CodeBlock("bash", `# Disks and their free space
wbemctl instances Win32_LogicalDisk --property DeviceID --property FreeSpace

# Stop a service, then review what was done
wbemctl call Win32_Service StopService --where Name=Spooler
wbemctl history --limit 1`)

	// Getting help
	w.Header(2, "Getting Help")
	w.CodeBlock("bash", `# General help
wbemctl help
wbemctl --help

# Command-specific help
wbemctl call --help`)

	// Write file
	filename := filepath.Join(outDir, "index.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}

// commandGroups orders the index page. Every visible command must
// appear in exactly one group.
var commandGroups = []struct {
	title    string
	commands []string
}{
	{"Catalog Commands", []string{"classes", "instances", "get", "methods"}},
	{"Invocation Commands", []string{"call", "history", "shell"}},
	{"Other Commands", []string{"providers", "version", "completion"}},
}

// flagConfigKeys maps root flags to the configuration keys they override.
var flagConfigKeys = map[string]string{
	"namespace":  "namespace",
	"provider":   "provider",
	"fixture":    "fixture",
	"history":    "history_path",
	"no-history": "history_enabled",
	"output":     "output",
	"verbose":    "verbose",
	"log-level":  "log_level",
}

// checkCommandGroups reports visible commands missing from commandGroups.
func checkCommandGroups(rootCmd *cobra.Command) error {
	grouped := make(map[string]bool)
	for _, g := range commandGroups {
		for _, name := range g.commands {
			grouped[name] = true
		}
	}
	for _, cmd := range rootCmd.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		if !grouped[cmd.Name()] {
			return fmt.Errorf("command %s is missing from the index groups", cmd.Name())
		}
	}
	return nil
}

// generateCommandPage generates documentation for a single command.
func generateCommandPage(cmd *cobra.Command, outDir string) error {
	w := NewMarkdownWriter()

	// Frontmatter
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	// Title and long description
	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	// Usage
	w.Header(2, "Usage")
	useLine := cmd.UseLine()
	if cmd.HasSubCommands() {
		useLine = fmt.Sprintf("wbemctl %s <subcommand> [options]", cmd.Name())
	} else if !strings.HasPrefix(useLine, "wbemctl") {
		useLine = "wbemctl " + useLine
	}
	w.CodeBlock("bash", useLine)

	// Aliases
	if len(cmd.Aliases) > 0 {
		w.Header(2, "Aliases")
		var aliases []string
		for _, alias := range cmd.Aliases {
			aliases = append(aliases, InlineCode(alias))
		}
		w.BulletList(aliases)
	}

	// Subcommands
	if cmd.HasSubCommands() {
		w.Header(2, "Subcommands")
		headers := []string{"Subcommand", "Description"}
		var rows [][]string
		for _, sub := range cmd.Commands() {
			if sub.Hidden {
				continue
			}
			rows = append(rows, []string{InlineCode(sub.Name()), cleanDescription(sub.Short)})
		}
		w.Table(headers, rows)
	}

	// Local flags
	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}

	// Inherited flags from parent
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	// Examples
	if cmd.Example != "" {
		w.Header(2, "Examples")
		// Clean up example - remove common leading whitespace
		example := cleanExample(cmd.Example)
		w.CodeBlock("bash", example)
	}

	// Write file
	filename := filepath.Join(outDir, cmd.Name()+".md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}

// writeFlagsTable writes a table of flags. Flags backed by a
// configuration key name it.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	headers := []string{"Option", "Short", "Default", "Config key", "Description"}
	var rows [][]string

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}

		short := ""
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}

		defVal := f.DefValue
		switch f.Value.Type() {
		case "stringArray", "stringSlice":
			defVal = ""
		case "string":
			if defVal != "" {
				defVal = InlineCode(defVal)
			}
		}

		key := ""
		if k, ok := flagConfigKeys[f.Name]; ok {
			key = InlineCode(k)
		}

		desc := cleanDescription(f.Usage)
		if strings.HasSuffix(f.Value.Type(), "Array") && !strings.Contains(desc, "repeatable") {
			desc += " (repeatable)"
		}

		rows = append(rows, []string{InlineCode("--" + f.Name), short, defVal, key, desc})
	})

	w.Table(headers, rows)
}

// cleanExample removes common leading whitespace from example text.
func cleanExample(example string) string {
	lines := strings.Split(example, "\n")
	if len(lines) == 0 {
		return example
	}

	// Find minimum indentation (ignoring empty lines)
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	if minIndent <= 0 {
		return strings.TrimSpace(example)
	}

	// Remove common indentation
	var result []string
	for _, line := range lines {
		if len(line) >= minIndent {
			result = append(result, line[minIndent:])
		} else {
			result = append(result, strings.TrimLeft(line, " \t"))
		}
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
