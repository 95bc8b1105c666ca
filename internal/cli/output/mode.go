// Package output renders command results for terminals, pipes and tools.
//
// A Renderer picks one of three concrete modes: styled text for a
// terminal, Markdown when piped (agent and script friendly), or JSON.
// ModeAuto selects text or Markdown from TTY detection.
package output

import (
	"fmt"
	"strings"
)

// OutputMode selects the output format.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"
	ModeText     OutputMode = "text"
	ModeMarkdown OutputMode = "markdown"
	ModeJSON     OutputMode = "json"
)

// Modes lists the accepted mode names.
var Modes = []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON)}

// Mode converts a configuration value to an OutputMode. Unknown and
// empty values yield ModeAuto.
func Mode(s string) OutputMode {
	m, err := ParseMode(s)
	if err != nil {
		return ModeAuto
	}
	return m
}

// ParseMode converts a configuration value to an OutputMode. "md" is
// accepted for Markdown; the empty string is ModeAuto.
func ParseMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "text":
		return ModeText, nil
	case "markdown", "md":
		return ModeMarkdown, nil
	case "json":
		return ModeJSON, nil
	}
	return ModeAuto, fmt.Errorf("unknown output format %q (valid: %s)", s, strings.Join(Modes, ", "))
}
