package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// BuildInfo identifies the binary.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the wbemctl version, build details and the providers compiled in.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			if short {
				_, _ = fmt.Fprintln(out, info.Version)
				return
			}
			_, _ = fmt.Fprintf(out, "wbemctl v%s\n", info.Version)
			if info.Commit != "" || info.BuildDate != "" {
				_, _ = fmt.Fprintf(out, "commit %s, built %s\n", orUnknown(info.Commit), orUnknown(info.BuildDate))
			}
			_, _ = fmt.Fprintf(out, "Management catalog explorer (%s/%s)\n", runtime.GOOS, runtime.GOARCH)
			if names := ProviderNames(); len(names) > 0 {
				_, _ = fmt.Fprintf(out, "Providers: %s\n", strings.Join(names, ", "))
			}
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print the version number only")

	return cmd
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
