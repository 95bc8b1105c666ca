package commands

import (
	"github.com/leapstack-labs/wbemctl/internal/cli/output"
	"github.com/leapstack-labs/wbemctl/pkg/provider"
	"github.com/spf13/cobra"
)

// ProviderNames returns the registered provider names.
func ProviderNames() []string {
	return provider.List()
}

// NewProvidersCommand creates the providers command.
func NewProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the registered catalog providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}
			r := cmdCtx.Renderer

			names := ProviderNames()
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(names)
			}
			r.Header(1, "Providers")
			for _, name := range names {
				marker := " "
				if name == cmdCtx.Cfg.Provider {
					marker = "*"
				}
				r.Printf("%s %s\n", marker, name)
			}
			return nil
		},
	}
}
