package commands

import (
	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path> [property...]",
		Short: "Show one class or instance",
		Long: `Show a class definition (by class name) or an instance (by object path).

Paths use the relative path form, e.g. Win32_Service.Name="Spooler".`,
		Example: `  wbemctl get 'Win32_Service.Name="Spooler"'
  wbemctl get 'Win32_LogicalDisk.DeviceID="C:"' FreeSpace Size`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			obj, err := cmdCtx.Engine.Describe(args[0], args[1:])
			if err != nil {
				return err
			}
			return renderObject(cmdCtx.Renderer, obj)
		},
	}
}

// NewMethodsCommand creates the methods command.
func NewMethodsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "methods <path>",
		Short:   "List the methods of a class or instance",
		Example: `  wbemctl methods Win32_Process`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			methods, err := cmdCtx.Engine.Methods(args[0])
			if err != nil {
				return err
			}
			return renderMethods(cmdCtx.Renderer, args[0], methods)
		},
	}
}
