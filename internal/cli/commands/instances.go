package commands

import (
	"github.com/spf13/cobra"
)

// NewInstancesCommand creates the instances command.
func NewInstancesCommand() *cobra.Command {
	var props []string

	cmd := &cobra.Command{
		Use:   "instances <class>",
		Short: "List the instances of a class",
		Long: `List every instance of a class with its relative path and properties.

Without --property all non-system properties are printed, one
"name => value" line each.`,
		Example: `  # All logical disks
  wbemctl instances Win32_LogicalDisk

  # Only the name and state of each service
  wbemctl instances Win32_Service --property Name --property State`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			objects, err := cmdCtx.Engine.Instances(args[0], props)
			if err != nil {
				return err
			}
			return renderObjects(cmdCtx.Renderer, args[0], objects)
		},
	}

	cmd.Flags().StringArrayVar(&props, "property", nil, "Property to print (repeatable)")

	return cmd
}
