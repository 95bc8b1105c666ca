package commands

import (
	"github.com/leapstack-labs/wbemctl/internal/engine"
	"github.com/spf13/cobra"
)

// ClassesOptions holds options for the classes command.
type ClassesOptions struct {
	Filter     string
	Properties bool
	Methods    bool
}

// NewClassesCommand creates the classes command.
func NewClassesCommand() *cobra.Command {
	opts := &ClassesOptions{}

	cmd := &cobra.Command{
		Use:     "classes",
		Aliases: []string{"ls"},
		Short:   "List the classes of a namespace",
		Long: `List the classes defined in the namespace, sorted by name.

The filter is a WQL LIKE pattern: % matches any run of characters,
_ matches one character, and [a-z] or [^a-z] match character sets.

Use --properties and --methods to describe each class.`,
		Example: `  # All classes
  wbemctl classes

  # Classes starting with Win32_Logical, with their properties
  wbemctl classes -f 'Win32_Logical%' -p

  # Method signatures of the registry provider
  wbemctl classes -n 'ROOT\default' -f StdRegProv -m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClasses(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Filter, "filter", "f", "", "WQL LIKE pattern on class names")
	cmd.Flags().BoolVarP(&opts.Properties, "properties", "p", false, "List the properties of each class")
	cmd.Flags().BoolVarP(&opts.Methods, "methods", "m", false, "List the methods of each class")

	return cmd
}

func runClasses(cmd *cobra.Command, opts *ClassesOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	q := engine.ClassQuery{
		Filter:         opts.Filter,
		WithProperties: opts.Properties,
		WithMethods:    opts.Methods,
	}
	classes, err := cmdCtx.Engine.Classes(q)
	if err != nil {
		return err
	}
	return renderClasses(cmdCtx.Renderer, cmdCtx.Engine.Namespace(), classes, q)
}
