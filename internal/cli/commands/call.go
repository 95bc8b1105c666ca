package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/wbemctl/internal/cli/config"
	"github.com/leapstack-labs/wbemctl/internal/elevation"
	"github.com/leapstack-labs/wbemctl/internal/engine"
	"github.com/spf13/cobra"
)

// CallOptions holds options for the call command.
type CallOptions struct {
	Where  []string
	Params []string
	Strict bool
}

// ReturnValueError reports a method that completed with a non-zero
// ReturnValue under --strict.
type ReturnValueError struct {
	Method      string
	ReturnValue string
}

func (e *ReturnValueError) Error() string {
	return fmt.Sprintf("%s returned %s", e.Method, e.ReturnValue)
}

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	opts := &CallOptions{}

	cmd := &cobra.Command{
		Use:   "call <target> <method>",
		Short: "Invoke a method on a class or instance",
		Long: `Invoke a method and print its ReturnValue and out-parameters.

The target is an object path, or a class name: a static method is
called on the class itself, and with --where the method is called on
the first instance whose properties equal every given value.

Parameters are name=value, or name:type=value with type one of bool,
int, string or null. Untyped values that look like booleans, integers
or null are passed as such.

Every call is recorded in the invocation history unless --no-history
is given.`,
		Example: `  # Stop a service by path
  wbemctl call 'Win32_Service.Name="Spooler"' StopService

  # Select the instance by property
  wbemctl call Win32_Service ChangeStartMode --where Name=W32Time --param StartMode=Manual

  # Static method with typed parameters
  wbemctl call StdRegProv GetStringValue --param hDefKey:int=2147483650 \
      --param sSubKeyName=SOFTWARE --param sValueName=Owner`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "Select the instance with property=value (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Method input name=value or name:type=value (repeatable)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail when the method returns a non-zero ReturnValue")

	return cmd
}

func runCall(cmd *cobra.Command, target, method string, opts *CallOptions) error {
	params, err := engine.ParseParams(opts.Params)
	if err != nil {
		return err
	}
	where, err := engine.ParseWhere(opts.Where)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if guard := invokeGuard(cmdCtx.Cfg); guard != nil {
		if err := guard(); err != nil {
			return err
		}
	}

	res, err := cmdCtx.Engine.Invoke(engine.InvokeRequest{
		Target: target,
		Where:  where,
		Method: method,
		Params: params,
	})
	if err != nil {
		return err
	}
	if err := renderInvokeResult(cmdCtx.Renderer, res); err != nil {
		return err
	}
	if opts.Strict && failed(res.ReturnValue) {
		return &ReturnValueError{Method: method, ReturnValue: res.ReturnValue}
	}
	return nil
}

// invokeGuard returns the check run before every method call, or nil
// when the configuration allows calls from any process.
func invokeGuard(cfg *config.Config) func() error {
	if cfg.RequireElevation {
		return elevation.Require
	}
	return nil
}

// failed reports whether a rendered ReturnValue signals failure: a
// non-zero integer. Void methods and non-numeric results count as
// success.
func failed(ret string) bool {
	if n, err := strconv.ParseInt(ret, 10, 64); err == nil {
		return n != 0
	}
	if n, err := strconv.ParseUint(ret, 10, 64); err == nil {
		return n != 0
	}
	return false
}
