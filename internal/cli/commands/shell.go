package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/wbemctl/internal/cli/output"
	"github.com/leapstack-labs/wbemctl/internal/engine"
	"github.com/spf13/cobra"
)

const shellPrompt = "wbem> "

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive catalog shell",
		Long: `Start an interactive shell connected to one namespace.

The connection is opened once and reused by every command. Tab
completes command names and class names.`,
		Args: cobra.NoArgs,
		RunE: runShell,
	}
}

func runShell(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sh := &shell{eng: cmdCtx.Engine, r: cmdCtx.Renderer, guard: invokeGuard(cmdCtx.Cfg)}

	var historyFile string
	if cmdCtx.Cfg.HistoryEnabled {
		historyFile = filepath.Join(filepath.Dir(cmdCtx.Cfg.HistoryPath), "shell_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    sh.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wbemctl shell (namespace: %s)\n", cmdCtx.Engine.Namespace())
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type help for commands, quit to exit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := sh.exec(line)
		if err != nil {
			cmdCtx.Renderer.Error(err.Error())
		}
		if quit {
			return nil
		}
	}
}

// shell executes one command line at a time against a connected engine.
type shell struct {
	eng *engine.Engine
	r   *output.Renderer
	// guard runs before every call when set
	guard func() error
}

// exec runs one line. It reports whether the shell should exit.
func (s *shell) exec(line string) (bool, error) {
	args, err := splitArgs(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}

	command, args := strings.ToLower(args[0]), args[1:]
	switch command {
	case "quit", "exit":
		return true, nil

	case "help", "?":
		printShellHelp(s.r.Writer())
		return false, nil

	case "classes":
		q := engine.ClassQuery{}
		for _, a := range args {
			switch a {
			case "-p":
				q.WithProperties = true
			case "-m":
				q.WithMethods = true
			default:
				q.Filter = a
			}
		}
		classes, err := s.eng.Classes(q)
		if err != nil {
			return false, err
		}
		return false, renderClasses(s.r, s.eng.Namespace(), classes, q)

	case "instances":
		if len(args) < 1 {
			return false, errors.New("usage: instances <class> [property...]")
		}
		objects, err := s.eng.Instances(args[0], args[1:])
		if err != nil {
			return false, err
		}
		return false, renderObjects(s.r, args[0], objects)

	case "get":
		if len(args) < 1 {
			return false, errors.New("usage: get <path> [property...]")
		}
		obj, err := s.eng.Describe(args[0], args[1:])
		if err != nil {
			return false, err
		}
		return false, renderObject(s.r, obj)

	case "methods":
		if len(args) != 1 {
			return false, errors.New("usage: methods <path>")
		}
		methods, err := s.eng.Methods(args[0])
		if err != nil {
			return false, err
		}
		return false, renderMethods(s.r, args[0], methods)

	case "call":
		return false, s.call(args)

	case "history":
		limit := 10
		if len(args) == 1 {
			if limit, err = strconv.Atoi(args[0]); err != nil {
				return false, fmt.Errorf("invalid limit %q", args[0])
			}
		}
		invs, err := s.eng.History(limit)
		if err != nil {
			return false, err
		}
		return false, renderHistory(s.r, invs)

	case "namespace":
		s.r.Println(s.eng.Namespace())
		return false, nil
	}
	return false, fmt.Errorf("unknown command: %s (type help for commands)", command)
}

// call handles: call <target> <method> [name=value...] [where prop=value...]
func (s *shell) call(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: call <target> <method> [name=value...] [where prop=value...]")
	}
	target, method, rest := args[0], args[1], args[2:]

	var paramArgs, whereArgs []string
	for i, a := range rest {
		if strings.EqualFold(a, "where") {
			whereArgs = rest[i+1:]
			break
		}
		paramArgs = append(paramArgs, a)
	}

	params, err := engine.ParseParams(paramArgs)
	if err != nil {
		return err
	}
	where, err := engine.ParseWhere(whereArgs)
	if err != nil {
		return err
	}
	if s.guard != nil {
		if err := s.guard(); err != nil {
			return err
		}
	}
	res, err := s.eng.Invoke(engine.InvokeRequest{Target: target, Where: where, Method: method, Params: params})
	if err != nil {
		return err
	}
	return renderInvokeResult(s.r, res)
}

// completer completes command names, and class names after commands
// that take one. Class names are fetched on first use.
func (s *shell) completer() *readline.PrefixCompleter {
	var names []string
	classNames := func(string) []string {
		if names == nil {
			names = []string{}
			if classes, err := s.eng.Classes(engine.ClassQuery{}); err == nil {
				for _, c := range classes {
					names = append(names, c.Name)
				}
			}
		}
		return names
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("classes"),
		readline.PcItem("instances", readline.PcItemDynamic(classNames)),
		readline.PcItem("get", readline.PcItemDynamic(classNames)),
		readline.PcItem("methods", readline.PcItemDynamic(classNames)),
		readline.PcItem("call", readline.PcItemDynamic(classNames)),
		readline.PcItem("history"),
		readline.PcItem("namespace"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
		readline.PcItem("exit"),
	)
}

// splitArgs splits a command line on whitespace. Single quotes group
// and are removed; double quotes group and are kept, since object
// paths carry them.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		inArg bool
		quote rune
	)
	for _, c := range line {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				if c == '"' {
					cur.WriteRune(c)
				}
				continue
			}
			cur.WriteRune(c)
		case c == '\'' || c == '"':
			quote = c
			inArg = true
			if c == '"' {
				cur.WriteRune(c)
			}
		case c == ' ' || c == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(c)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}

func printShellHelp(w io.Writer) {
	help := `Commands:
  classes [pattern] [-p] [-m]           List classes (LIKE pattern, properties, methods)
  instances <class> [property...]       List instances of a class
  get <path> [property...]              Show a class or instance
  methods <path>                        List the methods of a class or instance
  call <target> <method> [n=v...] [where p=v...]
                                        Invoke a method
  history [n]                           Show recent invocations
  namespace                             Show the connected namespace
  help                                  Show this help message
  quit / exit                           Exit the shell

Tips:
  - Quote object paths in single quotes: get 'Win32_Service.Name="Spooler"'
  - Tab completion works for commands and class names`
	_, _ = fmt.Fprintln(w, help)
}
