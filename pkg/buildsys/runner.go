package buildsys

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes a single external command inside dir and waits for it to finish. A command that
// ran but failed is reported through the exit code; err is only set if the command could not be
// run at all.
type Runner interface {
	Run(ctx context.Context, dir string, args []string) (exitCode int, err error)
}

// ExecMiddleware wraps the interpreter's exec handler.
type ExecMiddleware = func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc

// ShellRunner runs commands through the mvdan.cc/sh interpreter.
type ShellRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Env defaults to os.Environ().
	Env []string
	// Middlewares run before the default exec handler. If nil, requireTool is used so that
	// missing binaries are reported as errors instead of exit status 127.
	Middlewares []ExecMiddleware
}

// NewShellRunner returns a runner that shares the helper's standard streams with the child processes.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type toolNotFoundError struct {
	name string
	err  error
}

func (e *toolNotFoundError) Error() string {
	return e.name + ": " + e.err.Error()
}

func (e *toolNotFoundError) Unwrap() error {
	return e.err
}

// requireTool turns a failed PATH lookup into a fatal runner error.
func requireTool(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		hc := interp.HandlerCtx(ctx)
		_, err := interp.LookPathDir(hc.Dir, hc.Env, args[0])
		if err != nil {
			return &toolNotFoundError{name: args[0], err: err}
		}

		return next(ctx, args)
	}
}

// FormatCommand quotes args for display and for the interpreter.
func FormatCommand(args []string) (string, error) {
	quoted := make([]string, len(args))
	for idx, arg := range args {
		var err error
		quoted[idx], err = quoteArg(arg, idx == 0)
		if err != nil {
			return "", eris.Wrapf(err, "failed to quote argument %q", arg)
		}
	}

	return strings.Join(quoted, " "), nil
}

// quoteArg leaves -DNAME=value style arguments readable. An '=' only forms an assignment in front
// of the command name.
func quoteArg(arg string, first bool) (string, error) {
	if !first && strings.Contains(arg, "=") {
		stripped := strings.ReplaceAll(arg, "=", "")
		if stripped != "" {
			quoted, err := syntax.Quote(stripped, syntax.LangPOSIX)
			if err == nil && quoted == stripped {
				return arg, nil
			}
		}
	}

	return syntax.Quote(arg, syntax.LangPOSIX)
}

func (r *ShellRunner) Run(ctx context.Context, dir string, args []string) (int, error) {
	if len(args) == 0 {
		return 0, eris.New("empty command")
	}

	line, err := FormatCommand(args)
	if err != nil {
		return 0, err
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(line), args[0])
	if err != nil {
		return 0, eris.Wrapf(err, "failed to parse command %s", line)
	}

	env := r.Env
	if env == nil {
		env = os.Environ()
	}

	middlewares := r.Middlewares
	if middlewares == nil {
		middlewares = []ExecMiddleware{requireTool}
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.ExecHandlers(middlewares...),
		interp.StdIO(r.Stdin, r.Stdout, r.Stderr),
	)
	if err != nil {
		return 0, eris.Wrap(err, "failed to initialize runner")
	}

	for _, stmt := range file.Stmts {
		err = runner.Run(ctx, stmt)
		if status, ok := interp.IsExitStatus(err); ok {
			return int(status), nil
		}

		if err != nil {
			var notFound *toolNotFoundError
			if eris.As(err, &notFound) {
				return 0, eris.Wrapf(err, "failed to start %s", args[0])
			}

			return 0, eris.Wrapf(err, "failed to run %s", line)
		}
	}

	return 0, nil
}
