package buildsys

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Options controls a single Invoke call.
type Options struct {
	// BaseDir is the directory the subproject's source path is relative to.
	BaseDir    string
	Subproject *Subproject
	Runner     Runner
	// DryRun logs the commands without creating the build directory or running anything.
	DryRun bool
	// Strict makes a non-zero exit status of either step fatal.
	Strict bool
}

// Invoke prepares the build directory of the configured subproject and runs its configure and
// build steps. Filesystem errors and tools that can't be started are returned; exit codes of the
// steps are recorded in the result and only returned as *ExitError in strict mode.
func Invoke(ctx context.Context, opts Options) (*Result, error) {
	sp := opts.Subproject
	if sp == nil {
		return nil, eris.New("no subproject given")
	}

	if opts.Runner == nil && !opts.DryRun {
		return nil, eris.New("no runner given")
	}

	logger := log(ctx).With().Str("subproject", sp.Name).Logger()

	result := &Result{
		WorkDir: filepath.Join(opts.BaseDir, sp.Source),
	}
	result.BuildDir = filepath.Join(result.WorkDir, sp.BuildDir)

	err := checkWorkDir(result.WorkDir)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("path", result.WorkDir).Msgf("using source directory %s", result.WorkDir)

	if opts.DryRun {
		if _, err := os.Stat(result.BuildDir); err != nil {
			logger.Info().Bool("command", true).Msgf("mkdir %s", sp.BuildDir)
		}
	} else {
		result.CreatedBuildDir, err = ensureDir(result.BuildDir)
		if err != nil {
			return nil, err
		}

		if result.CreatedBuildDir {
			logger.Debug().Str("path", result.BuildDir).Msgf("created %s", result.BuildDir)
		}
	}

	for _, step := range sp.Steps() {
		if err = ctx.Err(); err != nil {
			return result, err
		}

		line, err := FormatCommand(step.Args)
		if err != nil {
			return result, err
		}

		logger.Info().Bool("command", true).Str("step", string(step.Name)).Msg(line)

		if opts.DryRun {
			result.Steps = append(result.Steps, StepResult{Step: step, Skipped: true})
			continue
		}

		code, err := opts.Runner.Run(ctx, result.WorkDir, step.Args)
		if err != nil {
			return result, eris.Wrapf(err, "%s step failed", step.Name)
		}

		result.Steps = append(result.Steps, StepResult{Step: step, ExitCode: code})
		if code != 0 {
			if opts.Strict {
				return result, &ExitError{Step: step.Name, ExitCode: code}
			}

			logger.Debug().Str("step", string(step.Name)).Int("status", code).Msg("ignoring non-zero exit status")
		}
	}

	return result, nil
}
