package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joyxu/frameretrace/build-tools/pkg"
	"github.com/joyxu/frameretrace/build-tools/pkg/buildsys"
)

// newRunner is replaced in tests.
var newRunner = func() buildsys.Runner {
	return buildsys.NewShellRunner()
}

var rootCmd = &cobra.Command{
	Use:   "build-apitrace [subproject]",
	Short: "Configures and builds the vendored apitrace checkout",
	Long: `Creates the build directory inside the vendored subproject (apitrace by default) and runs
the CMake configure and build steps in it. Without arguments the following is run inside ./apitrace:

  cmake -S . -GNinja -DCMAKE_BUILD_TYPE=Debug -DENABLE_WAFFLE=on -B build
  cmake --build build

The exit status of both commands is ignored unless --strict is passed.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		strict, err := cmd.Flags().GetBool("strict")
		if err != nil {
			return err
		}

		jobs, err := cmd.Flags().GetInt("jobs")
		if err != nil {
			return err
		}

		ctx, err := commandContext(cmd)
		if err != nil {
			return err
		}

		base, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		name := buildsys.DefaultSubproject
		if len(args) > 0 {
			name = args[0]
		}

		sp, err := cfg.Lookup(name)
		if err != nil {
			return err
		}

		if jobs > 0 {
			override := *sp
			override.Jobs = jobs
			sp = &override
		}

		opts := buildsys.Options{
			BaseDir:    base,
			Subproject: sp,
			DryRun:     dryRun,
			Strict:     strict,
		}
		if !dryRun {
			opts.Runner = newRunner()
		}

		_, err = buildsys.Invoke(ctx, opts)
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the known subprojects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		pkg.PrintTask("Available subprojects:")
		for _, name := range cfg.Names() {
			sp := cfg.Subprojects[name]
			line := name + " (" + sp.Source + ")"
			if sp.Desc != "" {
				line += ": " + sp.Desc
			}

			pkg.PrintSubtask(line)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("base", "C", "", "directory containing the subprojects (defaults to the helper's directory)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "subproject profile file (defaults to "+buildsys.ConfigFile+" in the base directory)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print debug messages")
	rootCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	rootCmd.Flags().Bool("strict", false, "fail if cmake exits with a non-zero status")
	rootCmd.Flags().IntP("jobs", "j", 0, "number of parallel build jobs passed to cmake --build")

	rootCmd.AddCommand(listCmd)
}

func newLogger(out io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(NewConsoleWriter(out)).Level(level)
}

func commandContext(cmd *cobra.Command) (context.Context, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), verbose)
	return buildsys.WithLogger(cmd.Context(), &logger), nil
}

func loadConfig(cmd *cobra.Command) (string, *buildsys.Config, error) {
	base, err := cmd.Flags().GetString("base")
	if err != nil {
		return "", nil, err
	}

	if base == "" {
		base, err = pkg.GetScriptDir()
		if err != nil {
			return "", nil, err
		}
	}

	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", nil, err
	}

	required := cfgPath != ""
	if !required {
		cfgPath = filepath.Join(base, buildsys.ConfigFile)
	}

	cfg, err := buildsys.LoadConfig(cfgPath, required)
	if err != nil {
		return "", nil, err
	}

	return base, cfg, nil
}

// Execute runs the root command and exits with a non-zero status if it fails.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		logger := newLogger(os.Stderr, false)
		logger.Fatal().Err(err).Msg("Failed to prepare subproject")
	}
}
