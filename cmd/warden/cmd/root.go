// Package cmd implements warden's command-line surface: app lifecycle,
// migration authoring, status reporting and driver introspection, built
// on cobra the way atlas's cmdapi package builds its command tree.
package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dnsl48/warden/cmd/warden/internal/cliState"
	"github.com/dnsl48/warden/config"
)

// Root represents warden's command when called without any subcommands.
var Root = &cobra.Command{
	Use:           "warden",
	Short:         "Control your database migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// GlobalFlags contains flags common to every warden subcommand.
var GlobalFlags struct {
	Dotenv     bool
	ConfigPath string
	Verbosity  int
}

// Log is the process-wide structured logger, its level derived from
// -v/--verbosity in PersistentPreRunE.
var Log *zap.Logger = zap.NewNop()

func init() {
	Root.PersistentFlags().BoolVar(&GlobalFlags.Dotenv, "dotenv", false, "find and load a dotenv file")
	Root.PersistentFlags().StringVar(&GlobalFlags.ConfigPath, "config", "", "path to the configuration file")
	Root.PersistentFlags().CountVarP(&GlobalFlags.Verbosity, "verbosity", "v", "verbosity: -v warnings, -vv info, -vvv (or more) debug")

	Root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		Log = newLogger(GlobalFlags.Verbosity)

		if GlobalFlags.Dotenv {
			if err := godotenv.Load(); err != nil {
				Log.Debug("no dotenv file found", zap.Error(err))
			} else {
				Log.Info("loaded dotenv file")
			}
		}

		switch {
		case GlobalFlags.ConfigPath != "":
			Log.Info("config", zap.String("path", GlobalFlags.ConfigPath))
		case os.Getenv(config.EnvOverrideVar) != "":
			Log.Info("config", zap.String("env", config.EnvOverrideVar))
		default:
			Log.Debug("no config explicitly defined")
		}

		return nil
	}

	Root.AddCommand(appCmd)
	Root.AddCommand(migrationCmd)
	Root.AddCommand(halpCmd)
	Root.AddCommand(statusCmd)
}

// Execute runs the root command against os.Args.
func Execute() error {
	err := Root.Execute()
	if err != nil {
		Log.Error(err.Error())
	}
	return err
}

// levelForVerbosity maps -v occurrence counts to a zap level the way
// get_log_level_filter maps structopt occurrence counts to a log::LevelFilter:
// 0 => Error, 1 => Warn, 2 => Info, 3 => Debug, >=4 => Debug (zap has no Trace).
func levelForVerbosity(v int) zapcore.Level {
	switch v {
	case 0:
		return zapcore.ErrorLevel
	case 1:
		return zapcore.WarnLevel
	case 2:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

func newLogger(verbosity int) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelForVerbosity(verbosity))
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadConfig resolves and opens the configuration file for the currently
// running command, remembering its location in cliState for next time.
func loadConfig() (config.Config, error) {
	path := GlobalFlags.ConfigPath
	if path == "" && os.Getenv(config.EnvOverrideVar) == "" {
		path = cliState.RecalledConfig()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	cliState.RememberConfig(cfg.ConfigFile)
	return cfg, nil
}
