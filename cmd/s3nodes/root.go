package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"

	"github.com/jobstoit/s3nodes/nodes"
	"github.com/jobstoit/s3nodes/profile"
)

const envPrefix = "S3NODES"

type cliOptions struct {
	configPath string
	logLevel   string
	profile    string
	jsonOutput bool
	logger     *zap.Logger
	registry   *nodes.Registry
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		configPath: profile.DefaultPath(),
		logLevel:   "warn",
		logger:     zap.NewNop(),
	}

	v := viper.New()

	root := &cobra.Command{
		Use:           "s3nodes",
		Short:         "Save, load and list images on S3-compatible storage",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyRootFlagBindings(v, cmd.Flags(), &opts); err != nil {
				return err
			}

			logger, err := newLogger(opts.logLevel)
			if err != nil {
				return err
			}
			opts.logger = logger

			slogger := slog.New(zapslog.NewHandler(logger.Core()))
			store := profile.NewStore(opts.configPath, profile.WithStoreLogger(slogger))
			opts.registry = nodes.NewRegistry(store, nodes.WithLogger(slogger))

			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to the profile config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "", "config profile (defaults to default_profile)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")

	root.AddCommand(
		newConfigInfoCmd(&opts),
		newListCmd(&opts),
		newSaveCmd(&opts),
		newLoadCmd(&opts),
		newNodesCmd(&opts),
	)

	return root
}

// applyRootFlagBindings resolves the global flags, letting S3NODES_* environment
// variables fill in any flag not given on the command line.
func applyRootFlagBindings(v *viper.Viper, flags *pflag.FlagSet, opts *cliOptions) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"config", "log-level", "profile", "json"} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(name, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	opts.configPath = v.GetString("config")
	opts.logLevel = v.GetString("log-level")
	opts.profile = v.GetString("profile")
	opts.jsonOutput = v.GetBool("json")

	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}
