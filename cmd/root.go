package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-nota/logging"
	"github.com/RyanBlaney/sonido-nota/transcription/config"
)

var (
	configPath string
	presetName string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "sonido-nota",
	Short: "Monophonic audio to note transcription",
	Long: `sonido-nota tracks the pitch of a monophonic recording, cuts it into
notes and names them. Results are printed as JSON or written as MIDI, either
from the command line or over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// stdout is reserved for results
		logger := logging.NewWriterLogger(cmd.ErrOrStderr(), cmd.ErrOrStderr())
		logging.SetGlobalLogger(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file (overrides --preset)")
	rootCmd.PersistentFlags().StringVarP(&presetName, "preset", "p", string(config.PresetNeural), "parameter preset: classical or neural")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from config)")
}

// Execute runs the root command until it finishes or the process is
// interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

// loadConfig resolves the configuration from flags and applies its log level
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.ForPreset(config.Preset(presetName))
	}
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.SetLevel(logging.ParseLevel(level))

	return cfg, nil
}
