package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat/internal/app"
	"github.com/vovakirdan/roomchat/internal/config"
	"github.com/vovakirdan/roomchat/internal/log"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Relay
	)

	cmd := &cobra.Command{
		Use:           "roomchat-relay",
		Short:         "Reference relay for roomchat sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.New("info")
			cfg, path, err := config.LoadRelay(bootLogger, configPath)
			if err != nil {
				bootLogger.Error().Err(err).Str("path", path).Msg("load config")
				return err
			}
			cfg = applyOverrides(cfg, overrides, cmd.Flags().Changed)

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.NewRelay(cfg, logger).Run(ctx); err != nil {
				logger.Error().Err(err).Msg("relay exited with error")
				return err
			}
			logger.Info().Msg("relay stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to relay.yaml")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.IntVar(&overrides.RateLimit, "rate-limit", 0, "frames per minute per connection, 0 disables")

	return cmd
}

// applyOverrides layers flag values over cfg. Flags whose zero value is
// meaningful are applied whenever they were set explicitly.
func applyOverrides(cfg, overrides config.Relay, changed func(name string) bool) config.Relay {
	cfg.UpdateFrom(overrides)
	if changed("rate-limit") {
		cfg.RateLimit = overrides.RateLimit
	}
	return cfg
}
