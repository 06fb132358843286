package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "ROOMCHAT"
	envConfigDefaultPath = "ROOMCHAT_CONFIG_DEFAULT_PATH"

	clientConfigName = "roomchat.yaml"
	relayConfigName  = "relay.yaml"
)

// LoadClient builds client configuration from defaults, optional config file and env vars,
// and returns the resolved path.
// Precedence: defaults < config file < env vars (ROOMCHAT_*) < caller overrides.
func LoadClient(logger *zerolog.Logger, explicitPath string) (Client, string, error) {
	cfg := DefaultClient()
	defaults := map[string]any{
		"server_url":        cfg.ServerURL,
		"log_level":         cfg.LogLevel,
		"identity_path":     cfg.IdentityPath,
		"reconnect_delay":   cfg.ReconnectDelay,
		"typing_timeout":    cfg.TypingTimeout,
		"typing_coalesce":   cfg.TypingCoalesce,
		"outbound_buffer":   cfg.OutboundBuffer,
		"max_message_bytes": cfg.MaxMessageBytes,
	}
	path, err := load(logger, explicitPath, clientConfigName, envPrefix, defaults, cfg, &cfg)
	return cfg, path, err
}

// LoadRelay is LoadClient for the relay server. Env vars use the ROOMCHAT_RELAY_ prefix.
func LoadRelay(logger *zerolog.Logger, explicitPath string) (Relay, string, error) {
	cfg := DefaultRelay()
	defaults := map[string]any{
		"addr":                cfg.Addr,
		"log_level":           cfg.LogLevel,
		"read_header_timeout": cfg.ReadHeaderTimeout,
		"shutdown_timeout":    cfg.ShutdownTimeout,
		"max_message_bytes":   cfg.MaxMessageBytes,
		"rate_limit":          cfg.RateLimit,
	}
	path, err := load(logger, explicitPath, relayConfigName, envPrefix+"_RELAY", defaults, cfg, &cfg)
	return cfg, path, err
}

func load(logger *zerolog.Logger, explicitPath, name, prefix string, defaults map[string]any, seed, out any) (string, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := resolveConfigPath(explicitPath, name)
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, seed); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(out); err != nil {
		return configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return configPath, nil
}

func resolveConfigPath(explicitPath, name string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, name)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return name
	}
	return filepath.Join(cwd, name)
}

func writeDefaultConfig(path string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
