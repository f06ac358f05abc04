package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// viperOptions holds internal configuration options for the Viper module.
type viperOptions struct {
	noConfigFile bool
}

// ViperOption is a functional option for configuring the Viper module.
type ViperOption func(*viperOptions)

// WithoutConfigFile disables loading of any config file.
// Viper will still be available for DI but with no file-based configuration.
func WithoutConfigFile() ViperOption {
	return func(cfg *viperOptions) {
		cfg.noConfigFile = true
	}
}

// NewViperModule creates an fx module for Viper configuration.
// The config file path comes from AppConfig; environment variables override
// file values (dots and dashes in keys map to underscores).
func NewViperModule(opts ...ViperOption) fx.Option {
	cfg := &viperOptions{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.noConfigFile {
		return fx.Module("viper",
			fx.Provide(func() *viper.Viper {
				v := viper.New()
				v.AutomaticEnv()
				v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
				return v
			}),
		)
	}

	return fx.Module("viper",
		fx.Provide(NewViper),
		fx.Invoke(func(logger *zap.Logger, v *viper.Viper) {
			logger.Info("Configuration loaded successfully",
				zap.String("configFile", v.ConfigFileUsed()),
				zap.Int("settingsCount", len(v.AllSettings())),
			)
		}),
	)
}

// NewViper creates a Viper instance backed by the config file named in AppConfig.
func NewViper(conf AppConfig) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if _, err := os.Stat(conf.ConfigFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file [%s] does not exist: %w", conf.ConfigFile, err)
	}

	v.SetConfigFile(conf.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", conf.ConfigFile, err)
	}

	return v, nil
}
