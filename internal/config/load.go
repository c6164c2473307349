package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml in the working
// directory and from RECUR_-prefixed environment variables. Environment
// variables take precedence. Returns a populated Config or an error if
// loading or validation fails.
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile behaves like Load but reads the given config file instead of
// searching the working directory. An empty path falls back to the default
// search.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the defaults and environment
		// carry the configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("RECUR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind the nested keys so AutomaticEnv picks them up even
	// when no config file mentions them.
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"server.port", "RECUR_SERVER_PORT"},
		{"server.log_level", "RECUR_SERVER_LOG_LEVEL"},
		{"database.path", "RECUR_DATABASE_PATH"},
		{"engine.batch_size", "RECUR_ENGINE_BATCH_SIZE"},
		{"engine.default_cap", "RECUR_ENGINE_DEFAULT_CAP"},
		{"engine.complexity_threshold", "RECUR_ENGINE_COMPLEXITY_THRESHOLD"},
		{"engine.reduced_cap", "RECUR_ENGINE_REDUCED_CAP"},
		{"engine.look_ahead_days", "RECUR_ENGINE_LOOK_AHEAD_DAYS"},
		{"engine.sweep_interval_minutes", "RECUR_ENGINE_SWEEP_INTERVAL_MINUTES"},
		{"engine.horizon_years", "RECUR_ENGINE_HORIZON_YEARS"},
	}
	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.path", "recur.db")
	v.SetDefault("engine.batch_size", 8)
	v.SetDefault("engine.default_cap", 50)
	v.SetDefault("engine.complexity_threshold", 7)
	v.SetDefault("engine.reduced_cap", 22)
	v.SetDefault("engine.look_ahead_days", 30)
	v.SetDefault("engine.sweep_interval_minutes", 15)
	v.SetDefault("engine.horizon_years", 5)
}
