// Package config loads and validates the application configuration from
// environment variables and an optional config file.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine"   validate:"required"`
}

// ServerConfig contains the HTTP surface settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the SQLite storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// EngineConfig contains the recurrence engine knobs: batch sizing for the
// generation queue, the complexity caps, the scheduler's sweep cadence and
// look-ahead window, and the global generation horizon.
type EngineConfig struct {
	BatchSize            int `mapstructure:"batch_size"             validate:"required,gt=0"`
	DefaultCap           int `mapstructure:"default_cap"            validate:"required,gt=0"`
	ComplexityThreshold  int `mapstructure:"complexity_threshold"   validate:"required,gt=0"`
	ReducedCap           int `mapstructure:"reduced_cap"            validate:"required,gt=0"`
	LookAheadDays        int `mapstructure:"look_ahead_days"        validate:"required,gt=0"`
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" validate:"required,gt=0"`
	HorizonYears         int `mapstructure:"horizon_years"          validate:"required,gt=0"`
}
