package config

import "time"

// Config holds the application configuration.
type Config struct {
	Port        int            `mapstructure:"port"`
	ListenHost  string         `mapstructure:"listen_host"`
	FrontendURL string         `mapstructure:"frontend_url"`
	BodyLimit   int64          `mapstructure:"body_limit"`
	Log         LogConfig      `mapstructure:"log"`
	Compiler    CompilerConfig `mapstructure:"compiler"`
	Server      ServerConfig   `mapstructure:"server"`
}

// LogConfig controls the shared logrus logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CompilerConfig is handed to the MDX compiler and the concurrency manager.
type CompilerConfig struct {
	Timeout        time.Duration     `mapstructure:"timeout"`
	QueueTimeout   time.Duration     `mapstructure:"queue_timeout"`
	MaxConcurrent  int               `mapstructure:"max_concurrent"`
	ResolveDir     string            `mapstructure:"resolve_dir"`
	Minify         bool              `mapstructure:"minify"`
	SanitizeErrors bool              `mapstructure:"sanitize_errors"`
	Extensions     []string          `mapstructure:"extensions"`
	Globals        map[string]string `mapstructure:"globals"`
}

// ServerConfig holds the http.Server timeouts.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}
