package config

import (
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mdxserver/mdx"
)

const (
	DefaultPort        = 3001
	DefaultFrontendURL = "http://localhost:3000"

	// MinBodyLimit is the smallest accepted request body limit. Long MDX
	// documents must always fit.
	MinBodyLimit int64 = 10 << 20
)

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"port":         "port",
	"frontend-url": "frontend_url",
}

// LoadConfig builds the configuration from defaults, the optional YAML config
// file, environment variables and changed command line flags, in increasing
// order of precedence.
func LoadConfig(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var configuration Config
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	configuration.FrontendURL = strings.TrimRight(strings.TrimSpace(configuration.FrontendURL), "/")
	for i, name := range configuration.Compiler.Extensions {
		configuration.Compiler.Extensions[i] = strings.ToLower(strings.TrimSpace(name))
	}

	if err := configuration.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &configuration, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("listen_host", "0.0.0.0")
	v.SetDefault("frontend_url", DefaultFrontendURL)
	v.SetDefault("body_limit", MinBodyLimit)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("compiler.timeout", 30*time.Second)
	v.SetDefault("compiler.queue_timeout", 75*time.Second)
	v.SetDefault("compiler.max_concurrent", runtime.NumCPU())
	v.SetDefault("compiler.resolve_dir", "")
	v.SetDefault("compiler.minify", false)
	v.SetDefault("compiler.sanitize_errors", false)
	v.SetDefault("compiler.extensions", []string{})
	v.SetDefault("compiler.globals", map[string]string{
		"react":             "React",
		"react-dom":         "ReactDOM",
		"react/jsx-runtime": "_jsx_runtime",
	})

	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// ListenAddress is the host:port the HTTP server binds to.
func (c Config) ListenAddress() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.Port))
}

// AllowedOrigins lists the origins permitted to call the API cross-origin.
func (c Config) AllowedOrigins() []string {
	return []string{c.FrontendURL}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.FrontendURL, validation.Required, is.URL),
		validation.Field(&c.BodyLimit, validation.Min(MinBodyLimit)),
		validation.Field(&c.Log),
		validation.Field(&c.Compiler),
		validation.Field(&c.Server),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal", "panic")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

func (c CompilerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.QueueTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.MaxConcurrent, validation.Required, validation.Min(1)),
		validation.Field(&c.Extensions, validation.Each(validation.In(knownExtensions()...))),
	)
}

func knownExtensions() []interface{} {
	names := mdx.ExtensionNames()
	out := make([]interface{}, len(names))
	for i, name := range names {
		out[i] = name
	}
	return out
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ReadHeaderTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.WriteTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.IdleTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.ShutdownTimeout, validation.Required),
	)
}
