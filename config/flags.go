package config

import (
	"github.com/spf13/pflag"
)

// CliConfig holds the parsed command line.
type CliConfig struct {
	ConfigFile string
	Debug      bool
	Version    bool

	flags *pflag.FlagSet
}

// ParseArgs parses the process arguments (without the program name).
// pflag.ErrHelp is returned untouched when -h/--help is given.
func ParseArgs(args []string) (*CliConfig, error) {
	cli := &CliConfig{
		flags: pflag.NewFlagSet("mdxserver", pflag.ContinueOnError),
	}
	fs := cli.flags
	fs.StringVar(&cli.ConfigFile, "config", "", "Path to the config file")
	fs.BoolVarP(&cli.Debug, "debug", "d", false, "Enable debug mode")
	fs.BoolVarP(&cli.Version, "version", "v", false, "Print version and exit")
	fs.Int("port", DefaultPort, "TCP port to listen on")
	fs.String("frontend-url", DefaultFrontendURL, "Origin allowed to call the API cross-origin")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cli, nil
}

// Flags exposes the flag set so it can be bound into the configuration.
func (c *CliConfig) Flags() *pflag.FlagSet {
	if c == nil {
		return nil
	}
	return c.flags
}
