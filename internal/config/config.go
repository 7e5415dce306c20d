// ABOUTME: Layered configuration for the player
// ABOUTME: Defaults, TOML file, .env file, CHUNKSTREAM_* environment and CLI flags via viper
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys
const (
	KeyBufferCapacity = "buffer.capacity"
	KeyOutputBackend  = "output.backend"
	KeyOutputPath     = "output.path"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyLogFile        = "log.file"
	KeyUIEnabled      = "ui.enabled"
	KeyControlAddr    = "control.addr"
	KeyControlMDNS    = "control.mdns"
	KeyControlName    = "control.name"
)

// EnvPrefix is prepended to every environment variable, e.g.
// CHUNKSTREAM_OUTPUT_BACKEND=malgo
const EnvPrefix = "CHUNKSTREAM"

// Config wraps a viper instance with typed getters
type Config struct {
	v *viper.Viper
}

// New creates a configuration holding only defaults and environment
func New() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetConfigType("toml")
	v.SetConfigName("config")
	v.AddConfigPath("/etc/chunkstream")
	v.AddConfigPath("$HOME/.config/chunkstream")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBufferCapacity, 10)
	v.SetDefault(KeyOutputBackend, "oto")
	v.SetDefault(KeyOutputPath, "chunkstream.wav")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "chunkstream.log")
	v.SetDefault(KeyUIEnabled, true)
	v.SetDefault(KeyControlAddr, "")
	v.SetDefault(KeyControlMDNS, false)
	v.SetDefault(KeyControlName, "")

	return &Config{v: v}
}

// Read loads .env from the working directory, then the TOML config at path.
// An empty path searches the default locations and a missing file there is
// not an error.
func (c *Config) Read(path string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		c.v.SetConfigFile(path)
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// BindFlags lets command line flags override file and environment values.
// Flags are matched by name: "buffer" → buffer.capacity, "output" →
// output.backend, and so on.
func (c *Config) BindFlags(flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"buffer":    KeyBufferCapacity,
		"output":    KeyOutputBackend,
		"out-file":  KeyOutputPath,
		"log-level": KeyLogLevel,
		"log-file":  KeyLogFile,
		"listen":    KeyControlAddr,
		"mdns":      KeyControlMDNS,
		"name":      KeyControlName,
	}

	for name, key := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := c.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	// --no-ui is the inverse of ui.enabled
	if flag := flags.Lookup("no-ui"); flag != nil && flag.Changed {
		c.v.Set(KeyUIEnabled, flag.Value.String() != "true")
	}
	return nil
}

// ConfigFileUsed returns the path of the file that was read, if any
func (c *Config) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

func (c *Config) BufferCapacity() int   { return c.v.GetInt(KeyBufferCapacity) }
func (c *Config) OutputBackend() string { return c.v.GetString(KeyOutputBackend) }
func (c *Config) OutputPath() string    { return c.v.GetString(KeyOutputPath) }
func (c *Config) LogLevel() string      { return c.v.GetString(KeyLogLevel) }
func (c *Config) LogFormat() string     { return c.v.GetString(KeyLogFormat) }
func (c *Config) LogFile() string       { return c.v.GetString(KeyLogFile) }
func (c *Config) UIEnabled() bool       { return c.v.GetBool(KeyUIEnabled) }
func (c *Config) ControlAddr() string   { return c.v.GetString(KeyControlAddr) }
func (c *Config) ControlMDNS() bool     { return c.v.GetBool(KeyControlMDNS) }
func (c *Config) ControlName() string   { return c.v.GetString(KeyControlName) }
