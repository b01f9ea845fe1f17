package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Electrical defaults used when a value column is in amps or kVA.
	VoltageV    float64 `mapstructure:"voltage_v" yaml:"voltage_v"`
	PowerFactor float64 `mapstructure:"power_factor" yaml:"power_factor"`
	// ValueUnit is the declared unit or "auto".
	ValueUnit string `mapstructure:"value_unit" yaml:"value_unit"`
	// DateOrder is DMY, MDY, YMD or "auto" to follow what detection suggests.
	DateOrder string `mapstructure:"date_order" yaml:"date_order"`
	MaxPeakKW float64 `mapstructure:"max_peak_kw" yaml:"max_peak_kw"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`

	// Batch and HTTP
	BatchWorkers int      `mapstructure:"batch_workers" yaml:"batch_workers"`
	ServeAddr    string   `mapstructure:"serve_addr" yaml:"serve_addr"`
	CORSOrigins  []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Dir returns ~/.loadprofile.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".loadprofile"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.loadprofile/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("voltage_v", 400.0)
	v.SetDefault("power_factor", 0.9)
	v.SetDefault("value_unit", "auto")
	v.SetDefault("date_order", "auto")
	v.SetDefault("max_peak_kw", 100000.0)
	v.SetDefault("output_format", "markdown")
	v.SetDefault("log_format", "text")
	v.SetDefault("batch_workers", 4)
	v.SetDefault("serve_addr", ":8080")
	v.SetDefault("cors_origins", []string{"*"})
}

// Defaults returns the built-in configuration, ignoring files and env.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. CLI flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("LOADPROFILE")
	v.AutomaticEnv()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// the default file is optional; an explicit one is not
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.BatchWorkers < 1 {
		c.BatchWorkers = 1
	}
	return &c, nil
}
