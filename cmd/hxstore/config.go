package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the serve configuration. Values come from the YAML file named
// by --config, then from flags set on the command line.
type Config struct {
	Addr     string `yaml:"addr"`
	Key      string `yaml:"key"`
	LogLevel string `yaml:"log_level"`
	Metrics  bool   `yaml:"metrics"`
}

func defaultConfig() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
		Metrics:  true,
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with the flags the user set explicitly.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("key") {
		cfg.Key, _ = flags.GetString("key")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("metrics") {
		cfg.Metrics, _ = flags.GetBool("metrics")
	}
}
