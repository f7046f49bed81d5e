package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Include    []string `mapstructure:"include"`
	Exclude    []string `mapstructure:"exclude"`
	Depth      int      `mapstructure:"depth"`
	Skip       []string `mapstructure:"skip"`
	Confirm    bool     `mapstructure:"confirm"`
	DryRun     bool     `mapstructure:"dry_run"`
	IgnoreFile string   `mapstructure:"ignore_file"`
	LogFile    string   `mapstructure:"log_file"`
	LogLevel   string   `mapstructure:"log_level"`
}

// configFlags maps config keys to the command-line flags that override them.
var configFlags = map[string]string{
	"include":     "include",
	"exclude":     "exclude",
	"depth":       "depth",
	"skip":        "skip",
	"dry_run":     "dry-run",
	"ignore_file": "ignore-file",
	"log_file":    "log-file",
	"log_level":   "log-level",
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("depth", 0)
	v.SetDefault("skip", []string{})
	v.SetDefault("confirm", true)
	v.SetDefault("dry_run", false)
	v.SetDefault("ignore_file", "")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("NMSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range configFlags {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	return v, nil
}

func resolveConfigPath(root, explicit string) (string, bool, error) {
	if explicit != "" {
		if !fileExists(explicit) {
			return "", false, fmt.Errorf("config file %s not found", explicit)
		}
		return explicit, true, nil
	}
	for _, candidate := range defaultConfigPaths(root) {
		if fileExists(candidate) {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// loadConfig merges defaults, env, the config file (if any) and flags, in
// increasing precedence.
func loadConfig(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return normalizeConfig(cfg)
}

func defaultConfigPaths(root string) []string {
	paths := []string{}
	if root != "" {
		paths = append(paths, filepath.Join(root, ".nmsweep.json"))
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "nmsweep", "config.json"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "nmsweep", "config.json"))
	}
	return paths
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func mergeSkipDirs(base map[string]struct{}, extra []string) map[string]struct{} {
	if len(extra) == 0 {
		return base
	}
	if base == nil {
		base = map[string]struct{}{}
	}
	for _, item := range extra {
		if item == "" {
			continue
		}
		base[item] = struct{}{}
	}
	return base
}

func normalizeConfig(cfg Config) (Config, error) {
	if cfg.Depth < 0 {
		return Config{}, errors.New("config: depth must be >= 0")
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Include = flattenList(cfg.Include)
	cfg.Exclude = flattenList(cfg.Exclude)
	cfg.Skip = flattenList(cfg.Skip)
	return cfg, nil
}

// flattenList accepts both proper lists and comma-joined values from env vars.
func flattenList(items []string) []string {
	out := []string{}
	for _, item := range items {
		out = append(out, parseTargetList(item)...)
	}
	return out
}
