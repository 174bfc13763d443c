package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yacobolo/stylec"
	"github.com/yacobolo/stylec/internal/config"
	"github.com/yacobolo/stylec/internal/report"
)

var k = koanf.New(".")

// loadConfig loads the CLI settings with precedence: flags > env > file > defaults.
// It must be called after cobra parses flags (in PreRunE or RunE).
func loadConfig(cmd *cobra.Command) error {
	root, _ := cmd.Flags().GetString("root")
	configPath, _ := cmd.Flags().GetString("config")

	// .env feeds the STYLEC_* variables below
	if err := loadDotEnv(root); err != nil {
		return err
	}
	if err := loadConfigFromPath(resolveConfigPath(root, configPath)); err != nil {
		return err
	}

	// CLI flags (highest precedence; unset flags only fill missing keys)
	if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
		return fmt.Errorf("loading command flags: %w", err)
	}
	return nil
}

func resolveConfigPath(root, configPath string) string {
	if configPath == "" {
		configPath = config.FileName
	}
	if filepath.IsAbs(configPath) {
		return configPath
	}
	return filepath.Join(root, configPath)
}

// loadDotEnv loads {root}/.env without overriding variables already set.
func loadDotEnv(root string) error {
	err := godotenv.Load(filepath.Join(root, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// loadConfigFromPath loads configuration from a file and environment variables.
// This is separated from loadConfig to allow testing without a cobra command.
func loadConfigFromPath(configPath string) error {
	// Config file (lowest precedence among providers)
	if _, err := os.Stat(configPath); err == nil {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	// Environment variables (STYLEC_* prefix)
	if err := k.Load(env.Provider(config.EnvPrefix, ".", func(s string) string {
		// STYLEC_OUTPUT_FORMAT -> output-format
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, config.EnvPrefix)),
			"_", "-",
		)
	}), nil); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}
	return nil
}

// getStringWithDefault returns the koanf value of key, or defaultVal when it
// is unset or empty.
func getStringWithDefault(key, defaultVal string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return defaultVal
}

// getBoolWithDefault returns the koanf value of key, or defaultVal when unset.
func getBoolWithDefault(key string, defaultVal bool) bool {
	if k.Exists(key) {
		return k.Bool(key)
	}
	return defaultVal
}

// newLogger builds the console logger from the loaded settings.
func newLogger() *zap.Logger {
	return report.NewLogger(report.LoggerOptions{
		Verbose: getBoolWithDefault("verbose", false),
		Quiet:   getBoolWithDefault("quiet", false),
		Color:   getBoolWithDefault("color", false),
	})
}

// newCompiler creates the compiler for the configured project.
func newCompiler(cmd *cobra.Command, log *zap.Logger) (*stylec.Compiler, error) {
	opts := []stylec.Option{
		stylec.WithLogger(log),
		stylec.WithFlags(cmd.Flags()),
	}
	if path := k.String("config"); path != "" {
		opts = append(opts, stylec.WithConfigPath(path))
	}
	c, err := stylec.New(getStringWithDefault("root", "."), opts...)
	if errors.Is(err, stylec.ErrConfigNotFound) {
		return nil, fmt.Errorf("%w (run `stylec init` to create one)", err)
	}
	return c, err
}
