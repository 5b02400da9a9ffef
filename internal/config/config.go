// Package config loads the criteria CLI configuration from an optional
// criteria.yaml file, CRITERIA_* environment variables and command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration.
type Config struct {
	Root          string      `mapstructure:"root"            validate:"required"`
	Extensions    []string    `mapstructure:"extensions"      validate:"required,min=1,dive,required,excludesall=./"`
	Skip          []string    `mapstructure:"skip"`
	Color         string      `mapstructure:"color"           validate:"oneof=auto always never"`
	LogLevel      string      `mapstructure:"log_level"       validate:"oneof=debug info warn error"`
	ExitOnFailure bool        `mapstructure:"exit_on_failure"`
	Report        string      `mapstructure:"report"`
	Hooks         HooksConfig `mapstructure:"hooks"`
}

// HooksConfig holds the failure isolation of each hook kind.
type HooksConfig struct {
	BeforeAll  string `mapstructure:"before_all"  validate:"oneof=propagate isolate"`
	BeforeEach string `mapstructure:"before_each" validate:"oneof=propagate isolate"`
	AfterEach  string `mapstructure:"after_each"  validate:"oneof=propagate isolate"`
	AfterAll   string `mapstructure:"after_all"   validate:"oneof=propagate isolate"`
}

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

// Flags returns the flag set consumed by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("criteria", pflag.ContinueOnError)
	fs.String("config", "", "path to a criteria.yaml config file")
	fs.String("color", "auto", "styled output: auto, always or never")
	fs.Bool("no-color", false, "same as --color=never")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
	fs.String("report", "", "write a YAML results report to this file")
	fs.StringSlice("ext", nil, "test file extensions (default star,sky,starlark)")
	fs.Bool("exit-on-failure", true, "exit with status 1 when a test fails")
	fs.String("before-all", "propagate", "beforeAll hook failures: propagate or isolate")
	fs.String("before-each", "propagate", "beforeEach hook failures: propagate or isolate")
	fs.String("after-each", "propagate", "afterEach hook failures: propagate or isolate")
	fs.String("after-all", "propagate", "afterAll hook failures: propagate or isolate")
	return fs
}

var flagKeys = map[string]string{
	"color":           "color",
	"log-level":       "log_level",
	"report":          "report",
	"ext":             "extensions",
	"exit-on-failure": "exit_on_failure",
	"before-all":      "hooks.before_all",
	"before-each":     "hooks.before_each",
	"after-each":      "hooks.after_each",
	"after-all":       "hooks.after_all",
}

// Load builds the configuration. The first positional argument of fs, if
// any, overrides the root directory. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	vip := viper.New()

	vip.SetDefault("root", "tests")
	vip.SetDefault("extensions", []string{"star", "sky", "starlark"})
	vip.SetDefault("skip", []string{".git", "node_modules", "vendor"})
	vip.SetDefault("color", "auto")
	vip.SetDefault("log_level", "warn")
	vip.SetDefault("exit_on_failure", true)
	vip.SetDefault("hooks.before_all", "propagate")
	vip.SetDefault("hooks.before_each", "propagate")
	vip.SetDefault("hooks.after_each", "propagate")
	vip.SetDefault("hooks.after_all", "propagate")

	var path string
	if fs != nil {
		path, _ = fs.GetString("config")
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := vip.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("criteria")
		vip.AddConfigPath(".")
	}
	vip.SetConfigType("yaml")
	vip.SetEnvPrefix("criteria")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if fs != nil {
		if noColor, _ := fs.GetBool("no-color"); noColor {
			cfg.Color = "never"
		}
		if arg := fs.Arg(0); arg != "" {
			cfg.Root = arg
		}
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &cfg, nil
}
