package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/stefanpenner/weekplan/pkg/plan"
	"github.com/stefanpenner/weekplan/pkg/store"
)

// SyncConfig describes the external command that produces fixed events.
type SyncConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// LogConfig selects where and how much to log.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Config holds all runtime configuration.
// Values are populated from .weekplan.yaml, WEEKPLAN_* env vars, and CLI flags.
type Config struct {
	DataDir    string     `mapstructure:"data_dir"`
	Week       string     `mapstructure:"week"`
	Roles      []string   `mapstructure:"roles"`
	BlockColor string     `mapstructure:"block_color"`
	Sync       SyncConfig `mapstructure:"sync"`
	Log        LogConfig  `mapstructure:"log"`
}

// DefaultRoles seed new week documents when none are configured.
var DefaultRoles = []string{"Work", "Personal"}

// Init points viper at the config file and environment. An explicit file
// must exist; otherwise a missing .weekplan.yaml is fine.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".weekplan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("WEEKPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("data_dir", store.DefaultDataDir())
	viper.SetDefault("week", "")
	viper.SetDefault("roles", DefaultRoles)
	viper.SetDefault("block_color", plan.DefaultBlockColor)
	viper.SetDefault("sync.command", "")
	viper.SetDefault("sync.args", []string{})
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.file", "")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	dataDir, err := homedir.Expand(cfg.DataDir)
	if err != nil {
		return Config{}, fmt.Errorf("expanding data_dir: %w", err)
	}
	cfg.DataDir = dataDir

	if cfg.Week == "" {
		cfg.Week = plan.WeekLabel(time.Now())
	}
	if _, ok := plan.WeekStart(cfg.Week); !ok {
		return Config{}, &plan.ValidationError{Field: "week", Err: fmt.Errorf("invalid week label %q (want YYYY-Www)", cfg.Week)}
	}

	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "weekplan.log")
	}
	logFile, err := homedir.Expand(cfg.Log.File)
	if err != nil {
		return Config{}, fmt.Errorf("expanding log.file: %w", err)
	}
	cfg.Log.File = logFile

	return cfg, nil
}
