package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config carries runtime options for reslogd.
type Config struct {
	Interval    time.Duration `yaml:"interval"`
	FlushRate   int           `yaml:"flush_rate"`
	BatteryPoll int           `yaml:"battery_poll"` // iterations; 0 means ten seconds' worth
	GapFactor   int           `yaml:"gap_factor"`
	LogFile     string        `yaml:"log_file"`
	Interface   string        `yaml:"interface"`
	Drive       string        `yaml:"drive"`
	Nice        int           `yaml:"nice"`
	Debug       bool          `yaml:"debug"`
	LogLevel    string        `yaml:"log_level"`
	Sources     Sources       `yaml:"sources"`
}

func Default() Config {
	return Config{
		Interval:    time.Second,
		FlushRate:   60,
		BatteryPoll: 0,
		GapFactor:   3,
		LogFile:     defaultLogFile(),
		Interface:   "",
		Drive:       "",
		Nice:        1,
		Debug:       false,
		LogLevel:    "info",
		Sources:     DefaultSources(),
	}
}

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".reslog.tsv"
	}
	return filepath.Join(home, ".reslog.tsv")
}

// BindFlags registers every option on fs, writing parsed values into cfg.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("config", "", "YAML config file (also RESLOG_CONFIG)")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "poll interval")
	fs.IntVar(&cfg.FlushRate, "flush-rate", cfg.FlushRate, "records between durable flushes")
	fs.IntVar(&cfg.BatteryPoll, "battery-poll", cfg.BatteryPoll, "iterations between battery reads (0: every 10s)")
	fs.IntVar(&cfg.GapFactor, "gap-factor", cfg.GapFactor, "mark the log when a tick gap exceeds this many intervals")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "TSV log path")
	fs.StringVar(&cfg.Interface, "interface", cfg.Interface, "network interface (default: busiest)")
	fs.StringVar(&cfg.Drive, "drive", cfg.Drive, "block device (default: busiest)")
	fs.IntVar(&cfg.Nice, "nice", cfg.Nice, "process niceness")
	fs.BoolVarP(&cfg.Debug, "debug", "d", cfg.Debug, "print each record to the console")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	fs.StringToString("source", nil, "override a counter source path, name=path (repeatable)")
}

// Load resolves the final configuration: defaults, then the config file,
// then flags the user set explicitly, then environment overrides.
func Load(fs *pflag.FlagSet, flagged Config) (Config, error) {
	cfg := Default()

	path, _ := fs.GetString("config")
	if v := os.Getenv("RESLOG_CONFIG"); v != "" && path == "" {
		path = v
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err == nil {
			err = applyFlag(fs, f.Name, flagged, &cfg)
		}
	})
	if err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.LogFile = expandHome(cfg.LogFile)
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func applyFlag(fs *pflag.FlagSet, name string, flagged Config, cfg *Config) error {
	switch name {
	case "interval":
		cfg.Interval = flagged.Interval
	case "flush-rate":
		cfg.FlushRate = flagged.FlushRate
	case "battery-poll":
		cfg.BatteryPoll = flagged.BatteryPoll
	case "gap-factor":
		cfg.GapFactor = flagged.GapFactor
	case "log-file":
		cfg.LogFile = flagged.LogFile
	case "interface":
		cfg.Interface = flagged.Interface
	case "drive":
		cfg.Drive = flagged.Drive
	case "nice":
		cfg.Nice = flagged.Nice
	case "debug":
		cfg.Debug = flagged.Debug
	case "log-level":
		cfg.LogLevel = flagged.LogLevel
	case "source":
		overrides, err := fs.GetStringToString("source")
		if err != nil {
			return err
		}
		for source, path := range overrides {
			if err := cfg.Sources.Set(source, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyEnv applies RESLOG_* overrides.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("RESLOG_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			cfg.Interval = parsed
		} else {
			return fmt.Errorf("RESLOG_INTERVAL: %w", err)
		}
	}
	if v := os.Getenv("RESLOG_FLUSH_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RESLOG_FLUSH_RATE: %w", err)
		}
		cfg.FlushRate = n
	}
	if v := os.Getenv("RESLOG_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("RESLOG_INTERFACE"); v != "" {
		cfg.Interface = v
	}
	if v := os.Getenv("RESLOG_DRIVE"); v != "" {
		cfg.Drive = v
	}
	if v := os.Getenv("RESLOG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RESLOG_DEBUG"); v == "1" {
		cfg.Debug = true
	}
	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate rejects settings the sampler cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %v", c.Interval))
	}
	if c.FlushRate < 1 {
		errs = append(errs, fmt.Errorf("flush rate must be at least 1, got %d", c.FlushRate))
	}
	if c.GapFactor < 1 {
		errs = append(errs, fmt.Errorf("gap factor must be at least 1, got %d", c.GapFactor))
	}
	if c.BatteryPoll < 0 {
		errs = append(errs, fmt.Errorf("battery poll must not be negative, got %d", c.BatteryPoll))
	}
	if c.LogFile == "" {
		errs = append(errs, errors.New("log file path is empty"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
