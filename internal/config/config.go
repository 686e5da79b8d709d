package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Link      LinkConfig      `yaml:"link"`
	Trace     TraceConfig     `yaml:"trace"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Emulator  EmulatorConfig  `yaml:"emulator"`
	Log       LogConfig       `yaml:"log"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type LinkConfig struct {
	// MaxEmptyReads is the number of consecutive empty reads after which a
	// frame read gives up.
	MaxEmptyReads int `yaml:"max_empty_reads"`
}

type TraceConfig struct {
	Enable bool `yaml:"enable"`
	// Path may contain strftime conversions, e.g. "zander-%Y%m%d-%H%M%S.trace".
	Path string `yaml:"path"`
	// Replay, when set, answers requests from a recorded trace instead of
	// opening the serial device.
	Replay string `yaml:"replay"`
}

type IndicatorConfig struct {
	Enable bool `yaml:"enable"`
	// GPIO is BCM numbering.
	GPIO int `yaml:"gpio"`
}

type EmulatorConfig struct {
	DataDir     string `yaml:"data_dir"`
	VirtualLink string `yaml:"virtual_link"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var supportedBauds = map[int]bool{9600: true, 19200: true, 38400: true, 57600: true, 115200: true}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Serial.Device == "" {
		cfg.Serial.Device = "/dev/ttyS0"
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 9600
	}
	if cfg.Link.MaxEmptyReads == 0 {
		cfg.Link.MaxEmptyReads = 5
	}
	if cfg.Emulator.DataDir == "" {
		cfg.Emulator.DataDir = "./fakezander"
	}
	if cfg.Emulator.VirtualLink == "" {
		cfg.Emulator.VirtualLink = "/tmp/fakezander"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks values after defaults and command line overrides.
func (cfg Config) Validate() error {
	if !supportedBauds[cfg.Serial.Baud] {
		return fmt.Errorf("serial.baud %d is not supported", cfg.Serial.Baud)
	}
	if cfg.Link.MaxEmptyReads <= 0 {
		return fmt.Errorf("link.max_empty_reads must be > 0")
	}
	if cfg.Trace.Enable && cfg.Trace.Path == "" {
		return fmt.Errorf("trace.path is required when trace.enable is true")
	}
	if cfg.Trace.Enable && cfg.Trace.Replay != "" {
		return fmt.Errorf("trace.enable and trace.replay cannot both be set")
	}
	if cfg.Indicator.Enable && cfg.Indicator.GPIO <= 0 {
		return fmt.Errorf("indicator.gpio must be > 0 when indicator.enable is true")
	}
	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}
