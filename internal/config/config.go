// Package config loads runtime settings from a YAML file, a .env file and
// BREATH_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "BREATH_"

// AppDir is the directory name under the user config dir
const AppDir = "synheart-breath"

type SensorConfig struct {
	Kind            string `yaml:"kind"` // simulated, bmp280 or serial
	I2CBus          string `yaml:"i2c_bus"`
	SerialPort      string `yaml:"serial_port"`
	Baud            uint   `yaml:"baud"`
	BaselineSamples int    `yaml:"baseline_samples"`
	Filter          string `yaml:"filter"` // path to a .wasm sample filter
}

type CalibrationConfig struct {
	Store string `yaml:"store"` // memory, file or sqlite
	Path  string `yaml:"path"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Format string `yaml:"format"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type FramesConfig struct {
	Dir   string `yaml:"dir"`
	Every int    `yaml:"every"`
	Scale int    `yaml:"scale"`
}

// Config is the full runtime configuration
type Config struct {
	Sensor      SensorConfig      `yaml:"sensor"`
	Scene       string            `yaml:"scene"`
	Scenario    string            `yaml:"scenario"`
	Seed        int64             `yaml:"seed"`
	Rate        string            `yaml:"rate"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Server      ServerConfig      `yaml:"server"`
	MQTT        MQTTConfig        `yaml:"mqtt"`
	NATS        NATSConfig        `yaml:"nats"`
	Frames      FramesConfig      `yaml:"frames"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Sensor: SensorConfig{
			Kind:            "simulated",
			Baud:            115200,
			BaselineSamples: 50,
		},
		Scene:    "wave",
		Scenario: "calm",
		Seed:     1,
		Rate:     "50hz",
		Calibration: CalibrationConfig{
			Store: "sqlite",
			Path:  filepath.Join(DataDir(), "breath.db"),
		},
		Server: ServerConfig{
			Host:   "127.0.0.1",
			Port:   8787,
			Format: "json",
		},
		MQTT: MQTTConfig{
			Topic:    "breath",
			ClientID: "synheart-breath",
		},
		NATS: NATSConfig{
			Subject: "breath.frames",
		},
		Frames: FramesConfig{
			Every: 1,
			Scale: 4,
		},
	}
}

// DataDir is where the default database and config file live
func DataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, AppDir)
}

// DefaultPath is the config file read when no path is given
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Load builds the configuration. A missing file at the default path is not
// an error; a missing file at an explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := LoadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv exports variables from the given .env files without overriding
// ones already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg from BREATH_* variables read through getenv
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, set func(string) error) {
		if v := getenv(EnvPrefix + name); v != "" {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, v, err))
			}
		}
	}

	str("SENSOR", &cfg.Sensor.Kind)
	str("I2C_BUS", &cfg.Sensor.I2CBus)
	str("SERIAL_PORT", &cfg.Sensor.SerialPort)
	str("FILTER", &cfg.Sensor.Filter)
	str("SCENE", &cfg.Scene)
	str("SCENARIO", &cfg.Scenario)
	str("RATE", &cfg.Rate)
	str("CALIBRATION_STORE", &cfg.Calibration.Store)
	str("CALIBRATION_PATH", &cfg.Calibration.Path)
	str("HOST", &cfg.Server.Host)
	str("FORMAT", &cfg.Server.Format)
	str("MQTT_BROKER", &cfg.MQTT.Broker)
	str("MQTT_TOPIC", &cfg.MQTT.Topic)
	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_SUBJECT", &cfg.NATS.Subject)
	str("FRAMES_DIR", &cfg.Frames.Dir)

	num("SEED", func(v string) (err error) {
		cfg.Seed, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	num("PORT", func(v string) (err error) {
		cfg.Server.Port, err = strconv.Atoi(v)
		return err
	})
	num("SERIAL_BAUD", func(v string) error {
		baud, err := strconv.ParseUint(v, 10, 32)
		cfg.Sensor.Baud = uint(baud)
		return err
	})
	num("BASELINE_SAMPLES", func(v string) (err error) {
		cfg.Sensor.BaselineSamples, err = strconv.Atoi(v)
		return err
	})

	return errors.Join(errs...)
}

// Validate checks values that would otherwise fail deep inside a command
func (c *Config) Validate() error {
	switch strings.ToLower(c.Sensor.Kind) {
	case "simulated", "bmp280", "serial":
	default:
		return fmt.Errorf("unknown sensor kind %q (simulated, bmp280, serial)", c.Sensor.Kind)
	}
	if c.Sensor.Kind == "serial" && c.Sensor.SerialPort == "" {
		return fmt.Errorf("serial sensor needs sensor.serial_port")
	}
	if c.Sensor.BaselineSamples <= 0 {
		return fmt.Errorf("sensor.baseline_samples must be positive")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}

// Save writes cfg as YAML, creating parent directories
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
