package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mtuyar/habitd/internal/storage"
)

const dataDirName = ".habitd"

type Config struct {
	Storage       StorageConfig       `yaml:"storage"`
	Notifications NotificationsConfig `yaml:"notifications"`
	LogFile       string              `yaml:"log_file"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type NotificationsConfig struct {
	Desktop bool `yaml:"desktop"`
	Buffer  int  `yaml:"buffer"`
}

func Default() Config {
	return Config{
		Storage:       StorageConfig{Driver: storage.DriverSQLite},
		Notifications: NotificationsConfig{Desktop: false, Buffer: 64},
	}
}

// DefaultPath is ~/.habitd/config.yaml, or a relative path when the home
// directory is unknown.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return dataDirName
	}
	return filepath.Join(home, dataDirName)
}

func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Storage.Driver) == "" {
		c.Storage.Driver = storage.DriverSQLite
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if strings.TrimSpace(c.Storage.Path) == "" {
		name := "habitd.db"
		if c.Storage.Driver == storage.DriverJSON {
			name = "tasks.json"
		}
		c.Storage.Path = filepath.Join(DataDir(), name)
	}
	if c.Notifications.Buffer <= 0 {
		c.Notifications.Buffer = 64
	}
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case storage.DriverSQLite, storage.DriverJSON:
	default:
		return fmt.Errorf("config: unsupported storage driver %q", c.Storage.Driver)
	}
	return nil
}

// Load reads path over the defaults, then applies HABITD_* environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg = FromEnv(cfg)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func FromEnv(base Config) Config {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("HABITD_STORAGE_DRIVER")); v != "" {
		cfg.Storage.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv("HABITD_STORAGE_PATH")); v != "" {
		cfg.Storage.Path = v
	}
	if v, ok := getEnvBool("HABITD_DESKTOP_NOTIFICATIONS"); ok {
		cfg.Notifications.Desktop = v
	}
	if v, ok := getEnvInt("HABITD_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.Notifications.Buffer = v
	}
	if v := strings.TrimSpace(os.Getenv("HABITD_LOG_FILE")); v != "" {
		cfg.LogFile = v
	}
	return cfg
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
