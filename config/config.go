// Package config loads the ambient configuration the cmd/0store front
// door needs to wire up a Store, icon.Store and integration.Manager:
// a single YAML file with environment-variable overrides, the way the
// teacher's configuration package layers env vars on top of parsed
// values.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/zero-install/zeroinstall/zerr"
)

// Config is the complete set of fields cmd/0store reads at startup.
type Config struct {
	Store struct {
		Root         string `yaml:"root"`
		WriteProtect bool   `yaml:"write_protect"`
	} `yaml:"store"`
	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`
	Icon struct {
		Freshness time.Duration `yaml:"freshness"`
	} `yaml:"icon"`
	Sync struct {
		Server   string `yaml:"server"`
		Password string `yaml:"password"`
	} `yaml:"sync"`
	Integration struct {
		MachineWide bool   `yaml:"machine_wide"`
		AppListPath string `yaml:"app_list_path"`
	} `yaml:"integration"`
}

// Load reads path (if it exists; a missing file yields defaults) and
// applies ZEROINSTALL_<FIELD> environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &zerr.InvalidData{Context: "config " + path, Cause: err}
			}
		case os.IsNotExist(err):
			// defaults only
		default:
			return nil, &zerr.IO{Op: "read", Path: path, Cause: err}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the built-in configuration used when no file is
// present.
func Default() *Config {
	cfg := &Config{}
	cfg.Store.Root = defaultStoreRoot()
	cfg.Icon.Freshness = 20 * time.Minute
	cfg.Integration.AppListPath = defaultAppListPath()
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ZEROINSTALL_STORE_ROOT"); v != "" {
		cfg.Store.Root = v
	}
	if v := os.Getenv("ZEROINSTALL_STORE_WRITE_PROTECT"); v != "" {
		cfg.Store.WriteProtect = v == "1" || v == "true"
	}
	if v := os.Getenv("ZEROINSTALL_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("ZEROINSTALL_ICON_FRESHNESS"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Icon.Freshness = d
		}
	}
	if v := os.Getenv("ZEROINSTALL_SYNC_SERVER"); v != "" {
		cfg.Sync.Server = v
	}
	if v := os.Getenv("ZEROINSTALL_SYNC_PASSWORD"); v != "" {
		cfg.Sync.Password = v
	}
	if v := os.Getenv("ZEROINSTALL_INTEGRATION_MACHINE_WIDE"); v != "" {
		cfg.Integration.MachineWide = v == "1" || v == "true"
	}
}

func defaultStoreRoot() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.cache/0install.net/implementations"
	}
	return "/var/cache/0install.net/implementations"
}

func defaultAppListPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/0install.net/desktop-integration/app-list.xml"
	}
	return "/etc/0install.net/desktop-integration/app-list.xml"
}
