package config

import (
	"cmp"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/pagelist/internal/paging"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	appName              = "pagelist"
	defaultDataDirectory = ".pagelist"
	defaultLogFile       = "logs/pagelist.log"
)

var defaultContextPaths = []string{
	appName + ".json",
	"." + appName + ".json",
}

type PagingOptions struct {
	PageSize           int   `json:"page_size,omitempty"`
	EnablePlaceholders *bool `json:"enable_placeholders,omitempty"`
	MaxSize            *int  `json:"max_size,omitempty"`
	PrefetchDistance   int   `json:"prefetch_distance,omitempty"`
}

type SeedOptions struct {
	// Source is "embedded", a file path or an http(s) URL.
	Source            string `json:"source,omitempty"`
	DisableAutoUpdate bool   `json:"disable_auto_update,omitempty"`
	DisableAutoSeed   bool   `json:"disable_auto_seed,omitempty"`
}

type Config struct {
	Paging  *PagingOptions `json:"paging,omitempty"`
	Sort    string         `json:"sort,omitempty"`
	DataDir string         `json:"data_dir,omitempty"`
	Seeds   *SeedOptions   `json:"seeds,omitempty"`
	Debug   bool           `json:"debug,omitempty"`

	workingDir string
}

// WorkingDir returns the directory the configuration was loaded for.
func (c *Config) WorkingDir() string {
	return c.workingDir
}

// LogFile returns the path of the rotating log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, defaultLogFile)
}

// PagingConfig returns the windowed loader settings.
func (c *Config) PagingConfig() paging.Config {
	cfg := paging.DefaultConfig()
	if c.Paging == nil {
		return cfg
	}
	cfg.PageSize = cmp.Or(c.Paging.PageSize, cfg.PageSize)
	cfg.PrefetchDistance = c.Paging.PrefetchDistance
	if c.Paging.EnablePlaceholders != nil {
		cfg.EnablePlaceholders = *c.Paging.EnablePlaceholders
	}
	if c.Paging.MaxSize != nil {
		cfg.MaxSize = *c.Paging.MaxSize
	}
	return cfg
}

func (c *Config) setDefaults(workingDir, dataDir string) {
	c.workingDir = workingDir
	if dataDir != "" {
		c.DataDir = dataDir
	} else if c.DataDir == "" {
		if path, ok := findProjectDataDir(workingDir); ok {
			c.DataDir = path
		} else {
			c.DataDir = filepath.Join(workingDir, defaultDataDirectory)
		}
	}
	if c.Paging == nil {
		c.Paging = &PagingOptions{}
	}
	if c.Seeds == nil {
		c.Seeds = &SeedOptions{}
	}
	c.Sort = cmp.Or(c.Sort, "name")
}

// SetConfigField writes value at the dotted key path of the global data
// config file, creating the file if needed.
func (c *Config) SetConfigField(key string, value any) error {
	path := GlobalConfigData()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		data = []byte("{}")
	}

	newValue, err := sjson.SetBytes(data, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, newValue, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigField returns the value at the dotted key path of the effective
// configuration.
func (c *Config) ConfigField(key string) (string, bool) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", false
	}
	res := gjson.GetBytes(data, key)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}
