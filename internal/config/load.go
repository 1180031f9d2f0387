package config

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/pagelist/internal/home"
	"github.com/joho/godotenv"
	"github.com/qjebbs/go-jsons"
)

// Load reads the global and project configuration for workingDir, applies
// environment overrides and fills in defaults. A non-empty dataDir wins over
// the configured one.
func Load(workingDir, dataDir string, debug bool) (*Config, error) {
	loadDotEnv(workingDir)

	configPaths := []string{
		GlobalConfig(),
		GlobalConfigData(),
	}
	configPaths = append(configPaths, lookupConfigs(workingDir)...)

	cfg, err := loadFromConfigPaths(configPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from paths %v: %w", configPaths, err)
	}

	cfg.setDefaults(workingDir, dataDir)
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}

	if err := cfg.PagingConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid paging options: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(workingDir string) {
	path := filepath.Join(workingDir, ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "path", path, "error", err)
	}
}

// lookupConfigs returns the project config files found in workingDir and
// its parents, outermost first.
func lookupConfigs(workingDir string) []string {
	var found []string
	dir := filepath.Clean(workingDir)
	for {
		for _, name := range defaultContextPaths {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				found = append(found, path)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// Closer files override farther ones.
	slices.Reverse(found)
	return found
}

func findProjectDataDir(workingDir string) (string, bool) {
	dir := filepath.Clean(workingDir)
	for {
		path := filepath.Join(dir, defaultDataDirectory)
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			return path, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func loadFromConfigPaths(configPaths []string) (*Config, error) {
	var readers []io.Reader

	for _, path := range configPaths {
		fd, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
		}
		defer fd.Close()

		readers = append(readers, fd)
	}

	return loadFromReaders(readers)
}

func loadFromReaders(readers []io.Reader) (*Config, error) {
	if len(readers) == 0 {
		return &Config{}, nil
	}

	merged, err := jsons.Merge(readers)
	if err != nil {
		return nil, fmt.Errorf("failed to merge configuration readers: %w", err)
	}

	return LoadReader(bytes.NewReader(merged))
}

// LoadReader decodes a single configuration document.
func LoadReader(fd io.Reader) (*Config, error) {
	data, err := io.ReadAll(fd)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}

func (c *Config) applyEnv() error {
	intEnv := func(name string, dst *int) error {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = n
		return nil
	}

	if err := intEnv("PAGELIST_PAGE_SIZE", &c.Paging.PageSize); err != nil {
		return err
	}
	if err := intEnv("PAGELIST_PREFETCH_DISTANCE", &c.Paging.PrefetchDistance); err != nil {
		return err
	}
	if v := os.Getenv("PAGELIST_MAX_SIZE"); v != "" {
		n := 0
		if err := intEnv("PAGELIST_MAX_SIZE", &n); err != nil {
			return err
		}
		c.Paging.MaxSize = &n
	}
	if v := os.Getenv("PAGELIST_PLACEHOLDERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PAGELIST_PLACEHOLDERS: %w", err)
		}
		c.Paging.EnablePlaceholders = &b
	}
	c.Sort = cmp.Or(os.Getenv("PAGELIST_SORT"), c.Sort)
	c.Seeds.Source = cmp.Or(os.Getenv("PAGELIST_SEEDS_URL"), c.Seeds.Source)
	if v, err := strconv.ParseBool(os.Getenv("PAGELIST_DISABLE_SEED_AUTO_UPDATE")); err == nil {
		c.Seeds.DisableAutoUpdate = v
	}
	return nil
}

// GlobalConfig returns the path to the main config file for the user.
func GlobalConfig() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, appName+".json")
	}
	return filepath.Join(home.Dir(), ".config", appName, appName+".json")
}

// GlobalConfigData returns the path to the config file written by
// `pagelist config set`. It lives in the data directory so hand-written
// config stays untouched.
func GlobalConfigData() string {
	return filepath.Join(dataHome(), appName+".json")
}

// dataHome returns the per-user data directory:
// $XDG_DATA_HOME/pagelist, %LOCALAPPDATA%/pagelist on Windows, or
// ~/.local/share/pagelist.
func dataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName)
	}
	return filepath.Join(home.Dir(), ".local", "share", appName)
}
