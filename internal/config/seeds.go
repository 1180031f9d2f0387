package config

import (
	"cmp"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/etag"
)

// SeedsEmbedded is the source name for the catalog bundled with the binary.
const SeedsEmbedded = "embedded"

//go:embed seeds.json
var embeddedSeeds []byte

// ErrNotModified is returned by a SeedClient when the remote catalog still
// matches the given etag.
var ErrNotModified = errors.New("seeds not modified")

// SeedClient fetches a remote seed catalog.
type SeedClient interface {
	GetSeeds(ctx context.Context, etag string) ([]string, error)
}

type httpSeedClient struct {
	url    string
	client *http.Client
}

// NewSeedClient returns a SeedClient that fetches a JSON array of names
// from url.
func NewSeedClient(url string) SeedClient {
	return &httpSeedClient{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *httpSeedClient) GetSeeds(ctx context.Context, tag string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if tag != "" {
		etag.Request(req, tag)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seeds: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		return nil, ErrNotModified
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read seeds: %w", err)
	}
	return decodeSeeds(data)
}

var (
	seedOnce sync.Once
	seedList []string
	seedErr  error
)

// seedCacheFile is where fetched catalogs are kept between runs.
func seedCacheFile() string {
	return filepath.Join(dataHome(), "seeds.json")
}

func decodeSeeds(data []byte) ([]string, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed data: %w", err)
	}
	out := names[:0]
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// EmbeddedSeeds returns the catalog bundled at build time.
func EmbeddedSeeds() []string {
	names, err := decodeSeeds(embeddedSeeds)
	if err != nil {
		panic(err)
	}
	return names
}

func saveSeedsInCache(path string, names []string) error {
	slog.Info("Saving seed data to disk", "path", path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for seed cache: %w", err)
	}

	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal seed data: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write seed data to cache: %w", err)
	}
	return nil
}

func loadSeedsFromCache(path string) ([]string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read seed cache file: %w", err)
	}

	names, err := decodeSeeds(data)
	if err != nil {
		return nil, "", err
	}
	return names, etag.Of(data), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// UpdateSeeds replaces the cached catalog with the one at pathOrURL, which
// may be "embedded", a local JSON file or an http(s) URL.
func UpdateSeeds(ctx context.Context, pathOrURL string) error {
	var names []string
	pathOrURL = cmp.Or(pathOrURL, os.Getenv("PAGELIST_SEEDS_URL"), SeedsEmbedded)

	switch {
	case pathOrURL == SeedsEmbedded:
		names = EmbeddedSeeds()
	case isURL(pathOrURL):
		var err error
		names, err = NewSeedClient(pathOrURL).GetSeeds(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to fetch seeds from %s: %w", pathOrURL, err)
		}
	default:
		content, err := os.ReadFile(pathOrURL)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		names, err = decodeSeeds(content)
		if err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return errors.New("no seeds found in the provided source")
	}

	cachePath := seedCacheFile()
	if err := saveSeedsInCache(cachePath, names); err != nil {
		return fmt.Errorf("failed to save seeds to cache: %w", err)
	}

	slog.Info("Seeds updated successfully", "count", len(names), "from", pathOrURL, "to", cachePath)
	return nil
}

// Seeds returns the seed catalog.
//
// With no remote source configured, or with auto update disabled, the cached
// catalog is used if present and the embedded one otherwise. With a remote
// source the catalog is revalidated against the cache and falls back to it
// when the remote is unchanged.
func Seeds(cfg *Config) ([]string, error) {
	seedOnce.Do(func() {
		path := seedCacheFile()

		cached, tag, cachedErr := loadSeedsFromCache(path)
		if len(cached) == 0 || cachedErr != nil {
			cached, tag = EmbeddedSeeds(), ""
		}

		source := ""
		disabled := false
		if cfg.Seeds != nil {
			source = cfg.Seeds.Source
			disabled = cfg.Seeds.DisableAutoUpdate
		}
		if disabled || !isURL(source) {
			slog.Debug("Using local seed catalog", "count", len(cached))
			seedList, seedErr = cached, nil
			return
		}

		seedList, seedErr = loadSeeds(NewSeedClient(source), tag, path)
		if errors.Is(seedErr, ErrNotModified) {
			slog.Info("Seeds not modified")
			seedList, seedErr = cached, nil
		}
	})
	if seedErr != nil {
		return nil, fmt.Errorf("unable to fetch seeds. Set PAGELIST_DISABLE_SEED_AUTO_UPDATE=1 to use the bundled catalog: %w", seedErr)
	}
	return seedList, nil
}

func loadSeeds(client SeedClient, tag, path string) ([]string, error) {
	slog.Info("Fetching seeds", "path", path)
	names, err := client.GetSeeds(context.Background(), tag)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seeds: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("empty seed list")
	}
	if err := saveSeedsInCache(path, names); err != nil {
		return nil, err
	}
	return names, nil
}
