package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// projectTree lays out a checkout four levels deep with a config file at the
// root, one in the middle and a dotfile next to the working directory.
func projectTree(b *testing.B) string {
	b.Helper()
	root := b.TempDir()
	cwd := filepath.Join(root, "srv", "catalog", "cheeses")
	if err := os.MkdirAll(cwd, 0o755); err != nil {
		b.Fatal(err)
	}

	write := func(path, content string) {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	write(filepath.Join(root, "pagelist.json"), `{"paging": {"page_size": 50, "max_size": 500}, "sort": "id"}`)
	write(filepath.Join(root, "srv", "pagelist.json"), `{"paging": {"prefetch_distance": 10}}`)
	write(filepath.Join(root, "srv", "catalog", ".pagelist.json"), `{"paging": {"page_size": 25}, "sort": "name"}`)
	return cwd
}

func BenchmarkLookupAndMerge(b *testing.B) {
	cwd := projectTree(b)

	cfg, err := loadFromConfigPaths(lookupConfigs(cwd))
	if err != nil {
		b.Fatal(err)
	}
	if got := cfg.PagingConfig(); got.PageSize != 25 || got.PrefetchDistance != 10 || got.MaxSize != 500 {
		b.Fatalf("unexpected merge result: %+v", got)
	}

	b.ReportAllocs()
	for b.Loop() {
		if _, err := loadFromConfigPaths(lookupConfigs(cwd)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoadFromReaders_Layers(b *testing.B) {
	layers := [][]byte{
		[]byte(`{"paging": {"page_size": 20, "enable_placeholders": true, "max_size": 200}}`),
		[]byte(`{"seeds": {"source": "embedded", "disable_auto_update": true}}`),
		[]byte(`{"paging": {"enable_placeholders": false}}`),
		[]byte(`{"sort": "id", "paging": {"page_size": 40}}`),
	}

	b.ReportAllocs()
	for b.Loop() {
		readers := make([]io.Reader, len(layers))
		for i, l := range layers {
			readers[i] = bytes.NewReader(l)
		}
		cfg, err := loadFromReaders(readers)
		if err != nil {
			b.Fatal(err)
		}
		if cfg.PagingConfig().EnablePlaceholders {
			b.Fatal("later layer did not override placeholders")
		}
	}
}

func BenchmarkLookupConfigs_NoFiles(b *testing.B) {
	cwd := filepath.Join(b.TempDir(), "a", "b", "c", "d")
	if err := os.MkdirAll(cwd, 0o755); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	for b.Loop() {
		cfg, err := loadFromConfigPaths(lookupConfigs(cwd))
		if err != nil {
			b.Fatal(err)
		}
		if cfg.Paging != nil {
			b.Fatal("expected an empty config")
		}
	}
}
