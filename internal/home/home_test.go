package home

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDir(t *testing.T) {
	require.NotEmpty(t, Dir())
}

func TestShort(t *testing.T) {
	d := filepath.Join(Dir(), "documents", "cheeses.txt")
	require.Equal(t, filepath.FromSlash("~/documents/cheeses.txt"), Short(d))
	ad := filepath.FromSlash("/absolute/path/cheeses.txt")
	require.Equal(t, ad, Short(ad))
}

func TestLong(t *testing.T) {
	d := filepath.FromSlash("~/documents/cheeses.txt")
	require.Equal(t, filepath.Join(Dir(), "documents", "cheeses.txt"), Long(d))
	ad := filepath.FromSlash("/absolute/path/cheeses.txt")
	require.Equal(t, ad, Long(ad))
}
