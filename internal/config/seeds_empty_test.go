package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type emptySeedClient struct{}

func (m *emptySeedClient) GetSeeds(context.Context, string) ([]string, error) {
	return []string{}, nil
}

// An empty remote catalog is an error and is never cached.
func TestSeeds_loadSeedsEmptyResult(t *testing.T) {
	client := &emptySeedClient{}
	tmpPath := t.TempDir() + "/seeds.json"

	names, err := loadSeeds(client, "", tmpPath)
	require.ErrorContains(t, err, "empty seed list")
	require.Empty(t, names)
	require.NoFileExists(t, tmpPath)
}
