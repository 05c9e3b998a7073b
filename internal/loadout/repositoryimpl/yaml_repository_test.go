package repositoryimpl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/pkg/storage"
)

const reconLoadout = `id: recon-basic
name: Basic Recon
version: 1.2.0
description: Network and service reconnaissance
category: ANALYSIS
tools:
  - name: nmap
    version: "7.95"
    description: Port scanner
capabilities:
  - network-scan
  - service-discovery
access_level: read-only
scope: internal
validation_required: true
`

func TestYAMLRepository_LoadAll(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "loadouts/recon-basic.yaml", []byte(reconLoadout)))

	repo := NewYAMLRepository(s)
	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	l := all[0]
	assert.Equal(t, "recon-basic", l.ID)
	assert.Equal(t, loadout.CategoryAnalysis, l.Category)
	assert.Len(t, l.Tools, 1)
	assert.Equal(t, "nmap", l.Tools[0].Name)
	assert.True(t, l.ValidationRequired)
}

func TestYAMLRepository_LoadAllEmpty(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	all, err := NewYAMLRepository(s).LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestYAMLRepository_MissingID(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "loadouts/broken.yaml", []byte("name: No ID\n")))

	_, err = NewYAMLRepository(s).LoadAll(ctx)
	assert.Error(t, err)
}
