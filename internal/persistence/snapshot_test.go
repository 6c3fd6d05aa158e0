package persistence

import (
	"os"
	"path/filepath"
	"production-simulator/internal/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile(t *testing.T) {
	snap := NewSnapshot(filepath.Join(t.TempDir(), "default_operations.json"))

	raw, found, err := snap.Load()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, raw)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default_operations.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, found, err := NewSnapshot(path).Load()
	assert.True(t, found)
	assert.Error(t, err)
}

func TestSave_OverwritesWithIndentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default_operations.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stale": []}`), 0644))
	snap := NewSnapshot(path)

	err := snap.Save(map[types.Product][]types.Record{
		types.ProductCodolo: {{Name: "Taglio", Machine: types.MachineTaglierina, MinDurationSeconds: 5, MaxDurationSeconds: 9, MaxBatchCapacity: 10, Product: types.ProductCodolo}},
		types.ProductGhiera: nil,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.NotContains(t, content, "stale")
	assert.Contains(t, content, "\n    \"Codolo ORFS 12-10\": [")
	assert.Contains(t, content, `"Ghiera AD1-08": []`)
	assert.Contains(t, content, `"max_batch_capacity": 10`)
	assert.NotContains(t, content, "sampled")

	raw, found, err := snap.Load()
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, raw[types.ProductCodolo], 1)
	assert.JSONEq(t, `"Taglio"`, string(raw[types.ProductCodolo][0]["name"]))
}
