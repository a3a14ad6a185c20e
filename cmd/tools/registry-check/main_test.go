package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compatibility-workers/pkg/registry"
)

func TestValidate_Embedded(t *testing.T) {
	assert.NoError(t, validate(""))
	assert.NoError(t, list(""))
}

func TestExportThenValidate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "registry.json")

	require.NoError(t, export(out))

	reg, err := registry.LoadRegistry(out)
	require.NoError(t, err)
	assert.Len(t, reg.Activities, 4)
	assert.NoError(t, validate(out))
}

func TestValidate_RejectsBrokenSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	body := `{"activities":[{"id":"x","taskType":"x","displayName":"X","inputSchema":{"type":42}}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	assert.Error(t, validate(path))
}
