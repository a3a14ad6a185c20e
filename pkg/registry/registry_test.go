package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ListsMatchingActivities(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	for _, taskType := range []string{"generate-matches", "score-compatibility", "precompute-matches", "profile-updated"} {
		a, ok := reg.Find(taskType)
		require.True(t, ok, taskType)
		assert.NotEmpty(t, a.InputSchema, taskType)
		assert.Equal(t, "matching", a.Category)
	}

	_, ok := reg.Find("unknown")
	assert.False(t, ok)
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"2","activities":[{"id":"x","taskType":"x"}]}`), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2", reg.Version)
	_, ok := reg.Find("x")
	assert.True(t, ok)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = LoadRegistry(bad)
	assert.Error(t, err)
}

func TestActivityRegistry_Validate(t *testing.T) {
	valid := Activity{ID: "a", TaskType: "a", DisplayName: "A", Timeout: "5s"}

	tests := []struct {
		name       string
		activities []Activity
		wantErr    string
	}{
		{name: "valid", activities: []Activity{valid}},
		{name: "empty", activities: nil, wantErr: "no activities"},
		{name: "missing id", activities: []Activity{{TaskType: "a", DisplayName: "A"}}, wantErr: "id"},
		{name: "missing task type", activities: []Activity{{ID: "a", DisplayName: "A"}}, wantErr: "taskType"},
		{name: "duplicate task type", activities: []Activity{valid, {ID: "b", TaskType: "a", DisplayName: "B"}}, wantErr: "duplicate"},
		{name: "bad timeout", activities: []Activity{{ID: "a", TaskType: "a", DisplayName: "A", Timeout: "soon"}}, wantErr: "invalid timeout"},
		{name: "negative retries", activities: []Activity{{ID: "a", TaskType: "a", DisplayName: "A", Retries: -1}}, wantErr: "negative retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ActivityRegistry{Activities: tt.activities}).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefault_IsValid(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	assert.NoError(t, reg.Validate())
}
