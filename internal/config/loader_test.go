package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/gridcmd/internal/config"
)

func writeDoc(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_InitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	writeDoc(t, path, sampleDoc)

	store := config.NewStore()
	_, err := config.NewLoader(path, store)
	require.NoError(t, err)
	assert.Equal(t, "list", store.Resolve("account").ViewHint)
}

func TestLoader_InitialLoadRejectsInvalidDocument(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"schemaVersion": `},
		{"unsupported version", `{"schemaVersion": "2.0"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "commands.json")
			writeDoc(t, path, tc.content)

			_, err := config.NewLoader(path, config.NewStore())
			assert.Error(t, err)
		})
	}
}

func TestLoader_InvalidReloadKeepsCurrentDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	writeDoc(t, path, sampleDoc)

	store := config.NewStore()
	loader, err := config.NewLoader(path, store)
	require.NoError(t, err)

	// A partially written file must not wipe the live configuration.
	writeDoc(t, path, `{"schemaVersion": "1.0", "typeConf`)
	require.Error(t, loader.Reload())
	assert.Equal(t, []string{"open", "refresh", "export", "archive"},
		store.Resolve("account").EnabledCommandKeys)

	writeDoc(t, path, `{"schemaVersion": "3.0"}`)
	require.Error(t, loader.Reload())
	assert.Equal(t, "list", store.Resolve("account").ViewHint)
}

func TestLoader_ValidReloadSwapsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	writeDoc(t, path, sampleDoc)

	store := config.NewStore()
	loader, err := config.NewLoader(path, store)
	require.NoError(t, err)

	notified := 0
	loader.OnChange(func() { notified++ })

	writeDoc(t, path, `{"schemaVersion":"1.0","defaultConfig":{"enabledCommandKeys":["refresh"]}}`)
	require.NoError(t, loader.Reload())
	assert.Equal(t, 1, notified)
	assert.Equal(t, []string{"refresh"}, store.Resolve("account").EnabledCommandKeys)

	// Callbacks fire only on an applied reload.
	writeDoc(t, path, "not json")
	require.Error(t, loader.Reload())
	assert.Equal(t, 1, notified)
}

func TestStore_ReplaceKeepsCurrentOnError(t *testing.T) {
	s := config.NewStore()
	s.Load([]byte(sampleDoc))

	require.Error(t, s.Replace([]byte(`{"schemaVersion": "9.9"}`)))
	assert.Equal(t, "list", s.Resolve("account").ViewHint)

	require.NoError(t, s.Replace([]byte(`{"schemaVersion":"1.0","defaultConfig":{"viewHint":"card"}}`)))
	assert.Equal(t, "card", s.Resolve("account").ViewHint)
}
