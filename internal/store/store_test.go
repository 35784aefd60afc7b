package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/form1099/internal/store/memory"
	"github.com/JonMunkholm/form1099/internal/store/sqlite"
)

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory://", Options{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "forms.db"), Options{})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s)
	require.NoError(t, s.Close())
}

func TestOpen_Rejects(t *testing.T) {
	ctx := context.Background()

	for _, url := range []string{"forms.db", "mysql://localhost/forms", "sqlite://"} {
		_, err := Open(ctx, url, Options{})
		assert.Error(t, err, "Open(%q)", url)
	}
}

func TestOpen_RedactsCredentials(t *testing.T) {
	_, err := Open(context.Background(), "user:secret@host/db", Options{})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestBackend(t *testing.T) {
	assert.Equal(t, "postgres", Backend("postgres://u:p@h/db"))
	assert.Equal(t, "sqlite", Backend("SQLite://x.db"))
}
