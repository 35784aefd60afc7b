package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/store/storetest"
)

// TEST_DATABASE_URL must point at a disposable database; tables are truncated.
func TestStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	storetest.Run(t, func(t *testing.T) core.FormStore {
		ctx := context.Background()
		s, err := Open(ctx, url, Config{MaxConns: 4})
		require.NoError(t, err)
		_, err = s.pool.Exec(ctx, `TRUNCATE forms, form_mappings`)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
