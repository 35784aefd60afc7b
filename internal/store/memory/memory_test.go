package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) core.FormStore { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	f := core.StoredForm{ID: "f1", UserID: "u", FormType: core.FormG, TaxYear: 2024, Data: map[string]any{"state": "CA"}}
	_, err := s.Create(ctx, f)
	require.NoError(t, err)

	f.Data["state"] = "NY"
	got, err := s.Get(ctx, "u", "f1")
	require.NoError(t, err)
	assert.Equal(t, "CA", got.Data["state"])

	got.Data["state"] = "TX"
	again, err := s.Get(ctx, "u", "f1")
	require.NoError(t, err)
	assert.Equal(t, "CA", again.Data["state"])
}

func TestStore_DuplicateID(t *testing.T) {
	s := New()
	ctx := context.Background()

	f := core.StoredForm{ID: "f1", UserID: "u", FormType: core.FormG, TaxYear: 2024}
	_, err := s.Create(ctx, f)
	require.NoError(t, err)

	_, err = s.Create(ctx, f)
	require.Error(t, err)
	assert.Equal(t, "DB001", core.MapError(err).Code)
}

func TestStore_CanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx, "u", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
