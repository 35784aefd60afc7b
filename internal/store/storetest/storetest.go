// Package storetest holds the behaviour every core.FormStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/form1099/internal/core"
)

// Factory returns a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) core.FormStore

var base = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

func newForm(user string, ft core.FormType, year int, offset time.Duration) core.StoredForm {
	return core.StoredForm{
		ID:       uuid.New().String(),
		UserID:   user,
		FormType: ft,
		TaxYear:  year,
		Data: map[string]any{
			"interestIncome": "1234.56",
			"payer":          map[string]any{"name": "First Bank"},
		},
		Mappings: []core.MappingEntry{
			{Line: "2a", Description: "Taxable interest", SourceField: "interestIncome", Amount: decimal.RequireFromString("1234.56")},
			{Line: "Schedule 3 Line 1", Description: "Foreign tax credit", Schedule: "Schedule 3", SourceField: "foreignTaxPaid", Amount: decimal.RequireFromString("12.30")},
		},
		CreatedAt: base.Add(offset),
		UpdatedAt: base.Add(offset),
	}
}

// Run exercises create, get, update, delete and list against a store.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateGet", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := newForm("alice", core.FormINT, 2024, 0)
		created, err := s.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in.ID, created.ID)

		got, err := s.Get(ctx, "alice", in.ID)
		require.NoError(t, err)
		assert.Equal(t, core.FormINT, got.FormType)
		assert.Equal(t, 2024, got.TaxYear)
		assert.True(t, got.CreatedAt.Equal(base), "CreatedAt = %v", got.CreatedAt)

		require.Len(t, got.Mappings, 2)
		assert.Equal(t, "2a", got.Mappings[0].Line)
		assert.True(t, got.Mappings[0].Amount.Equal(decimal.RequireFromString("1234.56")))
		assert.Equal(t, "Schedule 3", got.Mappings[1].Schedule)
		assert.True(t, got.Mappings[1].Amount.Equal(decimal.RequireFromString("12.3")))

		payer, ok := got.Data["payer"].(map[string]any)
		require.True(t, ok, "payer block decoded as %T", got.Data["payer"])
		assert.Equal(t, "First Bank", payer["name"])
		assert.Equal(t, "1234.56", got.Data["interestIncome"])
	})

	t.Run("OwnerScoped", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := newForm("alice", core.FormINT, 2024, 0)
		_, err := s.Create(ctx, in)
		require.NoError(t, err)

		_, err = s.Get(ctx, "bob", in.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)

		err = s.Delete(ctx, "bob", in.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)

		other := in
		other.UserID = "bob"
		_, err = s.Update(ctx, other)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "alice", uuid.New().String())
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("UpdateReplacesMappings", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := newForm("alice", core.FormINT, 2024, 0)
		_, err := s.Create(ctx, in)
		require.NoError(t, err)

		in.Data = map[string]any{"interestIncome": "99.00"}
		in.Mappings = []core.MappingEntry{
			{Line: "2a", Description: "Taxable interest", SourceField: "interestIncome", Amount: decimal.RequireFromString("99.00")},
		}
		in.UpdatedAt = base.Add(time.Hour)

		updated, err := s.Update(ctx, in)
		require.NoError(t, err)
		require.Len(t, updated.Mappings, 1)
		assert.True(t, updated.Mappings[0].Amount.Equal(decimal.RequireFromString("99")))
		assert.Equal(t, "99.00", updated.Data["interestIncome"])
		assert.True(t, updated.UpdatedAt.Equal(base.Add(time.Hour)))
		assert.True(t, updated.CreatedAt.Equal(base))
	})

	t.Run("DeleteRemoves", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := newForm("alice", core.FormINT, 2024, 0)
		_, err := s.Create(ctx, in)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "alice", in.ID))
		_, err = s.Get(ctx, "alice", in.ID)
		assert.ErrorIs(t, err, core.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "alice", in.ID), core.ErrNotFound)
	})

	t.Run("ListNewestFirstByYear", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		oldest := newForm("alice", core.FormINT, 2024, 0)
		middle := newForm("alice", core.FormNEC, 2023, time.Minute)
		newest := newForm("alice", core.FormDIV, 2024, 2*time.Minute)
		foreign := newForm("bob", core.FormINT, 2024, 3*time.Minute)
		for _, f := range []core.StoredForm{oldest, middle, newest, foreign} {
			_, err := s.Create(ctx, f)
			require.NoError(t, err)
		}

		all, err := s.List(ctx, "alice", nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, ids(all))

		year := 2024
		y2024, err := s.List(ctx, "alice", &year)
		require.NoError(t, err)
		assert.Equal(t, []string{newest.ID, oldest.ID}, ids(y2024))
		for _, f := range y2024 {
			assert.Len(t, f.Mappings, 2)
		}

		none, err := s.List(ctx, "carol", nil)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func ids(forms []core.StoredForm) []string {
	out := make([]string, len(forms))
	for i, f := range forms {
		out[i] = f.ID
	}
	return out
}
