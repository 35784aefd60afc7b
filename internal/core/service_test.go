package core_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/store/memory"
)

var fixedNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) *core.Service {
	t.Helper()
	return core.NewService(memory.New(), core.ServiceOptions{
		SummaryTTL: time.Minute,
		Now:        func() time.Time { return fixedNow },
	})
}

func intPtr(n int) *int { return &n }

func TestService_CreateMapsAndStores(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	f, err := svc.CreateForm(ctx, "u1", "1099-nec", 2024, submission(map[string]any{"nonemployeeCompensation": "10000"}))
	require.NoError(t, err)

	assert.NotEmpty(t, f.ID)
	assert.Equal(t, core.FormNEC, f.FormType)
	assert.Equal(t, fixedNow, f.CreatedAt)
	require.Len(t, f.Mappings, 1)
	assert.Equal(t, "Schedule C", f.Mappings[0].Line)

	got, err := svc.GetForm(ctx, "u1", f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, json.Number("10000"), got.Data["nonemployeeCompensation"])
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateForm(ctx, "u1", "INT", 2024, submission(nil))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "interestIncome")

	forms, err := svc.ListForms(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestService_UpdateKeepsTypeAndYear(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	f, err := svc.CreateForm(ctx, "u1", "DIV", 2023, submission(map[string]any{"ordinaryDividends": "100"}))
	require.NoError(t, err)

	updated, err := svc.UpdateForm(ctx, "u1", f.ID, submission(map[string]any{
		"ordinaryDividends":  "250",
		"qualifiedDividends": "200",
	}))
	require.NoError(t, err)
	assert.Equal(t, core.FormDIV, updated.FormType)
	assert.Equal(t, 2023, updated.TaxYear)
	assert.Len(t, updated.Mappings, 2)

	_, err = svc.UpdateForm(ctx, "u1", f.ID, submission(nil))
	var verr *core.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.UpdateForm(ctx, "u2", f.ID, submission(map[string]any{"ordinaryDividends": "1"}))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_SummaryPerYearAndAll(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.CreateForm(ctx, "u1", "NEC", 2024, submission(map[string]any{"nonemployeeCompensation": "10000"}))
	require.NoError(t, err)
	_, err = svc.CreateForm(ctx, "u1", "K", 2024, submission(map[string]any{"grossAmount": "5500"}))
	require.NoError(t, err)
	_, err = svc.CreateForm(ctx, "u1", "NEC", 2023, submission(map[string]any{"nonemployeeCompensation": "700"}))
	require.NoError(t, err)
	_, err = svc.CreateForm(ctx, "u2", "NEC", 2024, submission(map[string]any{"nonemployeeCompensation": "1"}))
	require.NoError(t, err)

	s2024, err := svc.Summary(ctx, "u1", intPtr(2024))
	require.NoError(t, err)
	assert.Equal(t, 2024, s2024.TaxYear)
	assert.Equal(t, 2, s2024.TotalForms)
	require.Len(t, s2024.Lines, 1)
	assert.Equal(t, "15500.00", s2024.Lines[0].TotalAmount.StringFixed(2))
	assert.Len(t, s2024.Lines[0].Sources, 2)

	all, err := svc.Summary(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Year(), all.TaxYear, "unfiltered summary carries the current year")
	assert.Equal(t, 3, all.TotalForms)
	assert.Equal(t, "16200.00", all.Lines[0].TotalAmount.StringFixed(2))
}

func TestService_SummaryCacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	f, err := svc.CreateForm(ctx, "u1", "NEC", 2024, submission(map[string]any{"nonemployeeCompensation": "100"}))
	require.NoError(t, err)

	before, err := svc.Summary(ctx, "u1", intPtr(2024))
	require.NoError(t, err)
	assert.Equal(t, "100.00", before.Lines[0].TotalAmount.StringFixed(2))

	_, err = svc.UpdateForm(ctx, "u1", f.ID, submission(map[string]any{"nonemployeeCompensation": "250"}))
	require.NoError(t, err)

	after, err := svc.Summary(ctx, "u1", intPtr(2024))
	require.NoError(t, err)
	assert.Equal(t, "250.00", after.Lines[0].TotalAmount.StringFixed(2))

	require.NoError(t, svc.DeleteForm(ctx, "u1", f.ID))
	empty, err := svc.Summary(ctx, "u1", intPtr(2024))
	require.NoError(t, err)
	assert.Zero(t, empty.TotalForms)
	assert.Empty(t, empty.Lines)
}

func TestService_DeleteScopedToUser(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	f, err := svc.CreateForm(ctx, "u1", "NEC", 2024, submission(map[string]any{"nonemployeeCompensation": "100"}))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteForm(ctx, "u2", f.ID), core.ErrNotFound)
	_, err = svc.GetForm(ctx, "u1", f.ID)
	assert.NoError(t, err)
}

func TestService_PreviewStoresNothing(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	entries, err := svc.PreviewMapping("DIV", submission(map[string]any{
		"ordinaryDividends":  "2500.75",
		"qualifiedDividends": "2000.00",
	}))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	forms, err := svc.ListForms(ctx, "local", nil)
	require.NoError(t, err)
	assert.Empty(t, forms)

	_, err = svc.PreviewMapping("W2", nil)
	var uerr *core.UnknownFormTypeError
	assert.ErrorAs(t, err, &uerr)
}

func TestService_FormTypes(t *testing.T) {
	assert.Len(t, newService(t).FormTypes(), 8)
}

func TestService_SummaryRemapsStoredData(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := core.NewService(st, core.ServiceOptions{Now: func() time.Time { return fixedNow }})

	// Saved entries that disagree with the rule table: one missing, one stale.
	_, err := st.Create(ctx, core.StoredForm{
		ID: "nec-legacy", UserID: "u1", FormType: core.FormNEC, TaxYear: 2024,
		Data:      submission(map[string]any{"nonemployeeCompensation": "15000"}),
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	})
	require.NoError(t, err)
	_, err = st.Create(ctx, core.StoredForm{
		ID: "k-legacy", UserID: "u1", FormType: core.FormK, TaxYear: 2024,
		Data: submission(map[string]any{"grossAmount": "500"}),
		Mappings: []core.MappingEntry{
			{Line: "99", Description: "Retired line", SourceField: "grossAmount", Amount: dec("1")},
		},
		CreatedAt: fixedNow.Add(time.Second), UpdatedAt: fixedNow.Add(time.Second),
	})
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, "u1", intPtr(2024))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalForms)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, "Schedule C", sum.Lines[0].Line)
	assert.Equal(t, "15500.00", sum.Lines[0].TotalAmount.StringFixed(2))
	assert.Len(t, sum.Lines[0].Sources, 2)
}

func TestService_SummaryFallsBackToSavedEntries(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := core.NewService(st, core.ServiceOptions{Now: func() time.Time { return fixedNow }})

	// The required interestIncome box is gone, so the row cannot be remapped.
	_, err := st.Create(ctx, core.StoredForm{
		ID: "int-old", UserID: "u1", FormType: core.FormINT, TaxYear: 2024,
		Data: submission(nil),
		Mappings: []core.MappingEntry{
			{Line: "2b", Description: "Taxable interest", SourceField: "interestIncome", Amount: dec("42.50")},
		},
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	})
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, "u1", intPtr(2024))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalForms)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, "42.50", sum.Lines[0].TotalAmount.StringFixed(2))
}

// pausingStore holds the first List after it has read the store, until
// release is closed.
type pausingStore struct {
	*memory.Store
	listed  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *pausingStore) List(ctx context.Context, userID string, taxYear *int) ([]core.StoredForm, error) {
	forms, err := p.Store.List(ctx, userID, taxYear)
	p.once.Do(func() {
		close(p.listed)
		<-p.release
	})
	return forms, err
}

func TestService_SummaryNotCachedAcrossConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	st := &pausingStore{Store: memory.New(), listed: make(chan struct{}), release: make(chan struct{})}
	svc := core.NewService(st, core.ServiceOptions{
		SummaryTTL: time.Hour,
		Now:        func() time.Time { return fixedNow },
	})

	type result struct {
		sum core.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		sum, err := svc.Summary(ctx, "u1", intPtr(2024))
		done <- result{sum, err}
	}()

	<-st.listed
	_, err := svc.CreateForm(ctx, "u1", "NEC", 2024, submission(map[string]any{"nonemployeeCompensation": "100"}))
	require.NoError(t, err)
	close(st.release)

	first := <-done
	require.NoError(t, first.err)
	assert.Zero(t, first.sum.TotalForms, "listed before the write")

	after, err := svc.Summary(ctx, "u1", intPtr(2024))
	require.NoError(t, err)
	assert.Equal(t, 1, after.TotalForms)
	require.Len(t, after.Lines, 1)
	assert.Equal(t, "100.00", after.Lines[0].TotalAmount.StringFixed(2))
}
