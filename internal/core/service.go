package core

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// StoredForm is a validated form as persisted for one user, together with
// the entries it mapped to when it was last written.
type StoredForm struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	FormType  FormType       `json:"formType"`
	TaxYear   int            `json:"taxYear"`
	Data      map[string]any `json:"data"`
	Mappings  []MappingEntry `json:"mappings"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// FormStore persists forms per user. Get, Update and Delete return
// ErrNotFound when the form does not exist for that user. List returns
// newest first; a nil taxYear lists every year.
type FormStore interface {
	Create(ctx context.Context, f StoredForm) (StoredForm, error)
	Get(ctx context.Context, userID, id string) (StoredForm, error)
	Update(ctx context.Context, f StoredForm) (StoredForm, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, taxYear *int) ([]StoredForm, error)
}

// ServiceOptions tune a Service. Zero values pick defaults.
type ServiceOptions struct {
	SummaryTTL time.Duration    // How long a summary stays cached (default 5m)
	Now        func() time.Time // Clock, replaced in tests
}

// Service validates, maps and persists forms, and builds summaries.
type Service struct {
	store   FormStore
	now     func() time.Time
	summary *cache.Cache

	mu   sync.Mutex
	gens map[string]uint64 // per-user write counter guarding summary caching
}

// NewService creates a new Service instance.
func NewService(store FormStore, opts ServiceOptions) *Service {
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:   store,
		now:     opts.Now,
		summary: cache.New(opts.SummaryTTL, 2*opts.SummaryTTL),
		gens:    make(map[string]uint64),
	}
}

// FormTypes returns the registered form definitions in display order.
func (s *Service) FormTypes() []FormDefinition {
	return All()
}

// CreateForm validates raw, maps it and stores the result for userID.
func (s *Service) CreateForm(ctx context.Context, userID, formType string, taxYear int, raw map[string]any) (StoredForm, error) {
	rec, err := ValidateForTaxYear(formType, taxYear, raw)
	if err != nil {
		return StoredForm{}, err
	}
	entries, err := MapToDestinationLines(rec.Type, rec)
	if err != nil {
		return StoredForm{}, err
	}

	now := s.now().UTC()
	f, err := s.store.Create(ctx, StoredForm{
		ID:        uuid.New().String(),
		UserID:    userID,
		FormType:  rec.Type,
		TaxYear:   rec.TaxYear,
		Data:      rec.Data(),
		Mappings:  entries,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return StoredForm{}, fmt.Errorf("create form: %w", err)
	}

	s.invalidate(userID)
	slog.Info("form created",
		"user_id", userID,
		"form_id", f.ID,
		"form_type", f.FormType,
		"tax_year", f.TaxYear,
		"entries", len(entries),
	)
	return f, nil
}

// UpdateForm replaces the data of an existing form and remaps it.
// The form type and tax year are fixed by the stored form.
func (s *Service) UpdateForm(ctx context.Context, userID, id string, raw map[string]any) (StoredForm, error) {
	existing, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return StoredForm{}, fmt.Errorf("get form %s: %w", id, err)
	}

	rec, err := ValidateForTaxYear(string(existing.FormType), existing.TaxYear, raw)
	if err != nil {
		return StoredForm{}, err
	}
	entries, err := MapToDestinationLines(rec.Type, rec)
	if err != nil {
		return StoredForm{}, err
	}

	existing.Data = rec.Data()
	existing.Mappings = entries
	existing.UpdatedAt = s.now().UTC()

	f, err := s.store.Update(ctx, existing)
	if err != nil {
		return StoredForm{}, fmt.Errorf("update form %s: %w", id, err)
	}

	s.invalidate(userID)
	slog.Info("form updated", "user_id", userID, "form_id", id, "entries", len(entries))
	return f, nil
}

// GetForm returns one form owned by userID.
func (s *Service) GetForm(ctx context.Context, userID, id string) (StoredForm, error) {
	f, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return StoredForm{}, fmt.Errorf("get form %s: %w", id, err)
	}
	return f, nil
}

// DeleteForm removes one form owned by userID.
func (s *Service) DeleteForm(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete form %s: %w", id, err)
	}
	s.invalidate(userID)
	slog.Info("form deleted", "user_id", userID, "form_id", id)
	return nil
}

// ListForms returns userID's forms, newest first, optionally for one tax year.
func (s *Service) ListForms(ctx context.Context, userID string, taxYear *int) ([]StoredForm, error) {
	forms, err := s.store.List(ctx, userID, taxYear)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

// PreviewMapping validates and maps raw without storing anything.
func (s *Service) PreviewMapping(formType string, raw map[string]any) ([]MappingEntry, error) {
	rec, err := Validate(formType, raw)
	if err != nil {
		return nil, err
	}
	return MapToDestinationLines(rec.Type, rec)
}

// Summary aggregates userID's forms into per-line totals by running the
// mapping engine over each stored record. With a nil taxYear every form is
// included and the summary carries the current year.
func (s *Service) Summary(ctx context.Context, userID string, taxYear *int) (Summary, error) {
	key := summaryKey(userID, taxYear)
	if v, ok := s.summary.Get(key); ok {
		return v.(Summary), nil
	}

	gen := s.generation(userID)

	forms, err := s.store.List(ctx, userID, taxYear)
	if err != nil {
		return Summary{}, fmt.Errorf("list forms: %w", err)
	}

	agg := NewAggregation()
	for _, f := range forms {
		rec, err := ValidateForTaxYear(string(f.FormType), f.TaxYear, f.Data)
		if err != nil {
			// Rows written under older rules may no longer validate.
			slog.Warn("stored form no longer validates, using saved entries",
				"user_id", userID,
				"form_id", f.ID,
				"error", err,
			)
			agg.AddEntries(f.ID, f.FormType, f.Mappings)
			continue
		}
		if err := agg.Add(SourceRecord{ID: f.ID, Record: rec}); err != nil {
			return Summary{}, fmt.Errorf("map form %s: %w", f.ID, err)
		}
	}

	now := s.now()
	year := now.Year()
	if taxYear != nil {
		year = *taxYear
	}
	sum := ToSummary(agg, year, now)

	// A write that landed while the forms were listed bumps the generation;
	// the result is still returned but not cached.
	s.mu.Lock()
	if s.gens[userID] == gen {
		s.summary.SetDefault(key, sum)
	}
	s.mu.Unlock()
	return sum, nil
}

// generation returns userID's write counter.
func (s *Service) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// invalidate bumps userID's generation and drops every cached summary.
func (s *Service) invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gens[userID]++
	prefix := userID + "|"
	for k := range s.summary.Items() {
		if strings.HasPrefix(k, prefix) {
			s.summary.Delete(k)
		}
	}
}

func summaryKey(userID string, taxYear *int) string {
	if taxYear == nil {
		return userID + "|all"
	}
	return userID + "|" + strconv.Itoa(*taxYear)
}
