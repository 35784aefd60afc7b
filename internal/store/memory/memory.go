// Package memory is an in-process form store for tests and throwaway runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/form1099/internal/core"
	"github.com/JonMunkholm/form1099/internal/store/codec"
)

type entry struct {
	form core.StoredForm
	seq  uint64
}

// Store keeps forms in a map guarded by a RWMutex.
type Store struct {
	mu    sync.RWMutex
	forms map[string]entry
	seq   uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{forms: make(map[string]entry)}
}

func (s *Store) Create(ctx context.Context, f core.StoredForm) (core.StoredForm, error) {
	if err := ctx.Err(); err != nil {
		return core.StoredForm{}, err
	}
	f, err := clone(f)
	if err != nil {
		return core.StoredForm{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.forms[f.ID]; exists {
		return core.StoredForm{}, fmt.Errorf("duplicate key: form %s", f.ID)
	}
	s.seq++
	s.forms[f.ID] = entry{form: f, seq: s.seq}
	return clone(f)
}

func (s *Store) Get(ctx context.Context, userID, id string) (core.StoredForm, error) {
	if err := ctx.Err(); err != nil {
		return core.StoredForm{}, err
	}

	s.mu.RLock()
	e, ok := s.forms[id]
	s.mu.RUnlock()

	if !ok || e.form.UserID != userID {
		return core.StoredForm{}, core.ErrNotFound
	}
	return clone(e.form)
}

func (s *Store) Update(ctx context.Context, f core.StoredForm) (core.StoredForm, error) {
	if err := ctx.Err(); err != nil {
		return core.StoredForm{}, err
	}
	f, err := clone(f)
	if err != nil {
		return core.StoredForm{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.forms[f.ID]
	if !ok || e.form.UserID != f.UserID {
		return core.StoredForm{}, core.ErrNotFound
	}
	// Owner, type and creation time are fixed at create.
	e.form.TaxYear = f.TaxYear
	e.form.Data = f.Data
	e.form.Mappings = f.Mappings
	e.form.UpdatedAt = f.UpdatedAt
	s.forms[f.ID] = e
	return clone(e.form)
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.forms[id]
	if !ok || e.form.UserID != userID {
		return core.ErrNotFound
	}
	delete(s.forms, id)
	return nil
}

func (s *Store) List(ctx context.Context, userID string, taxYear *int) ([]core.StoredForm, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]entry, 0)
	for _, e := range s.forms {
		if e.form.UserID != userID {
			continue
		}
		if taxYear != nil && e.form.TaxYear != *taxYear {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.form.CreatedAt.Equal(b.form.CreatedAt) {
			return a.form.CreatedAt.After(b.form.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]core.StoredForm, 0, len(matched))
	for _, e := range matched {
		f, err := clone(e.form)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// clone copies f so callers never share maps or slices with the store.
func clone(f core.StoredForm) (core.StoredForm, error) {
	data, err := codec.CloneData(f.Data)
	if err != nil {
		return core.StoredForm{}, err
	}
	f.Data = data
	f.Mappings = append(make([]core.MappingEntry, 0, len(f.Mappings)), f.Mappings...)
	return f, nil
}
