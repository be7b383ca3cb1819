// Package memory is an in-process supplier registry and ledger store.
// Data lives as long as the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rezonia/fattura-processor/internal/model"
)

// Store keeps suppliers and journal entries in maps guarded by one lock
type Store struct {
	mu        sync.RWMutex
	suppliers map[string]model.SupplierRecord
	entries   map[string][]model.JournalEntry
}

// New creates an empty store
func New() *Store {
	return &Store{
		suppliers: make(map[string]model.SupplierRecord),
		entries:   make(map[string][]model.JournalEntry),
	}
}

// FindByID returns the supplier with the given ID
func (s *Store) FindByID(_ context.Context, id string) (*model.SupplierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.suppliers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &rec, nil
}

// FindByTaxID returns the supplier with exactly this tax ID
func (s *Store) FindByTaxID(_ context.Context, taxID string) (*model.SupplierRecord, error) {
	return s.find(func(r model.SupplierRecord) bool { return taxID != "" && r.TaxID == taxID })
}

// FindByFiscalCode returns the first supplier with this fiscal code
func (s *Store) FindByFiscalCode(_ context.Context, fiscalCode string) (*model.SupplierRecord, error) {
	return s.find(func(r model.SupplierRecord) bool { return fiscalCode != "" && r.FiscalCode == fiscalCode })
}

func (s *Store) find(match func(model.SupplierRecord) bool) (*model.SupplierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.suppliers {
		if match(rec) {
			found := rec
			return &found, nil
		}
	}
	return nil, model.ErrNotFound
}

// Create inserts a supplier. A non-empty tax ID must be unique.
func (s *Store) Create(_ context.Context, rec *model.SupplierRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.TaxID != "" {
		for _, existing := range s.suppliers {
			if existing.TaxID == rec.TaxID {
				return model.ErrDuplicateSupplier
			}
		}
	}
	s.suppliers[rec.ID] = *rec
	return nil
}

// Update replaces an existing supplier
func (s *Store) Update(_ context.Context, rec *model.SupplierRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[rec.ID]; !ok {
		return model.ErrNotFound
	}
	if rec.TaxID != "" {
		for id, existing := range s.suppliers {
			if id != rec.ID && existing.TaxID == rec.TaxID {
				return model.ErrDuplicateSupplier
			}
		}
	}
	s.suppliers[rec.ID] = *rec
	return nil
}

// Delete removes a supplier
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.suppliers, id)
	return nil
}

// Suppliers returns every supplier ordered by name
func (s *Store) Suppliers(_ context.Context) ([]model.SupplierRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SupplierRecord, 0, len(s.suppliers))
	for _, rec := range s.suppliers {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AppendEntries stores a batch under a single lock acquisition
func (s *Store) AppendEntries(_ context.Context, entries []model.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.entries[e.ClosureID] = append(s.entries[e.ClosureID], e)
	}
	return nil
}

// DeleteByClosure removes every entry of a closure and returns how many
func (s *Store) DeleteByClosure(_ context.Context, closureID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries[closureID])
	delete(s.entries, closureID)
	return n, nil
}

// ListByClosure returns the entries of a closure in insertion order
func (s *Store) ListByClosure(_ context.Context, closureID string) ([]model.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.JournalEntry, len(s.entries[closureID]))
	copy(out, s.entries[closureID])
	return out, nil
}
