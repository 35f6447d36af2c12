package itinerary

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository, used in
// tests and local development without a database.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryRepository creates a new in-memory itinerary repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*Record)}
}

// Get retrieves an itinerary record by ID.
func (r *MemoryRepository) Get(_ context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrItineraryNotFound
	}
	cp := *rec
	return &cp, nil
}

// List retrieves itinerary records, newest first.
func (r *MemoryRepository) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	var records []*Record
	for _, rec := range r.records {
		cp := *rec
		records = append(records, &cp)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID > records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	start := 0
	if opts.Cursor != "" {
		for i, rec := range records {
			if rec.ID == opts.Cursor {
				start = i + 1
				break
			}
		}
	}
	records = records[start:]

	result := &ListResult{Items: records}
	if len(records) > limit {
		result.Items = records[:limit]
		result.NextCursor = records[limit-1].ID
	}
	return result, nil
}

// Create stores a new itinerary record.
func (r *MemoryRepository) Create(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *rec
	r.records[rec.ID] = &cp
	return nil
}

// Update replaces the document and title of an existing record.
func (r *MemoryRepository) Update(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.records[rec.ID]
	if !ok {
		return ErrItineraryNotFound
	}
	existing.Title = rec.Title
	existing.Document = rec.Document
	existing.UpdatedAt = rec.UpdatedAt
	return nil
}

// Delete removes an itinerary record by ID.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, id)
	return nil
}

// IDs returns the IDs of all stored itineraries.
func (r *MemoryRepository) IDs(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Ensure MemoryRepository implements Repository interface.
var _ Repository = (*MemoryRepository)(nil)
