package itinerary

import (
	"context"
	"time"
)

// Record is a stored itinerary document with its metadata.
type Record struct {
	ID        string
	Title     string
	Document  *Itinerary
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListOptions controls pagination for List.
type ListOptions struct {
	// Limit is the maximum number of items per page (default: 50).
	Limit int

	// Cursor is an opaque pagination cursor from a previous ListResult.
	Cursor string
}

// ListResult is a page of itinerary records.
type ListResult struct {
	Items      []*Record
	NextCursor string
}

// Repository defines storage operations for itinerary documents.
type Repository interface {
	// Get retrieves an itinerary record by ID.
	// Returns ErrItineraryNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// List retrieves itinerary records, newest first.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Create stores a new itinerary record.
	Create(ctx context.Context, rec *Record) error

	// Update replaces the document and title of an existing record.
	// Returns ErrItineraryNotFound if it does not exist.
	Update(ctx context.Context, rec *Record) error

	// Delete removes an itinerary record by ID.
	Delete(ctx context.Context, id string) error

	// IDs returns the IDs of all stored itineraries, for bulk recompute.
	IDs(ctx context.Context) ([]string, error)
}
