package itinerary

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the itinerary service.
type ServiceConfig struct {
	Logger     zerolog.Logger
	Repository Repository
}

// Service provides stored itinerary operations.
type Service struct {
	logger zerolog.Logger
	repo   Repository
}

// NewService creates a new itinerary service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		logger: cfg.Logger,
		repo:   cfg.Repository,
	}
}

// Get retrieves a stored itinerary by ID.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves stored itineraries, newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	return s.repo.List(ctx, opts)
}

// Create validates and stores a new itinerary document.
func (s *Service) Create(ctx context.Context, title string, doc *Itinerary) (*Record, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &Record{
		ID:        "itn_" + uuid.New().String()[:22],
		Title:     title,
		Document:  doc,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info().Str("itinerary_id", rec.ID).Msg("itinerary created")
	return rec, nil
}

// Update replaces the document of an existing itinerary.
func (s *Service) Update(ctx context.Context, id, title string, doc *Itinerary) (*Record, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rec.Title = title
	rec.Document = doc
	rec.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info().Str("itinerary_id", rec.ID).Msg("itinerary updated")
	return rec, nil
}

// Delete removes a stored itinerary. Deleting an unknown ID is an error so
// editors notice typos.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		if errors.Is(err, ErrItineraryNotFound) {
			return ErrItineraryNotFound
		}
		return err
	}
	return s.repo.Delete(ctx, id)
}

// IDs returns the IDs of all stored itineraries for bulk recompute.
func (s *Service) IDs(ctx context.Context) ([]string, error) {
	return s.repo.IDs(ctx)
}
