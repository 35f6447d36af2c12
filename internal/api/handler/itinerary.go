package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/models"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/response"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/provider/resilience"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/render"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/schedule"
)

const defaultListLimit = 50

// RecomputeEnqueuer enqueues an itinerary recompute job for the worker.
type RecomputeEnqueuer interface {
	EnqueueRecompute(ctx context.Context, itineraryID string) error
}

// ContentFetcher retrieves itinerary documents from the content store.
type ContentFetcher interface {
	FetchItinerary(ctx context.Context, slug string) (*itinerary.Itinerary, error)
}

// ItineraryHandler handles itinerary CRUD and rendering.
type ItineraryHandler struct {
	service  *itinerary.Service
	renderer *render.Service
	enqueuer RecomputeEnqueuer
	fetcher  ContentFetcher
}

// NewItineraryHandler creates a new ItineraryHandler. enqueuer and fetcher
// may be nil, which disables the recompute and import endpoints.
func NewItineraryHandler(service *itinerary.Service, renderer *render.Service, enqueuer RecomputeEnqueuer, fetcher ContentFetcher) *ItineraryHandler {
	return &ItineraryHandler{
		service:  service,
		renderer: renderer,
		enqueuer: enqueuer,
		fetcher:  fetcher,
	}
}

// List handles GET /v1/itineraries.
func (h *ItineraryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 200 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 200", nil)
			return
		}
		limit = parsed
	}

	result, err := h.service.List(r.Context(), itinerary.ListOptions{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		response.InternalError(w, r, "failed to list itineraries")
		return
	}

	data := make([]models.ItinerarySummary, 0, len(result.Items))
	for _, rec := range result.Items {
		data = append(data, models.ItinerarySummary{
			ID:        rec.ID,
			Title:     rec.Title,
			CreatedAt: models.Timestamp(rec.CreatedAt),
			UpdatedAt: models.Timestamp(rec.UpdatedAt),
		})
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	response.JSON(w, r, http.StatusOK, models.ItineraryListResponse{
		Data: data,
		Meta: models.PagedResponseMeta{Limit: limit, NextCursor: nextCursor},
	})
}

// Get handles GET /v1/itineraries/{itineraryId}.
func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itineraryId")

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, itinerary.ErrItineraryNotFound) {
			response.NotFound(w, r, "itinerary not found")
			return
		}
		response.InternalError(w, r, "failed to get itinerary")
		return
	}

	response.JSON(w, r, http.StatusOK, toItineraryResponse(rec))
}

// Create handles POST /v1/itineraries.
func (h *ItineraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if fieldErrors := req.Validate(); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "request validation failed", fieldErrors)
		return
	}

	rec, err := h.service.Create(r.Context(), req.Title, req.Document)
	if err != nil {
		response.InternalError(w, r, "failed to create itinerary")
		return
	}

	response.Created(w, r, "/v1/itineraries/"+rec.ID, toItineraryResponse(rec))
}

// Update handles PUT /v1/itineraries/{itineraryId}.
func (h *ItineraryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itineraryId")

	var req models.UpsertItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if fieldErrors := req.Validate(); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "request validation failed", fieldErrors)
		return
	}

	rec, err := h.service.Update(r.Context(), id, req.Title, req.Document)
	if err != nil {
		if errors.Is(err, itinerary.ErrItineraryNotFound) {
			response.NotFound(w, r, "itinerary not found")
			return
		}
		response.InternalError(w, r, "failed to update itinerary")
		return
	}

	response.JSON(w, r, http.StatusOK, toItineraryResponse(rec))
}

// Delete handles DELETE /v1/itineraries/{itineraryId}.
func (h *ItineraryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itineraryId")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, itinerary.ErrItineraryNotFound) {
			response.NotFound(w, r, "itinerary not found")
			return
		}
		response.InternalError(w, r, "failed to delete itinerary")
		return
	}

	response.NoContent(w, r)
}

// Render handles GET /v1/itineraries/{itineraryId}/render.
// Optional date and time query parameters override the document's landing
// anchor; both must be supplied together to take effect.
func (h *ItineraryHandler) Render(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "itineraryId")

	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, itinerary.ErrItineraryNotFound) {
			response.NotFound(w, r, "itinerary not found")
			return
		}
		response.InternalError(w, r, "failed to get itinerary")
		return
	}

	anchor := schedule.Anchor{
		Date: r.URL.Query().Get("date"),
		Time: r.URL.Query().Get("time"),
	}

	result, err := h.renderer.Render(rec.Document, anchor)
	if err != nil {
		if errors.Is(err, itinerary.ErrMissingDays) {
			response.Unrenderable(w, r, "stored document has no days sequence")
			return
		}
		response.InternalError(w, r, "failed to render itinerary")
		return
	}

	response.JSON(w, r, http.StatusOK, result)
}

// Recompute handles POST /v1/itineraries/{itineraryId}/recompute.
// Enqueues a background job that re-propagates the schedule and persists
// the computed times.
func (h *ItineraryHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		response.ServiceUnavailable(w, r, "recompute queue is not configured")
		return
	}

	id := chi.URLParam(r, "itineraryId")

	// Verify the itinerary exists before enqueueing.
	if _, err := h.service.Get(r.Context(), id); err != nil {
		if errors.Is(err, itinerary.ErrItineraryNotFound) {
			response.NotFound(w, r, "itinerary not found")
			return
		}
		response.InternalError(w, r, "failed to get itinerary")
		return
	}

	if err := h.enqueuer.EnqueueRecompute(r.Context(), id); err != nil {
		response.ServiceUnavailable(w, r, "failed to enqueue recompute job")
		return
	}

	response.Accepted(w, r, map[string]string{
		"itineraryId": id,
		"status":      "queued",
	})
}

// Import handles POST /v1/itineraries/import.
// Fetches a document from the content store by slug and stores it as a new
// itinerary.
func (h *ItineraryHandler) Import(w http.ResponseWriter, r *http.Request) {
	if h.fetcher == nil {
		response.ServiceUnavailable(w, r, "content store is not configured")
		return
	}

	var req models.ImportItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if fieldErrors := req.Validate(); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "request validation failed", fieldErrors)
		return
	}

	doc, err := h.fetcher.FetchItinerary(r.Context(), req.Slug)
	if err != nil {
		switch {
		case errors.Is(err, resilience.ErrProviderUnavailable):
			response.ServiceUnavailable(w, r, "content store is unavailable")
		case errors.Is(err, itinerary.ErrMissingDays):
			response.Unrenderable(w, r, "content store document has no days sequence")
		default:
			response.ServiceUnavailable(w, r, "failed to fetch document from content store")
		}
		return
	}

	title := doc.Title
	if title == "" {
		title = req.Slug
	}

	rec, err := h.service.Create(r.Context(), title, doc)
	if err != nil {
		response.InternalError(w, r, "failed to store imported itinerary")
		return
	}

	response.Created(w, r, "/v1/itineraries/"+rec.ID, toItineraryResponse(rec))
}

func toItineraryResponse(rec *itinerary.Record) models.ItineraryResponse {
	return models.ItineraryResponse{
		ID:        rec.ID,
		Title:     rec.Title,
		Document:  rec.Document,
		CreatedAt: models.Timestamp(rec.CreatedAt),
		UpdatedAt: models.Timestamp(rec.UpdatedAt),
	}
}
