package models

import (
	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
)

// ItinerarySummary is a list-view representation of a stored itinerary.
type ItinerarySummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// ItineraryListResponse is the paged list of stored itineraries.
type ItineraryListResponse struct {
	Data []ItinerarySummary `json:"data"`
	Meta PagedResponseMeta  `json:"meta"`
}

// ItineraryResponse is a single stored itinerary with its full document.
type ItineraryResponse struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Document  *itinerary.Itinerary `json:"document"`
	CreatedAt Timestamp            `json:"createdAt"`
	UpdatedAt Timestamp            `json:"updatedAt"`
}

// UpsertItineraryRequest is the body for creating or replacing an itinerary.
type UpsertItineraryRequest struct {
	Title    string               `json:"title"`
	Document *itinerary.Itinerary `json:"document"`
}

// Validate validates the upsert request.
func (r *UpsertItineraryRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Title == "" {
		errors = append(errors, FieldError{
			Field:   "title",
			Message: "title is required",
			Code:    "REQUIRED",
		})
	}

	if r.Document == nil {
		errors = append(errors, FieldError{
			Field:   "document",
			Message: "document is required",
			Code:    "REQUIRED",
		})
	} else if err := r.Document.Validate(); err != nil {
		errors = append(errors, FieldError{
			Field:   "document.days",
			Message: "document must contain a days sequence",
			Code:    "INVALID",
		})
	}

	return errors
}

// ImportItineraryRequest is the body for importing an itinerary document
// from the content store.
type ImportItineraryRequest struct {
	Slug string `json:"slug"`
}

// Validate validates the import request.
func (r *ImportItineraryRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Slug == "" {
		errors = append(errors, FieldError{
			Field:   "slug",
			Message: "slug is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// TokenRequest is the body for exchanging an editor key for an access token.
type TokenRequest struct {
	EditorID  string `json:"editorId"`
	EditorKey string `json:"editorKey"`
}

// Validate validates the token request.
func (r *TokenRequest) Validate() []FieldError {
	var errors []FieldError

	if r.EditorID == "" {
		errors = append(errors, FieldError{
			Field:   "editorId",
			Message: "editor id is required",
			Code:    "REQUIRED",
		})
	}
	if r.EditorKey == "" {
		errors = append(errors, FieldError{
			Field:   "editorKey",
			Message: "editor key is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// TokenResponse is returned after a successful token exchange.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}
