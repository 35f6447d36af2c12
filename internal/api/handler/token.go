package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/models"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/response"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/auth"
)

// TokenHandler exchanges a pre-shared editor key for an access token.
// Editor keys are provisioned out of band.
type TokenHandler struct {
	jwtService *auth.JWTService
	editorKeys map[string]string
}

// NewTokenHandler creates a new TokenHandler. editorKeys maps editor IDs to
// their pre-shared keys.
func NewTokenHandler(jwtService *auth.JWTService, editorKeys map[string]string) *TokenHandler {
	return &TokenHandler{
		jwtService: jwtService,
		editorKeys: editorKeys,
	}
}

// IssueToken handles POST /v1/auth/token.
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}

	if fieldErrors := req.Validate(); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "request validation failed", fieldErrors)
		return
	}

	key, ok := h.editorKeys[req.EditorID]
	if !ok || subtle.ConstantTimeCompare([]byte(key), []byte(req.EditorKey)) != 1 {
		response.Unauthorized(w, r, "unknown editor or wrong key")
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAccessToken(req.EditorID)
	if err != nil {
		response.InternalError(w, r, "failed to issue token")
		return
	}

	response.JSON(w, r, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(expiresAt).Seconds()),
	})
}
