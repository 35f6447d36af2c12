package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/api"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/api/models"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/auth"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/render"
)

// testJWTService creates a JWT service for generating test tokens.
func testJWTService() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.usavanrail.example.com",
		Audience:   "usa-van-rail-api",
	})
}

// generateTestToken generates a valid editor token.
func generateTestToken(t *testing.T) string {
	t.Helper()
	token, _, err := testJWTService().GenerateAccessToken("edt_reviewer")
	require.NoError(t, err)
	return token
}

// fakeFetcher serves a canned document for import tests.
type fakeFetcher struct {
	doc *itinerary.Itinerary
	err error
}

func (f *fakeFetcher) FetchItinerary(_ context.Context, _ string) (*itinerary.Itinerary, error) {
	return f.doc, f.err
}

func newTestRouter(opts ...func(*api.RouterConfig)) http.Handler {
	logger := zerolog.New(io.Discard)
	cfg := api.RouterConfig{
		Version:     "test",
		BuildTime:   "2024-01-01T00:00:00Z",
		Logger:      logger,
		ServiceName: "usa-van-rail-api",
		JWTService:  testJWTService(),
		EditorKeys:  map[string]string{"edt_reviewer": "reviewer-key"},
		ItineraryService: itinerary.NewService(itinerary.ServiceConfig{
			Logger:     logger,
			Repository: itinerary.NewMemoryRepository(),
		}),
		RenderService: render.NewService(render.ServiceConfig{Logger: logger}),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return api.NewRouter(cfg)
}

// addAuthHeader adds a valid Bearer token to the request.
func addAuthHeader(t *testing.T, req *http.Request) {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t))
}

func testDocument() *itinerary.Itinerary {
	return &itinerary.Itinerary{
		Title:     "East Coast Loop",
		StartDate: "2025-06-01",
		Landing:   &itinerary.Landing{ArrivalTime: "14:30"},
		Days: []itinerary.Day{
			{
				Day:  1,
				Date: "2025-06-01",
				Stops: []itinerary.Stop{
					{
						Name:   "JFK Airport",
						Type:   itinerary.StopTypeAirport,
						Coords: itinerary.NewCoordinate(40.6413, -73.7781),
					},
					{
						Name:     "Drive to hotel",
						Type:     itinerary.StopTypeTransfer,
						ToCoords: itinerary.NewCoordinate(40.758, -73.9855),
						Computed: &itinerary.Computed{DriveMinutes: 45},
					},
					{
						Name:   "Hotel",
						Type:   itinerary.StopTypeHotel,
						Coords: itinerary.NewCoordinate(40.758, -73.9855),
					},
				},
				Segments: []itinerary.Segment{
					{
						Mode: "drive",
						From: itinerary.Endpoint{
							Name:   "JFK Airport",
							Coords: itinerary.NewCoordinate(40.6413, -73.7781),
						},
						To: itinerary.Endpoint{
							Name:   "Hotel",
							Coords: itinerary.NewCoordinate(40.758, -73.9855),
						},
					},
				},
			},
		},
	}
}

func upsertBody(t *testing.T, title string, doc *itinerary.Itinerary) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(models.UpsertItineraryRequest{Title: title, Document: doc})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

// createItinerary stores a document through the API and returns its ID.
func createItinerary(t *testing.T, router http.Handler) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", upsertBody(t, "East Coast Loop", testDocument()))
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.ItineraryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_SystemStatusRequiresAuth(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_TokenExchange(t *testing.T) {
	router := newTestRouter()

	body := bytes.NewReader([]byte(`{"editorId":"edt_reviewer","editorKey":"reviewer-key"}`))
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", body)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Positive(t, resp.ExpiresIn)
}

func TestRouter_TokenExchangeWrongKey(t *testing.T) {
	router := newTestRouter()

	body := bytes.NewReader([]byte(`{"editorId":"edt_reviewer","editorKey":"wrong"}`))
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/token", body)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CreateRequiresAuth(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", upsertBody(t, "East Coast Loop", testDocument()))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CreateAndGet(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", upsertBody(t, "East Coast Loop", testDocument()))
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	location := w.Header().Get("Location")
	require.NotEmpty(t, location)

	req = httptest.NewRequest(http.MethodGet, location, http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ItineraryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "East Coast Loop", resp.Title)
	require.NotNil(t, resp.Document)
	assert.Len(t, resp.Document.Days, 1)
}

func TestRouter_CreateRejectsDocumentWithoutDays(t *testing.T) {
	router := newTestRouter()

	doc := testDocument()
	doc.Days = nil
	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries", upsertBody(t, "Broken", doc))
	addAuthHeader(t, req)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "document.days")
}

func TestRouter_List(t *testing.T) {
	router := newTestRouter()
	createItinerary(t, router)

	req := httptest.NewRequest(http.MethodGet, "/v1/itineraries", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ItineraryListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "East Coast Loop", resp.Data[0].Title)
}

func TestRouter_Render(t *testing.T) {
	router := newTestRouter()
	id := createItinerary(t, router)

	req := httptest.NewRequest(http.MethodGet, "/v1/itineraries/"+id+"/render", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result render.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Days, 1)

	day := result.Days[0]
	require.Len(t, day.Stops, 3)
	assert.Equal(t, "14:30", day.Stops[0].Computed.ArrivalTime)
	assert.Equal(t, "16:30", day.Stops[0].Computed.DepartureTime)
	assert.Equal(t, "19:45", day.Stops[2].Computed.DepartureTime)

	require.Len(t, day.Paths, 1)
	assert.True(t, day.Paths[0].Approximated)
	assert.Len(t, day.Markers, 3)
}

func TestRouter_RenderUnknownItinerary(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/itineraries/itn_missing/render", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_UpdateAndDelete(t *testing.T) {
	router := newTestRouter()
	id := createItinerary(t, router)

	req := httptest.NewRequest(http.MethodPut, "/v1/itineraries/"+id, upsertBody(t, "Renamed Loop", testDocument()))
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.ItineraryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Renamed Loop", resp.Title)

	req = httptest.NewRequest(http.MethodDelete, "/v1/itineraries/"+id, http.NoBody)
	addAuthHeader(t, req)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/itineraries/"+id, http.NoBody)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RecomputeUnavailableWithoutQueue(t *testing.T) {
	router := newTestRouter()
	id := createItinerary(t, router)

	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries/"+id+"/recompute", http.NoBody)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Import(t *testing.T) {
	router := newTestRouter(func(cfg *api.RouterConfig) {
		cfg.Fetcher = &fakeFetcher{doc: testDocument()}
	})

	body := bytes.NewReader([]byte(`{"slug":"east-coast-loop"}`))
	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries/import", body)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.ItineraryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "East Coast Loop", resp.Title)
	assert.NotEmpty(t, w.Header().Get("Location"))
}

func TestRouter_ImportFetchFailure(t *testing.T) {
	router := newTestRouter(func(cfg *api.RouterConfig) {
		cfg.Fetcher = &fakeFetcher{err: errors.New("content store down")}
	})

	body := bytes.NewReader([]byte(`{"slug":"east-coast-loop"}`))
	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries/import", body)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_ImportUnavailableWithoutContentStore(t *testing.T) {
	router := newTestRouter()

	body := bytes.NewReader([]byte(`{"slug":"east-coast-loop"}`))
	req := httptest.NewRequest(http.MethodPost, "/v1/itineraries/import", body)
	addAuthHeader(t, req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_SecurityHeaders(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}
