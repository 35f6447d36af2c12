package render

import (
	"github.com/rs/zerolog"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/geometry"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/internal/schedule"
)

// ServiceConfig holds configuration for the render service.
type ServiceConfig struct {
	// Logger for per-item skip warnings.
	Logger zerolog.Logger

	// Engine propagates the landing anchor before rendering.
	Engine *schedule.Engine

	// Icons maps stop types and subtypes to marker icons. Optional.
	Icons IconMap
}

// Service renders itineraries into the presentation contract.
type Service struct {
	logger zerolog.Logger
	engine *schedule.Engine
	icons  IconMap
}

// NewService creates a render service.
func NewService(cfg ServiceConfig) *Service {
	engine := cfg.Engine
	if engine == nil {
		engine = schedule.NewEngine(schedule.EngineConfig{Logger: cfg.Logger})
	}
	return &Service{
		logger: cfg.Logger,
		engine: engine,
		icons:  cfg.Icons,
	}
}

// Render propagates the anchor through the itinerary and resolves all
// segment geometry. An incomplete anchor falls back to the document's own
// landing fields. Per-item failures (a stop without coordinates, a segment
// with no renderable geometry) are skipped with a warning and counted;
// only a structurally broken document (no days sequence) fails the render.
func (s *Service) Render(itin *itinerary.Itinerary, anchor schedule.Anchor) (*Result, error) {
	if err := itin.Validate(); err != nil {
		return nil, err
	}

	if !anchor.Complete() {
		anchor = schedule.Anchor{
			Date: itin.DefaultAnchorDate(),
			Time: itin.DefaultAnchorTime(),
		}
	}
	s.engine.Propagate(itin, anchor)

	result := &Result{
		Title:      itin.Title,
		DateAnchor: itin.DateAnchor,
		Days:       make([]Day, 0, len(itin.Days)),
	}
	if anchor.Complete() {
		result.AnchorDate = anchor.Date
		result.AnchorTime = anchor.Time
	}

	for i := range itin.Days {
		result.Days = append(result.Days, s.renderDay(&itin.Days[i]))
	}

	return result, nil
}

func (s *Service) renderDay(day *itinerary.Day) Day {
	rendered := Day{
		Day:         day.Day,
		Date:        day.Date,
		Title:       day.Title,
		Summary:     day.Summary,
		StaySummary: day.StaySummary,
		Stops:       day.Stops,
		Markers:     make([]Marker, 0, len(day.Stops)),
		Paths:       make([]Path, 0, len(day.Segments)),
	}

	for i := range day.Stops {
		stop := &day.Stops[i]
		coords, ok := markerCoords(stop)
		if !ok {
			rendered.SkippedMarkers++
			s.logger.Warn().
				Int("day", day.Day).
				Str("stop", stop.Name).
				Msg("stop has no usable coordinates, marker skipped")
			continue
		}
		rendered.Markers = append(rendered.Markers, Marker{
			Name:    stop.Name,
			Type:    stop.Type,
			Subtype: stop.Subtype,
			Icon:    s.markerIcon(stop),
			Coords:  coords,
		})
	}

	for i := range day.Segments {
		seg := day.Segments[i]
		path, err := geometry.Resolve(seg)
		if err != nil {
			rendered.SkippedSegments++
			s.logger.Warn().
				Int("day", day.Day).
				Str("from", seg.From.Name).
				Str("to", seg.To.Name).
				Err(err).
				Msg("segment skipped")
			continue
		}

		points := make([][2]float64, 0, len(path.Points))
		for _, p := range path.Points {
			points = append(points, [2]float64{p.Lat, p.Lon})
		}
		rendered.Paths = append(rendered.Paths, Path{
			Mode:         seg.Mode,
			Summary:      seg.Summary,
			DistanceText: seg.DistanceText,
			DurationText: seg.DurationText,
			Points:       points,
			Approximated: path.Approximated,
		})
	}

	return rendered
}

// markerIcon looks up the marker icon, preferring the stop subtype over its
// type.
func (s *Service) markerIcon(stop *itinerary.Stop) string {
	if s.icons == nil {
		return ""
	}
	if icon, ok := s.icons[stop.Subtype]; ok && stop.Subtype != "" {
		return icon
	}
	return s.icons[stop.Type]
}

// markerCoords picks the marker position for a stop: its own coordinates
// first, then the transition endpoints.
func markerCoords(stop *itinerary.Stop) ([2]float64, bool) {
	for _, c := range []itinerary.Coordinate{stop.Coords, stop.FromCoords, stop.ToCoords} {
		if c.Valid() {
			return [2]float64{c.Lat, c.Lon}, true
		}
	}
	return [2]float64{}, false
}
