package geometry

import (
	"errors"
	"testing"

	"github.com/sagivbu-gif/usa-van-rail-site/internal/itinerary"
	"github.com/sagivbu-gif/usa-van-rail-site/pkg/polyline"
)

func segmentWithEndpoints(fromLat, fromLon, toLat, toLon float64) itinerary.Segment {
	return itinerary.Segment{
		From: itinerary.Endpoint{Coords: itinerary.NewCoordinate(fromLat, fromLon)},
		To:   itinerary.Endpoint{Coords: itinerary.NewCoordinate(toLat, toLon)},
	}
}

func TestResolve_RawPolylineUsedVerbatim(t *testing.T) {
	seg := segmentWithEndpoints(40.7580, -73.9855, 39.7392, -104.9903)
	seg.Polyline = []itinerary.Coordinate{
		itinerary.NewCoordinate(40.7580, -73.9855),
		itinerary.NewCoordinate(41.0, -80.0),
		itinerary.NewCoordinate(39.7392, -104.9903),
	}

	path, err := Resolve(seg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path.Approximated {
		t.Error("raw polyline should not be reported as approximated")
	}
	if len(path.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(path.Points))
	}
	if path.Points[1] != (polyline.Coordinate{Lat: 41.0, Lon: -80.0}) {
		t.Errorf("unexpected midpoint: %+v", path.Points[1])
	}
}

func TestResolve_EncodedPolylineDecoded(t *testing.T) {
	seg := segmentWithEndpoints(38.5, -120.2, 43.252, -126.453)
	seg.EncodedPolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

	path, err := Resolve(seg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path.Approximated {
		t.Error("decoded polyline should not be reported as approximated")
	}
	if len(path.Points) != 3 {
		t.Fatalf("expected 3 decoded points, got %d", len(path.Points))
	}
}

func TestResolve_StraightLineFallback(t *testing.T) {
	seg := segmentWithEndpoints(0, 0, 1, 1)

	path, err := Resolve(seg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !path.Approximated {
		t.Error("fallback path must be reported as approximated")
	}
	want := []polyline.Coordinate{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}
	if len(path.Points) != 2 || path.Points[0] != want[0] || path.Points[1] != want[1] {
		t.Errorf("expected %v, got %v", want, path.Points)
	}
}

func TestResolve_EmptyDecodeFallsBack(t *testing.T) {
	seg := segmentWithEndpoints(10, 20, 30, 40)
	// A single continuation byte is an unfinished value: decodes to nothing.
	seg.EncodedPolyline = string(rune(0x20 + 63))

	path, err := Resolve(seg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !path.Approximated {
		t.Error("empty decode must fall back to the approximated straight line")
	}
	if len(path.Points) != 2 {
		t.Fatalf("expected 2 fallback points, got %d", len(path.Points))
	}
}

func TestResolve_InvalidRawFirstElementTriesEncoded(t *testing.T) {
	seg := segmentWithEndpoints(38.5, -120.2, 40.7, -120.95)
	seg.Polyline = []itinerary.Coordinate{{}} // present but invalid
	seg.EncodedPolyline = "_p~iF~ps|U_ulLnnqC"

	path, err := Resolve(seg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path.Approximated {
		t.Error("encoded polyline should have been used")
	}
	if len(path.Points) != 2 {
		t.Fatalf("expected 2 decoded points, got %d", len(path.Points))
	}
}

func TestResolve_MissingEndpointsRefused(t *testing.T) {
	tests := []struct {
		name string
		seg  itinerary.Segment
	}{
		{
			name: "no endpoint coords at all",
			seg:  itinerary.Segment{},
		},
		{
			name: "missing destination",
			seg: itinerary.Segment{
				From: itinerary.Endpoint{Coords: itinerary.NewCoordinate(1, 2)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.seg)
			if !errors.Is(err, ErrNoRenderableGeometry) {
				t.Errorf("expected ErrNoRenderableGeometry, got %v", err)
			}
		})
	}
}
