package overpass

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
)

func sampleFrame() *Frame {
	return &Frame{
		Features: []Feature{
			{
				Type:     ElementNode,
				ID:       1,
				Geometry: orb.Point{13.01, 52.01},
				Tags:     map[string]string{"amenity": "cafe", "name": "Joe's"},
			},
			{
				Type:     ElementWay,
				ID:       100,
				Geometry: orb.LineString{{13.01, 52.01}, {13.02, 52.02}},
				Tags:     map[string]string{"highway": "residential"},
			},
		},
	}
}

func TestFrameFilterGeometry(t *testing.T) {
	frame := sampleFrame()

	lines := frame.FilterGeometry("LineString")
	if lines.Len() != 1 || lines.Features[0].ID != 100 {
		t.Errorf("FilterGeometry(LineString) = %+v", lines.Features)
	}

	if frame.FilterGeometry("Polygon").Len() != 0 {
		t.Error("FilterGeometry(Polygon) should be empty")
	}

	// The source frame is untouched.
	if frame.Len() != 2 {
		t.Errorf("source frame mutated, Len() = %d", frame.Len())
	}
}

func TestFrameColumn(t *testing.T) {
	frame := sampleFrame()

	col := frame.Column("name")
	if len(col) != 2 || col[0] != "Joe's" || col[1] != "" {
		t.Errorf("Column(name) = %v", col)
	}
}

func TestFrameGeoJSON(t *testing.T) {
	frame := sampleFrame()
	frame.Features[0].Meta = &Meta{Version: 2, Changeset: 99, User: "mapper", UID: 7}

	fc := frame.GeoJSON()
	if len(fc.Features) != 2 {
		t.Fatalf("len(features) = %d, want 2", len(fc.Features))
	}

	props := fc.Features[0].Properties
	if props["@osm_id"] != int64(1) || props["@osm_type"] != "node" {
		t.Errorf("identity properties = %v", props)
	}
	if props["amenity"] != "cafe" {
		t.Errorf("tag property amenity = %v", props["amenity"])
	}
	if props["@version"] != 2 || props["@user"] != "mapper" {
		t.Errorf("meta properties = %v", props)
	}

	// The collection must marshal to valid GeoJSON.
	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc["type"] != "FeatureCollection" {
		t.Errorf("type = %v, want FeatureCollection", doc["type"])
	}
}
