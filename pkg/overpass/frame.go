package overpass

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature is one row of a result frame: an OSM element with its geometry
// and tag mapping.
type Feature struct {
	Type     ElementType
	ID       int64
	Geometry orb.Geometry
	Tags     map[string]string
	Meta     *Meta
}

// Frame is the ordered result of a query. It is created fresh per call and
// owned solely by the caller; the library keeps no reference to it.
type Frame struct {
	Features []Feature
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Features)
}

// FilterGeometry returns a new frame containing only rows whose geometry
// has the given GeoJSON type ("Point", "LineString", "Polygon", ...).
func (f *Frame) FilterGeometry(geoJSONType string) *Frame {
	out := &Frame{}
	for _, feat := range f.Features {
		if feat.Geometry != nil && feat.Geometry.GeoJSONType() == geoJSONType {
			out.Features = append(out.Features, feat)
		}
	}
	return out
}

// Column extracts the value of a tag key across all rows, aligned with
// Features. Rows without the key yield the empty string.
func (f *Frame) Column(key string) []string {
	col := make([]string, len(f.Features))
	for i, feat := range f.Features {
		col[i] = feat.Tags[key]
	}
	return col
}

// GeoJSON renders the frame as a GeoJSON feature collection. Element
// identity goes into "@osm_id" and "@osm_type" properties, metadata into
// "@"-prefixed properties, and tags become plain properties.
func (f *Frame) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, feat := range f.Features {
		gf := geojson.NewFeature(feat.Geometry)
		gf.Properties["@osm_id"] = feat.ID
		gf.Properties["@osm_type"] = string(feat.Type)

		if feat.Meta != nil {
			gf.Properties["@version"] = feat.Meta.Version
			gf.Properties["@changeset"] = feat.Meta.Changeset
			if !feat.Meta.Timestamp.IsZero() {
				gf.Properties["@timestamp"] = feat.Meta.Timestamp.Format(time.RFC3339)
			}
			if feat.Meta.User != "" {
				gf.Properties["@user"] = feat.Meta.User
				gf.Properties["@uid"] = feat.Meta.UID
			}
		}

		for k, v := range feat.Tags {
			gf.Properties[k] = v
		}

		fc.Features = append(fc.Features, gf)
	}
	return fc
}
