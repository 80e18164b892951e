package overpass

import (
	"log/slog"

	"github.com/paulmach/orb"
)

// Tags dropped during frame assembly so bookkeeping noise doesn't clobber
// the output columns. The list comes from osmtogeojson.
var uninterestingTags = map[string]struct{}{
	"source":            {},
	"source_ref":        {},
	"source:ref":        {},
	"history":           {},
	"attribution":       {},
	"created_by":        {},
	"tiger:county":      {},
	"tiger:tlid":        {},
	"tiger:upload_uuid": {},
}

// interestingTags returns a copy of tags with the uninteresting keys
// removed, or nil if nothing remains.
func interestingTags(tags map[string]string) map[string]string {
	var out map[string]string
	for k, v := range tags {
		if _, drop := uninterestingTags[k]; drop {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	return out
}

// assembleFrame converts decoded elements into a result frame, resolving
// way and relation geometries against the nodes fetched by recursion.
// Response order is preserved.
func assembleFrame(elements []Element, keepUntagged bool, logger *slog.Logger) *Frame {
	nodePoints := make(map[int64]orb.Point)
	for _, e := range elements {
		if e.Type == ElementNode {
			nodePoints[e.ID] = orb.Point{e.Lon, e.Lat}
		}
	}

	wayGeoms := make(map[int64]orb.Geometry)
	for _, e := range elements {
		if e.Type != ElementWay {
			continue
		}
		geom, ok := wayGeometry(e, nodePoints)
		if !ok {
			logger.Debug("skipping way with unresolvable node refs",
				"way_id", e.ID, "node_count", len(e.Nodes))
			continue
		}
		wayGeoms[e.ID] = geom
	}

	frame := &Frame{}
	for _, e := range elements {
		tags := interestingTags(e.Tags)

		var geom orb.Geometry
		switch e.Type {
		case ElementNode:
			// Recursion pulls in plain geometry nodes; they only become
			// rows when tagged, unless the caller asked to keep them.
			if len(tags) == 0 && !keepUntagged {
				continue
			}
			geom = nodePoints[e.ID]
		case ElementWay:
			g, ok := wayGeoms[e.ID]
			if !ok {
				continue
			}
			geom = g
		case ElementRelation:
			g, ok := relationGeometry(e, nodePoints, wayGeoms)
			if !ok {
				logger.Debug("skipping relation with no resolvable members",
					"relation_id", e.ID, "member_count", len(e.Members))
				continue
			}
			geom = g
		}

		frame.Features = append(frame.Features, Feature{
			Type:     e.Type,
			ID:       e.ID,
			Geometry: geom,
			Tags:     tags,
			Meta:     e.Meta,
		})
	}

	return frame
}

// wayGeometry builds the geometry for a way: a LineString, or a Polygon
// when the node sequence forms a closed ring. Returns false if any node
// ref cannot be resolved.
func wayGeometry(way Element, nodePoints map[int64]orb.Point) (orb.Geometry, bool) {
	if len(way.Nodes) == 0 {
		return nil, false
	}

	line := make(orb.LineString, 0, len(way.Nodes))
	for _, ref := range way.Nodes {
		pt, ok := nodePoints[ref]
		if !ok {
			return nil, false
		}
		line = append(line, pt)
	}

	if len(line) >= 4 && line[0] == line[len(line)-1] {
		return orb.Polygon{orb.Ring(line)}, true
	}
	return line, true
}

// relationGeometry builds a multi-geometry from the relation's resolvable
// members. Members missing from the response are ignored; if none resolve,
// ok is false.
func relationGeometry(rel Element, nodePoints map[int64]orb.Point, wayGeoms map[int64]orb.Geometry) (orb.Geometry, bool) {
	var parts orb.Collection
	for _, m := range rel.Members {
		switch m.Type {
		case ElementNode:
			if pt, ok := nodePoints[m.Ref]; ok {
				parts = append(parts, pt)
			}
		case ElementWay:
			if g, ok := wayGeoms[m.Ref]; ok {
				parts = append(parts, g)
			}
		}
	}
	if len(parts) == 0 {
		return nil, false
	}
	return parts, true
}
