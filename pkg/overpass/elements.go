package overpass

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"time"

	"github.com/paulmach/osm"
)

// Element is a single OSM entity decoded from an Overpass response, before
// geometry assembly.
type Element struct {
	Type    ElementType
	ID      int64
	Lat     float64 // nodes only
	Lon     float64 // nodes only
	Nodes   []int64 // ways: ordered member node refs
	Members []Member
	Tags    map[string]string
	Meta    *Meta // populated when the query ran with meta output
}

// Member is a relation member reference.
type Member struct {
	Type ElementType
	Ref  int64
	Role string
}

// Meta carries the optional OSM object metadata.
type Meta struct {
	Version   int
	Changeset int64
	Timestamp time.Time
	User      string
	UID       int64
}

// overpassResponse is the JSON wire shape of an Overpass result.
type overpassResponse struct {
	Remark   string        `json:"remark,omitempty"`
	Elements []wireElement `json:"elements"`
}

type wireElement struct {
	Type    string  `json:"type"`
	ID      int64   `json:"id"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
	Nodes   []int64 `json:"nodes,omitempty"`
	Members []struct {
		Type string `json:"type"`
		Ref  int64  `json:"ref"`
		Role string `json:"role"`
	} `json:"members,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`

	// Metadata, present with "out meta"
	Version   int        `json:"version,omitempty"`
	Changeset int64      `json:"changeset,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	User      string     `json:"user,omitempty"`
	UID       int64      `json:"uid,omitempty"`
}

// decodeElements parses an Overpass response body, which is either JSON
// ([out:json]) or legacy OSM XML ([out:xml]), into element records. The
// format is detected from the payload itself. It returns the elements and
// any server remark embedded in the response.
func decodeElements(body []byte) ([]Element, string, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, "", NewError(ErrParse, "empty response body")
	}

	switch trimmed[0] {
	case '{':
		return decodeJSON(trimmed)
	case '<':
		elements, err := decodeXML(trimmed)
		return elements, "", err
	}
	return nil, "", NewError(ErrParse, "response is neither JSON nor OSM XML")
}

func decodeJSON(body []byte) ([]Element, string, error) {
	var resp overpassResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", NewError(ErrParse, "malformed JSON response").WithCause(err)
	}

	elements := make([]Element, 0, len(resp.Elements))
	for _, we := range resp.Elements {
		e := Element{
			Type: ElementType(we.Type),
			ID:   we.ID,
			Lat:  we.Lat,
			Lon:  we.Lon,
			Tags: we.Tags,
		}
		if !e.Type.Valid() {
			return nil, "", NewError(ErrParse, "element %d has unknown type %q", we.ID, we.Type)
		}
		e.Nodes = append(e.Nodes, we.Nodes...)
		for _, m := range we.Members {
			e.Members = append(e.Members, Member{
				Type: ElementType(m.Type),
				Ref:  m.Ref,
				Role: m.Role,
			})
		}
		if we.Version != 0 || we.Timestamp != nil {
			meta := &Meta{
				Version:   we.Version,
				Changeset: we.Changeset,
				User:      we.User,
				UID:       we.UID,
			}
			if we.Timestamp != nil {
				meta.Timestamp = *we.Timestamp
			}
			e.Meta = meta
		}
		elements = append(elements, e)
	}

	return elements, resp.Remark, nil
}

// decodeXML parses a legacy OSM XML payload. The document model comes from
// paulmach/osm, which this package only uses as a decoder; the records are
// flattened into the same Element shape as the JSON path.
func decodeXML(body []byte) ([]Element, error) {
	var doc osm.OSM
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, NewError(ErrParse, "malformed OSM XML response").WithCause(err)
	}

	var elements []Element
	for _, n := range doc.Nodes {
		elements = append(elements, Element{
			Type: ElementNode,
			ID:   int64(n.ID),
			Lat:  n.Lat,
			Lon:  n.Lon,
			Tags: tagMap(n.Tags),
			Meta: xmlMeta(n.Version, int64(n.ChangesetID), n.Timestamp, n.User, int64(n.UserID)),
		})
	}
	for _, w := range doc.Ways {
		e := Element{
			Type: ElementWay,
			ID:   int64(w.ID),
			Tags: tagMap(w.Tags),
			Meta: xmlMeta(w.Version, int64(w.ChangesetID), w.Timestamp, w.User, int64(w.UserID)),
		}
		for _, wn := range w.Nodes {
			e.Nodes = append(e.Nodes, int64(wn.ID))
		}
		elements = append(elements, e)
	}
	for _, r := range doc.Relations {
		e := Element{
			Type: ElementRelation,
			ID:   int64(r.ID),
			Tags: tagMap(r.Tags),
			Meta: xmlMeta(r.Version, int64(r.ChangesetID), r.Timestamp, r.User, int64(r.UserID)),
		}
		for _, m := range r.Members {
			e.Members = append(e.Members, Member{
				Type: ElementType(m.Type),
				Ref:  m.Ref,
				Role: m.Role,
			})
		}
		elements = append(elements, e)
	}

	return elements, nil
}

func tagMap(tags osm.Tags) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	return tags.Map()
}

func xmlMeta(version int, changeset int64, timestamp time.Time, user string, uid int64) *Meta {
	if version == 0 && timestamp.IsZero() {
		return nil
	}
	return &Meta{
		Version:   version,
		Changeset: changeset,
		Timestamp: timestamp,
		User:      user,
		UID:       uid,
	}
}
