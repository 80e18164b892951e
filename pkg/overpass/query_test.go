package overpass

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/NERVsystems/osmquery/pkg/geo"
)

func TestBuildQuery(t *testing.T) {
	bbox := geo.NewBoundingBox(13.0, 52.0, 13.1, 52.1)

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "ways with tag presence and down recursion",
			req: Request{
				Type:    ElementWay,
				Filter:  bbox,
				Recurse: RecurseDown,
				Tags:    []TagFilter{Tag("highway")},
			},
			want: `[out:json][timeout:25];(way(52,13,52.1,13.1)[highway];>;);out body;`,
		},
		{
			name: "nodes with key=value filter",
			req: Request{
				Type:   ElementNode,
				Filter: bbox,
				Tags:   []TagFilter{Tag("amenity", "cafe")},
			},
			want: `[out:json][timeout:25];(node(52,13,52.1,13.1)[amenity=cafe];);out body;`,
		},
		{
			name: "multiple tag filters are AND-combined",
			req: Request{
				Type:   ElementWay,
				Filter: bbox,
				Tags:   []TagFilter{Tag("highway"), TagRegex("name", "^Magazine")},
			},
			want: `[out:json][timeout:25];(way(52,13,52.1,13.1)[highway][name~"^Magazine"];);out body;`,
		},
		{
			name: "value list becomes regex alternation",
			req: Request{
				Type:   ElementWay,
				Filter: bbox,
				Tags:   []TagFilter{Tag("highway", "primary", "secondary")},
			},
			want: `[out:json][timeout:25];(way(52,13,52.1,13.1)[highway~"primary|secondary"];);out body;`,
		},
		{
			name: "exclude filter",
			req: Request{
				Type:   ElementNode,
				Filter: bbox,
				Tags:   []TagFilter{Tag("amenity"), NotTag("access", "private")},
			},
			want: `[out:json][timeout:25];(node(52,13,52.1,13.1)[amenity][access!=private];);out body;`,
		},
		{
			name: "up recursion",
			req: Request{
				Type:    ElementNode,
				Filter:  bbox,
				Recurse: RecurseUp,
			},
			want: `[out:json][timeout:25];(node(52,13,52.1,13.1);<;);out body;`,
		},
		{
			name: "transitive recursion",
			req: Request{
				Type:    ElementRelation,
				Filter:  bbox,
				Recurse: RecurseDownRel,
			},
			want: `[out:json][timeout:25];(relation(52,13,52.1,13.1);>>;);out body;`,
		},
		{
			name: "meta output",
			req: Request{
				Type:   ElementNode,
				Filter: bbox,
				Meta:   true,
			},
			want: `[out:json][timeout:25];(node(52,13,52.1,13.1););out meta;`,
		},
		{
			name: "xml output and custom timeout",
			req: Request{
				Type:    ElementWay,
				Filter:  bbox,
				Format:  FormatXML,
				Timeout: 90,
			},
			want: `[out:xml][timeout:90];(way(52,13,52.1,13.1););out body;`,
		},
		{
			name: "no spatial filter",
			req: Request{
				Type: ElementNode,
				Tags: []TagFilter{Tag("amenity", "cafe")},
			},
			want: `[out:json][timeout:25];(node[amenity=cafe];);out body;`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildQuery(tt.req)
			if err != nil {
				t.Fatalf("BuildQuery() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("BuildQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildQueryPolygonMatchesDerivedBox(t *testing.T) {
	poly := geo.NewPolygon(orb.Polygon{
		{{13.05, 52.0}, {13.1, 52.07}, {13.0, 52.1}, {13.05, 52.0}},
	})

	fromPoly, err := BuildQuery(Request{Type: ElementWay, Filter: poly, Tags: []TagFilter{Tag("highway")}})
	if err != nil {
		t.Fatalf("BuildQuery() with polygon: %v", err)
	}

	bounds, err := poly.Bounds()
	if err != nil {
		t.Fatalf("Bounds(): %v", err)
	}
	fromBox, err := BuildQuery(Request{Type: ElementWay, Filter: bounds, Tags: []TagFilter{Tag("highway")}})
	if err != nil {
		t.Fatalf("BuildQuery() with box: %v", err)
	}

	if fromPoly != fromBox {
		t.Errorf("polygon query %q != box query %q", fromPoly, fromBox)
	}
}

func TestBuildQueryInvalidArguments(t *testing.T) {
	bbox := geo.NewBoundingBox(13.0, 52.0, 13.1, 52.1)

	tests := []struct {
		name string
		req  Request
	}{
		{
			name: "unsupported element type",
			req:  Request{Type: "building", Filter: bbox},
		},
		{
			name: "empty element type",
			req:  Request{Filter: bbox},
		},
		{
			name: "unknown recurse value",
			req:  Request{Type: ElementWay, Filter: bbox, Recurse: "sideways"},
		},
		{
			name: "inverted bounding box",
			req:  Request{Type: ElementWay, Filter: geo.BoundingBox{MinLat: 53, MinLon: 13, MaxLat: 52, MaxLon: 14}},
		},
		{
			name: "empty polygon",
			req:  Request{Type: ElementWay, Filter: geo.NewPolygon(orb.Polygon{})},
		},
		{
			name: "tag filter without key",
			req:  Request{Type: ElementWay, Filter: bbox, Tags: []TagFilter{{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildQuery(tt.req)
			if err == nil {
				t.Fatal("BuildQuery() = nil error, want INVALID_ARGUMENT")
			}
			if !IsCode(err, ErrInvalidArgument) {
				t.Errorf("error code = %q, want %q", CodeOf(err), ErrInvalidArgument)
			}
		})
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		spec    string
		want    TagFilter
		wantErr bool
	}{
		{spec: "highway", want: TagFilter{Key: "highway"}},
		{spec: "!highway", want: TagFilter{Key: "highway", Exclude: true}},
		{spec: "highway=motorway", want: TagFilter{Key: "highway", Values: []string{"motorway"}}},
		{spec: "access!=private", want: TagFilter{Key: "access", Values: []string{"private"}, Exclude: true}},
		{spec: "name~[Mm]agazine", want: TagFilter{Key: "name", Values: []string{"[Mm]agazine"}, Regex: true}},
		{spec: "name!~^Magazine", want: TagFilter{Key: "name", Values: []string{"^Magazine"}, Regex: true, Exclude: true}},
		{spec: "", wantErr: true},
		{spec: "!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseTag(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTag(%q) expected error, got nil", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTag(%q) unexpected error: %v", tt.spec, err)
			}
			if got.Key != tt.want.Key || got.Exclude != tt.want.Exclude || got.Regex != tt.want.Regex {
				t.Errorf("ParseTag(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
			if len(got.Values) != len(tt.want.Values) {
				t.Fatalf("ParseTag(%q) values = %v, want %v", tt.spec, got.Values, tt.want.Values)
			}
			for i := range got.Values {
				if got.Values[i] != tt.want.Values[i] {
					t.Errorf("ParseTag(%q) values = %v, want %v", tt.spec, got.Values, tt.want.Values)
				}
			}
		})
	}
}
