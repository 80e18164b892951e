package overpass

import (
	"fmt"
	"strings"

	"github.com/NERVsystems/osmquery/pkg/geo"
)

// ElementType is one of the OSM primitive kinds.
type ElementType string

const (
	ElementNode     ElementType = "node"
	ElementWay      ElementType = "way"
	ElementRelation ElementType = "relation"
)

// Valid reports whether t names a known OSM primitive.
func (t ElementType) Valid() bool {
	switch t {
	case ElementNode, ElementWay, ElementRelation:
		return true
	}
	return false
}

// Recurse controls whether geometry-defining child elements (or referencing
// parents) are fetched alongside the matched elements. For ways you almost
// always want RecurseDown, which pulls in the member nodes needed to build
// line geometries.
type Recurse string

const (
	RecurseNone    Recurse = ""
	RecurseDown    Recurse = "down"    // referenced child elements (">")
	RecurseDownRel Recurse = "downrel" // children, transitively through relations (">>")
	RecurseUp      Recurse = "up"      // referencing parent elements ("<")
	RecurseUpRel   Recurse = "uprel"   // parents, transitively through relations ("<<")
)

// modifier returns the Overpass QL statement for the recursion directive.
func (r Recurse) modifier() (string, error) {
	switch r {
	case RecurseNone:
		return "", nil
	case RecurseDown:
		return ">", nil
	case RecurseDownRel:
		return ">>", nil
	case RecurseUp:
		return "<", nil
	case RecurseUpRel:
		return "<<", nil
	}
	return "", fmt.Errorf("unrecognized recurse value %q (must be one of: down, downrel, up, uprel)", string(r))
}

// OutputFormat selects the Overpass response encoding.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatXML  OutputFormat = "xml"
)

// TagFilter constrains matched elements by tag. With no values it matches
// the presence of the key; with one value it matches key=value; with
// several values (or Regex set) it matches the key against a regular
// expression. Exclude negates the filter.
type TagFilter struct {
	Key     string
	Values  []string
	Exclude bool
	Regex   bool
}

// Tag creates a TagFilter for a key with optional values.
func Tag(key string, values ...string) TagFilter {
	return TagFilter{Key: key, Values: values}
}

// NotTag creates an excluding TagFilter.
func NotTag(key string, values ...string) TagFilter {
	return TagFilter{Key: key, Values: values, Exclude: true}
}

// TagRegex creates a TagFilter matching the key's value against a regular
// expression.
func TagRegex(key, pattern string) TagFilter {
	return TagFilter{Key: key, Values: []string{pattern}, Regex: true}
}

// ParseTag parses a tag filter from its string form: "key", "!key",
// "key=value", "key!=value", "key~regex" or "key!~regex".
func ParseTag(spec string) (TagFilter, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return TagFilter{}, fmt.Errorf("empty tag filter")
	}

	if i := strings.Index(spec, "!~"); i > 0 {
		return TagFilter{Key: spec[:i], Values: []string{spec[i+2:]}, Regex: true, Exclude: true}, nil
	}
	if i := strings.Index(spec, "!="); i > 0 {
		return TagFilter{Key: spec[:i], Values: []string{spec[i+2:]}, Exclude: true}, nil
	}
	if i := strings.Index(spec, "~"); i > 0 {
		return TagFilter{Key: spec[:i], Values: []string{spec[i+1:]}, Regex: true}, nil
	}
	if i := strings.Index(spec, "="); i > 0 {
		return TagFilter{Key: spec[:i], Values: []string{spec[i+1:]}}, nil
	}
	if rest, ok := strings.CutPrefix(spec, "!"); ok {
		if rest == "" {
			return TagFilter{}, fmt.Errorf("tag filter %q has no key", spec)
		}
		return TagFilter{Key: rest, Exclude: true}, nil
	}
	return TagFilter{Key: spec}, nil
}

// ParseTags parses a list of tag filter strings. The filters are combined
// with AND semantics: an element must satisfy all of them.
func ParseTags(specs ...string) ([]TagFilter, error) {
	filters := make([]TagFilter, 0, len(specs))
	for _, spec := range specs {
		f, err := ParseTag(spec)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// render returns the Overpass QL clause for the filter.
func (f TagFilter) render() (string, error) {
	if f.Key == "" {
		return "", fmt.Errorf("tag filter has no key")
	}

	if len(f.Values) == 0 {
		if f.Exclude {
			return fmt.Sprintf("[!%s]", f.Key), nil
		}
		return fmt.Sprintf("[%s]", f.Key), nil
	}

	// Several plain values collapse into a regex alternation.
	if f.Regex || len(f.Values) > 1 {
		pattern := strings.Join(f.Values, "|")
		if f.Exclude {
			return fmt.Sprintf("[%s!~\"%s\"]", f.Key, pattern), nil
		}
		return fmt.Sprintf("[%s~\"%s\"]", f.Key, pattern), nil
	}

	if f.Values[0] == "*" {
		if f.Exclude {
			return fmt.Sprintf("[!%s]", f.Key), nil
		}
		return fmt.Sprintf("[%s]", f.Key), nil
	}

	if f.Exclude {
		return fmt.Sprintf("[%s!=%s]", f.Key, f.Values[0]), nil
	}
	return fmt.Sprintf("[%s=%s]", f.Key, f.Values[0]), nil
}

// DefaultQueryTimeout is the server-side [timeout:] value in seconds.
const DefaultQueryTimeout = 25

// Builder provides a fluent interface for building Overpass QL queries.
type Builder struct {
	format  OutputFormat
	timeout int
	meta    bool
	element ElementType
	filter  geo.SpatialFilter
	tags    []TagFilter
	recurse Recurse
}

// NewBuilder creates a new builder with default settings: JSON output and
// the default server-side timeout.
func NewBuilder() *Builder {
	return &Builder{
		format:  FormatJSON,
		timeout: DefaultQueryTimeout,
	}
}

// WithOutputFormat sets the response encoding.
func (b *Builder) WithOutputFormat(format OutputFormat) *Builder {
	b.format = format
	return b
}

// WithTimeout sets the server-side query timeout in seconds.
func (b *Builder) WithTimeout(seconds int) *Builder {
	b.timeout = seconds
	return b
}

// WithElement sets the OSM primitive kind to match.
func (b *Builder) WithElement(t ElementType) *Builder {
	b.element = t
	return b
}

// WithFilter sets the spatial filter (bounding box or polygon).
func (b *Builder) WithFilter(f geo.SpatialFilter) *Builder {
	b.filter = f
	return b
}

// WithTag adds a tag filter. Multiple filters are AND-combined.
func (b *Builder) WithTag(f TagFilter) *Builder {
	b.tags = append(b.tags, f)
	return b
}

// WithTags adds several tag filters.
func (b *Builder) WithTags(filters ...TagFilter) *Builder {
	b.tags = append(b.tags, filters...)
	return b
}

// WithRecurse sets the recursion directive.
func (b *Builder) WithRecurse(r Recurse) *Builder {
	b.recurse = r
	return b
}

// WithMeta requests element metadata (version, changeset, timestamp, user)
// in the output.
func (b *Builder) WithMeta(meta bool) *Builder {
	b.meta = meta
	return b
}

// Build generates the Overpass QL query string. All inputs are validated
// here; a failure returns an INVALID_ARGUMENT error and no query.
func (b *Builder) Build() (string, error) {
	if !b.element.Valid() {
		return "", NewError(ErrInvalidArgument,
			"unsupported element type %q (must be one of: node, way, relation)", string(b.element))
	}

	recurse, err := b.recurse.modifier()
	if err != nil {
		return "", NewError(ErrInvalidArgument, "%s", err).WithCause(err)
	}

	var query strings.Builder
	query.WriteString(fmt.Sprintf("[out:%s][timeout:%d];", b.format, b.timeout))
	query.WriteString("(")
	query.WriteString(string(b.element))

	if b.filter != nil {
		bounds, err := b.filter.Bounds()
		if err != nil {
			return "", NewError(ErrInvalidArgument, "malformed spatial filter: %s", err).WithCause(err)
		}
		query.WriteString("(" + bounds.OverpassString() + ")")
	}

	for _, tag := range b.tags {
		clause, err := tag.render()
		if err != nil {
			return "", NewError(ErrInvalidArgument, "malformed tag filter: %s", err).WithCause(err)
		}
		query.WriteString(clause)
	}
	query.WriteString(";")

	if recurse != "" {
		query.WriteString(recurse + ";")
	}

	out := "body"
	if b.meta {
		out = "meta"
	}
	query.WriteString(fmt.Sprintf(");out %s;", out))

	return query.String(), nil
}
