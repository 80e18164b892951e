// Package coords parses coordinate strings into decimal degrees (WGS84).
//
// It detects the format automatically, so bounding-box corners can be given
// in any common notation:
//   - MGRS: Military Grid Reference System (e.g., "47QNB8598697460")
//   - DMS: Degrees Minutes Seconds (e.g., "19°51'22"N 99°48'59"E")
//   - Decimal Degrees: Standard lat/lon (e.g., "19.856, 99.816")
package coords

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akhenakh/mgrs"

	"github.com/NERVsystems/osmquery/pkg/geo"
)

// Format represents a coordinate format type
type Format int

const (
	FormatUnknown Format = iota
	FormatDecimal        // Decimal degrees (lat, lon)
	FormatDMS            // Degrees Minutes Seconds
	FormatMGRS           // Military Grid Reference System
)

// String returns the format name
func (f Format) String() string {
	switch f {
	case FormatDecimal:
		return "decimal"
	case FormatDMS:
		return "dms"
	case FormatMGRS:
		return "mgrs"
	default:
		return "unknown"
	}
}

// ParseResult contains the parsed coordinate and metadata
type ParseResult struct {
	Location geo.Location // Converted lat/lon
	Format   Format       // Detected format
	Original string       // Original input string
}

// Regular expressions for format detection
var (
	// MGRS: Grid Zone Designator (1-60 + latitude band C-X except I,O) +
	// 100km square ID (2 letters) + numeric location with an even digit count
	mgrsRegex = regexp.MustCompile(`(?i)^(\d{1,2})([C-HJ-NP-X])([A-HJ-NP-Z]{2})(\d{2,10})$`)

	// DMS: Degrees Minutes Seconds with direction
	// Examples: "19°51'22"N 99°48'59"E", "19d51m22sN 99d48m59sE"
	dmsRegex = regexp.MustCompile(`(?i)^(-?\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([NS])[\s,]+(-?\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([EW])$`)

	// Decimal degrees: lat, lon or lat lon
	decimalRegex = regexp.MustCompile(`^(-?\d+\.?\d*)[,\s]+(-?\d+\.?\d*)$`)
)

// Parse attempts to detect the coordinate format and convert to decimal
// degrees. It returns an error if the input cannot be parsed as any known
// format.
func Parse(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty coordinate string")
	}

	// Try formats in order of specificity, decimal last.
	if result, err := ParseMGRS(input); err == nil {
		return result, nil
	}
	if result, err := ParseDMS(input); err == nil {
		return result, nil
	}
	if result, err := ParseDecimal(input); err == nil {
		return result, nil
	}

	return nil, fmt.Errorf("unrecognized coordinate format: %q", input)
}

// DetectFormat returns the detected coordinate format without full parsing.
func DetectFormat(input string) Format {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return FormatUnknown
	case mgrsRegex.MatchString(input):
		return FormatMGRS
	case dmsRegex.MatchString(input):
		return FormatDMS
	case decimalRegex.MatchString(input):
		return FormatDecimal
	}
	return FormatUnknown
}

// ParseMGRS parses an MGRS coordinate string.
//
// Examples:
//   - 47QNB8598697460 (10-digit: 1m precision)
//   - 18SUJ23370651 (8-digit: 10m precision)
func ParseMGRS(input string) (*ParseResult, error) {
	input = strings.TrimSpace(strings.ToUpper(input))

	if !mgrsRegex.MatchString(input) {
		return nil, fmt.Errorf("invalid MGRS format: %q", input)
	}

	lat, lon, err := mgrs.MGRSToLatLng(input)
	if err != nil {
		return nil, fmt.Errorf("MGRS conversion failed: %w", err)
	}

	if err := geo.ValidateCoords(lat, lon); err != nil {
		return nil, fmt.Errorf("MGRS conversion produced invalid coordinates: %w", err)
	}

	return &ParseResult{
		Location: geo.Location{Latitude: lat, Longitude: lon},
		Format:   FormatMGRS,
		Original: input,
	}, nil
}

// ParseDMS parses a Degrees Minutes Seconds coordinate string.
//
// Examples:
//   - 19°51'22"N 99°48'59"E
//   - 19d51m22sN 99d48m59sE
func ParseDMS(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)

	matches := dmsRegex.FindStringSubmatch(input)
	if matches == nil {
		return nil, fmt.Errorf("invalid DMS format: %q", input)
	}

	latDeg, _ := strconv.ParseFloat(matches[1], 64)
	latMin, _ := strconv.ParseFloat(matches[2], 64)
	latSec, _ := strconv.ParseFloat(matches[3], 64)
	latDir := strings.ToUpper(matches[4])

	lonDeg, _ := strconv.ParseFloat(matches[5], 64)
	lonMin, _ := strconv.ParseFloat(matches[6], 64)
	lonSec, _ := strconv.ParseFloat(matches[7], 64)
	lonDir := strings.ToUpper(matches[8])

	if latDeg > 90 || latMin >= 60 || latSec >= 60 {
		return nil, fmt.Errorf("invalid latitude values: %s", input)
	}
	if lonDeg > 180 || lonMin >= 60 || lonSec >= 60 {
		return nil, fmt.Errorf("invalid longitude values: %s", input)
	}

	lat := latDeg + latMin/60 + latSec/3600
	lon := lonDeg + lonMin/60 + lonSec/3600

	if latDir == "S" {
		lat = -lat
	}
	if lonDir == "W" {
		lon = -lon
	}

	return &ParseResult{
		Location: geo.Location{Latitude: lat, Longitude: lon},
		Format:   FormatDMS,
		Original: input,
	}, nil
}

// ParseDecimal parses a decimal degrees coordinate string, latitude first.
//
// Examples:
//   - 19.856, 99.816
//   - -33.8688 151.2093
func ParseDecimal(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)

	matches := decimalRegex.FindStringSubmatch(input)
	if matches == nil {
		return nil, fmt.Errorf("invalid decimal format: %q", input)
	}

	lat, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %s", matches[1])
	}
	lon, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %s", matches[2])
	}

	if err := geo.ValidateCoords(lat, lon); err != nil {
		return nil, err
	}

	return &ParseResult{
		Location: geo.Location{Latitude: lat, Longitude: lon},
		Format:   FormatDecimal,
		Original: input,
	}, nil
}
