package coords

import (
	"math"
	"testing"
)

// tolerance for coordinate comparison (approximately 10 meters at equator)
const tolerance = 0.0001

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantLon float64
		wantErr bool
	}{
		{name: "comma separated", input: "19.856, 99.816", wantLat: 19.856, wantLon: 99.816},
		{name: "space separated", input: "19.856 99.816", wantLat: 19.856, wantLon: 99.816},
		{name: "negative coordinates", input: "-33.8688, 151.2093", wantLat: -33.8688, wantLon: 151.2093},
		{name: "integers", input: "52, 13", wantLat: 52, wantLon: 13},
		{name: "latitude out of range", input: "91, 0", wantErr: true},
		{name: "longitude out of range", input: "0, 181", wantErr: true},
		{name: "garbage", input: "not a coordinate", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDecimal(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDecimal(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimal(%q) unexpected error: %v", tt.input, err)
			}

			if !almostEqual(result.Location.Latitude, tt.wantLat, tolerance) {
				t.Errorf("latitude = %f, want %f", result.Location.Latitude, tt.wantLat)
			}
			if !almostEqual(result.Location.Longitude, tt.wantLon, tolerance) {
				t.Errorf("longitude = %f, want %f", result.Location.Longitude, tt.wantLon)
			}
			if result.Format != FormatDecimal {
				t.Errorf("format = %v, want FormatDecimal", result.Format)
			}
		})
	}
}

func TestParseDMS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantLon float64
		wantErr bool
	}{
		{
			name:    "degree symbols",
			input:   `19°51'22"N 99°48'59"E`,
			wantLat: 19.856111,
			wantLon: 99.816389,
		},
		{
			name:    "letter notation",
			input:   "19d51m22sN 99d48m59sE",
			wantLat: 19.856111,
			wantLon: 99.816389,
		},
		{
			name:    "southern western hemispheres",
			input:   `33°52'8"S 151°12'33"W`,
			wantLat: -33.868889,
			wantLon: -151.209167,
		},
		{name: "minutes out of range", input: `19°61'22"N 99°48'59"E`, wantErr: true},
		{name: "not dms", input: "19.856, 99.816", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDMS(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDMS(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDMS(%q) unexpected error: %v", tt.input, err)
			}

			if !almostEqual(result.Location.Latitude, tt.wantLat, tolerance) {
				t.Errorf("latitude = %f, want %f", result.Location.Latitude, tt.wantLat)
			}
			if !almostEqual(result.Location.Longitude, tt.wantLon, tolerance) {
				t.Errorf("longitude = %f, want %f", result.Location.Longitude, tt.wantLon)
			}
		})
	}
}

func TestParseMGRS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Valid strings parse and land in the valid coordinate range.
		{name: "10-digit precision", input: "47QME8598697460"},
		{name: "8-digit precision", input: "18SUJ23370651"},
		{name: "4-digit precision", input: "18SUJ2306"},

		{name: "invalid zone 61", input: "61ABC1234567890", wantErr: true},
		{name: "invalid band I", input: "18SIJ1234567890", wantErr: true},
		{name: "odd digit count", input: "18SUJ123456789", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseMGRS(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMGRS(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMGRS(%q) unexpected error: %v", tt.input, err)
			}

			if result.Format != FormatMGRS {
				t.Errorf("format = %v, want FormatMGRS", result.Format)
			}
			if result.Location.Latitude < -90 || result.Location.Latitude > 90 ||
				result.Location.Longitude < -180 || result.Location.Longitude > 180 {
				t.Errorf("coordinates out of range: %+v", result.Location)
			}
		})
	}
}

func TestParseDetectsFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"18SUJ23370651", FormatMGRS},
		{`19°51'22"N 99°48'59"E`, FormatDMS},
		{"52.52, 13.405", FormatDecimal},
		{"", FormatUnknown},
		{"gibberish", FormatUnknown},
	}

	for _, tt := range tests {
		if got := DetectFormat(tt.input); got != tt.want {
			t.Errorf("DetectFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
