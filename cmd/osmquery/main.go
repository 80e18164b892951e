// Command osmquery runs a single Overpass query and writes the result as
// GeoJSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NERVsystems/osmquery/pkg/coords"
	"github.com/NERVsystems/osmquery/pkg/geo"
	"github.com/NERVsystems/osmquery/pkg/overpass"
	"github.com/NERVsystems/osmquery/pkg/tracing"
)

const version = "0.1.0"

var (
	showVersionFlag bool
	debug           bool

	elementType  string
	bboxSpec     string
	tagSpecs     string
	recurse      string
	meta         bool
	keepUntagged bool
	rawOutput    bool

	endpoint     string
	queryTimeout int
	userAgent    string
	rps          float64
	burst        int

	metricsAddr string
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")

	flag.StringVar(&elementType, "type", "way", "OSM element type to query: node, way or relation")
	flag.StringVar(&bboxSpec, "bbox", "", "Bounding box as two corners separated by ';', each in decimal lat,lon, DMS or MGRS (e.g. \"52.0,13.0;52.1,13.1\")")
	flag.StringVar(&tagSpecs, "tags", "", "Comma-separated tag filters, e.g. \"highway\" or \"highway=residential,name~^Centre\"")
	flag.StringVar(&recurse, "recurse", "down", "Recursion directive: none, down, downrel, up or uprel")
	flag.BoolVar(&meta, "meta", false, "Include version/changeset/timestamp/user metadata")
	flag.BoolVar(&keepUntagged, "keep-untagged", false, "Keep untagged nodes as rows")
	flag.BoolVar(&rawOutput, "raw", false, "Write the raw Overpass response instead of GeoJSON")

	flag.StringVar(&endpoint, "endpoint", overpass.DefaultEndpoint, "Overpass interpreter endpoint")
	flag.IntVar(&queryTimeout, "timeout", overpass.DefaultQueryTimeout, "Server-side query timeout in seconds")
	flag.StringVar(&userAgent, "user-agent", overpass.DefaultUserAgent, "User-Agent string for Overpass requests")
	flag.Float64Var(&rps, "overpass-rps", 1, "Overpass rate limit (requests per second)")
	flag.IntVar(&burst, "overpass-burst", 1, "Overpass rate limit burst size")

	flag.StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
}

func main() {
	flag.Parse()

	if showVersionFlag {
		fmt.Printf("osmquery %s\n", version)
		return
	}

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	shutdown, err := tracing.InitTracing(ctx, version)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer shutdown(ctx)

	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("serving metrics", "addr", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	req, err := buildRequest()
	if err != nil {
		logger.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	client := overpass.NewClient(
		overpass.WithEndpoint(endpoint),
		overpass.WithUserAgent(userAgent),
		overpass.WithRateLimit(rps, burst),
		overpass.WithLogger(logger),
	)

	// Give the HTTP round trip some headroom beyond the server-side timeout.
	ctx, cancel := context.WithTimeout(ctx, time.Duration(queryTimeout+30)*time.Second)
	defer cancel()

	if rawOutput {
		body, err := client.RawQuery(ctx, req)
		if err != nil {
			logger.Error("query failed", "error", err)
			os.Exit(1)
		}
		os.Stdout.Write(body)
		return
	}

	frame, err := client.QueryOSM(ctx, req)
	if err != nil {
		logger.Error("query failed", "error", err)
		os.Exit(1)
	}
	logger.Info("query finished", "rows", frame.Len())

	out, err := json.MarshalIndent(frame.GeoJSON(), "", "  ")
	if err != nil {
		logger.Error("failed to encode GeoJSON", "error", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}

// buildRequest assembles the query request from the flags.
func buildRequest() (overpass.Request, error) {
	req := overpass.Request{
		Type:         overpass.ElementType(elementType),
		Meta:         meta,
		Timeout:      queryTimeout,
		KeepUntagged: keepUntagged,
	}

	if recurse != "" && recurse != "none" {
		req.Recurse = overpass.Recurse(recurse)
	}

	if bboxSpec != "" {
		box, err := parseBBox(bboxSpec)
		if err != nil {
			return overpass.Request{}, err
		}
		req.Filter = box
	}

	if tagSpecs != "" {
		tags, err := overpass.ParseTags(strings.Split(tagSpecs, ",")...)
		if err != nil {
			return overpass.Request{}, err
		}
		req.Tags = tags
	}

	return req, nil
}

// parseBBox parses two corner coordinates, in any format pkg/coords
// understands, into the bounding box that spans them.
func parseBBox(spec string) (geo.BoundingBox, error) {
	corners := strings.Split(spec, ";")
	if len(corners) != 2 {
		return geo.BoundingBox{}, fmt.Errorf("bbox needs exactly two corners separated by ';', got %d", len(corners))
	}

	a, err := coords.Parse(corners[0])
	if err != nil {
		return geo.BoundingBox{}, fmt.Errorf("bbox corner %q: %w", corners[0], err)
	}
	b, err := coords.Parse(corners[1])
	if err != nil {
		return geo.BoundingBox{}, fmt.Errorf("bbox corner %q: %w", corners[1], err)
	}

	box := geo.BoundingBox{
		MinLat: min(a.Location.Latitude, b.Location.Latitude),
		MinLon: min(a.Location.Longitude, b.Location.Longitude),
		MaxLat: max(a.Location.Latitude, b.Location.Latitude),
		MaxLon: max(a.Location.Longitude, b.Location.Longitude),
	}
	return box, box.Validate()
}
