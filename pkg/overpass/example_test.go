package overpass_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/NERVsystems/osmquery/pkg/geo"
	"github.com/NERVsystems/osmquery/pkg/overpass"
)

// Fetch all highways in a bounding box and print them as GeoJSON.
func Example() {
	client := overpass.NewClient()

	frame, err := client.QueryOSM(context.Background(), overpass.Request{
		Type:    overpass.ElementWay,
		Filter:  geo.NewBoundingBox(13.0, 52.0, 13.1, 52.1),
		Recurse: overpass.RecurseDown,
		Tags:    []overpass.TagFilter{overpass.Tag("highway")},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	// Keep only the line features, like filtering a data frame by
	// geometry type.
	lines := frame.FilterGeometry("LineString")

	out, _ := json.Marshal(lines.GeoJSON())
	os.Stdout.Write(out)
}
