//go:build integration

// Integration test against a live map service.
//
// Run: MAPSERVICE_URL=http://host/rest/Spatial/MappingService go test -tags=integration ./pkg/mapservice/
package mapservice_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joeblew999/plat-mapctl/pkg/mapservice"
)

func service(t *testing.T) *mapservice.MapService {
	u := os.Getenv("MAPSERVICE_URL")
	if u == "" {
		t.Skip("MAPSERVICE_URL not set")
	}
	return mapservice.NewMapService(mapservice.NewClient(u, 30*time.Second))
}

func TestListNamedMaps(t *testing.T) {
	if _, err := service(t).ListNamedMaps(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
}

func TestListNamedLayers(t *testing.T) {
	if _, err := service(t).ListNamedLayers(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
}

func TestLegendForMap(t *testing.T) {
	name := os.Getenv("MAPSERVICE_MAP")
	if name == "" {
		t.Skip("MAPSERVICE_MAP not set")
	}
	inline := true
	legend, err := service(t).LegendForMap(context.Background(), mapservice.LegendOptions{
		MapName: name, Width: 16, Height: 16, InlineSwatch: &inline,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(legend.Legends) == 0 {
		t.Fatalf("map %q has no legends", name)
	}
}
