package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mapier/poimport/poi"
)

func testRecord() *poi.Record {
	name := "Acme Cafe"
	category := "cafe"
	return &poi.Record{
		ID:              "poi-1",
		Name:            &name,
		Confidence:      0.95,
		PrimaryCategory: &category,
		Websites:        []string{"https://acme.example"},
		Lon:             -87.60,
		Lat:             41.79,
		UpdatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:          poi.SourceType,
	}
}

func TestBuildFeatureCollection(t *testing.T) {
	fc, err := BuildFeatureCollection([]*poi.Record{testRecord()})
	if err != nil {
		t.Fatalf("BuildFeatureCollection: %v", err)
	}

	if fc.Type != "FeatureCollection" {
		t.Errorf("type = %q", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d", len(fc.Features))
	}

	feature := fc.Features[0]
	if feature.Type != "Feature" || feature.Geometry.Type != "Point" {
		t.Errorf("feature types = %q / %q", feature.Type, feature.Geometry.Type)
	}
	if feature.Geometry.Coordinates != [2]float64{-87.60, 41.79} {
		t.Errorf("coordinates = %v, want [lon lat]", feature.Geometry.Coordinates)
	}

	if _, ok := feature.Properties["lon"]; ok {
		t.Error("lon must be popped from properties")
	}
	if _, ok := feature.Properties["lat"]; ok {
		t.Error("lat must be popped from properties")
	}
	if feature.Properties["name"] != "Acme Cafe" {
		t.Errorf("name property = %v", feature.Properties["name"])
	}
	if feature.Properties["socials"] != nil {
		t.Errorf("absent array must stay null, got %v", feature.Properties["socials"])
	}
}

func TestWriteFile(t *testing.T) {
	fc, err := BuildFeatureCollection([]*poi.Record{testRecord()})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "pois.geojson")
	if err := WriteFile(path, fc); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var parsed FeatureCollection
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("written file is not valid JSON: %v", err)
	}
	if parsed.Type != "FeatureCollection" || len(parsed.Features) != 1 {
		t.Errorf("round trip = %+v", parsed)
	}
}

func TestEmptyCollection(t *testing.T) {
	fc, err := BuildFeatureCollection(nil)
	if err != nil {
		t.Fatal(err)
	}
	if fc.Features == nil || len(fc.Features) != 0 {
		t.Errorf("features = %#v, want empty non-nil slice", fc.Features)
	}
}
