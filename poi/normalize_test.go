package poi

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mapier/poimport/overture"
)

// importRow builds a raw row in ImportColumns order.
func importRow(overrides map[string]any) []any {
	values := map[string]any{
		"id":                   "poi-1",
		"name":                 "Acme Cafe",
		"confidence":           0.95,
		"primary_category":     "cafe",
		"alternate_categories": []any{"coffee_shop", "bakery"},
		"brand":                nil,
		"brand_wikidata":       nil,
		"operating_status":     "open",
		"websites":             []any{"https://acme.example"},
		"socials":              nil,
		"phones":               nil,
		"emails":               nil,
		"street":               "5700 S Lake Shore Dr",
		"city":                 "Chicago",
		"state":                "IL",
		"postcode":             "60637",
		"country":              "US",
		"lon":                  -87.60,
		"lat":                  41.79,
		"primary_source":       "meta",
	}
	for k, v := range overrides {
		values[k] = v
	}

	row := make([]any, len(overture.ImportColumns))
	for i, col := range overture.ImportColumns {
		row[i] = values[col.Name]
	}
	return row
}

func TestNormalize(t *testing.T) {
	rec, err := Normalize(importRow(nil), overture.ImportColumns)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if rec.ID != "poi-1" {
		t.Errorf("id = %q", rec.ID)
	}
	if rec.Name == nil || *rec.Name != "Acme Cafe" {
		t.Errorf("name = %v", rec.Name)
	}
	if rec.Lon != -87.60 || rec.Lat != 41.79 {
		t.Errorf("coords = (%f, %f)", rec.Lon, rec.Lat)
	}
	if rec.Source != "overture" {
		t.Errorf("source_type = %q", rec.Source)
	}
	if rec.UpdatedAt.IsZero() {
		t.Error("updated_at not stamped")
	}
	if rec.UpdatedAt.Location() != rec.UpdatedAt.UTC().Location() {
		t.Error("updated_at not UTC")
	}
	if !reflect.DeepEqual(rec.AlternateCategories, []string{"coffee_shop", "bakery"}) {
		t.Errorf("alternate_categories = %v", rec.AlternateCategories)
	}
	if rec.PrimarySource == nil || *rec.PrimarySource != "meta" {
		t.Errorf("primary_source = %v", rec.PrimarySource)
	}
	if rec.Brand != nil {
		t.Errorf("brand = %v, want nil", rec.Brand)
	}
}

func TestNormalizePure(t *testing.T) {
	row := importRow(nil)

	a, err := Normalize(row, overture.ImportColumns)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(row, overture.ImportColumns)
	if err != nil {
		t.Fatal(err)
	}

	// Timestamps differ by capture instant, everything else must match.
	b.UpdatedAt = a.UpdatedAt
	if !reflect.DeepEqual(a, b) {
		t.Errorf("normalize not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestNormalizeNullVsEmpty(t *testing.T) {
	for _, absent := range []any{nil, []any{}} {
		rec, err := Normalize(importRow(map[string]any{"websites": absent}), overture.ImportColumns)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Websites != nil {
			t.Errorf("websites = %#v, want nil for absent value %#v", rec.Websites, absent)
		}
	}
}

func TestNormalizeMissingID(t *testing.T) {
	for _, bad := range []any{nil, "", 42} {
		_, err := Normalize(importRow(map[string]any{"id": bad}), overture.ImportColumns)

		var terr *TransformError
		if !errors.As(err, &terr) {
			t.Errorf("id=%#v: expected TransformError, got %v", bad, err)
		}
	}
}

func TestNormalizeMissingCoordinates(t *testing.T) {
	_, err := Normalize(importRow(map[string]any{"lon": nil}), overture.ImportColumns)

	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if terr.Field != "geometry" {
		t.Errorf("field = %q, want geometry", terr.Field)
	}
}

func TestNormalizeRowWidthMismatch(t *testing.T) {
	_, err := Normalize([]any{"poi-1"}, overture.ImportColumns)

	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
}
