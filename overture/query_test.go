package overture

import (
	"strings"
	"testing"
)

const testPath = "s3://overturemaps-us-west-2/release/2025-11-19.0/theme=places/*/*"

// whereOf extracts the predicate part of a query.
func whereOf(t *testing.T, query string) string {
	t.Helper()
	idx := strings.Index(query, "WHERE")
	if idx < 0 {
		t.Fatalf("no WHERE clause in %q", query)
	}
	where := query[idx:]
	if cut := strings.Index(where, " LIMIT "); cut >= 0 {
		where = where[:cut]
	}
	return where
}

func TestCountAndExtractFilterEquivalent(t *testing.T) {
	f := DefaultFilter()
	f.Category = "restaurant"

	extractWhere := whereOf(t, BuildQuery(testPath, f, ImportColumns, 0, 0))
	countWhere := whereOf(t, BuildCountQuery(testPath, f))

	if extractWhere != countWhere {
		t.Errorf("predicates differ:\nextract: %s\ncount:   %s", extractWhere, countWhere)
	}
}

func TestBuildQueryProjection(t *testing.T) {
	query := BuildQuery(testPath, DefaultFilter(), ImportColumns, 0, 0)

	for _, expr := range []string{
		"ST_X(geometry) AS lon",
		"ST_Y(geometry) AS lat",
		"sources[1].dataset AS primary_source",
		"read_parquet('" + testPath + "')",
	} {
		if !strings.Contains(query, expr) {
			t.Errorf("query missing %q:\n%s", expr, query)
		}
	}

	if strings.Contains(query, "LIMIT") || strings.Contains(query, "OFFSET") {
		t.Error("limit/offset emitted without values")
	}
}

func TestExportProjection(t *testing.T) {
	query := BuildQuery(testPath, DefaultFilter(), ExportColumns, 0, 0)

	if strings.Contains(query, "primary_source") {
		t.Error("export projection must not select source attribution")
	}
	for _, expr := range []string{"basic_category", "brand.wikidata AS brand_wikidata"} {
		if !strings.Contains(query, expr) {
			t.Errorf("export projection missing %q", expr)
		}
	}
}

func TestLimitBeforeOffset(t *testing.T) {
	query := BuildQuery(testPath, DefaultFilter(), ImportColumns, 100, 2000)

	limitIdx := strings.Index(query, "LIMIT 100")
	offsetIdx := strings.Index(query, "OFFSET 2000")
	if limitIdx < 0 || offsetIdx < 0 {
		t.Fatalf("missing limit/offset in %q", query)
	}
	if limitIdx > offsetIdx {
		t.Error("LIMIT must come before OFFSET")
	}
}

func TestOffsetWithoutLimit(t *testing.T) {
	query := BuildQuery(testPath, DefaultFilter(), ImportColumns, 0, 500)

	if strings.Contains(query, "LIMIT") {
		t.Error("LIMIT emitted without a limit")
	}
	if !strings.Contains(query, "OFFSET 500") {
		t.Error("missing OFFSET")
	}
}

func TestColumnContractsAgree(t *testing.T) {
	// The normalizer depends on these names; catch accidental renames.
	required := map[string]bool{"id": false, "lon": false, "lat": false}
	for _, col := range ImportColumns {
		if _, ok := required[col.Name]; ok {
			required[col.Name] = true
		}
	}
	for name, found := range required {
		if !found {
			t.Errorf("ImportColumns missing %q", name)
		}
	}

	if ImportColumns[len(ImportColumns)-1].Name != "primary_source" {
		t.Error("primary_source must be the last import column")
	}
}
