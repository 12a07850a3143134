package poi

import (
	"fmt"
	"time"

	"github.com/mapier/poimport/overture"
)

// TransformError marks a row that could not be normalized. Such rows are
// counted and skipped, they never abort a batch.
type TransformError struct {
	Field  string
	Reason string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform error: %s: %s", e.Field, e.Reason)
}

// Normalize maps one raw row onto a Record using the column contract the
// row was selected with. Apart from the UpdatedAt capture instant the
// result depends only on the inputs.
func Normalize(row []any, cols []overture.Column) (*Record, error) {
	if len(row) != len(cols) {
		return nil, &TransformError{Field: "row", Reason: fmt.Sprintf("got %d values for %d columns", len(row), len(cols))}
	}

	rec := &Record{}
	var hasLon, hasLat bool

	for i, col := range cols {
		val := row[i]

		switch col.Name {
		case "id":
			s, ok := val.(string)
			if !ok || s == "" {
				return nil, &TransformError{Field: "id", Reason: "missing or not a string"}
			}
			rec.ID = s
		case "name":
			rec.Name = asText(val)
		case "confidence":
			if f, ok := asFloat(val); ok {
				rec.Confidence = f
			}
		case "primary_category":
			rec.PrimaryCategory = asText(val)
		case "alternate_categories":
			rec.AlternateCategories = asTextList(val)
		case "brand":
			rec.Brand = asText(val)
		case "brand_wikidata":
			rec.BrandWikidata = asText(val)
		case "operating_status":
			rec.OperatingStatus = asText(val)
		case "websites":
			rec.Websites = asTextList(val)
		case "socials":
			rec.Socials = asTextList(val)
		case "phones":
			rec.Phones = asTextList(val)
		case "emails":
			rec.Emails = asTextList(val)
		case "street":
			rec.Street = asText(val)
		case "city":
			rec.City = asText(val)
		case "state":
			rec.State = asText(val)
		case "postcode":
			rec.Postcode = asText(val)
		case "country":
			rec.Country = asText(val)
		case "lon":
			if f, ok := asFloat(val); ok {
				rec.Lon = f
				hasLon = true
			}
		case "lat":
			if f, ok := asFloat(val); ok {
				rec.Lat = f
				hasLat = true
			}
		case "primary_source":
			rec.PrimarySource = asText(val)
		case "basic_category":
			rec.BasicCategory = asText(val)
		}
	}

	if rec.ID == "" {
		return nil, &TransformError{Field: "id", Reason: "missing"}
	}
	if !hasLon || !hasLat {
		return nil, &TransformError{Field: "geometry", Reason: "missing coordinates"}
	}

	rec.UpdatedAt = time.Now().UTC()
	rec.Source = SourceType

	return rec, nil
}

func asText(val any) *string {
	switch v := val.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return &v
	case []byte:
		s := string(v)
		if s == "" {
			return nil
		}
		return &s
	default:
		return nil
	}
}

func asFloat(val any) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}

// asTextList coerces a DuckDB LIST value. Absent or empty lists normalize
// to nil so the destination stores NULL, not an empty array.
func asTextList(val any) []string {
	switch v := val.(type) {
	case nil:
		return nil
	case []string:
		if len(v) == 0 {
			return nil
		}
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
