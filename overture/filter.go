package overture

import (
	"fmt"
	"strconv"
	"strings"
)

// US mainland bounding box.
const (
	USMinLon = -128.359795
	USMaxLon = -56.728935
	USMinLat = 24.132028
	USMaxLat = 49.898394
)

const (
	DefaultMinConfidence = 0.77
	DefaultMinUpdateTime = "2025-01-01"
)

// Filter describes which places rows the pipeline selects. It is built once
// per invocation and not modified afterwards.
type Filter struct {
	MinLon        float64
	MaxLon        float64
	MinLat        float64
	MaxLat        float64
	MinConfidence float64
	MinUpdateTime string
	Country       string
	Category      string
	Region        string
}

// DefaultFilter returns a filter covering the US mainland with the standard
// confidence and freshness thresholds.
func DefaultFilter() Filter {
	return Filter{
		MinLon:        USMinLon,
		MaxLon:        USMaxLon,
		MinLat:        USMinLat,
		MaxLat:        USMaxLat,
		MinConfidence: DefaultMinConfidence,
		MinUpdateTime: DefaultMinUpdateTime,
		Country:       "US",
	}
}

// ParseBBox parses "min_lon,max_lon,min_lat,max_lat" and applies it to a
// copy of the filter.
func (f Filter) ParseBBox(bbox string) (Filter, error) {
	parts := strings.Split(bbox, ",")
	if len(parts) != 4 {
		return f, fmt.Errorf("invalid bbox %q: expected min_lon,max_lon,min_lat,max_lat", bbox)
	}

	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return f, fmt.Errorf("invalid bbox %q: %w", bbox, err)
		}
		vals[i] = v
	}

	f.MinLon, f.MaxLon, f.MinLat, f.MaxLat = vals[0], vals[1], vals[2], vals[3]
	return f, nil
}

// Validate checks the bounding box orientation and the confidence range.
func (f Filter) Validate() error {
	if f.MinLon > f.MaxLon {
		return fmt.Errorf("bbox min_lon %f > max_lon %f", f.MinLon, f.MaxLon)
	}
	if f.MinLat > f.MaxLat {
		return fmt.Errorf("bbox min_lat %f > max_lat %f", f.MinLat, f.MaxLat)
	}
	if f.MinConfidence < 0 || f.MinConfidence > 1 {
		return fmt.Errorf("confidence %f outside [0,1]", f.MinConfidence)
	}
	return nil
}

// whereClauses returns the predicate list shared by the count and
// extraction queries. Category and region are appended only when set.
func (f Filter) whereClauses() []string {
	clauses := []string{
		fmt.Sprintf("addresses[1].country = '%s'", escapeLiteral(f.Country)),
		fmt.Sprintf("ST_X(geometry) BETWEEN %f AND %f", f.MinLon, f.MaxLon),
		fmt.Sprintf("ST_Y(geometry) BETWEEN %f AND %f", f.MinLat, f.MaxLat),
		fmt.Sprintf("confidence >= %g", f.MinConfidence),
		fmt.Sprintf("sources[1].update_time >= '%s'", f.MinUpdateTime),
	}

	if f.Category != "" {
		clauses = append(clauses, fmt.Sprintf("categories.primary = '%s'", escapeLiteral(f.Category)))
	}
	if f.Region != "" {
		clauses = append(clauses, fmt.Sprintf("addresses[1].region = '%s'", escapeLiteral(f.Region)))
	}

	return clauses
}

// escapeLiteral doubles single quotes so user supplied category/region
// values stay plain string literals.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
