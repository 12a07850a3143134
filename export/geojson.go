package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/mapier/poimport/overture"
	"github.com/mapier/poimport/poi"
)

const pageSize = 1000

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Run extracts the filtered places and writes them as a GeoJSON
// FeatureCollection to output.
func Run(ctx context.Context, ds *overture.Dataset, limit int, output string) error {
	log.Info("Querying Overture data...")

	cursor, err := ds.Extract(ctx, overture.ExportColumns, limit, 0)
	if err != nil {
		return err
	}
	defer cursor.Close()

	var records []*poi.Record
	for {
		rows, err := cursor.FetchPage(pageSize)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			rec, err := poi.Normalize(row, overture.ExportColumns)
			if err != nil {
				log.Warnf("skipping row: %v", err)
				continue
			}
			records = append(records, rec)
		}
	}

	log.Infof("Found %d POIs", len(records))

	fc, err := BuildFeatureCollection(records)
	if err != nil {
		return err
	}
	if err := WriteFile(output, fc); err != nil {
		return err
	}

	log.Infof("Exported %d POIs to %s", len(fc.Features), output)
	logSample(records)

	return nil
}

// BuildFeatureCollection converts records to Point features. The
// coordinate pair moves into the geometry and is removed from the
// properties.
func BuildFeatureCollection(records []*poi.Record) (*FeatureCollection, error) {
	features := make([]Feature, 0, len(records))

	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode record %s: %w", rec.ID, err)
		}

		props := map[string]any{}
		if err := json.Unmarshal(raw, &props); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", rec.ID, err)
		}
		delete(props, "lon")
		delete(props, "lat")

		features = append(features, Feature{
			Type:       "Feature",
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{rec.Lon, rec.Lat}},
			Properties: props,
		})
	}

	return &FeatureCollection{Type: "FeatureCollection", Features: features}, nil
}

// WriteFile writes the collection as indented JSON.
func WriteFile(path string, fc *FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func logSample(records []*poi.Record) {
	n := len(records)
	if n > 5 {
		n = 5
	}
	for i := 0; i < n; i++ {
		rec := records[i]
		name, category := "", ""
		if rec.Name != nil {
			name = *rec.Name
		}
		if rec.PrimaryCategory != nil {
			category = *rec.PrimaryCategory
		}
		log.Infof("  %d. %s (%s) - confidence: %.2f", i+1, name, category, rec.Confidence)
	}
}
