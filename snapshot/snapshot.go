// Package snapshot writes the filtered extraction to a local parquet file
// and can re-import such a file without touching S3.
package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/mapier/poimport/destination"
	"github.com/mapier/poimport/overture"
	"github.com/mapier/poimport/pipeline"
	"github.com/mapier/poimport/poi"
)

// listSeparator joins array columns into a single string so the snapshot
// stays a flat parquet file.
const listSeparator = ";"

// Create copies the filtered extraction to a local parquet file through
// DuckDB.
func Create(ctx context.Context, db *overture.DB, path string, f overture.Filter, output string) error {
	query := CopyQuery(path, f, output)
	log.Debugf("snapshot query:\n%s", query)

	if err := db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	log.Infof("Snapshot written to %s", output)
	return nil
}

// CopyQuery builds the COPY ... TO statement for the snapshot. List
// columns are flattened with array_to_string so the file can be read back
// with a flat schema.
func CopyQuery(path string, f overture.Filter, output string) string {
	cols := flattenColumns(overture.ImportColumns)
	return fmt.Sprintf("COPY (\n%s\n) TO '%s' (FORMAT 'PARQUET');",
		overture.BuildQuery(path, f, cols, 0, 0), output)
}

func flattenColumns(cols []overture.Column) []overture.Column {
	flat := make([]overture.Column, len(cols))
	for i, col := range cols {
		if col.Kind == overture.KindTextList {
			expr := strings.TrimSuffix(col.Expr, " AS "+col.Name)
			col = overture.Column{
				Name: col.Name,
				Expr: fmt.Sprintf("array_to_string(%s, '%s') AS %s", expr, listSeparator, col.Name),
				Kind: overture.KindText,
			}
		}
		flat[i] = col
	}
	return flat
}

// snapshotRow matches the flat schema written by CopyQuery.
type snapshotRow struct {
	ID                  string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Name                string  `parquet:"name=name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Confidence          float64 `parquet:"name=confidence, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrimaryCategory     string  `parquet:"name=primary_category, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	AlternateCategories string  `parquet:"name=alternate_categories, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Brand               string  `parquet:"name=brand, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	BrandWikidata       string  `parquet:"name=brand_wikidata, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	OperatingStatus     string  `parquet:"name=operating_status, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Websites            string  `parquet:"name=websites, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Socials             string  `parquet:"name=socials, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Phones              string  `parquet:"name=phones, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Emails              string  `parquet:"name=emails, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Street              string  `parquet:"name=street, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	City                string  `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	State               string  `parquet:"name=state, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Postcode            string  `parquet:"name=postcode, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Country             string  `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
	Lon                 float64 `parquet:"name=lon, type=DOUBLE, repetitiontype=OPTIONAL"`
	Lat                 float64 `parquet:"name=lat, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrimarySource       string  `parquet:"name=primary_source, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY, repetitiontype=OPTIONAL"`
}

// Load reads a snapshot file and upserts its rows in batches through the
// given sink.
func Load(ctx context.Context, path string, sink destination.Sink, batchSize int) (*pipeline.RunStats, error) {
	if batchSize <= 0 {
		batchSize = pipeline.DefaultBatchSize
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(snapshotRow), 4)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer pr.ReadStop()

	stats := &pipeline.RunStats{Total: pr.GetNumRows()}
	log.Infof("Loading %d rows from %s", stats.Total, path)

	remaining := stats.Total
	for remaining > 0 {
		n := int64(batchSize)
		if remaining < n {
			n = remaining
		}

		rows := make([]snapshotRow, n)
		if err := pr.Read(&rows); err != nil {
			return stats, fmt.Errorf("read snapshot rows: %w", err)
		}
		remaining -= n

		batch := make([]*poi.Record, 0, len(rows))
		for _, row := range rows {
			if row.ID == "" {
				stats.Errors++
				continue
			}
			batch = append(batch, row.toRecord())
		}

		if len(batch) > 0 {
			imported, failures := sink.UpsertBatch(ctx, batch)
			stats.Imported += imported
			stats.Errors += len(failures)
			for _, failure := range failures {
				if len(stats.Samples) < 5 {
					stats.Samples = append(stats.Samples, failure.String())
				}
			}
		}
		stats.NextOffset += len(rows)
	}

	return stats, nil
}

func (r snapshotRow) toRecord() *poi.Record {
	rec := &poi.Record{
		ID:                  r.ID,
		Name:                optional(r.Name),
		Confidence:          r.Confidence,
		PrimaryCategory:     optional(r.PrimaryCategory),
		AlternateCategories: splitList(r.AlternateCategories),
		Brand:               optional(r.Brand),
		BrandWikidata:       optional(r.BrandWikidata),
		OperatingStatus:     optional(r.OperatingStatus),
		Websites:            splitList(r.Websites),
		Socials:             splitList(r.Socials),
		Phones:              splitList(r.Phones),
		Emails:              splitList(r.Emails),
		Street:              optional(r.Street),
		City:                optional(r.City),
		State:               optional(r.State),
		Postcode:            optional(r.Postcode),
		Country:             optional(r.Country),
		Lon:                 r.Lon,
		Lat:                 r.Lat,
		PrimarySource:       optional(r.PrimarySource),
		UpdatedAt:           time.Now().UTC(),
		Source:              poi.SourceType,
	}
	return rec
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSeparator)
}
