package destination

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/mapier/poimport/poi"
)

// placesColumns is the destination column list, id first. The upsert
// overwrites every column except the key.
var placesColumns = []string{
	"id", "name", "confidence", "primary_category", "alternate_categories",
	"brand", "brand_wikidata", "operating_status",
	"websites", "socials", "phones", "emails",
	"street", "city", "state", "postcode", "country",
	"lon", "lat", "updated_at", "source_type", "primary_source",
}

// PostgresSink writes batches to a places table over a direct connection.
// Each batch runs as one transaction; the fallback writes records with
// autocommit statements.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to Postgres and verifies the connection before
// returning the sink.
func NewPostgresSink(ctx context.Context, connectionString string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// UpsertBatch writes the batch in a single multi-row statement inside one
// transaction. When the batch is rejected it retries record by record and
// reports the records that still fail.
func (s *PostgresSink) UpsertBatch(ctx context.Context, records []*poi.Record) (int, []Failure) {
	if len(records) == 0 {
		return 0, nil
	}

	err := s.upsertTx(ctx, records)
	if err == nil {
		return len(records), nil
	}
	log.Debugf("batch upsert failed, falling back to single inserts: %v", err)

	succeeded := 0
	var failures []Failure
	query := buildUpsertSQL(1)
	for _, rec := range records {
		if _, err := s.pool.Exec(ctx, query, recordArgs(rec)...); err != nil {
			failures = append(failures, Failure{ID: rec.ID, Err: err})
			continue
		}
		succeeded++
	}

	return succeeded, failures
}

func (s *PostgresSink) upsertTx(ctx context.Context, records []*poi.Record) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	args := make([]any, 0, len(records)*len(placesColumns))
	for _, rec := range records {
		args = append(args, recordArgs(rec)...)
	}

	if _, err := tx.Exec(ctx, buildUpsertSQL(len(records)), args...); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Close releases the connection pool.
func (s *PostgresSink) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// buildUpsertSQL builds the multi-row INSERT ... ON CONFLICT statement for
// n records.
func buildUpsertSQL(n int) string {
	width := len(placesColumns)
	valueStrings := make([]string, 0, n)
	for row := 0; row < n; row++ {
		placeholders := make([]string, width)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", row*width+i+1)
		}
		valueStrings = append(valueStrings, fmt.Sprintf("(%s)", strings.Join(placeholders, ",")))
	}

	updates := make([]string, 0, width-1)
	for _, col := range placesColumns[1:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s)\nVALUES %s\nON CONFLICT (id) DO UPDATE SET\n    %s",
		Table,
		strings.Join(placesColumns, ", "),
		strings.Join(valueStrings, ","),
		strings.Join(updates, ",\n    "),
	)
}

// recordArgs returns the record values in placesColumns order.
func recordArgs(rec *poi.Record) []any {
	return []any{
		rec.ID, rec.Name, rec.Confidence, rec.PrimaryCategory, rec.AlternateCategories,
		rec.Brand, rec.BrandWikidata, rec.OperatingStatus,
		rec.Websites, rec.Socials, rec.Phones, rec.Emails,
		rec.Street, rec.City, rec.State, rec.Postcode, rec.Country,
		rec.Lon, rec.Lat, rec.UpdatedAt, rec.Source, rec.PrimarySource,
	}
}
