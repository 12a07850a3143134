package overture

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	log "github.com/sirupsen/logrus"
)

// DB wraps an in-process DuckDB connection configured for reading the
// Overture release from S3.
type DB struct {
	db *sql.DB
}

// Open creates a DuckDB connection and loads the spatial and httpfs
// extensions needed for read_parquet over S3.
func Open(s3Region string) (*DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	setup := []string{
		"INSTALL spatial; INSTALL httpfs;",
		"LOAD spatial; LOAD httpfs;",
		fmt.Sprintf("SET s3_region='%s';", s3Region),
	}
	for _, stmt := range setup {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("duckdb setup %q: %w", stmt, err)
		}
	}

	return &DB{db: db}, nil
}

// Exec runs a statement without results, used for COPY ... TO snapshots.
func (d *DB) Exec(ctx context.Context, query string) error {
	_, err := d.db.ExecContext(ctx, query)
	return err
}

// Close releases the DuckDB connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Dataset binds a DuckDB connection to one parquet path and filter, which
// is what the pipeline consumes.
type Dataset struct {
	db     *DB
	Path   string
	Filter Filter
}

func NewDataset(db *DB, path string, filter Filter) *Dataset {
	return &Dataset{db: db, Path: path, Filter: filter}
}

// Count runs the count query once and returns the scalar.
func (ds *Dataset) Count(ctx context.Context) (int64, error) {
	query := BuildCountQuery(ds.Path, ds.Filter)
	log.Debugf("count query:\n%s", query)

	var total int64
	if err := ds.db.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return total, nil
}

// Extract executes the extraction query and returns a cursor over its rows.
func (ds *Dataset) Extract(ctx context.Context, cols []Column, limit, offset int) (*Cursor, error) {
	query := BuildQuery(ds.Path, ds.Filter, cols, limit, offset)
	log.Debugf("extraction query:\n%s", query)

	rows, err := ds.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("extraction query: %w", err)
	}
	return &Cursor{rows: rows, width: len(cols)}, nil
}

// Cursor is a pull-based reader over extraction results. The pipeline asks
// for one page at a time, so at most one page of raw rows is resident.
type Cursor struct {
	rows  *sql.Rows
	width int
}

// FetchPage reads up to n rows. An empty slice signals the end of the
// stream.
func (c *Cursor) FetchPage(n int) ([][]any, error) {
	page := make([][]any, 0, n)

	for len(page) < n && c.rows.Next() {
		vals := make([]any, c.width)
		ptrs := make([]any, c.width)
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		page = append(page, vals)
	}

	if err := c.rows.Err(); err != nil {
		return nil, err
	}
	return page, nil
}

// Close releases the underlying result set.
func (c *Cursor) Close() error {
	return c.rows.Close()
}
