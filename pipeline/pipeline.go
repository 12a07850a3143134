package pipeline

import (
	"context"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/mapier/poimport/destination"
	"github.com/mapier/poimport/overture"
	"github.com/mapier/poimport/poi"
)

const (
	// DefaultBatchSize bounds how many rows are resident at a time.
	DefaultBatchSize = 1000
	// confirmThreshold is the expected total above which the run asks for
	// confirmation before writing.
	confirmThreshold = 10000
	// maxErrorSamples caps how many error messages the summary keeps.
	maxErrorSamples = 5
)

// Source is the extraction side of the pipeline.
type Source interface {
	Count(ctx context.Context) (int64, error)
	Extract(ctx context.Context, cols []overture.Column, limit, offset int) (Cursor, error)
}

// Cursor yields extraction rows one page at a time. An empty page ends the
// stream.
type Cursor interface {
	FetchPage(n int) ([][]any, error)
	Close() error
}

// NewOvertureSource adapts an overture.Dataset to the Source interface.
func NewOvertureSource(ds *overture.Dataset) Source {
	return overtureSource{ds: ds}
}

type overtureSource struct {
	ds *overture.Dataset
}

func (s overtureSource) Count(ctx context.Context) (int64, error) {
	return s.ds.Count(ctx)
}

func (s overtureSource) Extract(ctx context.Context, cols []overture.Column, limit, offset int) (Cursor, error) {
	return s.ds.Extract(ctx, cols, limit, offset)
}

// RunStats accumulates counters over a run. It is owned by the driver and
// only handed out once the run finished.
type RunStats struct {
	Total      int64
	Imported   int
	Errors     int
	Samples    []string
	NextOffset int
}

func (s *RunStats) addSample(msg string) {
	if len(s.Samples) < maxErrorSamples {
		s.Samples = append(s.Samples, msg)
	}
}

// LogSummary prints the final counters and up to five sample errors.
func (s *RunStats) LogSummary() {
	log.Infof("Import complete!")
	log.Infof("  Imported/Updated: %d", s.Imported)
	log.Infof("  Errors: %d", s.Errors)

	if len(s.Samples) > 0 {
		log.Info("Sample errors:")
		for _, sample := range s.Samples {
			log.Infof("  - %s", sample)
		}
		log.Infof("Re-run with --offset %d to resume after the processed rows", s.NextOffset)
	}
}

// Pipeline drives one import run: count, clamp, optional confirmation,
// then page-by-page extract, normalize and upsert. Processing is
// sequential, the next page is fetched only after the previous batch was
// written.
type Pipeline struct {
	Source      Source
	Sink        destination.Sink
	Columns     []overture.Column
	BatchSize   int
	Limit       int
	Offset      int
	DryRun      bool
	AutoConfirm bool

	// Prompt and Out default to stdin/stdout, tests swap them.
	Prompt io.Reader
	Out    io.Writer
}

// Run executes the pipeline and returns its stats. A declined confirmation
// is a clean early exit, not an error.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	if p.BatchSize <= 0 {
		p.BatchSize = DefaultBatchSize
	}
	if p.Prompt == nil {
		p.Prompt = os.Stdin
	}
	if p.Out == nil {
		p.Out = os.Stdout
	}

	stats := &RunStats{NextOffset: p.Offset}

	log.Info("Counting records to import...")
	total, err := p.Source.Count(ctx)
	if err != nil {
		return stats, err
	}
	if p.Limit > 0 && total > int64(p.Limit) {
		total = int64(p.Limit)
	}
	stats.Total = total
	log.Infof("Records to import: %d", total)

	if p.DryRun {
		return stats, nil
	}

	if total > confirmThreshold && !p.AutoConfirm {
		if !confirm(p.Prompt, p.Out, total) {
			log.Info("Aborted, nothing written")
			return stats, nil
		}
	}

	cursor, err := p.Source.Extract(ctx, p.Columns, p.Limit, p.Offset)
	if err != nil {
		return stats, err
	}
	defer cursor.Close()

	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(p.Out),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
	)

	for {
		rows, err := cursor.FetchPage(p.BatchSize)
		if err != nil {
			return stats, err
		}
		if len(rows) == 0 {
			break
		}

		batch := make([]*poi.Record, 0, len(rows))
		for _, row := range rows {
			rec, err := poi.Normalize(row, p.Columns)
			if err != nil {
				stats.Errors++
				stats.addSample(err.Error())
				continue
			}
			batch = append(batch, rec)
		}

		if len(batch) > 0 {
			n, failures := p.Sink.UpsertBatch(ctx, batch)
			stats.Imported += n
			stats.Errors += len(failures)
			for _, failure := range failures {
				stats.addSample(failure.String())
			}
		}

		stats.NextOffset += len(rows)
		bar.Add(len(rows))
	}

	return stats, nil
}
