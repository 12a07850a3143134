package destination

import (
	"context"
	"fmt"

	"github.com/mapier/poimport/poi"
)

// Table is the destination table for normalized places.
const Table = "places"

// Sink is a destination for normalized records. Implementations perform a
// full-replace upsert keyed by id: attempting the whole batch first and
// falling back to record-level writes when the batch is rejected, so one
// bad record cannot poison the rest.
type Sink interface {
	UpsertBatch(ctx context.Context, records []*poi.Record) (int, []Failure)
	Close(ctx context.Context) error
}

// Failure is one record that could not be written after the per-record
// fallback.
type Failure struct {
	ID  string
	Err error
}

func (f Failure) String() string {
	return fmt.Sprintf("insert error (%s): %v", f.ID, f.Err)
}
