package destination

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mapier/poimport/poi"
)

// SupabaseSink upserts records through the Supabase REST interface
// (PostgREST). The call is at-least-once and non-transactional; conflict
// resolution happens server side on the id column.
type SupabaseSink struct {
	endpoint string
	key      string
	client   *http.Client
}

// NewSupabaseSink builds a sink for the given project URL and service role
// key. Both are required.
func NewSupabaseSink(url, serviceRoleKey string) (*SupabaseSink, error) {
	if url == "" || serviceRoleKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required")
	}

	return &SupabaseSink{
		endpoint: fmt.Sprintf("%s/rest/v1/%s?on_conflict=id", strings.TrimRight(url, "/"), Table),
		key:      serviceRoleKey,
		// Generous fixed timeout so a dead peer cannot hang the run
		// forever. Not a retry policy.
		client: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// UpsertBatch posts the whole batch as one upsert. When the batch call is
// rejected it retries each record on its own so the failing ones can be
// identified.
func (s *SupabaseSink) UpsertBatch(ctx context.Context, records []*poi.Record) (int, []Failure) {
	if len(records) == 0 {
		return 0, nil
	}

	err := s.upsert(ctx, records)
	if err == nil {
		return len(records), nil
	}
	log.Debugf("batch upsert failed, falling back to single upserts: %v", err)

	succeeded := 0
	var failures []Failure
	for _, rec := range records {
		if err := s.upsert(ctx, []*poi.Record{rec}); err != nil {
			failures = append(failures, Failure{ID: rec.ID, Err: err})
			continue
		}
		succeeded++
	}

	return succeeded, failures
}

func (s *SupabaseSink) upsert(ctx context.Context, records []*poi.Record) error {
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upsert returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}

// Close is a no-op, the sink holds no stateful connection.
func (s *SupabaseSink) Close(ctx context.Context) error {
	return nil
}
