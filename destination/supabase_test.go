package destination

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mapier/poimport/poi"
)

func record(id string) *poi.Record {
	return &poi.Record{ID: id, Lon: -87.60, Lat: 41.79, Source: poi.SourceType}
}

// upsertServer rejects any payload containing badID and records every
// request.
func upsertServer(t *testing.T, badID string, requests *[][]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("on_conflict") != "id" {
			t.Errorf("on_conflict = %q", r.URL.Query().Get("on_conflict"))
		}
		if !strings.Contains(r.Header.Get("Prefer"), "resolution=merge-duplicates") {
			t.Errorf("Prefer = %q", r.Header.Get("Prefer"))
		}
		if r.Header.Get("apikey") == "" {
			t.Error("missing apikey header")
		}

		var payload []struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}

		ids := make([]string, 0, len(payload))
		for _, rec := range payload {
			ids = append(ids, rec.ID)
		}
		*requests = append(*requests, ids)

		for _, id := range ids {
			if id == badID {
				http.Error(w, `{"message":"value too long"}`, http.StatusBadRequest)
				return
			}
		}
		w.WriteHeader(http.StatusCreated)
	}))
}

func TestSupabaseUpsertBatch(t *testing.T) {
	var requests [][]string
	ts := upsertServer(t, "", &requests)
	defer ts.Close()

	sink, err := NewSupabaseSink(ts.URL, "service-key")
	if err != nil {
		t.Fatal(err)
	}

	n, failures := sink.UpsertBatch(context.Background(), []*poi.Record{record("poi-1"), record("poi-2")})
	if n != 2 || len(failures) != 0 {
		t.Errorf("got n=%d failures=%v", n, failures)
	}
	if len(requests) != 1 {
		t.Errorf("expected a single batch request, got %d", len(requests))
	}
}

func TestSupabaseBatchFallback(t *testing.T) {
	var requests [][]string
	ts := upsertServer(t, "poi-2", &requests)
	defer ts.Close()

	sink, err := NewSupabaseSink(ts.URL, "service-key")
	if err != nil {
		t.Fatal(err)
	}

	batch := []*poi.Record{record("poi-1"), record("poi-2"), record("poi-3")}
	n, failures := sink.UpsertBatch(context.Background(), batch)

	if n != 2 {
		t.Errorf("succeeded = %d, want 2", n)
	}
	if len(failures) != 1 {
		t.Fatalf("failures = %v, want exactly 1", failures)
	}
	if failures[0].ID != "poi-2" {
		t.Errorf("failed id = %q", failures[0].ID)
	}
	if !strings.Contains(failures[0].String(), "poi-2") {
		t.Errorf("failure sample %q does not name the record", failures[0].String())
	}

	// One batch attempt then one request per record.
	if len(requests) != 4 {
		t.Errorf("expected 4 requests (1 batch + 3 fallback), got %d", len(requests))
	}
}

func TestSupabaseEmptyBatch(t *testing.T) {
	sink, err := NewSupabaseSink("https://example.supabase.co", "service-key")
	if err != nil {
		t.Fatal(err)
	}

	n, failures := sink.UpsertBatch(context.Background(), nil)
	if n != 0 || failures != nil {
		t.Errorf("got n=%d failures=%v for empty batch", n, failures)
	}
}

func TestSupabaseMissingCredentials(t *testing.T) {
	if _, err := NewSupabaseSink("", ""); err == nil {
		t.Error("expected error for missing credentials")
	}
	if _, err := NewSupabaseSink("https://example.supabase.co", ""); err == nil {
		t.Error("expected error for missing key")
	}
}

func TestSupabaseIdempotentPayload(t *testing.T) {
	// Upserting the same record twice sends identical payloads; the
	// merge-duplicates resolution makes the second call a full overwrite.
	rec := record("poi-1")
	first, err := json.Marshal([]*poi.Record{rec})
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal([]*poi.Record{rec})
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("payload not stable across retries")
	}
}
