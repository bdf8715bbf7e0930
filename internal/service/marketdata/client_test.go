package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"IntraCast/internal/domain/models"
)

func barsHandler(t *testing.T, bars []apiBar, wantKey string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/bars" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != wantKey {
			t.Errorf("api key header: got %q want %q", got, wantKey)
		}
		if got := r.URL.Query().Get("interval"); got != "15m" {
			t.Errorf("interval param: got %q", got)
		}
		_ = json.NewEncoder(w).Encode(apiBarsResponse{Symbol: r.URL.Query().Get("symbol"), Bars: bars})
	}
}

func TestFetchOrdersAndDedupes(t *testing.T) {
	base := time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC).Unix()
	bars := []apiBar{
		{T: base + 900, O: 2, H: 3, L: 1, C: 2.5, V: 10},
		{T: base, O: 1, H: 2, L: 0.5, C: 1.5, V: 20},
		{T: base, O: 1, H: 2, L: 0.5, C: 1.7, V: 25}, // duplicate ts, last wins
	}
	srv := httptest.NewServer(barsHandler(t, bars, "k"))
	defer srv.Close()

	loc, _ := time.LoadLocation("Asia/Kolkata")
	c := New(srv.URL, "k", loc, 5*time.Second)

	out, err := c.Fetch(context.Background(), "^NSEI", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 deduped bars, got %d", len(out))
	}
	if !out[0].Timestamp.Before(out[1].Timestamp) {
		t.Fatalf("bars must be ascending")
	}
	if out[0].Close != 1.7 {
		t.Fatalf("duplicate resolution: got close %v want 1.7", out[0].Close)
	}
	if out[0].Timestamp.Location().String() != "Asia/Kolkata" {
		t.Fatalf("timestamps must be exchange-local, got %v", out[0].Timestamp.Location())
	}
}

func TestFetchAlignsOffBoundaryTimestamps(t *testing.T) {
	base := time.Date(2024, 6, 3, 4, 0, 0, 0, time.UTC).Unix()
	bars := []apiBar{
		{T: base, C: 1.5},
		{T: base + 17, C: 1.9}, // off-boundary duplicate of the same bar
	}
	srv := httptest.NewServer(barsHandler(t, bars, ""))
	defer srv.Close()

	c := New(srv.URL, "", time.UTC, 5*time.Second)
	out, err := c.Fetch(context.Background(), "^NSEI", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("off-boundary duplicate should collapse, got %d bars", len(out))
	}
	if out[0].Close != 1.9 {
		t.Fatalf("last write should win, got %v", out[0].Close)
	}
}

func TestFetchNoData(t *testing.T) {
	srv := httptest.NewServer(barsHandler(t, nil, ""))
	defer srv.Close()

	c := New(srv.URL, "", time.UTC, 5*time.Second)
	_, err := c.Fetch(context.Background(), "^NSEI", 15*time.Minute, 24*time.Hour)
	if !errors.Is(err, models.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "", time.UTC, 5*time.Second)
	if _, err := c.Fetch(context.Background(), "^NSEI", 15*time.Minute, 24*time.Hour); err == nil {
		t.Fatalf("expected error on 502")
	}
}

func TestIntervalParam(t *testing.T) {
	if got := intervalParam(15 * time.Minute); got != "15m" {
		t.Fatalf("got %q", got)
	}
	if got := intervalParam(time.Hour); got != "1h" {
		t.Fatalf("got %q", got)
	}
	if got := periodParam(30 * 24 * time.Hour); got != "30d" {
		t.Fatalf("got %q", got)
	}
}
