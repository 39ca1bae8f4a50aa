package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"predicta/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Geocode{BaseURL: srv.URL, Timeout: 5 * time.Second}, time.Minute)
}

func TestIdentifyResolvesCityCountry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("format = %q, want json", got)
		}
		if got := r.Header.Get("Accept-Language"); got != "en" {
			t.Errorf("Accept-Language = %q, want en", got)
		}
		w.Write([]byte(`{"address":{"city":"Lisbon","country":"Portugal"}}`))
	})

	got := client.Identify(context.Background(), 38.72, -9.14)
	if got != "Lisbon, Portugal" {
		t.Errorf("Identify = %q, want %q", got, "Lisbon, Portugal")
	}
}

func TestIdentifyLocalityPreference(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"town when no city", `{"address":{"town":"Sintra","country":"Portugal"}}`, "Sintra, Portugal"},
		{"village before suburb", `{"address":{"village":"Alvor","suburb":"Centro","country":"Portugal"}}`, "Alvor, Portugal"},
		{"city without country", `{"address":{"city":"Singapore"}}`, "Singapore"},
		{"no locality at all", `{"address":{"country":"Portugal"}}`, "Unknown City, Portugal"},
		{"no locality or country", `{"address":{}}`, "Unknown City"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			if got := client.Identify(context.Background(), 1, 2); got != tt.want {
				t.Errorf("Identify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIdentifyFallsBackToCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"invalid body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"no address block", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":"Unable to geocode"}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			if got := client.Identify(context.Background(), 1, 2); got != "1.00, 2.00" {
				t.Errorf("Identify = %q, want coordinate fallback", got)
			}
		})
	}
}

func TestIdentifyCachesSuccessfulLookups(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"address":{"city":"Oslo","country":"Norway"}}`))
	})

	for range 3 {
		if got := client.Identify(context.Background(), 59.91, 10.75); got != "Oslo, Norway" {
			t.Fatalf("Identify = %q", got)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected one upstream request, got %d", hits.Load())
	}
}

func TestIdentifyDoesNotCacheFailures(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	client.Identify(context.Background(), 1, 2)
	client.Identify(context.Background(), 1, 2)
	if hits.Load() != 2 {
		t.Errorf("failed lookups must not be cached, got %d upstream requests", hits.Load())
	}
}
