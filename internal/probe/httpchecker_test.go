package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

func httpTarget(name, url string) domain.Target {
	return domain.Target{Name: name, URL: url, Type: domain.TypeHTTP}
}

func TestHTTPChecker_StatusOK(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer s.Close()

	chk := &HTTPChecker{Timeout: 2 * time.Second}
	res := chk.Check(context.Background(), httpTarget("site", s.URL))

	if res.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", res.StatusCode)
	}
	if res.Durations["total"] < 0 {
		t.Fatalf("want total >= 0, got %d", res.Durations["total"])
	}
	if res.Durations["readable"] < 0 {
		t.Fatalf("want readable >= 0, got %d", res.Durations["readable"])
	}
	if _, ok := res.Timings[timing.PhaseConnect]; !ok {
		t.Fatalf("want connect phase recorded, got %v", res.Timings)
	}
	if _, ok := res.Timings[timing.PhaseSecureConnect]; ok {
		t.Fatalf("plaintext probe must not record secureConnect")
	}
}

func TestHTTPChecker_Status404(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer s.Close()

	chk := &HTTPChecker{Timeout: 2 * time.Second}
	res := chk.Check(context.Background(), httpTarget("site", s.URL))

	if res.StatusCode != 404 {
		t.Fatalf("want status 404, got %d", res.StatusCode)
	}
	if res.Durations["total"] < 0 {
		t.Fatalf("404 is still a completed probe; want total >= 0, got %d", res.Durations["total"])
	}
}

func TestHTTPChecker_TLSRecordsSecureConnect(t *testing.T) {
	s := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := &HTTPChecker{Timeout: 2 * time.Second, InsecureTLS: true}
	res := chk.Check(context.Background(), httpTarget("site", s.URL))

	if res.StatusCode != 200 {
		t.Fatalf("want status 200, got %d", res.StatusCode)
	}
	if _, ok := res.Timings[timing.PhaseSecureConnect]; !ok {
		t.Fatalf("want secureConnect phase for https probe, got %v", res.Timings)
	}
	if res.Durations["secureConnect"] < 0 {
		t.Fatalf("want secureConnect duration >= 0, got %d", res.Durations["secureConnect"])
	}
}

func TestHTTPChecker_TimeoutSetsStatusZero(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := &HTTPChecker{Timeout: 50 * time.Millisecond}
	res := chk.Check(context.Background(), httpTarget("slow", s.URL))

	if res.StatusCode != 0 {
		t.Fatalf("want status 0 on timeout, got %d", res.StatusCode)
	}
	// phases captured before the abort keep their durations
	if res.Durations["connect"] < 0 {
		t.Fatalf("connect happened before the timeout; want >= 0, got %d", res.Durations["connect"])
	}
	if res.Durations["readable"] != timing.Missing {
		t.Fatalf("no response byte ever arrived; want %d, got %d", timing.Missing, res.Durations["readable"])
	}
}

func TestHTTPChecker_BadURLSetsStatusZero(t *testing.T) {
	chk := &HTTPChecker{Timeout: time.Second}
	res := chk.Check(context.Background(), httpTarget("bad", "http://\x00invalid"))

	if res.StatusCode != 0 {
		t.Fatalf("want status 0 on request error, got %d", res.StatusCode)
	}
	if res.Durations["total"] < 0 {
		t.Fatalf("even failed probes finalize; want total >= 0, got %d", res.Durations["total"])
	}
}
