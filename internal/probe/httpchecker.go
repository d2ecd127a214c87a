package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

// HTTPChecker probes an HTTP(S) URL. The scheme selects the transport; a
// TLS handshake additionally records the secureConnect phase.
type HTTPChecker struct {
	Timeout time.Duration

	// InsecureTLS skips certificate verification for self-signed internal
	// endpoints.
	InsecureTLS bool
}

func (c *HTTPChecker) Check(ctx context.Context, target domain.Target) domain.ProbeResult {
	res := domain.ProbeResult{
		Name:      target.Name,
		Component: target.Component,
		Type:      domain.TypeHTTP,
	}

	rec := timing.NewRecorder()
	trace := &httptrace.ClientTrace{
		DNSDone: func(httptrace.DNSDoneInfo) { rec.Record(timing.PhaseLookup) },
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				rec.Record(timing.PhaseConnect)
			}
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil {
				rec.Record(timing.PhaseSecureConnect)
			}
		},
		GotFirstResponseByte: func() { rec.Record(timing.PhaseReadable) },
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	finish := func(status int) domain.ProbeResult {
		rec.Record(timing.PhaseClose)
		res.StatusCode = status
		res.Timings = rec.Snapshot()
		res.Durations = rec.Finalize()
		return res
	}

	rec.Record(timing.PhaseStart)

	req, err := http.NewRequestWithContext(
		httptrace.WithClientTrace(ctx, trace), http.MethodGet, target.URL, nil)
	if err != nil {
		return finish(0)
	}

	// Fresh transport per probe so connect and handshake events fire instead
	// of reusing a pooled connection.
	client := &http.Client{
		Timeout: c.Timeout,
		Transport: &http.Transport{
			DisableKeepAlives: true,
			TLSClientConfig:   &tls.Config{InsecureSkipVerify: c.InsecureTLS},
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		// Transport errors and the probe timeout both land here: status 0.
		return finish(0)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	rec.Record(timing.PhaseEnd)

	return finish(resp.StatusCode)
}
