// Package runner executes one full invocation: probe every target, ship
// metrics, reconcile incidents.
package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/incident"
	"github.com/Miller-Media/lambda-watchtower/internal/metrics"
	"github.com/Miller-Media/lambda-watchtower/internal/probe"
)

// DefaultTimeout bounds each probe when the payload does not say otherwise.
const DefaultTimeout = 5000 * time.Millisecond

// ErrNoTargets is returned before any probe launches when the payload
// carries no targets.
var ErrNoTargets = errors.New("no targets supplied")

// Request is the single-invocation payload.
type Request struct {
	Targets    []domain.Target `json:"targets"`
	LogTimings []string        `json:"logTimings,omitempty"`
	Namespace  string          `json:"namespace,omitempty"`
	TimeoutMS  int64           `json:"timeout,omitempty"`
	APIHost    string          `json:"api_host,omitempty"`
	APIKey     string          `json:"api_key,omitempty"`
}

func (r Request) timeout() time.Duration {
	if r.TimeoutMS <= 0 {
		return DefaultTimeout
	}
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// Runner wires the dispatcher to the metrics sink and the status API.
type Runner struct {
	Logger *zap.Logger
	Sink   metrics.Sink

	// NewStatusAPI builds the status client for a payload's api_host and
	// api_key. Returning nil disables the incident branch for that run.
	NewStatusAPI func(host, key string) incident.StatusAPI

	// Fallback status API coordinates for payloads that omit them.
	APIHost string
	APIKey  string
}

func New(logger *zap.Logger, sink metrics.Sink, newStatusAPI func(host, key string) incident.StatusAPI) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Logger: logger, Sink: sink, NewStatusAPI: newStatusAPI}
}

// Run probes every target, then ships metrics and reconciles incidents
// concurrently, returning once both branches settle. The returned error
// reflects metrics delivery only; incident actions are best-effort and
// their failures stay in the logs.
func (r *Runner) Run(ctx context.Context, req Request) ([]domain.ProbeResult, error) {
	if len(req.Targets) == 0 {
		return nil, ErrNoTargets
	}

	d := probe.NewDispatcher(r.Logger, req.timeout())
	results := d.Run(ctx, req.Targets)

	batcher := metrics.NewBatcher(r.Sink, r.Logger, req.Namespace, req.LogTimings)
	reconciler := incident.NewReconciler(r.statusAPI(req), r.Logger)

	var wg sync.WaitGroup
	var shipErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		shipErr = batcher.Ship(ctx, results)
	}()
	go func() {
		defer wg.Done()
		reconciler.Reconcile(ctx, results)
	}()
	wg.Wait()

	return results, shipErr
}

func (r *Runner) statusAPI(req Request) incident.StatusAPI {
	host, key := req.APIHost, req.APIKey
	if host == "" {
		host, key = r.APIHost, r.APIKey
	}
	if host == "" || r.NewStatusAPI == nil {
		return nil
	}
	return r.NewStatusAPI(host, key)
}
