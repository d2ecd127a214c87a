package probe

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

// Dispatcher fans one probe per target out across goroutines and joins the
// results. Every input target yields exactly one result. The dispatcher adds
// no timeout of its own; each probe enforces only its own budget.
type Dispatcher struct {
	Logger  *zap.Logger
	Timeout time.Duration
}

func NewDispatcher(logger *zap.Logger, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{Logger: logger, Timeout: timeout}
}

func (d *Dispatcher) Run(ctx context.Context, targets []domain.Target) []domain.ProbeResult {
	results := make([]domain.ProbeResult, len(targets))
	var wg sync.WaitGroup

	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, t domain.Target) {
			defer wg.Done()

			c, err := New(t, d.Timeout)
			if err != nil {
				d.Logger.Warn("probe_skipped",
					zap.String("name", t.Name),
					zap.Error(err),
				)
				rec := timing.NewRecorder()
				results[i] = domain.ProbeResult{
					Name:       t.Name,
					Component:  t.Component,
					Type:       t.Kind(),
					StatusCode: domain.StatusError,
					Timings:    rec.Snapshot(),
					Durations:  rec.Finalize(),
				}
				return
			}

			results[i] = c.Check(ctx, t)
			d.Logger.Info("probe_done",
				zap.String("name", results[i].Name),
				zap.String("type", string(results[i].Type)),
				zap.Int("status", results[i].StatusCode),
				zap.Int64("total_ms", results[i].Durations["total"]),
			)
		}(i, tgt)
	}

	wg.Wait()
	return results
}
