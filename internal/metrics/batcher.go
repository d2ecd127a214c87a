// Package metrics flattens probe results into timestamped metric records
// and ships them to a sink in bounded batches.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

// MaxBatchSize is the sink's hard per-call record ceiling.
const MaxBatchSize = 10

// Units attached to metric records.
const (
	UnitMilliseconds = "Milliseconds"
	UnitNone         = "None"
)

// Sink persists one batch of at most MaxBatchSize records. Batches are
// submitted concurrently, one call per batch, no retries.
type Sink interface {
	Submit(ctx context.Context, namespace string, batch []domain.MetricRecord) error
}

// Batcher converts probe results into metric records and submits them.
type Batcher struct {
	Sink       Sink
	Logger     *zap.Logger
	Namespace  string
	LogTimings []string // duration keys shipped alongside the status record
}

func NewBatcher(sink Sink, logger *zap.Logger, namespace string, logTimings []string) *Batcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if namespace == "" {
		namespace = "Watchtower"
	}
	if len(logTimings) == 0 {
		logTimings = []string{"readable", "total"}
	}
	return &Batcher{
		Sink:       sink,
		Logger:     logger,
		Namespace:  namespace,
		LogTimings: logTimings,
	}
}

// Records flattens results into one status record plus one record per
// opted-in timing key, all stamped with the same instant.
func (b *Batcher) Records(results []domain.ProbeResult) []domain.MetricRecord {
	now := time.Now().UTC()
	records := make([]domain.MetricRecord, 0, len(results)*(len(b.LogTimings)+1))
	for _, r := range results {
		records = append(records, domain.MetricRecord{
			Name:      r.Name,
			Dimension: "status",
			Value:     float64(r.StatusCode),
			Unit:      UnitNone,
			Timestamp: now,
		})
		for _, key := range b.LogTimings {
			d, ok := r.Durations[key]
			if !ok {
				d = timing.Missing
			}
			records = append(records, domain.MetricRecord{
				Name:      r.Name,
				Dimension: key,
				Value:     float64(d),
				Unit:      UnitMilliseconds,
				Timestamp: now,
			})
		}
	}
	return records
}

// Chunk partitions records into consecutive batches of at most size.
func Chunk(records []domain.MetricRecord, size int) [][]domain.MetricRecord {
	if size <= 0 {
		size = MaxBatchSize
	}
	batches := make([][]domain.MetricRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

// Ship converts, chunks and submits all batches concurrently. It fails when
// any batch submission fails; partial delivery is reported as the combined
// error, not retried.
func (b *Batcher) Ship(ctx context.Context, results []domain.ProbeResult) error {
	records := b.Records(results)
	batches := Chunk(records, MaxBatchSize)

	errs := make([]error, len(batches))
	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []domain.MetricRecord) {
			defer wg.Done()
			errs[i] = b.Sink.Submit(ctx, b.Namespace, batch)
		}(i, batch)
	}
	wg.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return fmt.Errorf("submitting metrics: %w", err)
	}
	b.Logger.Info("metrics_shipped",
		zap.String("namespace", b.Namespace),
		zap.Int("records", len(records)),
		zap.Int("batches", len(batches)),
	)
	return nil
}
