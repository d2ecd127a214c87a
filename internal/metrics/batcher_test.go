package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Miller-Media/lambda-watchtower/internal/domain"
	"github.com/Miller-Media/lambda-watchtower/internal/timing"
)

type fakeSink struct {
	mu      sync.Mutex
	batches [][]domain.MetricRecord
	fail    func(batch []domain.MetricRecord) error
}

func (f *fakeSink) Submit(ctx context.Context, namespace string, batch []domain.MetricRecord) error {
	f.mu.Lock()
	f.batches = append(f.batches, batch)
	f.mu.Unlock()
	if f.fail != nil {
		return f.fail(batch)
	}
	return nil
}

func someResults(n int) []domain.ProbeResult {
	out := make([]domain.ProbeResult, n)
	for i := range out {
		out[i] = domain.ProbeResult{
			Name:       "svc",
			Type:       domain.TypeHTTP,
			StatusCode: 200,
			Durations:  timing.Durations{"readable": 12, "total": 34},
		}
	}
	return out
}

func TestBatcher_RecordCount(t *testing.T) {
	b := NewBatcher(&fakeSink{}, nil, "", nil) // defaults: readable+total

	records := b.Records(someResults(3))
	// N results x (K timings + 1 status) = 3 x 3
	if len(records) != 9 {
		t.Fatalf("want 9 records, got %d", len(records))
	}
	if records[0].Dimension != "status" || records[0].Value != 200 {
		t.Fatalf("first record should be status=200, got %+v", records[0])
	}
	if records[1].Dimension != "readable" || records[1].Unit != UnitMilliseconds {
		t.Fatalf("timing record wrong: %+v", records[1])
	}
}

func TestBatcher_MissingTimingKeyShipsMinusOne(t *testing.T) {
	b := NewBatcher(&fakeSink{}, nil, "", []string{"secureConnect"})

	records := b.Records([]domain.ProbeResult{{
		Name:       "plain",
		Type:       domain.TypeHTTP,
		StatusCode: 200,
		Durations:  timing.Durations{"total": 10},
	}})
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}
	if records[1].Value != -1 {
		t.Fatalf("missing duration should ship as -1, got %v", records[1].Value)
	}
}

func TestChunk_NeverExceedsCeiling(t *testing.T) {
	records := make([]domain.MetricRecord, 25)
	batches := Chunk(records, MaxBatchSize)

	if len(batches) != 3 {
		t.Fatalf("want ceil(25/10)=3 batches, got %d", len(batches))
	}
	total := 0
	for i, batch := range batches {
		if len(batch) > MaxBatchSize {
			t.Fatalf("batch %d exceeds ceiling: %d", i, len(batch))
		}
		total += len(batch)
	}
	if total != 25 {
		t.Fatalf("chunking lost records: %d of 25", total)
	}
	if len(batches[2]) != 5 {
		t.Fatalf("last batch should carry the remainder 5, got %d", len(batches[2]))
	}
}

func TestChunk_Empty(t *testing.T) {
	if batches := Chunk(nil, MaxBatchSize); len(batches) != 0 {
		t.Fatalf("want no batches for no records, got %d", len(batches))
	}
}

func TestBatcher_ShipSubmitsAllBatches(t *testing.T) {
	sink := &fakeSink{}
	b := NewBatcher(sink, nil, "Watchtower", []string{"readable", "total"})

	// 4 results x 3 records = 12 records = 2 batches
	if err := b.Ship(context.Background(), someResults(4)); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if len(sink.batches) != 2 {
		t.Fatalf("want 2 batches, got %d", len(sink.batches))
	}
}

func TestBatcher_ShipFailsWhenAnyBatchFails(t *testing.T) {
	calls := 0
	sink := &fakeSink{}
	sink.fail = func(batch []domain.MetricRecord) error {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("throttled")
		}
		return nil
	}
	b := NewBatcher(sink, nil, "", nil)

	// 10 results x 3 records = 30 records = 3 batches
	err := b.Ship(context.Background(), someResults(10))
	if err == nil {
		t.Fatal("want error when a batch submission fails")
	}
	// every batch is still attempted; no early abort
	if len(sink.batches) != 3 {
		t.Fatalf("want all 3 batches attempted, got %d", len(sink.batches))
	}
}
