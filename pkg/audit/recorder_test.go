package audit

import (
	"context"
	"testing"
	"time"
)

func TestRecorderFillsDefaultsAndDrains(t *testing.T) {
	storage := NewMemoryStorage()
	rec := NewRecorder(storage, 16)

	rec.Record(Record{
		RPCMethod:  "getSlot",
		Backend:    "primary",
		Status:     "success",
		StatusCode: 200,
	})
	rec.Record(Record{
		ID:      "fixed-id",
		Backend: "fallback",
		Status:  "timeout",
	})

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	count, err := storage.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("Count() = %d, want 2", count)
	}

	records, err := storage.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for _, r := range records {
		if r.ID == "" {
			t.Error("record stored without an ID")
		}
		if r.Time.IsZero() {
			t.Error("record stored without a timestamp")
		}
	}

	if rec.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", rec.Dropped())
	}
}

// blockingStorage never completes inserts until released, so the recorder's
// queue can be filled deterministically.
type blockingStorage struct {
	MemoryStorage
	release chan struct{}
}

func (s *blockingStorage) Insert(ctx context.Context, rec *Record) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.MemoryStorage.Insert(ctx, rec)
}

func TestRecorderDropsWhenBufferFull(t *testing.T) {
	storage := &blockingStorage{release: make(chan struct{})}
	rec := NewRecorder(storage, 2)

	// One record occupies the worker, two fill the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		rec.Record(Record{Status: "success"})
	}

	deadline := time.After(2 * time.Second)
	for rec.Dropped() == 0 {
		select {
		case <-deadline:
			t.Fatal("no records dropped with a full buffer")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	close(storage.release)
	if err := rec.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	count, err := storage.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if got := count + rec.Dropped(); got != 10 {
		t.Errorf("stored %d + dropped %d = %d, want 10", count, rec.Dropped(), got)
	}
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	rec := NewRecorder(NewMemoryStorage(), 4)
	if err := rec.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
