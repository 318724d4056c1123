package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error = %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSQLiteStorageRoundTrip(t *testing.T) {
	storage := newTestSQLiteStorage(t)
	ctx := context.Background()

	rec := &Record{
		ID:         "rec-1",
		Time:       time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		RequestID:  "req-1",
		RPCMethod:  "getSlot",
		Path:       "/",
		RemoteAddr: "192.0.2.1:1234",
		Backend:    "primary",
		Status:     "success",
		StatusCode: 200,
		Duration:   42 * time.Millisecond,
	}
	if err := storage.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	records, err := storage.List(ctx, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(records))
	}

	got := records[0]
	if got.ID != rec.ID || got.RequestID != rec.RequestID || got.RPCMethod != rec.RPCMethod {
		t.Errorf("List() record = %+v, want %+v", got, rec)
	}
	if got.Backend != "primary" || got.Status != "success" || got.StatusCode != 200 {
		t.Errorf("List() outcome fields = %+v", got)
	}
	if !got.Time.Equal(rec.Time) {
		t.Errorf("Time = %v, want %v", got.Time, rec.Time)
	}
	if got.Duration != rec.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, rec.Duration)
	}
}

func TestSQLiteStorageOrderAndPrune(t *testing.T) {
	storage := newTestSQLiteStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := storage.Insert(ctx, &Record{
			ID:   string(rune('a' + i)),
			Time: base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}

	records, err := storage.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 || records[0].ID != "e" || records[1].ID != "d" {
		t.Errorf("List(2) = %v, want newest first e,d", records)
	}

	deleted, err := storage.DeleteOlderThan(ctx, base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("DeleteOlderThan() = %d, want 3", deleted)
	}

	count, err := storage.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestSQLiteStorageRejectsEmptyPath(t *testing.T) {
	if _, err := NewSQLiteStorage(""); err == nil {
		t.Error("NewSQLiteStorage(\"\") error = nil")
	}
}
