package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Recorder writes audit records asynchronously so recording never blocks
// request handling. Records are queued on a buffered channel drained by a
// single worker; when the buffer is full the record is dropped and counted
// rather than stalling the dispatcher.
type Recorder struct {
	storage Storage
	records chan *Record
	dropped atomic.Int64
	logger  *slog.Logger

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// NewRecorder creates a recorder draining into the given storage.
// bufferSize is the async queue capacity; values below 1 fall back to 1000.
func NewRecorder(storage Storage, bufferSize int) *Recorder {
	if bufferSize < 1 {
		bufferSize = 1000
	}

	r := &Recorder{
		storage: storage,
		records: make(chan *Record, bufferSize),
		logger:  slog.Default().With("component", "audit.recorder"),
		done:    make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

// Record queues one audit record. Missing ID and Time fields are filled in.
// Never blocks: if the queue is full the record is dropped and the dropped
// counter incremented.
func (r *Recorder) Record(rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	select {
	case r.records <- &rec:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("audit buffer full, dropping records")
		}
	}
}

// Dropped returns the number of records dropped due to a full buffer.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops the worker after draining queued records.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

// run drains the record channel into storage until Close.
func (r *Recorder) run() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.records:
			r.write(rec)
		case <-r.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case rec := <-r.records:
					r.write(rec)
				default:
					return
				}
			}
		}
	}
}

// write stores one record, logging (not propagating) failures: a broken
// audit store must never affect request handling.
func (r *Recorder) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.storage.Insert(ctx, rec); err != nil {
		r.logger.Error("failed to write audit record",
			"record_id", rec.ID,
			"error", err,
		)
	}
}
