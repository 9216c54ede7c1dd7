package usage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"meridian-hq/meridian/pkg/config"
)

// Recorder writes ledger records asynchronously. Enqueueing never
// blocks: when the buffer is full the record is dropped and counted,
// because losing a ledger entry is cheaper than stalling a request.
type Recorder struct {
	storage      Storage
	writeTimeout time.Duration
	recordChan   chan *Record
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	dropped      atomic.Int64
	logger       *slog.Logger
}

// NewRecorder creates a recorder over the storage backend and starts
// its background worker. Zero config values fall back to the package
// defaults.
func NewRecorder(storage Storage, cfg config.UsageRecorderConfig) *Recorder {
	buffer := cfg.AsyncBuffer
	if buffer <= 0 {
		buffer = config.DefaultUsageAsyncBuffer
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = config.DefaultUsageWriteTimeout
	}

	r := &Recorder{
		storage:      storage,
		writeTimeout: writeTimeout,
		recordChan:   make(chan *Record, buffer),
		done:         make(chan struct{}),
		logger:       slog.Default().With("component", "usage.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("usage recorder started",
		"async_buffer", buffer,
		"write_timeout", writeTimeout,
	)
	return r
}

// Record enqueues one ledger entry. Missing ID and Timestamp fields are
// filled in. Safe to call on a nil recorder, so callers need no
// enabled-check of their own.
func (r *Recorder) Record(rec *Record) {
	if r == nil || rec == nil {
		return
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	select {
	case r.recordChan <- rec:
	default:
		dropped := r.dropped.Add(1)
		r.logger.Warn("usage buffer full, dropping record",
			"request_id", rec.RequestID,
			"dropped_total", dropped,
		)
	}
}

// Dropped returns how many records were discarded because the buffer
// was full.
func (r *Recorder) Dropped() int64 {
	if r == nil {
		return 0
	}
	return r.dropped.Load()
}

// Close drains the buffer and stops the worker. Safe to call more than
// once. Records enqueued after Close may be lost.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.recordChan:
			r.write(rec)
		case <-r.done:
			for {
				select {
				case rec := <-r.recordChan:
					r.write(rec)
				default:
					r.logger.Info("usage recorder drained")
					return
				}
			}
		}
	}
}

func (r *Recorder) write(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.storage.Save(ctx, rec); err != nil {
		r.logger.Error("failed to save usage record",
			"record_id", rec.ID,
			"request_id", rec.RequestID,
			"error", err,
		)
		return
	}

	r.logger.Debug("usage recorded",
		"record_id", rec.ID,
		"provider", rec.Provider,
		"user", rec.UserID,
		"status", rec.StatusCode,
	)
}
