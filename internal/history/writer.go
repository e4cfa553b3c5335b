package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fetchd/internal/jobs"
	"fetchd/internal/logging"
)

// DefaultWriterBuffer is the queue depth used when NewWriter gets zero.
const DefaultWriterBuffer = 256

const writeTimeout = 10 * time.Second

// Archive is the durable side of the writer.
type Archive interface {
	Save(ctx context.Context, rec jobs.FinishedRecord) error
}

// Writer archives finished records on its own goroutine so callers on the
// control goroutine never wait on disk or network I/O.
type Writer struct {
	archive Archive
	mirror  Mirror
	logger  *slog.Logger

	queue chan jobs.FinishedRecord
	wg    sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewWriter starts a writer. archive or mirror may be nil.
func NewWriter(archive Archive, mirror Mirror, logger *slog.Logger, buffer int) *Writer {
	if buffer <= 0 {
		buffer = DefaultWriterBuffer
	}
	w := &Writer{
		archive: archive,
		mirror:  mirror,
		logger:  logging.NewComponentLogger(logger, "history"),
		queue:   make(chan jobs.FinishedRecord, buffer),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// Record enqueues rec. It never blocks; when the queue is full the record is
// dropped and counted.
func (w *Writer) Record(rec jobs.FinishedRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.queue <- rec:
	default:
		w.dropped++
		logging.WarnWithContext(w.logger, "history queue full; record not archived", "history_dropped",
			logging.String(logging.FieldGID, rec.ID.String()),
			logging.Int("dropped_total", w.dropped),
			logging.Alert("history_backpressure"),
			logging.String(logging.FieldImpact, "record will be missing from the stopped list after restart"),
			logging.String(logging.FieldErrorHint, "check archive disk latency or raise the writer buffer"),
		)
	}
}

// Dropped returns how many records were discarded because the queue was full.
func (w *Writer) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Close stops accepting records, drains the queue and waits for the worker.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Writer) run() {
	defer w.wg.Done()
	for rec := range w.queue {
		w.write(rec)
	}
}

func (w *Writer) write(rec jobs.FinishedRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if w.archive != nil {
		if err := w.archive.Save(ctx, rec); err != nil {
			logging.WarnWithContext(w.logger, "archive write failed", "history_save_failed",
				logging.String(logging.FieldGID, rec.ID.String()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "record will be missing from the stopped list after restart"),
				logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
			)
		}
	}
	if w.mirror != nil {
		if err := w.mirror.Publish(ctx, rec); err != nil {
			logging.WarnWithContext(w.logger, "redis mirror publish failed", "history_mirror_failed",
				logging.String(logging.FieldGID, rec.ID.String()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "external dashboards will not see this record"),
				logging.String(logging.FieldErrorHint, "check history.redis_addr and that Redis is reachable"),
			)
		}
	}
	w.logger.Debug("finished record archived",
		logging.String(logging.FieldEventType, "history_saved"),
		logging.String(logging.FieldGID, rec.ID.String()),
		logging.String("result", string(rec.Result)),
	)
}
