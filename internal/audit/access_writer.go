package audit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"dsas/internal/model"
	"dsas/internal/repository"
)

const (
	accessBufferSize = 100
	accessBatchSize  = 10
	accessFlushEvery = time.Second
)

// AccessRecorder accepts access decisions for the audit trail.
type AccessRecorder interface {
	Record(ctx context.Context, entry model.AccessLog)
}

// AccessWriter persists access log entries in the background, batching
// inserts. When its buffer is full it writes synchronously instead of
// dropping entries.
type AccessWriter struct {
	repo    repository.AccessLogRepository
	logger  zerolog.Logger
	entries chan model.AccessLog
	done    chan struct{}
	once    sync.Once
}

var _ AccessRecorder = (*AccessWriter)(nil)

// NewAccessWriter starts the background writer. Call Close to flush and stop it.
func NewAccessWriter(repo repository.AccessLogRepository, logger zerolog.Logger) *AccessWriter {
	w := &AccessWriter{
		repo:    repo,
		logger:  logger,
		entries: make(chan model.AccessLog, accessBufferSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Record queues an entry without blocking the request.
func (w *AccessWriter) Record(ctx context.Context, entry model.AccessLog) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	select {
	case w.entries <- entry:
	default:
		// buffer full, write synchronously as fallback
		if err := w.repo.Create(context.WithoutCancel(ctx), &entry); err != nil {
			w.logger.Error().Err(err).Msg("write access log")
		}
	}
}

// Close flushes pending entries and stops the writer. Record must not be
// called after Close.
func (w *AccessWriter) Close() {
	w.once.Do(func() {
		close(w.entries)
		<-w.done
	})
}

func (w *AccessWriter) run() {
	defer close(w.done)

	ctx := context.Background()
	batch := make([]model.AccessLog, 0, accessBatchSize)
	ticker := time.NewTicker(accessFlushEvery)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.repo.CreateBatch(ctx, batch); err != nil {
			w.logger.Error().Err(err).Int("entries", len(batch)).Msg("write access log batch")
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= accessBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
