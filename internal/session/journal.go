package session

import (
	"context"
	"sync"
	"time"

	"bot-panel/internal/logger"
)

type write struct {
	op string
	fn func(ctx context.Context) error
}

// journal runs one session's persistence writes in submission order on a
// single worker. Submitting never blocks: a full queue drops the write.
type journal struct {
	connectionID string
	timeout      time.Duration

	mu     sync.Mutex
	queue  chan write
	closed bool
}

func newJournal(connectionID string, size int, timeout time.Duration, wg *sync.WaitGroup) *journal {
	j := &journal{
		connectionID: connectionID,
		timeout:      timeout,
		queue:        make(chan write, size),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		j.run()
	}()

	return j
}

func (j *journal) submit(op string, fn func(ctx context.Context) error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		logger.Debug("journal closed, write skipped", map[string]any{
			"connection_id": j.connectionID,
			"op":            op,
		})
		return
	}

	select {
	case j.queue <- write{op: op, fn: fn}:
	default:
		logger.Warn("journal full, write dropped", map[string]any{
			"connection_id": j.connectionID,
			"op":            op,
		})
	}
}

// close lets the worker drain what is queued and exit.
func (j *journal) close() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return
	}
	j.closed = true
	close(j.queue)
}

func (j *journal) run() {
	for w := range j.queue {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		if err := w.fn(ctx); err != nil {
			logger.Error("persistence write failed", map[string]any{
				"connection_id": j.connectionID,
				"op":            w.op,
				"error":         err,
			})
		}
		cancel()
	}
}
