package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/placehub/placehub/internal/observability"
)

type Remover interface {
	Remove(ctx context.Context, ref string) error
}

// Cleaner releases stored images after their place is gone. Removal
// is best effort: failures are logged and counted, never surfaced to
// the request that triggered them.
type Cleaner struct {
	log   *slog.Logger
	store Remover
	prom  *observability.Prom
	queue chan string
}

func New(log *slog.Logger, store Remover, prom *observability.Prom, buffer int) *Cleaner {
	if buffer <= 0 {
		buffer = 64
	}

	return &Cleaner{
		log:   log,
		store: store,
		prom:  prom,
		queue: make(chan string, buffer),
	}
}

// Enqueue never blocks the caller. A full queue drops the ref; the
// orphaned image costs storage, not correctness.
func (c *Cleaner) Enqueue(ref string) {
	if ref == "" {
		return
	}

	select {
	case c.queue <- ref:
	default:
		c.log.Warn("image cleanup queue full, dropping", "ref", ref)
		c.observe("dropped")
	}
}

func (c *Cleaner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.log.Info("image cleanup worker stopping")
			return

		case ref := <-c.queue:
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

			err := c.store.Remove(rctx, ref)

			cancel()

			if err != nil {
				c.log.Warn("image cleanup failed", "ref", ref, "err", err)
				c.observe("failed")
				continue
			}

			c.observe("done")
		}
	}
}

func (c *Cleaner) observe(result string) {
	if c.prom != nil {
		c.prom.CleanupResults.WithLabelValues(result).Inc()
	}
}
