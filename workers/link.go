package workers

import (
	"context"
	"log"
	"time"

	"aqar_pipeline/pipeline"
)

// LinkWorker attaches migrated chat messages to listings in the background.
// Linking is deliberately decoupled from migration runs: messages migrated
// before their listing still get linked on a later pass.
type LinkWorker struct {
	linker    *pipeline.Linker
	triggerCh chan struct{}
}

func NewLinkWorker(linker *pipeline.Linker) *LinkWorker {
	return &LinkWorker{
		linker:    linker,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger causes the worker to run immediately
func (w *LinkWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run processes batches of unlinked messages on a ticker until the context
// is cancelled.
func (w *LinkWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Link worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		case <-w.triggerCh:
			w.processBatch(ctx, batchSize)
		}
	}
}

// processBatch scores one batch. Messages with no acceptable candidate stay
// unlinked and are rescored on a later pass of the queue.
func (w *LinkWorker) processBatch(ctx context.Context, batchSize int) {
	scored, linked, err := w.linker.LinkBatch(ctx, batchSize)
	if err != nil {
		log.Printf("Link worker: batch error: %v", err)
		return
	}
	if scored > 0 {
		log.Printf("Link worker: scored %d messages, linked %d", scored, linked)
	}
}
