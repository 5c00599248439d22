package pipeline

import (
	"context"
	"log"

	"aqar_pipeline/models"
)

// WriteResult tallies one write phase. Row-level failures are counted and
// logged against the source id; they never abort the batch. Deduped counts
// rows the target's unique backstops absorbed (reposts of already-migrated
// content in a later run).
type WriteResult struct {
	Written int64
	Deduped int64
	Errored int64
}

// Writer persists normalized rows to the target store in fixed-size batches.
type Writer struct {
	store     TargetStore
	batchSize int
}

func NewWriter(store TargetStore, batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Writer{store: store, batchSize: batchSize}
}

func (w *Writer) WriteListings(ctx context.Context, runID int64, listings []*models.Listing) WriteResult {
	var res WriteResult
	for start := 0; start < len(listings); start += w.batchSize {
		end := start + w.batchSize
		if end > len(listings) {
			end = len(listings)
		}
		for _, listing := range listings[start:end] {
			inserted, err := w.store.InsertListing(ctx, listing)
			if err != nil {
				res.Errored++
				sourceID := listing.SourceID
				log.Printf("Failed to insert listing (source id %d): %v", sourceID, err)
				w.store.Log(ctx, &runID, models.LogLevelError, "insert listing failed: "+err.Error(), &sourceID)
				continue
			}
			if !inserted {
				res.Deduped++
				continue
			}
			res.Written++
		}
	}
	return res
}

func (w *Writer) WriteMessages(ctx context.Context, runID int64, messages []*models.Message) WriteResult {
	var res WriteResult
	for start := 0; start < len(messages); start += w.batchSize {
		end := start + w.batchSize
		if end > len(messages) {
			end = len(messages)
		}
		for _, msg := range messages[start:end] {
			inserted, err := w.store.InsertMessage(ctx, msg)
			if err != nil {
				res.Errored++
				sourceID := msg.SourceID
				log.Printf("Failed to insert message (source id %d): %v", sourceID, err)
				w.store.Log(ctx, &runID, models.LogLevelError, "insert message failed: "+err.Error(), &sourceID)
				continue
			}
			if !inserted {
				res.Deduped++
				continue
			}
			res.Written++
		}
	}
	return res
}
