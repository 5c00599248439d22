package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"aqar_pipeline/config"
	"aqar_pipeline/models"
)

const readPageSize = 500

// ReportSink receives the verification report produced at the end of a
// successful run. Implemented by storage.ReportUploader.
type ReportSink interface {
	UploadReport(ctx context.Context, report *models.VerificationReport) (string, error)
}

// Pipeline runs configured migrations from the legacy prototype database
// into the normalized schema. Each run is incremental: it resumes after the
// highest source id already migrated, so re-running after a partial failure
// never duplicates rows.
type Pipeline struct {
	cfg     *config.Config
	source  SourceStore
	target  TargetStore
	reports ReportSink
}

func New(cfg *config.Config, source SourceStore, target TargetStore) *Pipeline {
	return &Pipeline{cfg: cfg, source: source, target: target}
}

// SetReportSink enables report archiving after each successful run.
func (p *Pipeline) SetReportSink(sink ReportSink) {
	p.reports = sink
}

// RunAll executes every configured pipeline in id order. A failing pipeline
// does not stop the ones after it; the first error is returned at the end.
func (p *Pipeline) RunAll(ctx context.Context) error {
	ids := make([]string, 0, len(p.cfg.Pipelines))
	for id := range p.cfg.Pipelines {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var firstErr error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := p.Run(ctx, p.cfg.Pipelines[id]); err != nil {
			log.Printf("Pipeline %s failed: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Run executes one pipeline end to end and returns its run record. Row-level
// problems are logged and counted on the record; only infrastructure failure
// fails the run.
func (p *Pipeline) Run(ctx context.Context, cfg *config.PipelineConfig) (*models.MigrationRun, error) {
	started := time.Now()
	run := &models.MigrationRun{
		Pipeline:  cfg.ID,
		StartedAt: started,
		Stage:     models.StageNotStarted,
		Status:    models.RunStatusRunning,
	}
	if err := p.target.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("creating run record: %w", err)
	}

	log.Printf("Starting pipeline %s (run %d)", cfg.ID, run.ID)

	report, err := p.run(ctx, cfg, run)

	now := time.Now()
	run.FinishedAt = &now
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorMessage = err.Error()
	} else {
		run.Status = models.RunStatusCompleted
		run.Stage = models.StageDone
		if report != nil {
			run.Metadata = report.ToJSON()
		}
	}
	if updateErr := p.target.UpdateRun(ctx, run); updateErr != nil {
		log.Printf("Warning: failed to update run %d: %v", run.ID, updateErr)
	}

	if err != nil {
		return run, err
	}

	log.Printf("Pipeline %s finished in %s: read=%d skipped=%d deduped=%d migrated=%d errored=%d (%.1f%% success)",
		cfg.ID, time.Since(started).Round(time.Millisecond),
		run.RowsRead, run.RowsSkipped, run.RowsDeduped, run.RowsMigrated, run.RowsErrored, run.SuccessRate())
	return run, nil
}

func (p *Pipeline) run(ctx context.Context, cfg *config.PipelineConfig, run *models.MigrationRun) (*models.VerificationReport, error) {
	switch cfg.Kind {
	case config.KindListings:
		return p.runListings(ctx, cfg, run)
	case config.KindMessages:
		return p.runMessages(ctx, cfg, run)
	default:
		return nil, fmt.Errorf("unknown pipeline kind %q", cfg.Kind)
	}
}

func (p *Pipeline) runListings(ctx context.Context, cfg *config.PipelineConfig, run *models.MigrationRun) (*models.VerificationReport, error) {
	run.Stage = models.StageReadingSource
	watermark, err := p.target.MaxListingSourceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading watermark: %w", err)
	}
	run.Watermark = watermark

	raw, err := p.readAllListings(ctx, watermark)
	if err != nil {
		return nil, err
	}
	run.RowsRead = len(raw)
	log.Printf("Pipeline %s: %d new rows after source id %d", cfg.ID, len(raw), watermark)

	run.Stage = models.StageClassifying
	classifier := NewClassifier(cfg.MinMessageLen)
	eligible := make([]models.RawListing, 0, len(raw))
	for i := range raw {
		verdict := classifier.ClassifyListing(&raw[i])
		if verdict != ClassValid {
			run.RowsSkipped++
			p.target.Log(ctx, &run.ID, models.LogLevelInfo, "skipped: "+string(verdict), &raw[i].ID)
			continue
		}
		eligible = append(eligible, raw[i])
	}

	run.Stage = models.StageDeduplicating
	unique := DedupeListings(eligible)
	run.RowsDeduped = len(eligible) - len(unique)

	run.Stage = models.StageNormalizing
	resolver := NewResolver(p.target, cfg.AutoCreateLookups)
	normalizer := NewNormalizer(cfg, resolver)
	listings := make([]*models.Listing, 0, len(unique))
	for i := range unique {
		listings = append(listings, normalizer.NormalizeListing(ctx, &unique[i]))
	}

	run.Stage = models.StageWriting
	writer := NewWriter(p.target, cfg.BatchSize)
	res := writer.WriteListings(ctx, run.ID, listings)
	run.RowsMigrated = int(res.Written)
	run.RowsDeduped += int(res.Deduped)
	run.RowsErrored = int(res.Errored)

	return p.verify(ctx, cfg, run)
}

func (p *Pipeline) runMessages(ctx context.Context, cfg *config.PipelineConfig, run *models.MigrationRun) (*models.VerificationReport, error) {
	run.Stage = models.StageReadingSource
	watermark, err := p.target.MaxMessageSourceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading watermark: %w", err)
	}
	run.Watermark = watermark

	raw, err := p.readAllMessages(ctx, watermark)
	if err != nil {
		return nil, err
	}
	run.RowsRead = len(raw)
	log.Printf("Pipeline %s: %d new rows after source id %d", cfg.ID, len(raw), watermark)

	run.Stage = models.StageClassifying
	classifier := NewClassifier(cfg.MinMessageLen)
	eligible := make([]models.RawChatMessage, 0, len(raw))
	for i := range raw {
		verdict := classifier.ClassifyMessage(&raw[i])
		if verdict != ClassValid {
			run.RowsSkipped++
			p.target.Log(ctx, &run.ID, models.LogLevelInfo, "skipped: "+string(verdict), &raw[i].ID)
			continue
		}
		eligible = append(eligible, raw[i])
	}

	run.Stage = models.StageDeduplicating
	unique := DedupeMessages(eligible)
	run.RowsDeduped = len(eligible) - len(unique)

	run.Stage = models.StageNormalizing
	resolver := NewResolver(p.target, cfg.AutoCreateLookups)
	normalizer := NewNormalizer(cfg, resolver)
	messages := make([]*models.Message, 0, len(unique))
	for i := range unique {
		messages = append(messages, normalizer.NormalizeMessage(ctx, &unique[i]))
	}

	run.Stage = models.StageWriting
	writer := NewWriter(p.target, cfg.BatchSize)
	res := writer.WriteMessages(ctx, run.ID, messages)
	run.RowsMigrated = int(res.Written)
	run.RowsDeduped += int(res.Deduped)
	run.RowsErrored = int(res.Errored)

	return p.verify(ctx, cfg, run)
}

func (p *Pipeline) verify(ctx context.Context, cfg *config.PipelineConfig, run *models.MigrationRun) (*models.VerificationReport, error) {
	run.Stage = models.StageVerifying
	report, err := NewVerifier(p.source, p.target).Verify(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("verification: %w", err)
	}
	if orphans := report.OrphanCount(); orphans > 0 {
		log.Printf("Warning: pipeline %s has %d orphaned foreign keys", cfg.ID, orphans)
		p.target.Log(ctx, &run.ID, models.LogLevelWarn, fmt.Sprintf("%d orphaned foreign keys", orphans), nil)
	}

	if p.reports != nil {
		key, err := p.reports.UploadReport(ctx, report)
		if err != nil {
			log.Printf("Warning: failed to upload report for %s: %v", cfg.ID, err)
		} else {
			log.Printf("Uploaded verification report: %s", key)
		}
	}
	return report, nil
}

func (p *Pipeline) readAllListings(ctx context.Context, afterID int64) ([]models.RawListing, error) {
	var all []models.RawListing
	for {
		page, err := p.source.ListRawListingsAfter(ctx, afterID, readPageSize)
		if err != nil {
			return nil, fmt.Errorf("reading source listings: %w", err)
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		afterID = page[len(page)-1].ID
	}
}

func (p *Pipeline) readAllMessages(ctx context.Context, afterID int64) ([]models.RawChatMessage, error) {
	var all []models.RawChatMessage
	for {
		page, err := p.source.ListRawMessagesAfter(ctx, afterID, readPageSize)
		if err != nil {
			return nil, fmt.Errorf("reading source messages: %w", err)
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		afterID = page[len(page)-1].ID
	}
}
