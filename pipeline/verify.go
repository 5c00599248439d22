package pipeline

import (
	"context"
	"fmt"
	"time"

	"aqar_pipeline/config"
	"aqar_pipeline/models"
)

// Verifier compares the source and target databases after a run and produces
// a read-only report: row counts, lookup table sizes, foreign-key population
// and orphan checks, and the price distribution.
type Verifier struct {
	source SourceStore
	target TargetStore
}

func NewVerifier(source SourceStore, target TargetStore) *Verifier {
	return &Verifier{source: source, target: target}
}

func (v *Verifier) Verify(ctx context.Context, cfg *config.PipelineConfig) (*models.VerificationReport, error) {
	report := &models.VerificationReport{
		Pipeline:     cfg.ID,
		GeneratedAt:  time.Now().UTC(),
		LookupCounts: make(map[string]int, len(models.LookupTables)),
	}

	var err error
	switch cfg.Kind {
	case config.KindListings:
		if report.SourceRows, err = v.source.CountRawListings(ctx); err != nil {
			return nil, fmt.Errorf("counting source listings: %w", err)
		}
		if report.TargetRows, err = v.target.CountListings(ctx); err != nil {
			return nil, fmt.Errorf("counting target listings: %w", err)
		}
		if report.ForeignKeys, err = v.target.ListingForeignKeyStats(ctx); err != nil {
			return nil, fmt.Errorf("checking foreign keys: %w", err)
		}
		if report.Prices, err = v.target.ListingPriceStats(ctx); err != nil {
			return nil, fmt.Errorf("summarizing prices: %w", err)
		}
	case config.KindMessages:
		if report.SourceRows, err = v.source.CountRawMessages(ctx); err != nil {
			return nil, fmt.Errorf("counting source messages: %w", err)
		}
		if report.TargetRows, err = v.target.CountMessages(ctx); err != nil {
			return nil, fmt.Errorf("counting target messages: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown pipeline kind %q", cfg.Kind)
	}

	for _, table := range models.LookupTables {
		count, err := v.target.CountLookup(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("counting lookup %s: %w", table, err)
		}
		report.LookupCounts[table] = count
	}

	return report, nil
}
