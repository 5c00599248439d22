package pipeline

import (
	"context"

	"aqar_pipeline/models"
)

// SourceStore is the read side of the migration: the legacy prototype
// database. The pipeline only ever reads and counts.
type SourceStore interface {
	CountRawListings(ctx context.Context) (int, error)
	CountRawMessages(ctx context.Context) (int, error)
	ListRawListingsAfter(ctx context.Context, afterID int64, limit int) ([]models.RawListing, error)
	ListRawMessagesAfter(ctx context.Context, afterID int64, limit int) ([]models.RawChatMessage, error)
}

// TargetStore is the normalized schema the pipeline writes into. Implemented
// by storage.PostgresStore; tests inject an in-memory fake.
type TargetStore interface {
	FindLookup(ctx context.Context, table, label string) (int64, bool, error)
	CreateLookup(ctx context.Context, table, label string) (int64, error)
	CountLookup(ctx context.Context, table string) (int, error)

	// Inserts return false without error when a unique backstop absorbed
	// the row (already-migrated source id or content fingerprint).
	InsertListing(ctx context.Context, l *models.Listing) (bool, error)
	InsertMessage(ctx context.Context, m *models.Message) (bool, error)
	MaxListingSourceID(ctx context.Context) (int64, error)
	MaxMessageSourceID(ctx context.Context) (int64, error)
	CountListings(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)
	ListingForeignKeyStats(ctx context.Context) ([]models.ForeignKeyStat, error)
	ListingPriceStats(ctx context.Context) (models.PriceStats, error)

	CreateRun(ctx context.Context, run *models.MigrationRun) error
	UpdateRun(ctx context.Context, run *models.MigrationRun) error
	Log(ctx context.Context, runID *int64, level models.LogLevel, message string, sourceID *int64) error
}

// LinkStore is what the relationship linker needs from the target schema.
type LinkStore interface {
	ListUnlinkedMessages(ctx context.Context, afterID int64, limit int) ([]models.Message, error)
	CandidateListingsForMessage(ctx context.Context, body string, priceHint *float64, limit int) ([]models.Listing, error)
	InsertMessageLink(ctx context.Context, link *models.MessagePropertyLink) error
}
