package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aqar_pipeline/models"
)

// PostgresStore is the normalized target schema. Lookup tables are expected
// to pre-exist (see RunMigrations); foreign keys are enforced by the store,
// not re-validated by application code.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// =============================================================================
// Lookup tables
// =============================================================================

var lookupTables = map[string]bool{
	models.LookupCategories:   true,
	models.LookupRegions:      true,
	models.LookupListingTypes: true,
	models.LookupFinishTypes:  true,
	models.LookupPaymentTypes: true,
	models.LookupAgents:       true,
	models.LookupLocations:    true,
}

func checkLookupTable(table string) error {
	if !lookupTables[table] {
		return fmt.Errorf("unknown lookup table: %s", table)
	}
	return nil
}

// FindLookup matches a natural-key label, trimmed and case-insensitive.
// The stored label keeps the casing of its first occurrence.
func (s *PostgresStore) FindLookup(ctx context.Context, table, label string) (int64, bool, error) {
	if err := checkLookupTable(table); err != nil {
		return 0, false, err
	}

	query := fmt.Sprintf(`SELECT id FROM %s WHERE LOWER(TRIM(name)) = LOWER(TRIM($1))`, table)
	var id int64
	err := s.pool.QueryRow(ctx, query, label).Scan(&id)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// CreateLookup inserts a new reference row for the label. The natural-key
// unique constraint makes a concurrent duplicate insert surface as a
// conflict, resolved by returning the existing id.
func (s *PostgresStore) CreateLookup(ctx context.Context, table, label string) (int64, error) {
	if err := checkLookupTable(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (name) VALUES (TRIM($1))
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, table)

	var id int64
	if err := s.pool.QueryRow(ctx, query, label).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) CountLookup(ctx context.Context, table string) (int, error) {
	if err := checkLookupTable(table); err != nil {
		return 0, err
	}
	var count int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&count)
	return count, err
}

// =============================================================================
// Listings
// =============================================================================

// InsertListing writes one normalized row. Returns false without error when
// the source id or content fingerprint already exists, so a verbatim repost
// arriving in a later incremental run folds into the earlier row instead of
// duplicating or failing.
func (s *PostgresStore) InsertListing(ctx context.Context, l *models.Listing) (bool, error) {
	query := `
		INSERT INTO listings (
			public_id, source_id, dedupe_key, name, message, category_id, region_id,
			listing_type_id, finish_type_id, payment_type_id, agent_id, location_id,
			area, bedrooms, bathrooms, price,
			raw_category, raw_region, raw_price, phone, whatsapp, email,
			listed_at, migrated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24
		)
		ON CONFLICT DO NOTHING
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		l.PublicID, l.SourceID, l.DedupeKey, l.Name, l.Message, l.CategoryID, l.RegionID,
		l.ListingTypeID, l.FinishTypeID, l.PaymentTypeID, l.AgentID, l.LocationID,
		l.Area, l.Bedrooms, l.Bathrooms, l.Price,
		l.RawCategory, l.RawRegion, l.RawPrice, l.Phone, l.WhatsApp, l.Email,
		l.ListedAt, l.MigratedAt,
	).Scan(&l.ID)

	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MaxListingSourceID is the watermark for incremental listing runs.
func (s *PostgresStore) MaxListingSourceID(ctx context.Context) (int64, error) {
	var max int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(source_id), 0) FROM listings`).Scan(&max)
	return max, err
}

func (s *PostgresStore) CountListings(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count)
	return count, err
}

// listingForeignKeys pairs each FK column with the lookup table it targets.
var listingForeignKeys = []struct {
	Column string
	Table  string
}{
	{"category_id", models.LookupCategories},
	{"region_id", models.LookupRegions},
	{"listing_type_id", models.LookupListingTypes},
	{"finish_type_id", models.LookupFinishTypes},
	{"payment_type_id", models.LookupPaymentTypes},
	{"agent_id", models.LookupAgents},
	{"location_id", models.LookupLocations},
}

// ListingForeignKeyStats reports population and orphan counts per foreign
// key. With real FK constraints in place orphan counts stay zero; the check
// exists because the legacy schema had no constraints at all.
func (s *PostgresStore) ListingForeignKeyStats(ctx context.Context) ([]models.ForeignKeyStat, error) {
	total, err := s.CountListings(ctx)
	if err != nil {
		return nil, err
	}

	var stats []models.ForeignKeyStat
	for _, fk := range listingForeignKeys {
		var populated, orphaned int

		query := fmt.Sprintf(`SELECT COUNT(*) FROM listings WHERE %s IS NOT NULL`, fk.Column)
		if err := s.pool.QueryRow(ctx, query).Scan(&populated); err != nil {
			return nil, err
		}

		query = fmt.Sprintf(`
			SELECT COUNT(*) FROM listings l
			LEFT JOIN %s t ON t.id = l.%s
			WHERE l.%s IS NOT NULL AND t.id IS NULL`, fk.Table, fk.Column, fk.Column)
		if err := s.pool.QueryRow(ctx, query).Scan(&orphaned); err != nil {
			return nil, err
		}

		stat := models.ForeignKeyStat{
			Column:      fk.Column,
			LookupTable: fk.Table,
			Populated:   populated,
			Orphaned:    orphaned,
		}
		if total > 0 {
			stat.PopulatedPc = 100 * float64(populated) / float64(total)
		}
		stats = append(stats, stat)
	}
	return stats, nil
}

// ListingPriceStats summarizes prices over rows with a positive price.
func (s *PostgresStore) ListingPriceStats(ctx context.Context) (models.PriceStats, error) {
	var stats models.PriceStats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(MIN(price), 0), COALESCE(AVG(price), 0), COALESCE(MAX(price), 0)
		FROM listings WHERE price > 0`).Scan(&stats.Count, &stats.Min, &stats.Avg, &stats.Max)
	return stats, err
}

// =============================================================================
// Messages
// =============================================================================

// InsertMessage writes one chat row. Returns false without error when the
// source id or (sender, body) fingerprint already migrated.
func (s *PostgresStore) InsertMessage(ctx context.Context, m *models.Message) (bool, error) {
	query := `
		INSERT INTO messages (
			source_id, dedupe_key, sender, body, sent_at_raw,
			property_type_hint, location_hint, price_hint, phone, migrated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT DO NOTHING
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		m.SourceID, m.DedupeKey, m.Sender, m.Body, m.SentAtRaw,
		m.PropertyTypeHint, m.LocationHint, m.PriceHint, m.Phone, m.MigratedAt,
	).Scan(&m.ID)

	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *PostgresStore) MaxMessageSourceID(ctx context.Context) (int64, error) {
	var max int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(source_id), 0) FROM messages`).Scan(&max)
	return max, err
}

func (s *PostgresStore) CountMessages(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// =============================================================================
// Message-property links
// =============================================================================

func (s *PostgresStore) InsertMessageLink(ctx context.Context, link *models.MessagePropertyLink) error {
	reasonsJSON, _ := json.Marshal(link.Reasons)
	query := `
		INSERT INTO message_property_links (message_id, listing_id, kind, confidence, reasons, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id, listing_id) DO NOTHING
		RETURNING id`

	err := s.pool.QueryRow(ctx, query,
		link.MessageID, link.ListingID, link.Kind, link.Confidence, reasonsJSON, link.CreatedAt,
	).Scan(&link.ID)

	if err == pgx.ErrNoRows {
		return nil // conflict, already linked
	}
	return err
}

// ListUnlinkedMessages returns migrated messages past afterID that have no
// property link yet, in id order. Callers page with the last returned id so
// unlinkable messages at the head of the queue do not starve the rest.
func (s *PostgresStore) ListUnlinkedMessages(ctx context.Context, afterID int64, limit int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.source_id, m.dedupe_key, m.sender, m.body, m.sent_at_raw,
			m.property_type_hint, m.location_hint, m.price_hint, m.phone, m.migrated_at
		FROM messages m
		LEFT JOIN message_property_links l ON l.message_id = m.id
		WHERE l.id IS NULL AND m.id > $1
		ORDER BY m.id
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SourceID, &m.DedupeKey, &m.Sender, &m.Body, &m.SentAtRaw,
			&m.PropertyTypeHint, &m.LocationHint, &m.PriceHint, &m.Phone, &m.MigratedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CandidateListingsForMessage fetches listings worth scoring against a chat
// message: exact body matches plus rows in the price band around the
// message's price hint.
func (s *PostgresStore) CandidateListingsForMessage(ctx context.Context, body string, priceHint *float64, limit int) ([]models.Listing, error) {
	query := `
		SELECT id, public_id, source_id, name, message, category_id, region_id,
			listing_type_id, finish_type_id, payment_type_id, agent_id, location_id,
			area, bedrooms, bathrooms, price,
			raw_category, raw_region, raw_price, phone, whatsapp, email,
			listed_at, migrated_at
		FROM listings
		WHERE message = $1`
	args := []interface{}{body}

	if priceHint != nil && *priceHint > 0 {
		query += ` OR (price BETWEEN $2 AND $3)`
		args = append(args, *priceHint*0.9, *priceHint*1.1)
	}
	query += fmt.Sprintf(` ORDER BY id LIMIT %d`, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(&l.ID, &l.PublicID, &l.SourceID, &l.Name, &l.Message, &l.CategoryID, &l.RegionID,
			&l.ListingTypeID, &l.FinishTypeID, &l.PaymentTypeID, &l.AgentID, &l.LocationID,
			&l.Area, &l.Bedrooms, &l.Bathrooms, &l.Price,
			&l.RawCategory, &l.RawRegion, &l.RawPrice, &l.Phone, &l.WhatsApp, &l.Email,
			&l.ListedAt, &l.MigratedAt); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// =============================================================================
// Migration runs
// =============================================================================

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.MigrationRun) error {
	query := `
		INSERT INTO migration_runs (pipeline, started_at, stage, status, watermark,
			rows_read, rows_skipped, rows_deduped, rows_migrated, rows_errored, error_message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	return s.pool.QueryRow(ctx, query,
		run.Pipeline, run.StartedAt, run.Stage, run.Status, run.Watermark,
		run.RowsRead, run.RowsSkipped, run.RowsDeduped, run.RowsMigrated, run.RowsErrored,
		run.ErrorMessage, run.Metadata,
	).Scan(&run.ID)
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *models.MigrationRun) error {
	query := `
		UPDATE migration_runs SET
			finished_at = $2, stage = $3, status = $4, watermark = $5,
			rows_read = $6, rows_skipped = $7, rows_deduped = $8,
			rows_migrated = $9, rows_errored = $10, error_message = $11, metadata = $12
		WHERE id = $1`

	_, err := s.pool.Exec(ctx, query,
		run.ID, run.FinishedAt, run.Stage, run.Status, run.Watermark,
		run.RowsRead, run.RowsSkipped, run.RowsDeduped,
		run.RowsMigrated, run.RowsErrored, run.ErrorMessage, run.Metadata,
	)
	return err
}

func (s *PostgresStore) Log(ctx context.Context, runID *int64, level models.LogLevel, message string, sourceID *int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO migration_logs (run_id, timestamp, level, message, source_id)
		VALUES ($1, $2, $3, $4, $5)`,
		runID, time.Now(), level, message, sourceID)
	return err
}
