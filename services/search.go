package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"aqar_pipeline/models"
	"aqar_pipeline/storage"
)

const (
	defaultSearchLimit = 25
	maxSearchLimit     = 100
)

// SearchQuery filters migrated listings. Zero values mean "no filter".
type SearchQuery struct {
	Text          string
	CategoryID    *int64
	RegionID      *int64
	ListingTypeID *int64
	MinPrice      *float64
	MaxPrice      *float64
	MinBedrooms   *int64
	MinBathrooms  *int64
	Limit         int
	Offset        int
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	CategoryID *int64 `json:"category_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

// SearchService answers read queries over the normalized listings table.
// It exists so the migrated data is immediately usable without another
// consumer; it never writes.
type SearchService struct {
	store *storage.PostgresStore
}

func NewSearchService(store *storage.PostgresStore) *SearchService {
	return &SearchService{store: store}
}

// Search returns listings matching the query, newest first. Listings without
// a listed_at timestamp sort after dated ones.
func (s *SearchService) Search(ctx context.Context, q *SearchQuery) ([]models.Listing, error) {
	query, args := buildSearchQuery(q)

	rows, err := s.store.Pool().Query(ctx, query, args...)
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

func buildSearchQuery(q *SearchQuery) (string, []interface{}) {
	query := `
		SELECT id, public_id, source_id, name, message, category_id, region_id,
			listing_type_id, finish_type_id, payment_type_id, agent_id, location_id,
			area, bedrooms, bathrooms, price,
			raw_category, raw_region, raw_price, phone, whatsapp, email,
			listed_at, migrated_at
		FROM listings
		WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if text := strings.TrimSpace(q.Text); text != "" {
		query += " AND (message ILIKE $" + itoa(argNum) + " OR name ILIKE $" + itoa(argNum) + ")"
		args = append(args, "%"+text+"%")
		argNum++
	}
	if q.CategoryID != nil {
		query += " AND category_id = $" + itoa(argNum)
		args = append(args, *q.CategoryID)
		argNum++
	}
	if q.RegionID != nil {
		query += " AND region_id = $" + itoa(argNum)
		args = append(args, *q.RegionID)
		argNum++
	}
	if q.ListingTypeID != nil {
		query += " AND listing_type_id = $" + itoa(argNum)
		args = append(args, *q.ListingTypeID)
		argNum++
	}
	if q.MinPrice != nil {
		query += " AND price >= $" + itoa(argNum)
		args = append(args, *q.MinPrice)
		argNum++
	}
	if q.MaxPrice != nil {
		query += " AND price <= $" + itoa(argNum)
		args = append(args, *q.MaxPrice)
		argNum++
	}
	if q.MinBedrooms != nil {
		query += " AND bedrooms >= $" + itoa(argNum)
		args = append(args, *q.MinBedrooms)
		argNum++
	}
	if q.MinBathrooms != nil {
		query += " AND bathrooms >= $" + itoa(argNum)
		args = append(args, *q.MinBathrooms)
		argNum++
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	query += " ORDER BY listed_at DESC NULLS LAST, id DESC"
	query += " LIMIT $" + itoa(argNum) + " OFFSET $" + itoa(argNum+1)
	args = append(args, limit, offset)

	return query, args
}

// ListingByPublicID fetches one listing by its stable public identifier.
// Returns nil when no listing has that id.
func (s *SearchService) ListingByPublicID(ctx context.Context, publicID uuid.UUID) (*models.Listing, error) {
	var l models.Listing
	err := s.store.Pool().QueryRow(ctx, `
		SELECT id, public_id, source_id, name, message, category_id, region_id,
			listing_type_id, finish_type_id, payment_type_id, agent_id, location_id,
			area, bedrooms, bathrooms, price,
			raw_category, raw_region, raw_price, phone, whatsapp, email,
			listed_at, migrated_at
		FROM listings
		WHERE public_id = $1`, publicID,
	).Scan(&l.ID, &l.PublicID, &l.SourceID, &l.Name, &l.Message, &l.CategoryID, &l.RegionID,
		&l.ListingTypeID, &l.FinishTypeID, &l.PaymentTypeID, &l.AgentID, &l.LocationID,
		&l.Area, &l.Bedrooms, &l.Bathrooms, &l.Price,
		&l.RawCategory, &l.RawRegion, &l.RawPrice, &l.Phone, &l.WhatsApp, &l.Email,
		&l.ListedAt, &l.MigratedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CategoryStats returns the listing count per category, uncategorized rows
// included with an empty name.
func (s *SearchService) CategoryStats(ctx context.Context) ([]CategoryCount, error) {
	rows, err := s.store.Pool().Query(ctx, `
		SELECT l.category_id, COALESCE(c.name, ''), COUNT(*)
		FROM listings l
		LEFT JOIN categories c ON c.id = l.category_id
		GROUP BY l.category_id, c.name
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.Count); err != nil {
			return nil, err
		}
		stats = append(stats, c)
	}
	return stats, rows.Err()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
