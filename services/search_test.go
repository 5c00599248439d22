package services

import (
	"strings"
	"testing"
)

func int64Ptr(n int64) *int64     { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestBuildSearchQuery_NoFilters(t *testing.T) {
	query, args := buildSearchQuery(&SearchQuery{})

	if strings.Contains(query, "ILIKE") {
		t.Fatal("expected no text filter")
	}
	if !strings.Contains(query, "ORDER BY listed_at DESC NULLS LAST, id DESC") {
		t.Fatalf("expected recency ordering, got %s", query)
	}
	if !strings.Contains(query, "LIMIT $1 OFFSET $2") {
		t.Fatalf("expected limit/offset as the only placeholders, got %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0] != defaultSearchLimit {
		t.Fatalf("expected default limit %d, got %v", defaultSearchLimit, args[0])
	}
}

func TestBuildSearchQuery_AllFilters(t *testing.T) {
	q := &SearchQuery{
		Text:          " فيلا ",
		CategoryID:    int64Ptr(1),
		RegionID:      int64Ptr(2),
		ListingTypeID: int64Ptr(3),
		MinPrice:      floatPtr(1000000),
		MaxPrice:      floatPtr(5000000),
		MinBedrooms:   int64Ptr(3),
		MinBathrooms:  int64Ptr(2),
		Limit:         10,
		Offset:        20,
	}
	query, args := buildSearchQuery(q)

	for _, clause := range []string{
		"message ILIKE $1", "name ILIKE $1",
		"category_id = $2", "region_id = $3", "listing_type_id = $4",
		"price >= $5", "price <= $6",
		"bedrooms >= $7", "bathrooms >= $8",
		"LIMIT $9 OFFSET $10",
	} {
		if !strings.Contains(query, clause) {
			t.Errorf("expected clause %q in query:\n%s", clause, query)
		}
	}
	if len(args) != 10 {
		t.Fatalf("expected 10 args, got %d", len(args))
	}
	if args[0] != "%فيلا%" {
		t.Fatalf("expected trimmed wildcard text arg, got %v", args[0])
	}
	if args[8] != 10 || args[9] != 20 {
		t.Fatalf("expected limit 10 offset 20, got %v and %v", args[8], args[9])
	}
}

func TestBuildSearchQuery_LimitClamped(t *testing.T) {
	query, args := buildSearchQuery(&SearchQuery{Limit: 10000, Offset: -5})
	if !strings.Contains(query, "LIMIT $1 OFFSET $2") {
		t.Fatalf("unexpected query: %s", query)
	}
	if args[0] != maxSearchLimit {
		t.Fatalf("expected limit clamped to %d, got %v", maxSearchLimit, args[0])
	}
	if args[1] != 0 {
		t.Fatalf("expected negative offset clamped to 0, got %v", args[1])
	}
}
