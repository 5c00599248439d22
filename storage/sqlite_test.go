package storage

import (
	"context"
	"path/filepath"
	"testing"

	"aqar_pipeline/models"
)

func openTestSource(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "legacy.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestListRawListingsAfter_Paging(t *testing.T) {
	store := openTestSource(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		raw := &models.RawListing{
			Name:    "عقار",
			Message: "شقة للبيع في المعادي بسعر مناسب",
			Price:   "1000000",
		}
		if err := store.InsertRawListing(ctx, raw); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	count, err := store.CountRawListings(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 rows, got %d", count)
	}

	first, err := store.ListRawListingsAfter(ctx, 0, 3)
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(first))
	}

	second, err := store.ListRawListingsAfter(ctx, first[len(first)-1].ID, 3)
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 rows on second page, got %d", len(second))
	}
	if second[0].ID <= first[len(first)-1].ID {
		t.Fatalf("expected strictly ascending ids across pages, got %d after %d",
			second[0].ID, first[len(first)-1].ID)
	}

	empty, err := store.ListRawListingsAfter(ctx, second[len(second)-1].ID, 3)
	if err != nil {
		t.Fatalf("final page failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no rows past the end, got %d", len(empty))
	}
}

func TestListRawListings_NullColumnsReadAsEmpty(t *testing.T) {
	store := openTestSource(t)
	ctx := context.Background()

	// Legacy rows routinely have NULL in most columns.
	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO properties (message) VALUES ('شقة بدون اي بيانات اخرى للبيع')`); err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	rows, err := store.ListRawListingsAfter(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Price != "" || rows[0].Region != "" || rows[0].CreatedAt != "" {
		t.Fatalf("expected NULL columns to read as empty strings, got %+v", rows[0])
	}
}

func TestListRawMessagesAfter(t *testing.T) {
	store := openTestSource(t)
	ctx := context.Background()

	msgs := []*models.RawChatMessage{
		{Sender: "Ahmed", Message: "مطلوب شقة في الرحاب", Timestamp: "2020-01-01 10:00:00"},
		{Sender: "Mona", Message: "فيلا للبيع في زايد", Timestamp: "2020-01-02 11:00:00"},
	}
	for _, m := range msgs {
		if err := store.InsertRawMessage(ctx, m); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	rows, err := store.ListRawMessagesAfter(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Sender != "Ahmed" || rows[1].Sender != "Mona" {
		t.Fatalf("expected insertion order by id, got %q then %q", rows[0].Sender, rows[1].Sender)
	}

	count, err := store.CountRawMessages(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 messages, got %d", count)
	}
}
