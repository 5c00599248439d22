package pipeline

import (
	"context"
	"fmt"
	"strings"

	"aqar_pipeline/models"
)

// fakeSource serves raw rows from slices, paged the same way the SQLite
// store pages them.
type fakeSource struct {
	listings []models.RawListing
	messages []models.RawChatMessage
}

func (f *fakeSource) CountRawListings(ctx context.Context) (int, error) {
	return len(f.listings), nil
}

func (f *fakeSource) CountRawMessages(ctx context.Context) (int, error) {
	return len(f.messages), nil
}

func (f *fakeSource) ListRawListingsAfter(ctx context.Context, afterID int64, limit int) ([]models.RawListing, error) {
	var out []models.RawListing
	for _, row := range f.listings {
		if row.ID > afterID {
			out = append(out, row)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSource) ListRawMessagesAfter(ctx context.Context, afterID int64, limit int) ([]models.RawChatMessage, error) {
	var out []models.RawChatMessage
	for _, row := range f.messages {
		if row.ID > afterID {
			out = append(out, row)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// fakeTarget is an in-memory TargetStore. Lookup matching mirrors the real
// store: trimmed and case-insensitive on the label.
type fakeTarget struct {
	lookups    map[string]map[string]int64
	nextLookup int64

	listings []*models.Listing
	messages []*models.Message

	runs    []*models.MigrationRun
	nextRun int64
	logs    []string

	failListingSourceIDs map[int64]bool
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		lookups:              make(map[string]map[string]int64),
		nextLookup:           1,
		nextRun:              1,
		failListingSourceIDs: make(map[int64]bool),
	}
}

func lookupKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

func (f *fakeTarget) FindLookup(ctx context.Context, table, label string) (int64, bool, error) {
	id, ok := f.lookups[table][lookupKey(label)]
	return id, ok, nil
}

func (f *fakeTarget) CreateLookup(ctx context.Context, table, label string) (int64, error) {
	if f.lookups[table] == nil {
		f.lookups[table] = make(map[string]int64)
	}
	key := lookupKey(label)
	if id, ok := f.lookups[table][key]; ok {
		return id, nil
	}
	id := f.nextLookup
	f.nextLookup++
	f.lookups[table][key] = id
	return id, nil
}

func (f *fakeTarget) CountLookup(ctx context.Context, table string) (int, error) {
	return len(f.lookups[table]), nil
}

func (f *fakeTarget) InsertListing(ctx context.Context, l *models.Listing) (bool, error) {
	if f.failListingSourceIDs[l.SourceID] {
		return false, fmt.Errorf("simulated insert failure for source id %d", l.SourceID)
	}
	for _, existing := range f.listings {
		if existing.SourceID == l.SourceID || existing.DedupeKey == l.DedupeKey {
			return false, nil
		}
	}
	l.ID = int64(len(f.listings) + 1)
	f.listings = append(f.listings, l)
	return true, nil
}

func (f *fakeTarget) InsertMessage(ctx context.Context, m *models.Message) (bool, error) {
	for _, existing := range f.messages {
		if existing.SourceID == m.SourceID || existing.DedupeKey == m.DedupeKey {
			return false, nil
		}
	}
	m.ID = int64(len(f.messages) + 1)
	f.messages = append(f.messages, m)
	return true, nil
}

func (f *fakeTarget) MaxListingSourceID(ctx context.Context) (int64, error) {
	var max int64
	for _, l := range f.listings {
		if l.SourceID > max {
			max = l.SourceID
		}
	}
	return max, nil
}

func (f *fakeTarget) MaxMessageSourceID(ctx context.Context) (int64, error) {
	var max int64
	for _, m := range f.messages {
		if m.SourceID > max {
			max = m.SourceID
		}
	}
	return max, nil
}

func (f *fakeTarget) CountListings(ctx context.Context) (int, error) {
	return len(f.listings), nil
}

func (f *fakeTarget) CountMessages(ctx context.Context) (int, error) {
	return len(f.messages), nil
}

func (f *fakeTarget) ListingForeignKeyStats(ctx context.Context) ([]models.ForeignKeyStat, error) {
	known := make(map[int64]bool)
	for _, byLabel := range f.lookups {
		for _, id := range byLabel {
			known[id] = true
		}
	}

	stat := func(column, table string, pick func(*models.Listing) *int64) models.ForeignKeyStat {
		s := models.ForeignKeyStat{Column: column, LookupTable: table}
		for _, l := range f.listings {
			id := pick(l)
			if id == nil {
				continue
			}
			s.Populated++
			if !known[*id] {
				s.Orphaned++
			}
		}
		if len(f.listings) > 0 {
			s.PopulatedPc = 100 * float64(s.Populated) / float64(len(f.listings))
		}
		return s
	}

	return []models.ForeignKeyStat{
		stat("category_id", models.LookupCategories, func(l *models.Listing) *int64 { return l.CategoryID }),
		stat("region_id", models.LookupRegions, func(l *models.Listing) *int64 { return l.RegionID }),
		stat("listing_type_id", models.LookupListingTypes, func(l *models.Listing) *int64 { return l.ListingTypeID }),
		stat("agent_id", models.LookupAgents, func(l *models.Listing) *int64 { return l.AgentID }),
	}, nil
}

func (f *fakeTarget) ListingPriceStats(ctx context.Context) (models.PriceStats, error) {
	var stats models.PriceStats
	var sum float64
	for _, l := range f.listings {
		if l.Price == nil || *l.Price <= 0 {
			continue
		}
		p := *l.Price
		if stats.Count == 0 || p < stats.Min {
			stats.Min = p
		}
		if p > stats.Max {
			stats.Max = p
		}
		sum += p
		stats.Count++
	}
	if stats.Count > 0 {
		stats.Avg = sum / float64(stats.Count)
	}
	return stats, nil
}

func (f *fakeTarget) CreateRun(ctx context.Context, run *models.MigrationRun) error {
	run.ID = f.nextRun
	f.nextRun++
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeTarget) UpdateRun(ctx context.Context, run *models.MigrationRun) error {
	return nil
}

func (f *fakeTarget) Log(ctx context.Context, runID *int64, level models.LogLevel, message string, sourceID *int64) error {
	f.logs = append(f.logs, string(level)+": "+message)
	return nil
}

// fakeLinkStore backs linker tests with fixed candidates.
type fakeLinkStore struct {
	unlinked   []models.Message
	candidates []models.Listing
	links      []*models.MessagePropertyLink
}

func (f *fakeLinkStore) ListUnlinkedMessages(ctx context.Context, afterID int64, limit int) ([]models.Message, error) {
	linkedIDs := make(map[int64]bool)
	for _, l := range f.links {
		linkedIDs[l.MessageID] = true
	}

	var out []models.Message
	for _, m := range f.unlinked {
		if m.ID <= afterID || linkedIDs[m.ID] {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLinkStore) CandidateListingsForMessage(ctx context.Context, body string, priceHint *float64, limit int) ([]models.Listing, error) {
	return f.candidates, nil
}

func (f *fakeLinkStore) InsertMessageLink(ctx context.Context, link *models.MessagePropertyLink) error {
	f.links = append(f.links, link)
	return nil
}
