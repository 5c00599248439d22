package pipeline

import (
	"sort"

	"aqar_pipeline/identity"
	"aqar_pipeline/models"
)

// DedupeListings keeps exactly one row per distinct message body: the one
// with the lowest source id. Output is ordered by source id so runs are
// reproducible.
func DedupeListings(rows []models.RawListing) []models.RawListing {
	keep := make(map[string]models.RawListing, len(rows))
	for _, row := range rows {
		key := identity.ListingKey(row.Message)
		if existing, ok := keep[key]; !ok || row.ID < existing.ID {
			keep[key] = row
		}
	}

	out := make([]models.RawListing, 0, len(keep))
	for _, row := range keep {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DedupeMessages keeps one row per (sender, body) pair, lowest source id.
func DedupeMessages(rows []models.RawChatMessage) []models.RawChatMessage {
	keep := make(map[string]models.RawChatMessage, len(rows))
	for _, row := range rows {
		key := identity.MessageKey(row.Sender, row.Message)
		if existing, ok := keep[key]; !ok || row.ID < existing.ID {
			keep[key] = row
		}
	}

	out := make([]models.RawChatMessage, 0, len(keep))
	for _, row := range keep {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
