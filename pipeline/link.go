package pipeline

import (
	"context"
	"log"
	"strings"
	"time"

	"aqar_pipeline/identity"
	"aqar_pipeline/models"
	"aqar_pipeline/normalize"
)

const linkCandidateLimit = 25

// Linker attaches migrated chat messages to the listings they talk about.
// A message whose body is the listing text was the origin of that listing;
// weaker matches are recorded with a confidence score and the reasons that
// produced it, so review queries can filter on either.
//
// Scoring walks the unlinked queue by message id, carrying the cursor across
// batches and wrapping to the head after the tail. Messages that never find
// an acceptable candidate therefore cannot pin the queue's head and starve
// the ones behind them.
type Linker struct {
	store   LinkStore
	buckets []normalize.CategoryBucket
	cursor  int64
}

func NewLinker(store LinkStore, buckets []normalize.CategoryBucket) *Linker {
	if len(buckets) == 0 {
		buckets = normalize.DefaultCategoryBuckets
	}
	return &Linker{store: store, buckets: buckets}
}

// LinkBatch scores up to limit unlinked messages past the cursor and
// persists every accepted link. Returns how many messages were scored and
// how many links were written.
func (l *Linker) LinkBatch(ctx context.Context, limit int) (int, int, error) {
	messages, err := l.store.ListUnlinkedMessages(ctx, l.cursor, limit)
	if err != nil {
		return 0, 0, err
	}
	if len(messages) == 0 && l.cursor > 0 {
		// End of the queue; restart from the head so earlier messages get
		// rescored against listings migrated since.
		l.cursor = 0
		messages, err = l.store.ListUnlinkedMessages(ctx, l.cursor, limit)
		if err != nil {
			return 0, 0, err
		}
	}
	if len(messages) > 0 {
		l.cursor = messages[len(messages)-1].ID
	}

	linked := 0
	for i := range messages {
		msg := &messages[i]
		candidates, err := l.store.CandidateListingsForMessage(ctx, msg.Body, msg.PriceHint, linkCandidateLimit)
		if err != nil {
			log.Printf("Warning: failed to load candidates for message %d: %v", msg.ID, err)
			continue
		}
		for j := range candidates {
			confidence, kind, reasons, ok := l.scoreMessageListing(msg, &candidates[j])
			if !ok {
				continue
			}
			link := &models.MessagePropertyLink{
				MessageID:  msg.ID,
				ListingID:  candidates[j].ID,
				Kind:       kind,
				Confidence: confidence,
				Reasons:    reasons,
				CreatedAt:  time.Now(),
			}
			if err := l.store.InsertMessageLink(ctx, link); err != nil {
				log.Printf("Warning: failed to insert link %d->%d: %v", msg.ID, candidates[j].ID, err)
				continue
			}
			linked++
		}
	}
	return len(messages), linked, nil
}

func (l *Linker) scoreMessageListing(msg *models.Message, listing *models.Listing) (float64, string, []string, bool) {
	reasons := []string{}

	msgBody := normalize.CleanText(msg.Body)
	listingBody := normalize.CleanText(listing.Message)

	if msgBody != "" && msgBody == listingBody {
		return 0.95, models.LinkKindDerivedFrom, []string{"same_body"}, true
	}
	if msgBody != "" && listingBody != "" &&
		identity.Fingerprint(strings.ToLower(msgBody)) == identity.Fingerprint(strings.ToLower(listingBody)) {
		return 0.9, models.LinkKindDuplicateOf, []string{"same_body_folded"}, true
	}

	signals := 0

	if msg.PriceHint != nil && listing.Price != nil && closePrice(*msg.PriceHint, *listing.Price) {
		reasons = append(reasons, "close_price")
		signals++
	}

	if msg.LocationHint != "" && listing.RawRegion != "" &&
		containsFold(listing.RawRegion, msg.LocationHint) {
		reasons = append(reasons, "same_location")
		signals++
	}

	if msg.PropertyTypeHint != "" {
		bucket := normalize.BucketCategory(listing.RawCategory, l.buckets)
		if bucket != "" && bucket == msg.PropertyTypeHint {
			reasons = append(reasons, "same_property_type")
			signals++
		}
	}

	if signals < 2 {
		return 0, "", nil, false
	}
	confidence := 0.55 + 0.1*float64(signals)
	if confidence > 0.85 {
		confidence = 0.85
	}
	return confidence, models.LinkKindSimilarTo, reasons, true
}

// closePrice accepts prices within 5% of each other.
func closePrice(a, b float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	return (hi-lo)/hi <= 0.05
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
