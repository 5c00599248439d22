package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"aqar_pipeline/config"
	"aqar_pipeline/identity"
	"aqar_pipeline/models"
	"aqar_pipeline/normalize"
)

// canonicalCategory maps a category bucket to the seeded Arabic label used
// as the natural key in the categories table.
var canonicalCategory = map[string]string{
	models.CategoryApartment:  "شقة",
	models.CategoryVilla:      "فيلا",
	models.CategoryLand:       "أرض",
	models.CategoryCommercial: "محل تجاري",
}

// canonicalListingType maps sale/rent to the seeded labels.
var canonicalListingType = map[string]string{
	models.ListingTypeSale: "بيع",
	models.ListingTypeRent: "إيجار",
}

// createdAtLayouts are the timestamp formats seen in the legacy created_at
// column, most specific first.
var createdAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer turns an eligible raw row into a typed target row: numeric
// extraction, category bucketing, and lookup resolution. Unresolvable
// fields null out; the row still migrates with its raw text preserved.
type Normalizer struct {
	cfg      *config.PipelineConfig
	resolver *Resolver
}

func NewNormalizer(cfg *config.PipelineConfig, resolver *Resolver) *Normalizer {
	return &Normalizer{cfg: cfg, resolver: resolver}
}

func (n *Normalizer) NormalizeListing(ctx context.Context, raw *models.RawListing) *models.Listing {
	now := time.Now()

	listing := &models.Listing{
		PublicID:    uuid.New(),
		SourceID:    raw.ID,
		DedupeKey:   identity.Fingerprint(identity.ListingKey(raw.Message)),
		Name:        normalize.CleanText(raw.Name),
		Message:     normalize.CleanText(raw.Message),
		Area:        normalize.ExtractInt(raw.Area),
		Bedrooms:    normalize.ExtractInt(raw.Bedrooms),
		Bathrooms:   normalize.ExtractInt(raw.Bathrooms),
		Price:       normalize.ExtractDecimal(raw.Price),
		RawCategory: raw.Category,
		RawRegion:   raw.Region,
		RawPrice:    raw.Price,
		Phone:       normalize.CleanText(raw.Phone),
		WhatsApp:    normalize.CleanText(raw.WhatsApp),
		Email:       normalize.CleanText(raw.Email),
		ListedAt:    parseListedAt(raw.CreatedAt),
		MigratedAt:  now,
	}

	if bucket := normalize.BucketCategory(raw.Category, n.cfg.CategoryBuckets); bucket != "" {
		if label, ok := canonicalCategory[bucket]; ok {
			listing.CategoryID = n.resolver.Resolve(ctx, models.LookupCategories, label)
		} else {
			// Custom bucket from pipeline config; resolve the bucket name itself.
			listing.CategoryID = n.resolver.Resolve(ctx, models.LookupCategories, bucket)
		}
	}

	listingType := normalize.BucketListingType(raw.Offering)
	listing.ListingTypeID = n.resolver.Resolve(ctx, models.LookupListingTypes, canonicalListingType[listingType])

	listing.RegionID = n.resolver.Resolve(ctx, models.LookupRegions, raw.Region)
	listing.FinishTypeID = n.resolver.Resolve(ctx, models.LookupFinishTypes, raw.Finish)
	listing.PaymentTypeID = n.resolver.Resolve(ctx, models.LookupPaymentTypes, raw.Payment)

	// Agents are keyed by contact handle; listing rows carry no poster name.
	if handle := contactHandle(raw); handle != "" {
		listing.AgentID = n.resolver.Resolve(ctx, models.LookupAgents, handle)
	}

	// Locations stay find-only against the seeded set; auto-creating here
	// would mirror every region into a second table.
	listing.LocationID = n.resolver.ResolveExisting(ctx, models.LookupLocations, raw.Region)

	return listing
}

func (n *Normalizer) NormalizeMessage(ctx context.Context, raw *models.RawChatMessage) *models.Message {
	body := normalize.CleanText(raw.Message)

	return &models.Message{
		SourceID:         raw.ID,
		DedupeKey:        identity.Fingerprint(identity.MessageKey(raw.Sender, raw.Message)),
		Sender:           normalize.CleanText(raw.Sender),
		Body:             body,
		SentAtRaw:        raw.Timestamp,
		PropertyTypeHint: normalize.BucketCategory(raw.PropertyType, n.cfg.CategoryBuckets),
		LocationHint:     normalize.CleanText(raw.Location),
		PriceHint:        normalize.ExtractDecimal(raw.Price),
		Phone:            normalize.CleanText(raw.Phone),
		MigratedAt:       time.Now(),
	}
}

func contactHandle(raw *models.RawListing) string {
	if w := normalize.CleanText(raw.WhatsApp); w != "" {
		return w
	}
	return normalize.CleanText(raw.Phone)
}

func parseListedAt(s string) *time.Time {
	s = normalize.CleanText(s)
	if s == "" {
		return nil
	}
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
