package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing is one row of the normalized target schema. Foreign keys are nil
// when the source value could not be resolved; the original free-text fields
// are preserved for audit.
type Listing struct {
	ID            int64      `json:"id" db:"id"`
	PublicID      uuid.UUID  `json:"public_id" db:"public_id"`
	SourceID      int64      `json:"source_id" db:"source_id"`
	DedupeKey     string     `json:"dedupe_key" db:"dedupe_key"`
	Name          string     `json:"name" db:"name"`
	Message       string     `json:"message" db:"message"`
	CategoryID    *int64     `json:"category_id" db:"category_id"`
	RegionID      *int64     `json:"region_id" db:"region_id"`
	ListingTypeID *int64     `json:"listing_type_id" db:"listing_type_id"`
	FinishTypeID  *int64     `json:"finish_type_id" db:"finish_type_id"`
	PaymentTypeID *int64     `json:"payment_type_id" db:"payment_type_id"`
	AgentID       *int64     `json:"agent_id" db:"agent_id"`
	LocationID    *int64     `json:"location_id" db:"location_id"`
	Area          *int64     `json:"area" db:"area"`
	Bedrooms      *int64     `json:"bedrooms" db:"bedrooms"`
	Bathrooms     *int64     `json:"bathrooms" db:"bathrooms"`
	Price         *float64   `json:"price" db:"price"`
	RawCategory   string     `json:"raw_category" db:"raw_category"`
	RawRegion     string     `json:"raw_region" db:"raw_region"`
	RawPrice      string     `json:"raw_price" db:"raw_price"`
	Phone         string     `json:"phone" db:"phone"`
	WhatsApp      string     `json:"whatsapp" db:"whatsapp"`
	Email         string     `json:"email" db:"email"`
	ListedAt      *time.Time `json:"listed_at" db:"listed_at"`
	MigratedAt    time.Time  `json:"migrated_at" db:"migrated_at"`
}

// Message is one row of the normalized chat message table.
type Message struct {
	ID               int64     `json:"id" db:"id"`
	SourceID         int64     `json:"source_id" db:"source_id"`
	DedupeKey        string    `json:"dedupe_key" db:"dedupe_key"`
	Sender           string    `json:"sender" db:"sender"`
	Body             string    `json:"body" db:"body"`
	SentAtRaw        string    `json:"sent_at_raw" db:"sent_at_raw"`
	PropertyTypeHint string    `json:"property_type_hint" db:"property_type_hint"`
	LocationHint     string    `json:"location_hint" db:"location_hint"`
	PriceHint        *float64  `json:"price_hint" db:"price_hint"`
	Phone            string    `json:"phone" db:"phone"`
	MigratedAt       time.Time `json:"migrated_at" db:"migrated_at"`
}

// Relationship kinds for message-listing links.
const (
	LinkKindDerivedFrom = "derived_from"
	LinkKindDuplicateOf = "duplicate_of"
	LinkKindSimilarTo   = "similar_to"
)

// MessagePropertyLink connects a migrated chat message to a listing with a
// relationship kind and a confidence in [0,1].
type MessagePropertyLink struct {
	ID         int64     `json:"id" db:"id"`
	MessageID  int64     `json:"message_id" db:"message_id"`
	ListingID  int64     `json:"listing_id" db:"listing_id"`
	Kind       string    `json:"kind" db:"kind"`
	Confidence float64   `json:"confidence" db:"confidence"`
	Reasons    []string  `json:"reasons" db:"reasons"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
