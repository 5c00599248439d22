package models

// Lookup table names in the target schema. Every resolver call names one of
// these; the storage layer rejects anything else.
const (
	LookupCategories   = "categories"
	LookupRegions      = "regions"
	LookupListingTypes = "listing_types"
	LookupFinishTypes  = "finish_types"
	LookupPaymentTypes = "payment_types"
	LookupAgents       = "agents"
	LookupLocations    = "locations"
)

// LookupTables lists every lookup table, in verification order.
var LookupTables = []string{
	LookupCategories,
	LookupRegions,
	LookupListingTypes,
	LookupFinishTypes,
	LookupPaymentTypes,
	LookupAgents,
	LookupLocations,
}

// Category buckets for free-text category classification.
const (
	CategoryApartment  = "apartment"
	CategoryVilla      = "villa"
	CategoryLand       = "land"
	CategoryCommercial = "commercial"
)

// Listing types.
const (
	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)
