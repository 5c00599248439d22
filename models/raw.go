package models

// RawListing is one row of the legacy flat properties table. Fields are
// free text exactly as entered; near-duplicates are expected.
type RawListing struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Category  string `json:"category" db:"category"`
	Region    string `json:"region" db:"region"`
	Price     string `json:"price" db:"price"`
	Area      string `json:"area" db:"area"`
	Bedrooms  string `json:"bedrooms" db:"bedrooms"`
	Bathrooms string `json:"bathrooms" db:"bathrooms"`
	Floor     string `json:"floor" db:"floor"`
	Finish    string `json:"finish" db:"finish"`
	Payment   string `json:"payment" db:"payment"`
	Offering  string `json:"offering" db:"offering"`
	Message   string `json:"message" db:"message"`
	Phone     string `json:"phone" db:"phone"`
	WhatsApp  string `json:"whatsapp" db:"whatsapp"`
	Email     string `json:"email" db:"email"`
	CreatedAt string `json:"created_at" db:"created_at"`
}

// RawChatMessage is one row of the WhatsApp chat corpus. The (sender, message)
// pair is the natural key used for idempotent re-import.
type RawChatMessage struct {
	ID           int64  `json:"id" db:"id"`
	Sender       string `json:"sender" db:"sender"`
	Message      string `json:"message" db:"message"`
	Timestamp    string `json:"timestamp" db:"timestamp"`
	PropertyType string `json:"property_type" db:"property_type"`
	Location     string `json:"location" db:"location"`
	Price        string `json:"price" db:"price"`
	Phone        string `json:"phone" db:"phone"`
}
