package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"aqar_pipeline/normalize"
)

// ListingKey is the dedupe key for a raw listing: the cleaned message body.
// WhatsApp-sourced listings are re-posted verbatim by multiple agents, so
// message text is the highest-fidelity duplicate signal. Two unrelated
// listings sharing boilerplate text will merge; that false-positive rate is
// accepted.
func ListingKey(message string) string {
	return normalize.CleanText(message)
}

// MessageKey is the dedupe key for a chat message: the (sender, body) pair.
func MessageKey(sender, body string) string {
	return strings.ToLower(normalize.CleanText(sender)) + "|" + normalize.CleanText(body)
}

// Fingerprint hashes a dedupe key into a fixed-width hex token for storage
// in a unique column.
func Fingerprint(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16])
}
