package normalize

import (
	"strconv"
	"strings"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

var testTokens = []string{"test", "lorem", "ipsum"}

// arabicDigits maps Arabic-Indic digits to their ASCII equivalents. Listing
// text mixes both scripts freely.
var arabicDigits = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// CategoryBucket is one ordered keyword bucket for free-text category
// classification. First matching bucket wins.
type CategoryBucket struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// DefaultCategoryBuckets is the checked order: villa before land before
// commercial, apartment keywords last. Keyword sets are kept exclusive;
// "دوبلكس" lives only in the apartment bucket.
var DefaultCategoryBuckets = []CategoryBucket{
	{Name: "villa", Keywords: []string{"فيلا", "فيلل", "قصر", "تاون هاوس", "توين هاوس", "villa", "townhouse"}},
	{Name: "land", Keywords: []string{"أرض", "ارض", "اراضي", "قطعة", "land", "plot"}},
	{Name: "commercial", Keywords: []string{"محل", "مكتب", "تجاري", "اداري", "إداري", "عيادة", "مخزن", "commercial", "office", "shop", "clinic"}},
	{Name: "apartment", Keywords: []string{"شقة", "شقق", "دوبلكس", "روف", "استوديو", "بنتهاوس", "apartment", "flat", "duplex", "studio"}},
}

// FoldDigits rewrites Arabic-Indic digits as ASCII digits.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := arabicDigits[r]; ok {
			return d
		}
		return r
	}, s)
}

// ExtractInt strips everything but digits from a noisy numeric string and
// parses the remainder. Empty remainder means nil, not zero.
func ExtractInt(s string) *int64 {
	var b strings.Builder
	for _, r := range FoldDigits(s) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ExtractDecimal parses a price-like string, keeping digits, '.' and '-'.
// Thousands separators are stripped before parsing, so "1,500,000 EGP"
// yields 1500000 rather than truncating at the first comma.
func ExtractDecimal(s string) *float64 {
	var b strings.Builder
	for _, r := range FoldDigits(s) {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return &f
}

// BucketCategory maps free-text category into a fixed bucket name using
// ordered keyword containment. Unmatched non-empty text falls back to
// apartment; empty text returns "".
func BucketCategory(s string, buckets []CategoryBucket) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	for _, bucket := range buckets {
		for _, kw := range bucket.Keywords {
			if strings.Contains(s, kw) {
				return bucket.Name
			}
		}
	}
	return "apartment"
}

// BucketListingType distinguishes rent from sale on a single keyword check.
func BucketListingType(s string) string {
	s = strings.ToLower(s)
	if strings.Contains(s, "إيجار") || strings.Contains(s, "ايجار") || strings.Contains(s, "rent") {
		return "rent"
	}
	return "sale"
}

// IsCorruptedValue reports whether a category/type field holds an image
// filename instead of text, which happens when upload forms wrote the wrong
// column.
func IsCorruptedValue(s string) bool {
	lower := strings.ToLower(s)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

// IsTestData reports whether a field contains placeholder text.
func IsTestData(fields ...string) bool {
	for _, f := range fields {
		lower := strings.ToLower(f)
		for _, tok := range testTokens {
			if strings.Contains(lower, tok) {
				return true
			}
		}
	}
	return false
}

// CleanText trims and collapses internal whitespace runs to single spaces.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
