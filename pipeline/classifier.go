package pipeline

import (
	"aqar_pipeline/models"
	"aqar_pipeline/normalize"
)

// Classification is the quality verdict for one raw row.
type Classification string

const (
	ClassValid     Classification = "valid"
	ClassTooShort  Classification = "too_short"
	ClassTestData  Classification = "test_data"
	ClassCorrupted Classification = "corrupted"
)

// Classifier decides whether a raw row is worth normalizing. It is a pure
// predicate; duplicate detection is a separate concern handled after
// classification.
type Classifier struct {
	MinMessageLen int
}

func NewClassifier(minMessageLen int) *Classifier {
	if minMessageLen <= 0 {
		minMessageLen = 10
	}
	return &Classifier{MinMessageLen: minMessageLen}
}

// ClassifyListing checks a legacy property row. Order matters only for which
// reason gets reported; any non-valid class makes the row ineligible.
func (c *Classifier) ClassifyListing(raw *models.RawListing) Classification {
	if len([]rune(raw.Message)) < c.MinMessageLen {
		return ClassTooShort
	}
	if normalize.IsCorruptedValue(raw.Category) || normalize.IsCorruptedValue(raw.Offering) {
		return ClassCorrupted
	}
	if normalize.IsTestData(raw.Name, raw.Message) {
		return ClassTestData
	}
	return ClassValid
}

// ClassifyMessage checks a chat corpus row.
func (c *Classifier) ClassifyMessage(raw *models.RawChatMessage) Classification {
	if len([]rune(raw.Message)) < c.MinMessageLen {
		return ClassTooShort
	}
	if normalize.IsCorruptedValue(raw.PropertyType) {
		return ClassCorrupted
	}
	if normalize.IsTestData(raw.Sender, raw.Message) {
		return ClassTestData
	}
	return ClassValid
}
