// Package eligibility normalizes questionnaire answers and matches them
// against the eligibility criteria of catalog schemes.
package eligibility

import (
	"fmt"
	"maps"
	"strings"

	"go.uber.org/zap"
)

// Answer keys shared with the question catalog.
const (
	KeyState       = "state"
	KeyOccupation  = "occupation"
	KeyIncome      = "income"
	KeyAge         = "age"
	KeyLandholding = "landholding"
	KeyBPLCard     = "bpl_card"
	KeyGirlChild   = "girl_child"
)

const yes = "Yes"

var ageBuckets = map[string]int{
	"Below 18": 15,
	"18-30":    25,
	"31-40":    35,
	"41-50":    45,
	"51-60":    55,
	"60-70":    65,
	"70+":      75,
}

var incomeBuckets = map[string]int{
	"Less than ₹10,000": 5000,
	"₹10,000 - ₹15,000": 12500,
	"₹15,000 - ₹25,000": 20000,
	"Above ₹25,000":     30000,
}

// AnswerProfile maps question ids to the raw answer text.
type AnswerProfile map[string]string

// Clone returns an independent copy of the profile.
func (p AnswerProfile) Clone() AnswerProfile {
	if p == nil {
		return AnswerProfile{}
	}
	return maps.Clone(p)
}

// NormalizedProfile is the comparable form of an AnswerProfile.
type NormalizedProfile struct {
	Age         int
	Income      int
	Occupation  string
	Region      string
	Landholding bool
	BPL         bool
	GirlChild   bool
}

// NormalizationMiss reports a bucket answer that has no numeric mapping. It
// is logged, never returned: the value degrades to 0.
type NormalizationMiss struct {
	Field string
	Value string
}

func (e *NormalizationMiss) Error() string {
	return fmt.Sprintf("no bucket for %s answer %q", e.Field, e.Value)
}

// Normalize converts raw answers into comparable values. Unmapped bucket
// answers normalize to 0 and are logged as warnings.
func Normalize(profile AnswerProfile, logger *zap.Logger) NormalizedProfile {
	if logger == nil {
		logger = zap.NewNop()
	}

	return NormalizedProfile{
		Age:         bucket(KeyAge, profile[KeyAge], ageBuckets, logger),
		Income:      bucket(KeyIncome, profile[KeyIncome], incomeBuckets, logger),
		Occupation:  strings.ToLower(strings.TrimSpace(profile[KeyOccupation])),
		Region:      strings.TrimSpace(profile[KeyState]),
		Landholding: profile[KeyLandholding] == yes,
		BPL:         profile[KeyBPLCard] == yes,
		GirlChild:   profile[KeyGirlChild] == yes,
	}
}

func bucket(field, raw string, table map[string]int, logger *zap.Logger) int {
	if value, ok := table[raw]; ok {
		return value
	}

	if raw != "" {
		logger.Warn("normalization miss",
			zap.Error(&NormalizationMiss{Field: field, Value: raw}),
			zap.String("field", field),
		)
	}

	return 0
}
