package eligibility

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/logger"
	"github.com/spigell/scheme-assistant/internal/scheme"
)

const schemeField = logger.FieldScheme

// Verdict is the outcome of matching one scheme against a profile.
type Verdict struct {
	Scheme   *scheme.Scheme
	Eligible bool
	// Failed lists the criteria fields that rejected the profile.
	Failed []string
	// Skipped lists malformed criteria fields that were ignored.
	Skipped []*CriteriaFieldError
	// Unknown lists criteria keys no rule understands.
	Unknown []string
}

// Explain checks every criteria field of s against profile. All fields are
// evaluated even after one fails so the verdict lists every reason.
func Explain(profile NormalizedProfile, s *scheme.Scheme) Verdict {
	verdict := Verdict{Scheme: s, Eligible: true}

	for _, r := range rules {
		for _, key := range r.keys {
			value, ok := s.Criteria[key]
			if !ok || value == nil {
				continue
			}

			passed, err := r.check(value, profile)
			if err != nil {
				verdict.Skipped = append(verdict.Skipped, &CriteriaFieldError{
					Scheme: s.Name,
					Field:  key,
					Value:  value,
					Reason: err.Error(),
				})
				continue
			}

			if !passed {
				verdict.Eligible = false
				verdict.Failed = append(verdict.Failed, key)
			}
		}
	}

	for key := range s.Criteria {
		if _, ok := knownKeys[key]; !ok {
			verdict.Unknown = append(verdict.Unknown, key)
		}
	}
	sort.Strings(verdict.Unknown)

	return verdict
}

// Evaluate returns the schemes of catalog that profile is eligible for, in
// catalog order. Malformed criteria fields are skipped with a warning.
func Evaluate(profile NormalizedProfile, catalog *scheme.Schemes, logger *zap.Logger) *scheme.Schemes {
	if logger == nil {
		logger = zap.NewNop()
	}

	result := &scheme.Schemes{Items: make([]*scheme.Scheme, 0, catalog.Len())}
	if catalog == nil {
		return result
	}

	for _, s := range catalog.Items {
		verdict := Explain(profile, s)

		for _, skipped := range verdict.Skipped {
			logger.Warn("skipping malformed criteria field",
				zap.String(schemeField, skipped.Scheme),
				zap.String("field", skipped.Field),
				zap.Error(skipped),
			)
		}

		if len(verdict.Unknown) > 0 {
			logger.Debug("ignoring unknown criteria fields",
				zap.String(schemeField, s.Name),
				zap.Strings("fields", verdict.Unknown),
			)
		}

		if !verdict.Eligible {
			logger.Debug("scheme rejected",
				zap.String(schemeField, s.Name),
				zap.Strings("failed", verdict.Failed),
			)
			continue
		}

		result.Items = append(result.Items, s)
	}

	return result
}

// IsCriteriaFieldError reports whether err is a CriteriaFieldError.
func IsCriteriaFieldError(err error) bool {
	var target *CriteriaFieldError
	return errors.As(err, &target)
}
