package filtering

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/eligibility"
	"github.com/spigell/scheme-assistant/internal/scheme"
)

type eligibilityFilter struct {
	toggle
	profile eligibility.NormalizedProfile
	logger  *zap.Logger
}

// NewEligibility creates a filter that keeps the schemes the profile is eligible for.
func NewEligibility(profile eligibility.NormalizedProfile, logger *zap.Logger) Filter {
	return &eligibilityFilter{profile: profile, logger: logger}
}

func (f *eligibilityFilter) Name() string { return "eligibility" }

func (f *eligibilityFilter) Validate() error { return nil }

func (f *eligibilityFilter) Apply(_ context.Context, s *scheme.Schemes) (*scheme.Schemes, Step, error) {
	initial := s.Len()
	eligible := eligibility.Evaluate(f.profile, s, f.logger)
	return eligible, Step{Initial: initial, Dropped: initial - eligible.Len(), Left: eligible.Len()}, nil
}

func (f *eligibilityFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{
			"age":        strconv.Itoa(f.profile.Age),
			"income":     strconv.Itoa(f.profile.Income),
			"occupation": f.profile.Occupation,
			"region":     f.profile.Region,
		},
	}
}
