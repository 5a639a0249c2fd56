package eligibility

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/scheme-assistant/internal/scheme"
)

func catalogOf(criteria ...scheme.Criteria) *scheme.Schemes {
	s := &scheme.Schemes{}
	for i, c := range criteria {
		s.Items = append(s.Items, &scheme.Scheme{Name: string(rune('A' + i)), Criteria: c})
	}
	return s
}

func pmSym() scheme.Criteria {
	return scheme.Criteria{
		"state":       "all",
		"min_age":     18,
		"max_age":     40,
		"max_income":  15000,
		"occupations": []any{"street vendor", "construction worker"},
	}
}

func TestFarmerIsNotEligibleForPMSYM(t *testing.T) {
	profile := Normalize(farmerAnswers(), nil)

	verdict := Explain(profile, &scheme.Scheme{Name: "PM-SYM", Criteria: pmSym()})

	assert.False(t, verdict.Eligible)
	assert.Equal(t, []string{"occupations"}, verdict.Failed)
	assert.Empty(t, verdict.Skipped)
}

func TestBPLRequirementMet(t *testing.T) {
	profile := Normalize(farmerAnswers(), nil)

	got := Evaluate(profile, catalogOf(scheme.Criteria{"bpl_required": true}), nil)

	assert.Equal(t, []string{"A"}, got.Names())
}

func TestEmptyCriteriaAlwaysEligible(t *testing.T) {
	got := Evaluate(NormalizedProfile{}, catalogOf(nil, scheme.Criteria{}), nil)

	assert.Equal(t, 2, got.Len())
}

func TestEvaluateNilCatalog(t *testing.T) {
	got := Evaluate(NormalizedProfile{}, nil, nil)

	require.NotNil(t, got)
	assert.Equal(t, 0, got.Len())
}

func TestEvaluateIsDeterministicAndOrdered(t *testing.T) {
	profile := Normalize(farmerAnswers(), nil)
	catalog := catalogOf(
		scheme.Criteria{"min_age": 18},
		pmSym(),
		scheme.Criteria{"landholding_required": true},
		scheme.Criteria{"max_income": 1000},
		scheme.Criteria{"girl_child_required": "yes"},
	)

	first := Evaluate(profile, catalog, nil)
	second := Evaluate(profile, catalog, nil)

	assert.Equal(t, []string{"A", "C", "E"}, first.Names())
	assert.Equal(t, first.Names(), second.Names())
}

func TestEmbeddedCatalogForFarmer(t *testing.T) {
	catalog, err := scheme.Embedded(nil).Fetch(context.Background())
	require.NoError(t, err)

	got := Evaluate(Normalize(farmerAnswers(), nil), catalog, nil)

	ids := make([]string, 0, got.Len())
	for _, s := range got.Items {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"pmjjby", "pmsby", "apy", "nfsa", "pm-surya-ghar", "ssy"}, ids)
}

func TestCriteriaRules(t *testing.T) {
	profile := NormalizedProfile{
		Age:        25,
		Income:     12500,
		Occupation: "daily wage labourer",
		Region:     "Kerala",
	}

	tests := []struct {
		name     string
		criteria scheme.Criteria
		want     bool
	}{
		{"region match", scheme.Criteria{"state": "Kerala"}, true},
		{"region mismatch", scheme.Criteria{"state": "Tamil Nadu"}, false},
		{"region all any case", scheme.Criteria{"state": "ALL"}, true},
		{"region list", scheme.Criteria{"region": []any{"Goa", "Kerala"}}, true},
		{"min age boundary", scheme.Criteria{"min_age": 25}, true},
		{"max age boundary", scheme.Criteria{"max_age": uint64(25)}, true},
		{"max age below", scheme.Criteria{"max_age": int64(24)}, false},
		{"income float", scheme.Criteria{"max_income": 12500.0}, true},
		{"income json number", scheme.Criteria{"max_income": json.Number("10000")}, false},
		{"income numeric string", scheme.Criteria{"max_income": "15,000"}, true},
		{"occupation contained in profile", scheme.Criteria{"occupations": []any{"labourer"}}, true},
		{"occupation any", scheme.Criteria{"occupations": []string{"Any"}}, true},
		{"occupation mismatch", scheme.Criteria{"occupations": []any{"farmer"}}, false},
		{"empty occupation list", scheme.Criteria{"occupations": []any{}}, true},
		{"flag not required", scheme.Criteria{"bpl_required": false}, true},
		{"flag required", scheme.Criteria{"landholding_required": "true"}, false},
		{"null value", scheme.Criteria{"max_age": nil}, true},
		{"unknown key", scheme.Criteria{"caste": "SC"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Explain(profile, &scheme.Scheme{Name: "S", Criteria: tt.criteria})
			assert.Equal(t, tt.want, verdict.Eligible)
		})
	}
}

func TestEmptyOccupationFailsUnlessAny(t *testing.T) {
	profile := NormalizedProfile{}

	assert.False(t, Explain(profile, &scheme.Scheme{Criteria: scheme.Criteria{"occupations": []any{"farmer"}}}).Eligible)
	assert.True(t, Explain(profile, &scheme.Scheme{Criteria: scheme.Criteria{"occupations": []any{"farmer", "any"}}}).Eligible)
}

func TestMalformedFieldIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	profile := NormalizedProfile{Age: 35}
	catalog := catalogOf(scheme.Criteria{"min_age": "eighteen", "max_age": 30})

	verdict := Explain(profile, catalog.Items[0])
	got := Evaluate(profile, catalog, zap.New(core))

	require.Len(t, verdict.Skipped, 1)
	assert.Equal(t, "min_age", verdict.Skipped[0].Field)
	assert.True(t, IsCriteriaFieldError(verdict.Skipped[0]))
	assert.Equal(t, []string{"max_age"}, verdict.Failed)
	assert.Equal(t, 0, got.Len())
	skipped := logs.FilterMessage("skipping malformed criteria field").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, "A", skipped[0].ContextMap()[schemeField])
}

func TestNonFiniteNumberIsSkipped(t *testing.T) {
	for _, value := range []any{"NaN", "Inf", "-Inf", math.NaN(), math.Inf(1)} {
		verdict := Explain(NormalizedProfile{Age: 35}, &scheme.Scheme{Criteria: scheme.Criteria{"max_age": value}})

		assert.True(t, verdict.Eligible, "%v", value)
		assert.Empty(t, verdict.Failed, "%v", value)
		require.Len(t, verdict.Skipped, 1, "%v", value)
		assert.Equal(t, "max_age", verdict.Skipped[0].Field)
	}
}

func TestMalformedFieldDoesNotRejectScheme(t *testing.T) {
	got := Evaluate(NormalizedProfile{}, catalogOf(scheme.Criteria{"bpl_required": 3}), nil)

	assert.Equal(t, 1, got.Len())
}

func TestExplainCollectsEveryFailure(t *testing.T) {
	verdict := Explain(NormalizedProfile{Age: 75}, &scheme.Scheme{Criteria: scheme.Criteria{
		"max_age":      40,
		"bpl_required": true,
		"extra":        1,
		"another":      "x",
	}})

	assert.Equal(t, []string{"max_age", "bpl_required"}, verdict.Failed)
	assert.Equal(t, []string{"another", "extra"}, verdict.Unknown)
}
