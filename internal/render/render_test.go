package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spigell/scheme-assistant/internal/conversation"
	"github.com/spigell/scheme-assistant/internal/eligibility"
	"github.com/spigell/scheme-assistant/internal/scheme"
)

func apy() *scheme.Scheme {
	return &scheme.Scheme{
		Name:       "APY",
		Benefit:    "Pension",
		Department: "PFRDA",
		ApplyLink:  "https://example.org",
		Criteria:   scheme.Criteria{"min_age": 18, "max_age": 40},
	}
}

func TestSchemeCard(t *testing.T) {
	card := SchemeCard(apy(), 60)

	for _, want := range []string{"APY", "Benefit:", "Pension", "PFRDA", "https://example.org"} {
		assert.Contains(t, card, want)
	}
	assert.NotContains(t, card, "How to apply")
}

func TestResults(t *testing.T) {
	assert.Empty(t, Results(&scheme.Schemes{}, 0))

	out := Results(&scheme.Schemes{Items: []*scheme.Scheme{apy(), {Name: "NFSA"}}}, 0)
	assert.Less(t, strings.Index(out, "APY"), strings.Index(out, "NFSA"))
}

func TestUtterance(t *testing.T) {
	assert.Contains(t, Utterance(conversation.Utterance{Speaker: conversation.SpeakerUser, Text: "Delhi"}), "you: Delhi")
	assert.Contains(t, Utterance(conversation.Utterance{Speaker: conversation.SpeakerSystem, Text: "Hi"}), "Hi")
}

func TestVerdict(t *testing.T) {
	out := Verdict(eligibility.Verdict{
		Scheme:  apy(),
		Failed:  []string{"max_age"},
		Skipped: []*eligibility.CriteriaFieldError{{Field: "min_age", Reason: "expected a number"}},
		Unknown: []string{"caste"},
	})

	assert.Contains(t, out, "✘ APY")
	assert.Contains(t, out, "failed: max_age")
	assert.Contains(t, out, "skipped min_age: expected a number")
	assert.Contains(t, out, "ignored: caste")
}

func TestCriteria(t *testing.T) {
	assert.Equal(t, "no restrictions", Criteria(nil))
	assert.Equal(t, "max_age=40 min_age=18", Criteria(apy().Criteria))
}

func TestReport(t *testing.T) {
	s := &scheme.Schemes{Items: []*scheme.Scheme{apy(), {Name: "NFSA", Department: "Food"}}}

	out := Report(s.ReportByDepartment())

	assert.Less(t, strings.Index(out, "Food"), strings.Index(out, "PFRDA"))
	assert.Contains(t, out, "• APY (Pension)")
}
