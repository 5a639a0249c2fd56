package conversation

import (
	"errors"
	"fmt"

	"github.com/spigell/scheme-assistant/internal/eligibility"
)

// Question is a single questionnaire step.
type Question struct {
	ID      string
	Prompt  string
	Options []string
}

var yesNo = []string{"Yes", "No"}

// DefaultQuestions returns the questionnaire in asking order.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:      eligibility.KeyState,
			Prompt:  "Hi! 👋 I'm SchemeAI. Which state are you from?",
			Options: []string{"Tamil Nadu", "Karnataka", "Maharashtra", "Delhi", "Uttar Pradesh", "West Bengal", "All India"},
		},
		{
			ID:      eligibility.KeyOccupation,
			Prompt:  "What is your occupation?",
			Options: []string{"Farmer", "Student", "Street Vendor", "Construction Worker", "Shopkeeper", "Fisherman", "Casual Labour", "Other"},
		},
		{
			ID:      eligibility.KeyIncome,
			Prompt:  "What is your monthly income? (in ₹)",
			Options: []string{"Less than ₹10,000", "₹10,000 - ₹15,000", "₹15,000 - ₹25,000", "Above ₹25,000"},
		},
		{
			ID:      eligibility.KeyAge,
			Prompt:  "What is your age?",
			Options: []string{"Below 18", "18-30", "31-40", "41-50", "51-60", "60-70", "70+"},
		},
		{
			ID:      eligibility.KeyLandholding,
			Prompt:  "Do you own any agricultural land?",
			Options: yesNo,
		},
		{
			ID:      eligibility.KeyBPLCard,
			Prompt:  "Do you have a BPL (Below Poverty Line) card?",
			Options: yesNo,
		},
		{
			ID:      eligibility.KeyGirlChild,
			Prompt:  "Do you have a girl child below 10 years?",
			Options: yesNo,
		},
	}
}

func validateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return errors.New("questionnaire is empty")
	}

	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("question %d has no id", i)
		}
		if _, ok := seen[q.ID]; ok {
			return fmt.Errorf("question id %q is used twice", q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Options) == 0 {
			return fmt.Errorf("question %q has no options", q.ID)
		}
	}
	return nil
}

func cloneQuestion(q Question) Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}
