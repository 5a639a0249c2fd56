package conversation

import "time"

// Phase is the stage of the conversation.
type Phase int

const (
	PhaseAsking Phase = iota
	PhaseAwaitingSelection
	PhaseTransitioning
	PhaseEvaluating
	PhaseShowingResults
	PhaseFreeForm
)

func (p Phase) String() string {
	switch p {
	case PhaseAsking:
		return "asking"
	case PhaseAwaitingSelection:
		return "awaiting_selection"
	case PhaseTransitioning:
		return "transitioning"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseShowingResults:
		return "showing_results"
	case PhaseFreeForm:
		return "free_form"
	default:
		return "unknown"
	}
}

// State is the position in the questionnaire. Index equals the number of
// accepted answers.
type State struct {
	Index int
	Phase Phase
}

type Speaker string

const (
	SpeakerSystem Speaker = "system"
	SpeakerUser   Speaker = "user"
)

// Utterance is one line of the transcript.
type Utterance struct {
	Speaker Speaker
	Text    string
	At      time.Time
}

// Pacing controls the typing effect before options are shown.
type Pacing struct {
	CharDelay     time.Duration
	QuestionPause time.Duration
}

// DefaultPacing matches a comfortable reading speed.
var DefaultPacing = Pacing{CharDelay: 30 * time.Millisecond, QuestionPause: 500 * time.Millisecond}

// RevealDelay returns how long prompt takes to be typed out.
func (p Pacing) RevealDelay(prompt string) time.Duration {
	return p.QuestionPause + time.Duration(len([]rune(prompt)))*p.CharDelay
}
