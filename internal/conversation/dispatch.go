package conversation

import (
	"context"
	_ "embed"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/ai"
	"github.com/spigell/scheme-assistant/internal/logger"
	"github.com/spigell/scheme-assistant/internal/utils"
)

//go:embed instruction.md
var systemInstruction string

const (
	// StaticHint is the reply when no assistant is configured.
	StaticHint = "I'm here to help! Try the questionnaire to find schemes you're eligible for."
	// FallbackReply is shown when the assistant fails.
	FallbackReply = "Sorry, I couldn't get an answer right now. Please try again in a moment."
	emptyReply    = "No response from AI"

	questionLogLength = 120
)

// Dispatcher forwards free-form questions to an assistant under a fixed
// system instruction.
type Dispatcher struct {
	assistant ai.Assistant
	logger    *zap.Logger
}

// NewDispatcher returns a dispatcher. A nil assistant answers every question
// with StaticHint.
func NewDispatcher(assistant ai.Assistant, log *zap.Logger) *Dispatcher {
	d := &Dispatcher{assistant: assistant, logger: logger.WithFields(log)}
	if assistant != nil {
		d.logger = logger.WithFields(d.logger, zap.String(logger.FieldModel, assistant.Model()))
	}
	return d
}

// SystemInstruction returns the instruction every question is sent with.
func SystemInstruction() string {
	return strings.TrimSpace(systemInstruction)
}

// Dispatch returns the reply to question. On failure the reply is
// FallbackReply and the error is a *DispatchFailure.
func (d *Dispatcher) Dispatch(ctx context.Context, question string) (string, error) {
	if d == nil || d.assistant == nil {
		return StaticHint, nil
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return StaticHint, nil
	}

	d.logger.Debug("dispatching free-form question",
		zap.String("question", utils.TruncateForLog(question, questionLogLength)),
	)

	reply, err := d.assistant.GenerateContent(ctx, SystemInstruction(), question)
	if err != nil {
		return FallbackReply, &DispatchFailure{Err: err}
	}

	if reply = strings.TrimSpace(reply); reply == "" {
		return emptyReply, nil
	}
	return reply, nil
}
