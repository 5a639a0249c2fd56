package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

const (
	testModel       = "gemini-2.5-flash"
	schemeGuardrail = "Answer only questions about Indian government welfare schemes."
	pensionQuestion = "Who can apply for the Atal Pension Yojana?"
)

// scriptedChats hands out one chat per Create call, replying with the next
// scripted outcome.
type scriptedChats struct {
	mu      sync.Mutex
	script  []scripted
	created []*recordedChat
}

type scripted struct {
	reply string
	err   error
}

type recordedChat struct {
	model       string
	instruction string
	sent        []string
	outcome     scripted
}

func (c *recordedChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, part := range parts {
		c.sent = append(c.sent, part.Text)
	}
	if c.outcome.err != nil {
		return nil, c.outcome.err
	}
	if c.outcome.reply == "" {
		return &genai.GenerateContentResponse{}, nil
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(c.outcome.reply, genai.RoleModel),
		}},
	}, nil
}

func (s *scriptedChats) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.script) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	chat := &recordedChat{model: model, outcome: s.script[0]}
	s.script = s.script[1:]
	if config != nil && config.SystemInstruction != nil {
		chat.instruction = config.SystemInstruction.Parts[0].Text
	}
	s.created = append(s.created, chat)
	return chat, nil
}

func withoutSleep(t *testing.T) {
	t.Helper()

	original := sleep
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = original })
}

func newTestGenerator(chats chatCreator, retries int, log *zap.Logger) *Generator {
	return &Generator{chats: chats, model: testModel, maxRetries: retries, logger: log}
}

func TestGeneratorSendsGuardrailAndQuestion(t *testing.T) {
	chats := &scriptedChats{script: []scripted{{reply: "Citizens aged 18 to 40 with a savings account."}}}

	reply, err := newTestGenerator(chats, 3, nil).GenerateContent(context.Background(), schemeGuardrail, "  "+pensionQuestion+"\n")
	require.NoError(t, err)
	assert.Equal(t, "Citizens aged 18 to 40 with a savings account.", reply)

	require.Len(t, chats.created, 1)
	assert.Equal(t, testModel, chats.created[0].model)
	assert.Equal(t, schemeGuardrail, chats.created[0].instruction)
	assert.Equal(t, []string{pensionQuestion}, chats.created[0].sent)
}

func TestGeneratorRetriesServerErrors(t *testing.T) {
	withoutSleep(t)

	core, logs := observer.New(zapcore.WarnLevel)
	chats := &scriptedChats{script: []scripted{
		{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}},
		{reply: "APY is open to citizens aged 18 to 40."},
	}}

	reply, err := newTestGenerator(chats, 2, zap.New(core)).GenerateContent(context.Background(), schemeGuardrail, pensionQuestion)
	require.NoError(t, err)
	assert.Equal(t, "APY is open to citizens aged 18 to 40.", reply)

	require.Len(t, chats.created, 2)
	for _, chat := range chats.created {
		assert.Equal(t, schemeGuardrail, chat.instruction)
		assert.Equal(t, []string{pensionQuestion}, chat.sent)
	}
	assert.Equal(t, 1, logs.FilterMessage("gemini request failed, retrying").Len())
}

func TestGeneratorGivesUpAfterRetries(t *testing.T) {
	withoutSleep(t)

	unavailable := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	chats := &scriptedChats{script: []scripted{{err: unavailable}, {err: unavailable}, {reply: "never sent"}}}

	_, err := newTestGenerator(chats, 2, nil).GenerateContent(context.Background(), schemeGuardrail, pensionQuestion)
	require.Error(t, err)

	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Code)
	assert.Len(t, chats.created, 2)
}

func TestGeneratorDoesNotWaitOutLongQuota(t *testing.T) {
	chats := &scriptedChats{script: []scripted{{err: genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}}}}

	_, err := newTestGenerator(chats, 3, nil).GenerateContent(context.Background(), schemeGuardrail, pensionQuestion)
	require.Error(t, err)
	assert.Len(t, chats.created, 1)
}

func TestGeneratorRejectsEmptyMessage(t *testing.T) {
	chats := &scriptedChats{}

	_, err := newTestGenerator(chats, 1, nil).GenerateContent(context.Background(), schemeGuardrail, "   ")
	require.Error(t, err)
	assert.Empty(t, chats.created)
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	chats := &scriptedChats{script: []scripted{
		{err: genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}},
		{reply: "never sent"},
	}}

	_, err := newTestGenerator(chats, 3, nil).GenerateContent(context.Background(), schemeGuardrail, pensionQuestion)
	require.Error(t, err)
	assert.Len(t, chats.created, 1)
}

func TestGeneratorEmptyReplyWithoutInstruction(t *testing.T) {
	chats := &scriptedChats{script: []scripted{{}}}

	_, err := newTestGenerator(chats, 1, nil).GenerateContent(context.Background(), " ", pensionQuestion)
	require.Error(t, err)
	require.Len(t, chats.created, 1)
	assert.Empty(t, chats.created[0].instruction)
}

func TestUninitializedGenerator(t *testing.T) {
	var g *Generator

	_, err := g.GenerateContent(context.Background(), schemeGuardrail, pensionQuestion)
	assert.Error(t, err)
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
		delay time.Duration
	}{
		{"plain error", errors.New("boom"), false, 0},
		{"server error", genai.APIError{Code: http.StatusServiceUnavailable}, true, baseRetryDelay},
		{"short quota", genai.APIError{Code: http.StatusTooManyRequests, Message: "Please retry in 5s."}, true, 5 * time.Second},
		{"long quota", genai.APIError{Code: http.StatusTooManyRequests, Message: "retry after 120 seconds"}, false, 0},
		{"not found", genai.APIError{Code: http.StatusNotFound}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry := retryDelay(tt.err, 1)
			assert.Equal(t, tt.retry, retry)
			assert.Equal(t, tt.delay, delay)
		})
	}
}
