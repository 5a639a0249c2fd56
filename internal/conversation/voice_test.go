package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateQuestion() []Question {
	return []Question{
		{ID: "state", Prompt: "Which state are you from?", Options: []string{"Tamil Nadu", "Karnataka", "Maharashtra", "Delhi"}},
		{ID: "bpl_card", Prompt: "Do you have a BPL card?", Options: yesNo},
	}
}

func TestVoiceTranscriptSelectsOption(t *testing.T) {
	c, err := New(stateQuestion(), &fakeEvaluator{})
	require.NoError(t, err)
	c.Start()
	require.NoError(t, c.RevealOptions())

	outcome, matched, err := c.SubmitVoiceTranscript(context.Background(), "I think maharashtra please")

	require.NoError(t, err)
	assert.True(t, matched)
	snap := c.Snapshot()
	assert.Equal(t, "Maharashtra", snap.Answers["state"])
	assert.Equal(t, State{Index: 1, Phase: PhaseAsking}, snap.State)
	assert.Equal(t, "Maharashtra", outcome.Utterances[0].Text)
}

func TestVoiceTranscriptWithoutMatch(t *testing.T) {
	c, err := New(stateQuestion(), &fakeEvaluator{})
	require.NoError(t, err)
	c.Start()
	require.NoError(t, c.RevealOptions())
	before := c.Snapshot()

	outcome, matched, err := c.SubmitVoiceTranscript(context.Background(), "not sure")

	require.NoError(t, err)
	assert.False(t, matched)
	assert.Empty(t, outcome.Utterances)
	after := c.Snapshot()
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, before.Transcript, after.Transcript)
	assert.Empty(t, after.Answers)
}

func TestVoiceTranscriptBeforeReveal(t *testing.T) {
	c, err := New(stateQuestion(), &fakeEvaluator{})
	require.NoError(t, err)
	c.Start()

	_, matched, err := c.SubmitVoiceTranscript(context.Background(), "Delhi")

	require.NoError(t, err)
	assert.False(t, matched)
	assert.Equal(t, State{Index: 0, Phase: PhaseAsking}, c.Snapshot().State)
}

func TestVoiceTranscriptCompletesQuestionnaire(t *testing.T) {
	c, err := New(stateQuestion(), &fakeEvaluator{})
	require.NoError(t, err)
	c.Start()
	require.NoError(t, c.RevealOptions())
	_, _, err = c.SubmitVoiceTranscript(context.Background(), "delhi")
	require.NoError(t, err)
	require.NoError(t, c.RevealOptions())

	outcome, matched, err := c.SubmitVoiceTranscript(context.Background(), "YES I do")

	require.NoError(t, err)
	assert.True(t, matched)
	assert.True(t, outcome.Completed)
	assert.Equal(t, "Yes", c.Snapshot().Answers["bpl_card"])
}

func TestMatchTranscript(t *testing.T) {
	options := []string{"Tamil Nadu", "Karnataka", "Maharashtra", "Delhi"}

	tests := []struct {
		transcript string
		want       string
		ok         bool
	}{
		{"TAMIL NADU", "Tamil Nadu", true},
		{"from delhi or karnataka", "Karnataka", true},
		{"", "", false},
		{"   ", "", false},
		{"kerala", "", false},
	}

	for _, tt := range tests {
		got, ok := matchTranscript(tt.transcript, options)
		assert.Equal(t, tt.ok, ok, tt.transcript)
		assert.Equal(t, tt.want, got, tt.transcript)
	}
}
