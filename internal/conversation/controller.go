// Package conversation drives the guided questionnaire: it sequences the
// questions, gates option selection behind the prompt reveal, evaluates the
// answers and answers free-form questions once results are shown.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/eligibility"
	"github.com/spigell/scheme-assistant/internal/logger"
	"github.com/spigell/scheme-assistant/internal/scheme"
	"github.com/spigell/scheme-assistant/internal/session"
)

const (
	defaultStoreTimeout = 2 * time.Second

	foundSummary    = "✅ Found %d scheme(s) you may be eligible for!"
	notFoundSummary = "😔 No schemes found matching your criteria. Try different answers?"
)

// Evaluator matches a completed answer profile against the catalog.
type Evaluator interface {
	Evaluate(ctx context.Context, answers eligibility.AnswerProfile) (*scheme.Schemes, error)
}

// Outcome describes what a submitted answer produced.
type Outcome struct {
	// Utterances appended to the transcript by the call, in order.
	Utterances []Utterance
	// Completed is set when the answer was the last one.
	Completed bool
	Results   *scheme.Schemes
	// EvaluationError is set when the catalog could not be evaluated. The
	// session still completes with no results.
	EvaluationError error
}

// Snapshot is a copy of the controller state for presentation.
type Snapshot struct {
	SessionID string
	State     State
	// Question is nil once every question is answered.
	Question   *Question
	Answers    eligibility.AnswerProfile
	Results    *scheme.Schemes
	Transcript []Utterance
}

// Option configures a Controller.
type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.base = l
	}
}

// WithDispatcher enables free-form questions after the results.
func WithDispatcher(d *Dispatcher) Option {
	return func(c *Controller) {
		c.dispatcher = d
	}
}

// WithStore persists completed sessions. Each store call is bounded by timeout.
func WithStore(store session.Store, timeout time.Duration) Option {
	return func(c *Controller) {
		c.store = store
		if timeout > 0 {
			c.storeTimeout = timeout
		}
	}
}

func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

func WithPacing(p Pacing) Option {
	return func(c *Controller) {
		c.pacing = p
	}
}

// WithClock replaces time.Now for utterance and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller is the state machine of one conversation. All mutating
// operations are serialized; a call made while another runs waits for it.
type Controller struct {
	questions    []Question
	evaluator    Evaluator
	dispatcher   *Dispatcher
	store        session.Store
	storeTimeout time.Duration
	pacing       Pacing
	base         *zap.Logger
	logger       atomic.Pointer[zap.Logger]
	now          func() time.Time

	mu         sync.Mutex
	sessionID  string
	createdAt  time.Time
	state      State
	answers    eligibility.AnswerProfile
	results    *scheme.Schemes
	transcript []Utterance

	// generation changes on every start; pending work from an older
	// generation must not commit.
	generation     uint64
	revealSeq      uint64
	cancelReveal   context.CancelFunc
	dispatchSeq    uint64
	cancelDispatch context.CancelFunc
}

// New returns a controller positioned at the first question, its prompt
// already in the transcript. Start resets it to the same state.
func New(questions []Question, evaluator Evaluator, opts ...Option) (*Controller, error) {
	if err := validateQuestions(questions); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, errors.New("evaluator is required")
	}

	c := &Controller{
		questions:    make([]Question, 0, len(questions)),
		evaluator:    evaluator,
		storeTimeout: defaultStoreTimeout,
		pacing:       DefaultPacing,
		now:          time.Now,
		answers:      eligibility.AnswerProfile{},
	}
	for _, q := range questions {
		c.questions = append(c.questions, cloneQuestion(q))
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.base = logger.WithFields(c.base)
	c.logger.Store(logger.WithSession(c.base, c.sessionID))
	c.resetLocked()

	return c, nil
}

// Start resets the conversation to the first question and returns its prompt.
func (c *Controller) Start() Utterance {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.resetLocked()
}

// Restart abandons the current session in any phase. A pending reveal and an
// in-flight free-form question are cancelled and never applied.
func (c *Controller) Restart() Utterance {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log().Info("restarting conversation",
		zap.Stringer(logger.FieldPhase, c.state.Phase),
		zap.Int("answered", c.state.Index),
	)
	return c.resetLocked()
}

func (c *Controller) resetLocked() Utterance {
	c.cancelPendingLocked()
	c.generation++

	c.state = State{Index: 0, Phase: PhaseAsking}
	c.answers = eligibility.AnswerProfile{}
	c.results = nil
	c.transcript = nil
	c.createdAt = c.now()

	return c.sayLocked(SpeakerSystem, c.questions[0].Prompt)
}

func (c *Controller) cancelPendingLocked() {
	if c.cancelReveal != nil {
		c.cancelReveal()
		c.cancelReveal = nil
	}
	if c.cancelDispatch != nil {
		c.cancelDispatch()
		c.cancelDispatch = nil
	}
}

func (c *Controller) sayLocked(speaker Speaker, text string) Utterance {
	u := Utterance{Speaker: speaker, Text: text, At: c.now()}
	c.transcript = append(c.transcript, u)
	return u
}

// PresentQuestion returns the question at index.
func (c *Controller) PresentQuestion(index int) (Question, error) {
	if index < 0 || index >= len(c.questions) {
		return Question{}, &OutOfRangeError{Index: index, Len: len(c.questions)}
	}
	return cloneQuestion(c.questions[index]), nil
}

// RevealOptions makes the options of the current question selectable.
func (c *Controller) RevealOptions() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.revealLocked()
}

func (c *Controller) revealLocked() error {
	if c.state.Phase != PhaseAsking {
		return &InvalidPhaseError{Op: "reveal options", Phase: c.state.Phase}
	}
	c.state.Phase = PhaseAwaitingSelection
	return nil
}

// SubmitAnswer records raw as the answer to the current question. Answers
// outside the option list are accepted as typed input.
func (c *Controller) SubmitAnswer(ctx context.Context, raw string) (Outcome, error) {
	c.mu.Lock()
	outcome, job, err := c.recordLocked(raw)
	c.mu.Unlock()

	if err != nil || job == nil {
		return outcome, err
	}
	return c.complete(ctx, job, outcome)
}

// SubmitVoiceTranscript maps a speech transcript to an option of the current
// question and submits it. It reports false, leaving the state untouched,
// when no option matches or options are not selectable yet.
func (c *Controller) SubmitVoiceTranscript(ctx context.Context, transcript string) (Outcome, bool, error) {
	c.mu.Lock()

	if c.state.Phase != PhaseAwaitingSelection {
		phase := c.state.Phase
		c.mu.Unlock()
		c.log().Debug("ignoring voice transcript", zap.Stringer(logger.FieldPhase, phase))
		return Outcome{}, false, nil
	}

	q := c.questions[c.state.Index]
	option, ok := matchTranscript(transcript, q.Options)
	if !ok {
		c.mu.Unlock()
		c.log().Info("voice transcript matched no option",
			zap.String(logger.FieldQuestion, q.ID),
			zap.String("transcript", transcript),
		)
		return Outcome{}, false, nil
	}

	outcome, job, err := c.recordLocked(option)
	c.mu.Unlock()

	if err != nil {
		return outcome, false, err
	}
	if job != nil {
		outcome, err = c.complete(ctx, job, outcome)
	}
	return outcome, true, err
}

type evaluation struct {
	generation uint64
	answers    eligibility.AnswerProfile
}

// recordLocked applies an accepted answer. When it was the last one the
// returned evaluation must be run by complete.
func (c *Controller) recordLocked(raw string) (Outcome, *evaluation, error) {
	if c.state.Phase != PhaseAwaitingSelection {
		return Outcome{}, nil, &InvalidPhaseError{Op: "submit answer", Phase: c.state.Phase}
	}

	q := c.questions[c.state.Index]
	c.answers[q.ID] = raw
	c.state.Phase = PhaseTransitioning
	c.state.Index++

	outcome := Outcome{Utterances: []Utterance{c.sayLocked(SpeakerUser, raw)}}
	c.log().Debug("answer recorded",
		zap.String(logger.FieldQuestion, q.ID),
		zap.Int("index", c.state.Index),
	)

	if c.state.Index < len(c.questions) {
		c.state.Phase = PhaseAsking
		outcome.Utterances = append(outcome.Utterances, c.sayLocked(SpeakerSystem, c.questions[c.state.Index].Prompt))
		return outcome, nil, nil
	}

	c.state.Phase = PhaseEvaluating
	return outcome, &evaluation{generation: c.generation, answers: c.answers.Clone()}, nil
}

// complete evaluates the answers without holding the lock, then commits the
// results unless the session was restarted meanwhile.
func (c *Controller) complete(ctx context.Context, job *evaluation, outcome Outcome) (Outcome, error) {
	results, evalErr := c.evaluator.Evaluate(ctx, job.answers)
	if evalErr != nil {
		c.log().Error("evaluating answers failed", zap.Error(evalErr))
		results = &scheme.Schemes{}
	}
	if results == nil {
		results = &scheme.Schemes{}
	}

	c.mu.Lock()
	if c.generation != job.generation {
		c.mu.Unlock()
		c.log().Info("discarding results of a restarted session")
		return outcome, ErrSessionRestarted
	}

	c.results = results
	c.state.Phase = c.finalPhase()
	outcome.Completed = true
	outcome.Results = results
	outcome.EvaluationError = evalErr
	outcome.Utterances = append(outcome.Utterances, c.sayLocked(SpeakerSystem, summary(results)))
	record := c.recordForStoreLocked()
	c.mu.Unlock()

	c.log().Info("questionnaire completed", zap.Int("eligible", results.Len()))
	c.persist(ctx, record)

	return outcome, nil
}

func (c *Controller) log() *zap.Logger {
	return c.logger.Load()
}

func (c *Controller) finalPhase() Phase {
	if c.dispatcher != nil {
		return PhaseFreeForm
	}
	return PhaseShowingResults
}

func summary(results *scheme.Schemes) string {
	if results.Len() == 0 {
		return notFoundSummary
	}
	return fmt.Sprintf(foundSummary, results.Len())
}

func (c *Controller) recordForStoreLocked() *session.Record {
	return &session.Record{
		ID:        c.sessionID,
		Answers:   c.answers.Clone(),
		Schemes:   c.results.Names(),
		CreatedAt: c.createdAt,
		UpdatedAt: c.now(),
	}
}

// persist saves the record. A failing store only costs persistence.
func (c *Controller) persist(ctx context.Context, record *session.Record) {
	if c.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.storeTimeout)
	defer cancel()

	if err := c.store.Save(ctx, record); err != nil {
		c.log().Warn("saving session failed, continuing in memory", zap.Error(err))
		return
	}
	c.log().Debug("session saved")
}

// Restore reloads a completed session from the store and re-evaluates its
// answers. It reports false when there is no store or no such session.
func (c *Controller) Restore(ctx context.Context, sessionID string) (bool, error) {
	if c.store == nil {
		return false, nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	record, err := c.store.Load(loadCtx, sessionID)
	cancel()
	if errors.Is(err, session.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		c.log().Warn("loading session failed", zap.String("requested_session", sessionID), zap.Error(err))
		return false, nil
	}

	answers := eligibility.AnswerProfile{}
	for _, q := range c.questions {
		if _, ok := record.Answers[q.ID]; !ok {
			c.log().Warn("stored session is incomplete",
				zap.String("requested_session", sessionID),
				zap.String(logger.FieldQuestion, q.ID),
			)
			return false, nil
		}
	}
	for k, v := range record.Answers {
		answers[k] = v
	}

	results, err := c.evaluator.Evaluate(ctx, answers.Clone())
	if err != nil {
		return false, fmt.Errorf("evaluate restored session: %w", err)
	}
	if results == nil {
		results = &scheme.Schemes{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelPendingLocked()
	c.generation++
	c.sessionID = record.ID
	c.logger.Store(logger.WithSession(c.base, record.ID))
	c.createdAt = record.CreatedAt
	c.answers = answers
	c.results = results
	c.state = State{Index: len(c.questions), Phase: c.finalPhase()}
	c.transcript = nil
	c.sayLocked(SpeakerSystem, summary(results))

	c.log().Info("session restored", zap.Int("eligible", results.Len()))
	return true, nil
}

// Ask forwards a free-form question once results are shown. A newer Ask
// supersedes an older one; the older returns ErrDispatchDiscarded. On
// provider failure the fallback reply is returned with a *DispatchFailure.
// The questionnaire state is never changed.
func (c *Controller) Ask(ctx context.Context, question string) (Utterance, error) {
	c.mu.Lock()
	if c.state.Phase != PhaseShowingResults && c.state.Phase != PhaseFreeForm {
		phase := c.state.Phase
		c.mu.Unlock()
		return Utterance{}, &InvalidPhaseError{Op: "ask", Phase: phase}
	}

	if c.cancelDispatch != nil {
		c.cancelDispatch()
	}
	dispatchCtx, cancel := context.WithCancel(ctx)
	c.dispatchSeq++
	seq := c.dispatchSeq
	gen := c.generation
	c.cancelDispatch = cancel
	c.sayLocked(SpeakerUser, question)
	dispatcher := c.dispatcher
	c.mu.Unlock()

	defer cancel()

	reply, err := dispatcher.Dispatch(dispatchCtx, question)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen || c.dispatchSeq != seq {
		c.log().Debug("discarding superseded free-form reply")
		return Utterance{}, ErrDispatchDiscarded
	}
	c.cancelDispatch = nil

	var failure *DispatchFailure
	if errors.As(err, &failure) {
		c.log().Warn("free-form question failed", zap.Error(err))
	}

	return c.sayLocked(SpeakerSystem, reply), err
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		SessionID:  c.sessionID,
		State:      c.state,
		Answers:    c.answers.Clone(),
		Transcript: append([]Utterance(nil), c.transcript...),
	}
	if c.state.Index < len(c.questions) {
		q := cloneQuestion(c.questions[c.state.Index])
		snap.Question = &q
	}
	if c.results != nil {
		snap.Results = c.results.Clone()
	}
	return snap
}

// SessionID returns the id records are saved under.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}

// Questions returns the number of questions.
func (c *Controller) Questions() int {
	return len(c.questions)
}
