package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/conversation"
	"github.com/spigell/scheme-assistant/internal/logger"
	"github.com/spigell/scheme-assistant/internal/render"
	"github.com/spigell/scheme-assistant/internal/scheme"
)

const (
	PromptSpeak          = "🎤 Say it (type what you would say)"
	PromptType           = "⌨  Type my own answer"
	PromptRestart        = "↺  Start over"
	PromptAsk            = "Ask a question"
	PromptReport         = "Report by department"
	PromptDump           = "Dump schemes to file"
	PromptEnroll         = "Mark all schemes as enrolled"
	PromptExit           = "Exit"
	notHeardMessage      = "Sorry, I couldn't match that to an option. Please try again."
	defaultRenderedWidth = 72
)

// sessionField is resolved before run shadows the logger package.
const sessionField = logger.FieldSession

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive questionnaire",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("enrolled-file", "e", "", "file with schemes you are already enrolled in. Default is unset.")
	runCmd.Flags().StringP("resume", "r", "", "restore a saved session by id instead of starting a new one")

	viper.BindPFlag("enrolled-file", runCmd.Flags().Lookup("enrolled-file"))
}

// terminal tracks what has already been printed for the current conversation.
type terminal struct {
	c        *conversation.Controller
	config   *Config
	logger   *zap.Logger
	printed  int
	rendered bool
}

// run is the interactive questionnaire loop.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the scheme-assistant", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	pipeline, err := newPipeline(config, logger)
	if err != nil {
		logger.Fatal("preparing the catalog", zap.Error(err))
	}

	var dispatcher *conversation.Dispatcher
	assistant, err := newAssistant(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("free-form questions will get a static hint", zap.Error(err))
	}
	if assistant != nil || (config.AI != nil && config.AI.Enabled) {
		dispatcher = conversation.NewDispatcher(assistant, logger)
	}

	store := openStore(config.Store, logger)
	defer store.Close()

	c, err := conversation.New(conversation.DefaultQuestions(), pipeline, controllerOptions(config, store, dispatcher, logger)...)
	if err != nil {
		logger.Fatal("creating the conversation", zap.Error(err))
	}

	t := &terminal{c: c, config: config, logger: logger}

	c.Start()
	if id := cmd.Flag("resume").Value.String(); id != "" {
		restored, err := c.Restore(ctx, id)
		if err != nil {
			logger.Fatal("restoring session", zap.Error(err))
		}
		if !restored {
			logger.Warn("session not found, starting a new one", zap.String("requested_session", id))
		}
	}

	logger.Info("session started", zap.String(sessionField, c.SessionID()))

	for {
		if err := t.step(ctx); err != nil {
			if errors.Is(err, errExit) {
				logger.Info("exiting", zap.String("reason", "got exit from prompt"))
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func (t *terminal) step(ctx context.Context) error {
	snap := t.c.Snapshot()
	t.flush(snap)

	switch snap.State.Phase {
	case conversation.PhaseAsking:
		err := <-t.c.ScheduleReveal(ctx)
		if errors.Is(err, conversation.ErrRevealCancelled) {
			return nil
		}
		return err
	case conversation.PhaseAwaitingSelection:
		return t.selectAnswer(ctx, snap.Question)
	case conversation.PhaseShowingResults, conversation.PhaseFreeForm:
		if !t.rendered {
			if out := render.Results(snap.Results, defaultRenderedWidth); out != "" {
				fmt.Println(out)
			}
			t.rendered = true
		}
		return t.afterResults(ctx, snap.Results)
	default:
		return fmt.Errorf("unexpected phase %s", snap.State.Phase)
	}
}

// flush prints the transcript lines not shown yet.
func (t *terminal) flush(snap conversation.Snapshot) {
	if t.printed > len(snap.Transcript) {
		t.printed = 0
	}
	for _, u := range snap.Transcript[t.printed:] {
		if u.Speaker == conversation.SpeakerUser {
			continue
		}
		fmt.Println(render.Utterance(u))
	}
	t.printed = len(snap.Transcript)
}

func (t *terminal) restart() {
	t.c.Restart()
	t.printed = 0
	t.rendered = false
}

func (t *terminal) selectAnswer(ctx context.Context, q *conversation.Question) error {
	items := append(append([]string{}, q.Options...), PromptSpeak, PromptType, PromptRestart)
	prompt := promptui.Select{
		Label: "Choose an answer",
		Items: items,
		Size:  len(items),
	}

	_, action, err := prompt.Run()
	if err != nil {
		return promptError(err)
	}

	switch action {
	case PromptRestart:
		t.restart()
		return nil
	case PromptSpeak:
		transcript, err := ask("You say")
		if err != nil {
			return err
		}
		_, matched, err := t.c.SubmitVoiceTranscript(ctx, transcript)
		if err != nil {
			return submitError(err)
		}
		if !matched {
			fmt.Println(notHeardMessage)
		}
		return nil
	case PromptType:
		answer, err := ask(q.Prompt)
		if err != nil {
			return err
		}
		_, err = t.c.SubmitAnswer(ctx, answer)
		return submitError(err)
	default:
		_, err := t.c.SubmitAnswer(ctx, action)
		return submitError(err)
	}
}

func (t *terminal) afterResults(ctx context.Context, results *scheme.Schemes) error {
	items := []string{PromptAsk, PromptReport, PromptDump}
	if t.config.EnrolledFile != "" && results.Len() > 0 {
		items = append(items, PromptEnroll)
	}
	items = append(items, PromptRestart, PromptExit)

	prompt := promptui.Select{
		Label: "What next?",
		Items: items,
		Size:  len(items),
	}

	_, action, err := prompt.Run()
	if err != nil {
		return promptError(err)
	}

	switch action {
	case PromptAsk:
		question, err := ask("Your question")
		if err != nil {
			return err
		}
		reply, err := t.c.Ask(ctx, question)
		var failure *conversation.DispatchFailure
		if errors.As(err, &failure) {
			t.logger.Debug("free-form question failed", zap.Error(err))
		} else if err != nil {
			return err
		}
		fmt.Println(render.Utterance(reply))
		t.printed = len(t.c.Snapshot().Transcript)
	case PromptReport:
		fmt.Println(render.Report(results.ReportByDepartment()))
	case PromptDump:
		path, err := results.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dumping schemes: %w", err)
		}
		t.logger.Info("schemes dumped", zap.String("path", path))
	case PromptEnroll:
		return appendToEnrolledFile(t.config.EnrolledFile, results, t.logger)
	case PromptRestart:
		t.restart()
	case PromptExit:
		return errExit
	}
	return nil
}

func appendToEnrolledFile(path string, results *scheme.Schemes, logger *zap.Logger) error {
	enrolled, err := scheme.GetEnrolledFromFile(path)
	if err != nil {
		return fmt.Errorf("reading enrolled file: %w", err)
	}

	enrolled.Append(results.ToEnrolled())
	if err := enrolled.ToFile(path); err != nil {
		return fmt.Errorf("writing enrolled file: %w", err)
	}

	logger.Info("schemes marked as enrolled", zap.String("path", path), zap.Int("count", len(enrolled.Items)))
	return nil
}

func ask(label string) (string, error) {
	prompt := promptui.Prompt{Label: label}
	text, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return text, nil
}

// promptError turns an interrupted prompt into a normal exit.
func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errExit
	}
	return err
}

// submitError ignores answers that raced with a restart.
func submitError(err error) error {
	if errors.Is(err, conversation.ErrSessionRestarted) {
		return nil
	}
	return err
}
