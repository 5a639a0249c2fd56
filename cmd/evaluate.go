package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/conversation"
	"github.com/spigell/scheme-assistant/internal/eligibility"
	"github.com/spigell/scheme-assistant/internal/logger"
	"github.com/spigell/scheme-assistant/internal/render"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Answer the questionnaire from flags and print the matching schemes",
	Example: `  scheme-assistant evaluate --answer age=31-40 --answer occupation=Farmer --answer bpl_card=Yes
  scheme-assistant evaluate --answer "income=Less than ₹10,000" --explain`,
	Run: func(cmd *cobra.Command, _ []string) {
		evaluate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringArrayP("answer", "a", nil, "answer as question-id=value; repeatable")
	evaluateCmd.Flags().Bool("explain", false, "print the verdict of every catalog scheme")
	evaluateCmd.Flags().StringP("output", "o", "text", "print matching schemes as text or json")
}

func evaluate(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil || config == nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	raw, _ := cmd.Flags().GetStringArray("answer")
	answers, err := parseAnswers(raw, conversation.DefaultQuestions())
	if err != nil {
		logger.Fatal("parsing answers", zap.Error(err))
	}

	pipeline, err := newPipeline(config, logger)
	if err != nil {
		logger.Fatal("preparing the catalog", zap.Error(err))
	}

	if explain, _ := cmd.Flags().GetBool("explain"); explain {
		catalog, err := pipeline.Catalog(ctx)
		if err != nil {
			logger.Fatal("fetching the catalog", zap.Error(err))
		}
		profile := eligibility.Normalize(answers, logger)
		for _, s := range catalog.Items {
			fmt.Println(render.Verdict(eligibility.Explain(profile, s)))
		}
		return
	}

	results, err := pipeline.Evaluate(ctx, answers)
	if err != nil {
		logger.Fatal("evaluating answers", zap.Error(err))
	}

	if output, _ := cmd.Flags().GetString("output"); output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results.Items); err != nil {
			logger.Fatal("encoding results", zap.Error(err))
		}
		return
	}

	if results.Len() == 0 {
		fmt.Println("No schemes found matching your criteria.")
		return
	}
	fmt.Println(render.Results(results, defaultRenderedWidth))
}

// parseAnswers turns id=value pairs into a profile. Ids must name a question.
func parseAnswers(raw []string, questions []conversation.Question) (eligibility.AnswerProfile, error) {
	known := make(map[string]struct{}, len(questions))
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
		ids = append(ids, q.ID)
	}

	answers := eligibility.AnswerProfile{}
	for _, pair := range raw {
		id, value, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("answer %q is not in id=value form", pair)
		}
		if _, exists := known[id]; !exists {
			return nil, fmt.Errorf("unknown question id %q (known: %s)", id, strings.Join(ids, ", "))
		}
		answers[id] = strings.TrimSpace(value)
	}
	return answers, nil
}
