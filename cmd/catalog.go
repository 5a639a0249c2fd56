package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/scheme-assistant/internal/eligibility"
	"github.com/spigell/scheme-assistant/internal/filtering"
	"github.com/spigell/scheme-assistant/internal/logger"
	"github.com/spigell/scheme-assistant/internal/render"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the scheme catalog with its eligibility criteria",
	Run: func(cmd *cobra.Command, _ []string) {
		listCatalog(cmd)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringP("output", "o", "text", "print the catalog as text or json")
	catalogCmd.Flags().Bool("filters", false, "print the status of the filter steps")
}

func listCatalog(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil || config == nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	pipeline, err := newPipeline(config, logger)
	if err != nil {
		logger.Fatal("preparing the catalog", zap.Error(err))
	}

	if filters, _ := cmd.Flags().GetBool("filters"); filters {
		for _, status := range filtering.Describe(pipeline.Steps(eligibility.NormalizedProfile{})) {
			state := "enabled"
			if !status.Enabled {
				state = "disabled: " + status.Reason
			}
			fmt.Printf("%-12s %s\n", status.Name, state)
		}
		return
	}

	catalog, err := pipeline.Catalog(context.Background())
	if err != nil {
		logger.Fatal("fetching the catalog", zap.Error(err))
	}

	if output, _ := cmd.Flags().GetString("output"); output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(catalog.Items); err != nil {
			logger.Fatal("encoding catalog", zap.Error(err))
		}
		return
	}

	for _, s := range catalog.Items {
		fmt.Printf("%s\n  %s\n", s.Name, render.Criteria(s.Criteria))
	}
	logger.Info("catalog listed", zap.Int("count", catalog.Len()))
}
