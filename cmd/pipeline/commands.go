package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/alchemorsel/pipeline/internal/application/loader"
	feedinfra "github.com/alchemorsel/pipeline/internal/infrastructure/feed"
	"github.com/alchemorsel/pipeline/internal/orchestration"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
)

func workflowOptions(prefix string) temporalclient.StartWorkflowOptions {
	return temporalclient.StartWorkflowOptions{
		ID: fmt.Sprintf("%s-%d", prefix, time.Now().Unix()),
	}
}

func newProcessBatchCmd() *cobra.Command {
	var (
		useModel  bool
		paceMilli int
		parallel  bool
		fanout    int
	)
	cmd := &cobra.Command{
		Use:   "process-batch <csv> <start> <end>",
		Short: "Extract and load a row range of a batch CSV",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := strconv.Atoi(args[1])
			if err != nil {
				return apperrors.NewBadRequestError("start must be an integer")
			}
			end, err := strconv.Atoi(args[2])
			if err != nil {
				return apperrors.NewBadRequestError("end must be an integer")
			}

			// Validate the range up front; the workflow itself only
			// carries the path and the range.
			events, err := feedinfra.ReadCSV(args[0])
			if err != nil {
				return err
			}
			if start < 0 || end > len(events) || start >= end {
				return apperrors.NewBadRequestError(
					fmt.Sprintf("row range [%d, %d) out of bounds for %d rows", start, end, len(events)))
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			c, err := a.workflowClient()
			if err != nil {
				return err
			}

			input := orchestration.BatchInput{
				Source:    args[0],
				Start:     start,
				End:       end,
				UseModel:  useModel,
				PaceMilli: paceMilli,
				Fanout:    fanout,
			}
			workflow := orchestration.ProcessBatchSequential
			if parallel {
				workflow = orchestration.ProcessBatchParallel
			}

			run, err := c.ExecuteWorkflow(cmd.Context(), workflowOptions("process-batch"), workflow, input)
			if err != nil {
				return apperrors.NewServiceUnavailableError("workflow engine", err)
			}
			var summary loader.Summary
			if err := run.Get(cmd.Context(), &summary); err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
	cmd.Flags().BoolVar(&useModel, "model", false, "use the model-assisted parser")
	cmd.Flags().IntVar(&paceMilli, "pace-ms", 0, "milliseconds between extracts (0 = default pacing)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "fan extraction out in concurrent chunks")
	cmd.Flags().IntVar(&fanout, "fanout", 0, "number of concurrent chunks (0 = default)")
	return cmd
}

func newLoadFolderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load-folder",
		Short: "Load every staged file into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			c, err := a.workflowClient()
			if err != nil {
				return err
			}

			run, err := c.ExecuteWorkflow(cmd.Context(), workflowOptions("load-folder"), orchestration.LoadFolder)
			if err != nil {
				return apperrors.NewServiceUnavailableError("workflow engine", err)
			}
			var summary loader.Summary
			if err := run.Get(cmd.Context(), &summary); err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

func newSyncSearchCmd() *cobra.Command {
	var (
		recreate  bool
		batchSize int
	)
	cmd := &cobra.Command{
		Use:   "sync-search",
		Short: "Sync every stored recipe into the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			c, err := a.workflowClient()
			if err != nil {
				return err
			}

			run, err := c.ExecuteWorkflow(cmd.Context(), workflowOptions("sync-search"),
				orchestration.SyncSearch, orchestration.SyncInput{
					Recreate:  recreate,
					BatchSize: batchSize,
				})
			if err != nil {
				return apperrors.NewServiceUnavailableError("workflow engine", err)
			}
			var report outbound.BulkReport
			if err := run.Get(cmd.Context(), &report); err != nil {
				return err
			}
			return printJSON(report)
		},
	}
	cmd.Flags().BoolVar(&recreate, "recreate-index", false, "drop and recreate the index first")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "recipes per sync batch (0 = configured default)")
	return cmd
}

func newReloadRecipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload-recipe <identifier>",
		Short: "Re-index one recipe from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.searchService()
			if err != nil {
				return err
			}
			report, err := svc.SyncOne(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <identifier>",
		Short: "Print one recipe from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			store, err := a.recipeStore()
			if err != nil {
				return err
			}
			r, _, err := store.GetByIdentifier(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(r)
		},
	}
}

func newSearchCmd() *cobra.Command {
	var (
		mode        string
		size        int
		difficulty  string
		cuisineType string
		mealType    string
		maxMinutes  int
	)
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Query the search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			svc, err := a.searchService()
			if err != nil {
				return err
			}
			hits, err := svc.Query(cmd.Context(), outbound.SearchQuery{
				Text: args[0],
				Mode: outbound.SearchMode(mode),
				Filters: outbound.SearchFilters{
					Difficulty:  difficulty,
					CuisineType: cuisineType,
					MealType:    mealType,
					MaxMinutes:  maxMinutes,
				},
				Size: size,
			})
			if err != nil {
				return err
			}
			return printJSON(hits)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "text", "search mode: text, semantic, or hybrid")
	cmd.Flags().IntVar(&size, "size", 10, "number of hits")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "filter by difficulty")
	cmd.Flags().StringVar(&cuisineType, "cuisine", "", "filter by cuisine type")
	cmd.Flags().StringVar(&mealType, "meal", "", "filter by meal type")
	cmd.Flags().IntVar(&maxMinutes, "max-minutes", 0, "filter by maximum total minutes")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			store, err := a.recipeStore()
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}

func newScrapeFeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape-feed",
		Short: "Run one feed poll-and-process cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			c, err := a.workflowClient()
			if err != nil {
				return err
			}

			run, err := c.ExecuteWorkflow(cmd.Context(), workflowOptions("scrape-feed"), orchestration.ScrapeFeed)
			if err != nil {
				return apperrors.NewServiceUnavailableError("workflow engine", err)
			}
			var result orchestration.ScrapeResult
			if err := run.Get(cmd.Context(), &result); err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule <create|pause|unpause|trigger|describe|delete>",
		Short: "Manage the recurring feed schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			c, err := a.workflowClient()
			if err != nil {
				return err
			}
			scheduler := orchestration.NewScheduler(c, a.cfg)

			ctx := cmd.Context()
			switch args[0] {
			case "create":
				return scheduler.Create(ctx)
			case "pause":
				return scheduler.Pause(ctx)
			case "unpause":
				return scheduler.Unpause(ctx)
			case "trigger":
				return scheduler.Trigger(ctx)
			case "describe":
				desc, err := scheduler.Describe(ctx)
				if err != nil {
					return err
				}
				return printJSON(desc)
			case "delete":
				return scheduler.Delete(ctx)
			default:
				return apperrors.NewBadRequestError("unknown schedule action " + args[0])
			}
		},
	}
	return cmd
}
