// Copyright 2025 corate Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/corate-io/corate"
	"github.com/corate-io/corate/base/log"
	"github.com/corate-io/corate/base/progress"
	"github.com/corate-io/corate/cmd/version"
	"github.com/corate-io/corate/common/parallel"
	"github.com/corate-io/corate/config"
	"github.com/corate-io/corate/dataset"
	"github.com/corate-io/corate/eval"
	"github.com/corate-io/corate/logics"
	"github.com/corate-io/corate/storage/rating"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const importChunkSize = 1024

var rootCommand = &cobra.Command{
	Use:   "corate",
	Short: "User-based collaborative filtering over explicit ratings.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

var recommendCommand = &cobra.Command{
	Use:   "recommend RATINGS_FILE USER_ID",
	Short: "Recommend top items for a user from a rating file.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, engine, ratings := setup(cmd, args[0])
		defer log.CloseLogger()
		defer engine.Close()
		importRatings(ctx, engine, ratings)
		topN, _ := cmd.Flags().GetInt("top-n")
		recommendations, err := engine.TopN(ctx, args[1], topN)
		if err != nil {
			log.Logger().Fatal("failed to recommend", zap.Error(err))
		}
		table := tablewriter.NewTable(os.Stdout)
		table.Header("#", "Item", "Score", "Confidence", "Source")
		for i, p := range recommendations {
			if err := table.Append([]string{
				strconv.Itoa(i + 1),
				p.ItemId,
				fmt.Sprintf("%.4f", p.Value),
				fmt.Sprintf("%.4f", p.Confidence),
				sourceOf(p),
			}); err != nil {
				log.Logger().Fatal("failed to render", zap.Error(err))
			}
		}
		if err := table.Render(); err != nil {
			log.Logger().Fatal("failed to render", zap.Error(err))
		}
	},
}

var evaluateCommand = &cobra.Command{
	Use:   "evaluate RATINGS_FILE",
	Short: "Measure prediction and ranking quality on a hold-out split.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		defer log.CloseLogger()
		ctx := signalContext()
		cfg := loadConfig(cmd)
		ratings := loadRatings(cmd, args[0])
		train, test, err := dataset.Split(ratings, cfg.Evaluate.TestRatio, cfg.Evaluate.Seed)
		if err != nil {
			log.Logger().Fatal("failed to split dataset", zap.Error(err))
		}
		start := time.Now()
		report, err := eval.Evaluate(ctx, cfg, train, test)
		if err != nil {
			log.Logger().Fatal("failed to evaluate", zap.Error(err))
		}
		log.Logger().Info("evaluation complete",
			zap.Int("train", len(train)), zap.Int("test", len(test)),
			zap.Duration("elapsed", time.Since(start)))
		renderReport(report)
	},
}

var precomputeCommand = &cobra.Command{
	Use:   "precompute RATINGS_FILE",
	Short: "Warm the similarity cache for every pair of users or items.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, engine, ratings := setup(cmd, args[0])
		defer log.CloseLogger()
		defer engine.Close()
		importRatings(ctx, engine, ratings)
		kind, _ := cmd.Flags().GetString("kind")
		start := time.Now()
		tracer := progress.NewTracer("precompute")
		done := make(chan struct{})
		go watchProgress(tracer, done)
		stats, err := engine.Precompute(ctx, rating.Kind(kind), tracer)
		close(done)
		if err != nil {
			log.Logger().Fatal("failed to precompute similarities", zap.Error(err))
		}
		log.Logger().Info("precompute complete",
			zap.String("kind", kind),
			zap.Int("entities", stats.Entities),
			zap.Int("computed", stats.Computed),
			zap.Int("skipped", stats.Skipped),
			zap.Int("undefined", stats.Undefined),
			zap.Duration("elapsed", time.Since(start)))
	},
}

var tuneCommand = &cobra.Command{
	Use:   "tune RATINGS_FILE",
	Short: "Tune the neighborhood knobs against hold-out RMSE.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		defer log.CloseLogger()
		cfg := loadConfig(cmd)
		ratings := loadRatings(cmd, args[0])
		train, test, err := dataset.Split(ratings, cfg.Evaluate.TestRatio, cfg.Evaluate.Seed)
		if err != nil {
			log.Logger().Fatal("failed to split dataset", zap.Error(err))
		}
		result, err := eval.Tune(cfg, train, test)
		if err != nil {
			log.Logger().Fatal("failed to tune", zap.Error(err))
		}
		table := tablewriter.NewTable(os.Stdout)
		table.Header("Metric", "Neighbors", "Min support", "RMSE")
		if err := table.Append([]string{
			result.Metric,
			strconv.Itoa(result.NeighborhoodSize),
			strconv.Itoa(result.MinSupport),
			fmt.Sprintf("%.4f", result.RMSE),
		}); err != nil {
			log.Logger().Fatal("failed to render", zap.Error(err))
		}
		if err := table.Render(); err != nil {
			log.Logger().Fatal("failed to render", zap.Error(err))
		}
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().BoolP("version", "v", false, "corate version")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().String("sep", ",", "field separator of the rating file")
	rootCommand.PersistentFlags().Bool("header", false, "skip the first line of the rating file")
	recommendCommand.Flags().Int("top-n", 10, "number of items to recommend")
	precomputeCommand.Flags().String("kind", "user", "side of the matrix to precompute (user or item)")
	rootCommand.AddCommand(recommendCommand)
	rootCommand.AddCommand(evaluateCommand)
	rootCommand.AddCommand(precomputeCommand)
	rootCommand.AddCommand(tuneCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

func loadConfig(cmd *cobra.Command) *config.Config {
	debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
	log.SetLogger(cmd.Root().PersistentFlags(), debug)
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	if configPath == "" {
		return config.GetDefaultConfig()
	}
	log.Logger().Info("load config", zap.String("config", configPath))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return cfg
}

func loadRatings(cmd *cobra.Command, path string) []rating.Rating {
	sep, _ := cmd.Root().PersistentFlags().GetString("sep")
	hasHeader, _ := cmd.Root().PersistentFlags().GetBool("header")
	ratings, err := dataset.LoadCSV(path, sep, hasHeader)
	if err != nil {
		log.Logger().Fatal("failed to load ratings", zap.Error(err), zap.String("path", path))
	}
	return ratings
}

func setup(cmd *cobra.Command, path string) (context.Context, *corate.Engine, []rating.Rating) {
	cfg := loadConfig(cmd)
	engine, err := corate.NewEngine(cfg)
	if err != nil {
		log.Logger().Fatal("failed to create engine", zap.Error(err))
	}
	return signalContext(), engine, loadRatings(cmd, path)
}

func importRatings(ctx context.Context, engine *corate.Engine, ratings []rating.Rating) {
	bar := progressbar.Default(int64(len(ratings)), "import ratings")
	for _, chunk := range parallel.Split(ratings, (len(ratings)+importChunkSize-1)/importChunkSize) {
		if err := engine.LoadRatings(ctx, chunk); err != nil {
			log.Logger().Fatal("failed to import ratings", zap.Error(err))
		}
		_ = bar.Add(len(chunk))
	}
	_ = bar.Finish()
}

// watchProgress mirrors the tracer's running spans onto a progress bar until
// done is closed.
func watchProgress(tracer *progress.Tracer, done <-chan struct{}) {
	var bar *progressbar.ProgressBar
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			if bar != nil {
				_ = bar.Finish()
			}
			return
		case <-ticker.C:
			for _, p := range tracer.List() {
				if p.Status != progress.StatusRunning {
					continue
				}
				if bar == nil || bar.GetMax() != p.Total {
					bar = progressbar.Default(int64(p.Total), p.Name)
				}
				_ = bar.Set(p.Count)
			}
		}
	}
}

// sourceOf labels where a prediction came from: a prediction without
// contributing neighbors was backfilled by the popularity ranker.
func sourceOf(p logics.Prediction) string {
	if p.Neighbors > 0 {
		return "neighborhood"
	}
	return "popularity"
}

func renderReport(report *eval.Report) {
	table := tablewriter.NewTable(os.Stdout)
	table.Header("Measure", "Value")
	rows := [][]string{
		{"RMSE", fmt.Sprintf("%.4f", report.RMSE)},
		{"MAE", fmt.Sprintf("%.4f", report.MAE)},
		{"Test pairs", strconv.Itoa(report.TestCount)},
		{"Predictable", strconv.Itoa(report.Predictable)},
		{"Cold starts", strconv.Itoa(report.ColdStarts)},
		{fmt.Sprintf("Precision@%d", report.TopK), fmt.Sprintf("%.4f", report.Precision)},
		{fmt.Sprintf("Recall@%d", report.TopK), fmt.Sprintf("%.4f", report.Recall)},
		{"Ranked users", strconv.Itoa(report.RankedUsers)},
		{"Users without relevant items", strconv.Itoa(report.EmptyRelevant)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			log.Logger().Fatal("failed to render", zap.Error(err))
		}
	}
	if err := table.Render(); err != nil {
		log.Logger().Fatal("failed to render", zap.Error(err))
	}
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint
		cancel()
	}()
	return ctx
}
