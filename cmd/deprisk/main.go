// cmd/deprisk/main.go

// Command deprisk runs the full depression-risk data pipeline: fetch the
// survey module extracts, merge and clean them, derive the composite score,
// recode for modeling, and optionally evaluate reference classifiers on
// the result.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"go.uber.org/zap"

	"github.com/rkeller-lab/deprisk/pkg/audit"
	"github.com/rkeller-lab/deprisk/pkg/config"
	"github.com/rkeller-lab/deprisk/pkg/fetch"
	"github.com/rkeller-lab/deprisk/pkg/feature"
	"github.com/rkeller-lab/deprisk/pkg/model"
	"github.com/rkeller-lab/deprisk/pkg/pipeline"
	"github.com/rkeller-lab/deprisk/pkg/train"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Pipeline failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	report := model.NewRunReport()
	logger.Info("Starting pipeline run", zap.String("runID", report.ID))

	store, err := audit.NewStore(cfg.AuditPath(), logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Fetch every module; failures are per-module and recoverable.
	modules := model.DefaultModules()
	fetcher := fetch.NewFetcher(cfg, logger)
	tables := fetcher.FetchAll(ctx, modules, cfg.FetchWorkers, report)

	frames, err := assembleFrames(cfg, logger, modules, tables, report)
	if err != nil {
		return err
	}

	merged, err := pipeline.Merge(model.RespondentKey, frames)
	if err != nil {
		return err
	}

	mergedPath := filepath.Join(cfg.RawDir(), "merged.csv")
	if err := fetch.WriteCSV(merged, mergedPath); err != nil {
		return err
	}

	mergeReport := model.NewStageReport(report.ID, "module_merger", merged.Nrow(), merged.Nrow(),
		fmt.Sprintf("%d modules merged", len(frames)))
	report.AddStage(mergeReport)
	if err := store.RecordStage(mergeReport); err != nil {
		return err
	}
	logger.Info("Modules merged",
		zap.Int("modules", len(frames)),
		zap.Int("respondents", merged.Nrow()),
		zap.String("path", mergedPath))

	// Clean: eligibility and sentinel filtering, composite score, curation.
	cleanRunner := pipeline.NewRunner(pipeline.CleanStages(), store, logger)
	clean, err := cleanRunner.Run(merged, report)
	if err != nil {
		return err
	}

	clean = attachIncomeFeature(cfg, logger, clean)

	cleanPath := filepath.Join(cfg.CleanDir(), "merged_clean.csv")
	if err := fetch.WriteCSV(clean, cleanPath); err != nil {
		return err
	}

	// Recode into the model-ready table.
	modelRunner := pipeline.NewRunner(pipeline.ModelStages(), store, logger)
	modelReady, err := modelRunner.Run(clean, report)
	if err != nil {
		return err
	}

	modelReadyPath := filepath.Join(cfg.CleanDir(), "model_ready.csv")
	if err := fetch.WriteCSV(modelReady, modelReadyPath); err != nil {
		return err
	}

	if err := writeDemoRecovery(cfg, logger, merged, frames); err != nil {
		return err
	}

	if cfg.RunEval {
		if err := evaluate(cfg, logger, modelReadyPath); err != nil {
			return err
		}
	}

	report.Complete()
	logger.Info("Pipeline run completed",
		zap.String("runID", report.ID),
		zap.Strings("modulesFetched", report.ModulesFetched),
		zap.Int("modulesFailed", len(report.ModulesFailed)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Int("rowsRemaining", report.RowsRemaining()),
		zap.Duration("duration", report.Duration))

	return nil
}

// assembleFrames pairs each configured module with its fetched table, or
// with a previously persisted raw CSV when this run's fetch failed. A
// module with neither is skipped with a warning; the merge proceeds with
// fewer columns rather than aborting.
func assembleFrames(
	cfg *config.Config,
	logger *zap.Logger,
	modules []model.SurveyModule,
	tables []fetch.ModuleTable,
	report *model.RunReport,
) ([]pipeline.NamedFrame, error) {
	fetched := make(map[string]fetch.ModuleTable, len(tables))
	for _, t := range tables {
		fetched[t.Module.Name] = t
	}

	frames := make([]pipeline.NamedFrame, 0, len(modules))
	for _, m := range modules {
		if t, ok := fetched[m.Name]; ok {
			frames = append(frames, pipeline.NamedFrame{Name: m.Name, Frame: t.Frame})
			continue
		}

		path := filepath.Join(cfg.RawDir(), m.Name+".csv")
		frame, err := fetch.LoadCSV(path, m.KeyColumn)
		if err != nil {
			logger.Warn("Module skipped in merge",
				zap.String("module", m.Name),
				zap.Error(err))
			report.AddWarning(fmt.Sprintf("module %s absent at merge time: %v", m.Name, err))
			continue
		}

		logger.Info("Using previously persisted module extract",
			zap.String("module", m.Name),
			zap.String("path", path))
		frames = append(frames, pipeline.NamedFrame{Name: m.Name, Frame: frame})
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no module tables available to merge")
	}

	return frames, nil
}

// attachIncomeFeature appends the median-income reference feature when the
// external table is present; its absence is not an error.
func attachIncomeFeature(cfg *config.Config, logger *zap.Logger, clean dataframe.DataFrame) dataframe.DataFrame {
	path := filepath.Join(cfg.ExternalDir(), "income_by_group.csv")
	if _, err := os.Stat(path); err != nil {
		logger.Info("Income reference table not present, skipping feature", zap.String("path", path))
		return clean
	}

	lookup, err := feature.LoadIncomeTable(path)
	if err != nil {
		logger.Warn("Failed to load income reference table", zap.Error(err))
		return clean
	}

	withIncome, err := lookup.Attach(clean)
	if err != nil {
		logger.Warn("Failed to attach income feature", zap.Error(err))
		return clean
	}

	logger.Info("Income feature attached", zap.String("column", feature.MedianIncomeColumn))
	return withIncome
}

// writeDemoRecovery reproduces the filtered table with demographics
// re-attached and writes both the as-filtered and modeling-ready copies.
func writeDemoRecovery(cfg *config.Config, logger *zap.Logger, merged dataframe.DataFrame, frames []pipeline.NamedFrame) error {
	var demo dataframe.DataFrame
	found := false
	for _, f := range frames {
		if f.Name == "DEMO_L" {
			demo = f.Frame
			found = true
			break
		}
	}
	if !found {
		logger.Warn("Demographics module unavailable, skipping recovery outputs")
		return nil
	}

	ul, sl, err := pipeline.RecoverDemo(merged, demo, model.RespondentKey)
	if err != nil {
		return fmt.Errorf("demographic recovery: %w", err)
	}

	ulPath := filepath.Join(cfg.SeqnDemoDir(), "ul_seqn_demo.csv")
	if err := fetch.WriteCSV(ul, ulPath); err != nil {
		return err
	}

	slPath := filepath.Join(cfg.SeqnDemoDir(), "sl_seqn_demo.csv")
	if err := fetch.WriteCSV(sl, slPath); err != nil {
		return err
	}

	logger.Info("Recovery outputs written",
		zap.String("ul", ulPath),
		zap.String("sl", slPath))
	return nil
}

// evaluate runs the reference classifiers over the model-ready table.
func evaluate(cfg *config.Config, logger *zap.Logger, modelReadyPath string) error {
	evaluator := train.NewEvaluator(logger)

	labeledPath := filepath.Join(cfg.CleanDir(), "model_eval.csv")
	if err := evaluator.PrepareLabeled(modelReadyPath, labeledPath); err != nil {
		return fmt.Errorf("label preparation: %w", err)
	}

	results, err := evaluator.Evaluate(labeledPath)
	if err != nil {
		return fmt.Errorf("classifier evaluation: %w", err)
	}

	for _, r := range results {
		logger.Info("Evaluation result",
			zap.String("model", r.Model),
			zap.Float64("accuracy", r.Accuracy))
		fmt.Println(r.Summary)
	}

	return nil
}
