package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"koafrail/adapters/excel"
	"koafrail/adapters/model"
	"koafrail/app"
	"koafrail/domain/core"
	"koafrail/domain/risk"
	"koafrail/internal/config"
	"koafrail/internal/testkit"
	"koafrail/ports"
)

func main() {
	// .env keeps local runs consistent with the servers
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "koafrail-batch",
		Short: "Batch tooling for the frailty risk model: score, generate, evaluate",
	}

	rootCmd.AddCommand(
		newScoreCmd(),
		newGenerateCmd(),
		newEvaluateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newScoreCmd() *cobra.Command {
	var out string
	var workers int
	var modelFile string

	cmd := &cobra.Command{
		Use:   "score [cohort-file]",
		Short: "Score a cohort workbook and write a results report",
		Long: `Score every patient row of a .xlsx or .csv cohort file.

The input needs a header row with the clinical feature keys and one patient
per row. Rows that fail validation are reported per row and never abort the
run. The report carries a Results sheet with per-row predictions and a
Summary sheet with cohort statistics.

Example: koafrail-batch score cohort.xlsx --out cohort_scored.xlsx --workers 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.Context(), args[0], out, modelFile, workers)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output workbook path (default: <input>_scored.xlsx)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent scoring workers (0 = BATCH_WORKERS or 8)")
	cmd.Flags().StringVar(&modelFile, "model", "", "Model artifact file (default: MODEL_FILE or the embedded artifact)")

	return cmd
}

func newGenerateCmd() *cobra.Command {
	var rows int
	var seed int64
	var invalidRate float64
	var labeled bool
	var modelFile string

	cmd := &cobra.Command{
		Use:   "generate [output-file]",
		Short: "Write a synthetic cohort workbook from the seeded generator",
		Long: `Generate a synthetic KOA cohort for demos and evaluation.

The same seed always produces the same cohort. With --labeled each row gets
an observed frailty outcome drawn from the model's own predicted
probability, which makes the output usable with evaluate.

Example: koafrail-batch generate cohort.xlsx --rows 500 --seed 42 --labeled`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args[0], rows, seed, invalidRate, labeled, modelFile)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 200, "Number of patient rows")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic output")
	cmd.Flags().Float64Var(&invalidRate, "invalid-rate", 0, "Fraction of rows corrupted for validation testing")
	cmd.Flags().BoolVar(&labeled, "labeled", false, "Attach frailty labels drawn from the model probability")
	cmd.Flags().StringVar(&modelFile, "model", "", "Model artifact used for labeling (default: MODEL_FILE or the embedded artifact)")

	return cmd
}

func newEvaluateCmd() *cobra.Command {
	var modelFile string

	cmd := &cobra.Command{
		Use:   "evaluate [labeled-cohort-file]",
		Short: "Measure discrimination and calibration against observed outcomes",
		Long: `Evaluate the model against a labeled cohort (a frail column of 0/1
outcomes): AUC, Brier score, a Hosmer-Lemeshow test and the per-bin
calibration table.

Example: koafrail-batch evaluate cohort.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), args[0], modelFile)
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "Model artifact file (default: MODEL_FILE or the embedded artifact)")

	return cmd
}

func runScore(ctx context.Context, in, out, modelFile string, workers int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if modelFile == "" {
		modelFile = cfg.Model.File
	}
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}
	if out == "" {
		out = defaultOutPath(in, "_scored")
	}

	scorer, err := buildScorer(modelFile)
	if err != nil {
		return err
	}

	reader := excel.NewCohortFileReader(excel.DefaultReaderConfig())
	cohort, err := reader.Read(in)
	if err != nil {
		return err
	}

	svc := app.NewBatchService(scorer, workers)
	report, err := svc.ScoreCohort(ctx, cohort)
	if err != nil {
		return err
	}

	writer := excel.NewReportFileWriter()
	if err := writer.Write(out, report); err != nil {
		return err
	}

	printReport(report)
	fmt.Printf("\nReport written to %s\n", out)
	return nil
}

func runGenerate(out string, rows int, seed int64, invalidRate float64, labeled bool, modelFile string) error {
	genConfig := testkit.DefaultCohortConfig()
	genConfig.RowCount = rows
	genConfig.Seed = seed
	genConfig.InvalidRate = invalidRate
	gen := testkit.NewCohortGenerator(genConfig)

	var cohort *ports.Cohort
	if labeled {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if modelFile == "" {
			modelFile = cfg.Model.File
		}
		scorer, err := buildScorer(modelFile)
		if err != nil {
			return err
		}
		cohort, err = gen.GenerateLabeled(scorer)
		if err != nil {
			return err
		}
	} else {
		cohort = gen.Generate()
	}

	writer := excel.NewReportFileWriter()
	if err := writer.WriteCohort(out, cohort); err != nil {
		return err
	}

	fmt.Printf("Generated %d rows (seed %d) into %s\n", len(cohort.Rows), seed, out)
	if labeled {
		positives := 0
		for _, row := range cohort.Rows {
			if row.Label != nil && *row.Label == 1 {
				positives++
			}
		}
		fmt.Printf("Labels: %d frail, %d robust\n", positives, len(cohort.Rows)-positives)
	}
	return nil
}

func runEvaluate(ctx context.Context, in, modelFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if modelFile == "" {
		modelFile = cfg.Model.File
	}

	scorer, err := buildScorer(modelFile)
	if err != nil {
		return err
	}

	reader := excel.NewCohortFileReader(excel.DefaultReaderConfig())
	cohort, err := reader.Read(in)
	if err != nil {
		return err
	}
	if !cohort.Labeled() {
		return fmt.Errorf("%w: %s needs a frail column of 0/1 outcomes", core.ErrNoLabels, in)
	}

	svc := app.NewCalibrationService(scorer)
	report, err := svc.Evaluate(ctx, cohort)
	if err != nil {
		return err
	}

	printCalibration(report)
	return nil
}

// buildScorer loads the artifact at path, or the embedded default when empty
func buildScorer(path string) (ports.Scorer, error) {
	artifact, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	return model.NewLinearScorer(artifact)
}

// defaultOutPath derives the report path from the input name. Reports are
// always workbooks, so .csv inputs switch extension.
func defaultOutPath(in, suffix string) string {
	ext := filepath.Ext(in)
	base := strings.TrimSuffix(in, ext)
	if ext == "" || strings.EqualFold(ext, ".csv") {
		ext = ".xlsx"
	}
	return base + suffix + ext
}

func printReport(report *ports.CohortReport) {
	s := report.Summary
	fmt.Printf("\n=== COHORT SCORING RESULTS ===\n")
	fmt.Printf("Source: %s\n", report.Source)
	fmt.Printf("Cohort Hash: %s\n", report.Hash)
	fmt.Printf("Model: %s (%s)\n", report.Model.Version, report.Model.Hash.Short())
	fmt.Printf("Rows: %d (%d scored, %d invalid)\n", s.Total, s.Valid, s.Invalid)

	if s.Valid > 0 {
		fmt.Printf("\nProbability: mean %.4f | median %.4f | p25 %.4f | p75 %.4f | min %.4f | max %.4f\n",
			s.MeanProbability, s.MedianProbability, s.P25, s.P75, s.MinProbability, s.MaxProbability)
		fmt.Printf("Tiers: %d high | %d medium | %d low\n",
			s.TierCounts[risk.TierHigh], s.TierCounts[risk.TierMedium], s.TierCounts[risk.TierLow])
	}

	if s.Invalid > 0 {
		fmt.Printf("\nInvalid rows:\n")
		shown := 0
		for _, res := range report.Results {
			if res.Valid() {
				continue
			}
			fmt.Printf("  row %d: %s\n", res.Row.Index, res.Problems.Error())
			shown++
			if shown == 5 {
				break
			}
		}
		if s.Invalid > 5 {
			fmt.Printf("  ... and %d more\n", s.Invalid-5)
		}
	}
}

func printCalibration(report *app.CalibrationReport) {
	fmt.Printf("\n=== MODEL EVALUATION ===\n")
	fmt.Printf("Model: %s (%s)\n", report.Model.Version, report.Model.Hash.Short())
	fmt.Printf("N: %d (%d rows skipped for validation failures)\n", report.N, report.Skipped)
	fmt.Printf("Prevalence: %.3f\n", report.Prevalence)

	fmt.Printf("\nAUC: %.4f\n", report.AUC)
	fmt.Printf("Brier: %.4f\n", report.Brier)
	fmt.Printf("Hosmer-Lemeshow: chi2 %.3f on %d df, p = %.4f\n",
		report.HLChiSquare, report.HLDegrees, report.HLPValue)

	fmt.Printf("\n=== CALIBRATION TABLE ===\n")
	fmt.Printf("%-6s %-12s %-10s %-10s\n", "n", "predicted", "observed", "rate")
	for _, bin := range report.Bins {
		fmt.Printf("%-6d %-12.4f %-10d %-10.4f\n", bin.N, bin.MeanPredicted, bin.Observed, bin.ObservedRate)
	}
}
