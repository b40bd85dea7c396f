package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"balag/internal/app"
	"balag/internal/evaluation"
	"balag/internal/exporter"
	"balag/internal/operations"
	"balag/pkg/contracts"
)

func main() {
	features := flag.String("features", "", "comma separated feature columns (defaults to evaluation.features)")
	sampling := flag.String("sampling", "", "sampling strategy: random or balanced")
	train := flag.Float64("train", 0, "share of the samples used for training")
	seed := flag.Uint64("seed", 0, "random seed of the split (defaults to evaluation.seed)")
	threshold := flag.Float64("threshold", 0, "predictions above it are classified paid")
	input := flag.String("in", "", "feature file (defaults to sources.features_file)")
	out := flag.String("out", operations.DefaultEvaluationFile, "where to write the metrics")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.New("evaluate")
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	cfg := &application.Config.Evaluation
	if *features != "" {
		cfg.Features = strings.Split(*features, ",")
	}
	if *sampling != "" {
		cfg.Sampling = *sampling
	}
	if *train > 0 {
		cfg.TrainFraction = *train
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Seed = *seed
		case "threshold":
			cfg.Threshold = *threshold
		}
	})

	code := run(application, *input, *out)
	if err := application.Close(context.Background()); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
	os.Exit(code)
}

func run(application *app.Application, input, out string) int {
	cfg := application.Config
	logger := application.Logger

	if input == "" {
		input = application.Paths.GetProcessedPath(cfg.Sources.FeaturesFile)
	}
	f, err := os.Open(input)
	if err != nil {
		logger.Error("Cannot open the feature file", slog.String("file", input), slog.String("error", err.Error()))
		return 1
	}
	data, dropped, err := evaluation.LoadDataset(f, cfg.Evaluation.Features)
	f.Close()
	if err != nil {
		logger.Error("Cannot load the dataset", slog.String("file", input), slog.String("error", err.Error()))
		return 1
	}
	logger.Info("Dataset loaded",
		slog.Int("samples", data.Len()),
		slog.Int("positives", data.Positives()),
		slog.Int("dropped", dropped),
		slog.Any("features", data.Columns))

	sampler, err := evaluation.NewSampler(cfg.Evaluation)
	if err != nil {
		logger.Error("Invalid sampling", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := application.SignalContext()
	defer stop()

	models := evaluation.NewModels(cfg.Evaluation)
	results, err := evaluation.Evaluate(ctx, models, data, sampler, cfg.Evaluation.Threshold)
	if err != nil {
		logger.ErrorContext(ctx, "Evaluation failed", slog.String("error", err.Error()))
		return 1
	}

	fmt.Printf("%d samples (%d paid), features %s, %s sampling\n\n",
		data.Len(), data.Positives(), strings.Join(data.Columns, ","), sampler.Name())
	fmt.Printf("%-22s %7s %7s %7s %10s %10s %9s\n", "model", "train", "test", "errors", "mean err", "mae", "accuracy")
	records := make([][]string, 0, len(results))
	for _, m := range results {
		fmt.Printf("%-22s %7d %7d %7d %10.4f %10.4f %8.2f%%\n",
			m.Model, m.Train, m.Test, m.Errors, m.MeanError, m.MAE, 100*m.Accuracy())
		records = append(records, m.Record())
	}

	printCoefficients(models, data.Columns)

	writer := exporter.NewCSVWriter(application.Paths)
	if err := writer.WriteSimpleCSV(out, evaluation.MetricsHeaders, records); err != nil {
		logger.Error("Cannot write the metrics", slog.String("file", out), slog.String("error", err.Error()))
		return 1
	}
	fmt.Println("\nWritten:", writer.Path(out))
	return 0
}

func printCoefficients(models []evaluation.Model, columns []string) {
	for _, m := range models {
		linear, ok := m.(evaluation.Linear)
		if !ok {
			continue
		}
		coef := linear.Coefficients()
		if len(coef) != len(columns)+1 {
			continue
		}
		parts := []string{fmt.Sprintf("intercept=%.4f", coef[0])}
		for i, c := range columns {
			parts = append(parts, fmt.Sprintf("%s=%.4f", c, coef[i+1]))
		}
		fmt.Printf("\n%s: %s", m.Name(), strings.Join(parts, " "))
	}
	fmt.Println()
}
