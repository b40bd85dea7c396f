package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"balag/internal/app"
	"balag/internal/dataprocessing"
	"balag/internal/exporter"
	"balag/internal/operations"
	"balag/pkg/contracts"
)

func main() {
	remote := flag.Bool("remote", false, "fetch the extracts from the FTPS server (overrides sources.remote)")
	today := flag.String("today", "", "reference date for company ages, YYYY-MM-DD (defaults to today)")
	keepCleaned := flag.Bool("cleaned", false, "also write the cleaned invoices and the cleaning report")
	analyze := flag.Bool("analyze", false, "also analyze the invoices against the establishment and score extracts")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.New("preprocess")
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	code := run(application, *remote, *today, *keepCleaned, *analyze)
	if err := application.Close(context.Background()); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
	os.Exit(code)
}

func run(application *app.Application, remote bool, today string, keepCleaned, analyze bool) int {
	cfg := application.Config
	logger := application.Logger
	if remote {
		cfg.Sources.Remote = true
	}

	ref := time.Now()
	if today != "" {
		t, err := time.Parse(time.DateOnly, today)
		if err != nil {
			logger.Error("Invalid reference date", slog.String("today", today), slog.String("error", err.Error()))
			return 1
		}
		ref = t
	}

	src, err := application.Source()
	if err != nil {
		logger.Error("Cannot open the data source", slog.String("error", err.Error()))
		return 1
	}

	cleanedFile, reportFile := "", ""
	if keepCleaned {
		cleanedFile, reportFile = cfg.Sources.CleanedFile, operations.DefaultCleaningReportFile
	}

	metrics := application.OTel.Metrics
	runner := application.Runner()
	steps := []operations.Step{
		operations.NewLoadInvoicesStep(src, cfg.Sources.BalAGFile, operations.Separator(cfg.Sources.BalAGSeparator), metrics),
		operations.NewCleanInvoicesStep(application.Cleaner(), logger),
		operations.NewEnrichStep(src, cfg.Sources, ref, logger, metrics),
		operations.NewExportStep(exporter.NewTSVWriter(application.Paths), cleanedFile, reportFile, cfg.Sources.FeaturesFile),
	}
	if analyze {
		step := operations.NewAnalyzeStep(dataprocessing.NewAnalyzer(logger), application.Paths)
		step.ScoreFilter = dataprocessing.NewScoreFilter(cfg.Sources, nil)
		steps = append(steps, step)
	}
	if err := runner.Add(steps...); err != nil {
		logger.Error("Invalid pipeline", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := application.SignalContext()
	defer stop()

	state := operations.NewOperationState("preprocess")
	err = runner.Run(ctx, state)
	for _, line := range state.Summary(runner.StepIDs()) {
		fmt.Println("  " + line)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Preprocessing failed", slog.String("error", err.Error()))
		return 1
	}

	fmt.Printf("%d invoices kept, %d companies, %d scores\n", len(state.Invoices), len(state.Companies), len(state.Scores))
	fmt.Printf("%d feature rows (%d invoices without company, %d without score)\n",
		len(state.Features), state.Join.MissingCompany, state.Join.MissingScore)
	for _, path := range state.Outputs {
		fmt.Println("Written:", path)
	}
	if state.AnalysisDir != "" {
		fmt.Println("Analysis directory:", state.AnalysisDir)
	}
	return 0
}
