package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"balag/internal/app"
	"balag/internal/dataprocessing"
	"balag/internal/exporter"
	"balag/internal/operations"
	"balag/pkg/contracts"
)

func main() {
	remote := flag.Bool("remote", false, "fetch the BalAG extract from the FTPS server (overrides sources.remote)")
	save := flag.Bool("save", false, "write the cleaned invoices and the cleaning report")
	upload := flag.Bool("upload", false, "with -save, also upload the cleaned invoices to the FTPS server")
	analyze := flag.Bool("analyze", false, "compute the descriptive analysis of the cleaned invoices")
	configAll := flag.Bool("config-all", false, "print every cleaning rule, not only the ones differing from the defaults")
	input := flag.String("in", "", "BalAG extract to read (defaults to sources.balag_file)")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.New("cleaner")
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	code := run(application, *remote, *save, *upload, *analyze, *configAll, *input)
	if err := application.Close(context.Background()); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
	os.Exit(code)
}

func run(application *app.Application, remote, save, upload, analyze, configAll bool, input string) int {
	cfg := application.Config
	logger := application.Logger
	if remote {
		cfg.Sources.Remote = true
	}
	if input != "" {
		cfg.Sources.BalAGFile = input
	}

	fmt.Println("Cleaning configuration:")
	for _, line := range cfg.Cleaning.Describe(configAll) {
		fmt.Println("  " + line)
	}

	src, err := application.Source()
	if err != nil {
		logger.Error("Cannot open the BalAG source", slog.String("error", err.Error()))
		return 1
	}

	runner := application.Runner()
	steps := []operations.Step{
		operations.NewLoadInvoicesStep(src, cfg.Sources.BalAGFile, operations.Separator(cfg.Sources.BalAGSeparator), application.OTel.Metrics),
		operations.NewCleanInvoicesStep(application.Cleaner(), logger),
	}
	if save {
		export := operations.NewExportStep(exporter.NewTSVWriter(application.Paths),
			cfg.Sources.CleanedFile, operations.DefaultCleaningReportFile, "")
		if upload {
			sink, err := application.FTP()
			if err != nil {
				logger.Error("Cannot open the FTPS server", slog.String("error", err.Error()))
				return 1
			}
			export.Sink = sink
		}
		steps = append(steps, export)
	}
	if analyze {
		steps = append(steps, operations.NewAnalyzeStep(dataprocessing.NewAnalyzer(logger), application.Paths))
	}
	if err := runner.Add(steps...); err != nil {
		logger.Error("Invalid pipeline", slog.String("error", err.Error()))
		return 1
	}

	ctx, stop := application.SignalContext()
	defer stop()

	state := operations.NewOperationState("clean")
	err = runner.Run(ctx, state)
	printSteps(state, runner.StepIDs())
	if state.Cleaning != nil {
		printReport(state.Cleaning)
	}
	if err != nil {
		logger.ErrorContext(ctx, "Cleaning failed", slog.String("error", err.Error()))
		return 1
	}

	for _, path := range state.Outputs {
		fmt.Println("Written:", path)
	}
	if state.AnalysisDir != "" {
		fmt.Println("Analysis directory:", state.AnalysisDir)
	}
	return 0
}

func printReport(report *dataprocessing.CleaningReport) {
	fmt.Printf("\n%-10s %-22s %10s %10s %8s\n", "dimension", "rule", "before", "removed", "percent")
	for _, row := range report.Rows() {
		fmt.Printf("%-10s %-22s %10d %10d %7.2f%%\n", row.Dimension, row.Rule, row.Before, row.Removed, row.Percent)
	}
	fmt.Printf("\n%d rows read, %d kept, %.2f%% removed\n", report.Input, report.Output, report.Percent())
}

func printSteps(state *operations.OperationState, ids []string) {
	fmt.Println()
	for _, line := range state.Summary(ids) {
		fmt.Println("  " + line)
	}
}
