package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"balag/internal/app"
	"balag/internal/exporter"
	"balag/pkg/contracts"
)

func main() {
	dir := flag.String("dir", "", "analysis directory to render (defaults to the latest one)")
	out := flag.String("out", "", "workbook to write (defaults to <dir>/charts.xlsx)")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	application, err := app.New("charts")
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	code := run(application, *dir, *out)
	if err := application.Close(context.Background()); err != nil {
		slog.Error("Shutdown failed", "error", err)
	}
	os.Exit(code)
}

func run(application *app.Application, dir, out string) int {
	logger := application.Logger

	if dir == "" {
		last, err := application.Paths.LastAnalysisDir()
		if err != nil {
			logger.Error("No analysis to render", slog.String("error", err.Error()))
			return 1
		}
		dir = last
	}
	if out == "" {
		out = filepath.Join(dir, "charts.xlsx")
	}

	renderer := exporter.NewWorkbookRenderer(logger)
	n, err := exporter.RenderDir(dir, renderer, logger)
	if err != nil {
		logger.Error("Rendering failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return 1
	}
	if err := renderer.SaveAs(out); err != nil {
		logger.Error("Cannot save the workbook", slog.String("file", out), slog.String("error", err.Error()))
		return 1
	}

	fmt.Printf("%d charts rendered from %s\n", n, dir)
	for _, sheet := range renderer.Sheets() {
		fmt.Println("  " + sheet)
	}
	fmt.Println("Written:", out)
	return 0
}
