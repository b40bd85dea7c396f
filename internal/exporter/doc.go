// Package exporter writes the pipeline outputs.
//
// CSVWriter writes delimited files under the processed data directory (or the
// reports directory for paths starting with "reports/"): the cleaned BalAG
// invoices, the learning feature file and the cleaning report. NewTSVWriter
// produces the tab separated layout the next stages read back.
//
// Histogram and Histogram2D hold the chart data computed by the analysis step.
// They are stored in an analysis run directory as .txt and .hist2d files and
// drawn later by a Renderer:
//
//	renderer := exporter.NewWorkbookRenderer(logger)
//	n, err := exporter.RenderDir(runDir, renderer, logger)
//	if err == nil && n > 0 {
//	    err = renderer.SaveAs(filepath.Join(runDir, "charts.xlsx"))
//	}
package exporter
