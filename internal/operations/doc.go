// Package operations runs the BalAG pipeline as an ordered list of steps.
//
// A Runner executes its steps one after the other against a shared
// OperationState, which carries the tables each step produces for the next
// one. Every step runs inside its own OpenTelemetry span and its duration is
// recorded on the pipeline metrics.
//
// Steps:
//
// LoadInvoicesStep: fetches the BalAG extract and parses it into raw invoices.
//
// CleanInvoicesStep: applies the cleaning rules and converts the kept rows
// into typed invoices.
//
// EnrichStep: fetches the Etab and Score extracts concurrently, preprocesses
// them and joins them with the invoices into learning rows.
//
// ExportStep: writes the cleaned invoices, the cleaning report and the
// learning rows, and uploads the cleaned invoices to a remote sink when one
// is configured.
//
// AnalyzeStep: computes the descriptive analysis and saves its charts into a
// fresh analysis directory.
//
// Example usage:
//
//	runner := operations.NewRunner(logger, providers.Tracer, providers.Metrics)
//	err := runner.Add(
//		operations.NewLoadInvoicesStep(src, cfg.Sources.BalAGFile, '\t', providers.Metrics),
//		operations.NewCleanInvoicesStep(cleaner, logger),
//		operations.NewAnalyzeStep(analyzer, paths),
//	)
//
//	state := operations.NewOperationState(runID)
//	if err := runner.Run(ctx, state); err != nil {
//		return err
//	}
package operations
