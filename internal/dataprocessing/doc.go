// Package dataprocessing turns the raw BalAG, Etab and Score extracts into
// cleaned invoices, per-company aggregates and learning features, and
// computes the descriptive analysis of a cleaned BalAG table.
//
// # Architecture
//
// The package is organized into four components:
//
// 1. Parsing: maps fetched tables to raw domain rows (ParseInvoices,
// ParseEstablishments, ParseScores)
// 2. Cleaning: drops the rows breaking the configured rules, one dimension at
// a time, and reports what each rule removed (Cleaner, CleaningReport)
// 3. Preprocessing: aggregates establishments per company, filters scores and
// joins everything into FeatureRows (PreprocessEtab, PreprocessScores,
// BuildFeatures)
// 4. Analysis: statistics and chart data of the cleaned invoices (Analyzer)
//
// # Usage
//
//	rows, err := dataprocessing.ParseInvoices(table)
//	if err != nil {
//	    return err
//	}
//
//	cleaner := dataprocessing.NewCleaner(validator, logger, metrics)
//	kept, report, err := cleaner.CleanAll(ctx, rows)
//
//	invoices, skipped := dataprocessing.Materialize(kept)
//	analysis, err := dataprocessing.NewAnalyzer(logger).AnalyzeAll(ctx, invoices, dataprocessing.Extracts{})
//	files, err := analysis.Save(dir)
//
// # Data Flow
//
//	Table → RawInvoice → Cleaner → Invoice → BuildFeatures → FeatureRow
//	                                       → Analyzer → Histogram files
//
// # Error Handling
//
// A stage that receives or produces no rows returns an EMPTY_RESULT
// AppError; missing columns are PARSING errors.
package dataprocessing
