package exporter

import (
	"fmt"
	"log/slog"

	"balag/pkg/contracts/domain"
)

// ReportRow is one line of a cleaning report: the rows a rule removed from
// the rows its dimension received
type ReportRow struct {
	Dimension string
	Rule      string
	Before    int
	Removed   int
	Percent   float64
}

// CleaningReportHeaders lists the cleaning report columns
var CleaningReportHeaders = []string{"dimension", "rule", "rows_before", "rows_removed", "percent_removed"}

// WriteInvoices streams cleaned invoices to filePath in the BalAG column
// layout
func (w *CSVWriter) WriteInvoices(filePath string, invoices []domain.RawInvoice) error {
	stream, err := w.CreateStreamWriter(filePath, domain.InvoiceColumns)
	if err != nil {
		return err
	}

	for i, inv := range invoices {
		if err := stream.WriteRecord(inv.Values()); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write invoice %d: %w", i, err)
		}
	}

	if err := stream.Close(); err != nil {
		return err
	}

	slog.Info("Invoices exported",
		slog.String("file", stream.Path()),
		slog.Int("rows", stream.Rows()))
	return nil
}

// WriteFeatures streams learning rows to filePath in FeatureColumns order
func (w *CSVWriter) WriteFeatures(filePath string, rows []domain.FeatureRow) error {
	stream, err := w.CreateStreamWriter(filePath, domain.FeatureColumns)
	if err != nil {
		return err
	}

	for i, row := range rows {
		if err := stream.WriteRecord(row.Values()); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write feature row %d: %w", i, err)
		}
	}

	if err := stream.Close(); err != nil {
		return err
	}

	slog.Info("Features exported",
		slog.String("file", stream.Path()),
		slog.Int("rows", stream.Rows()))
	return nil
}

// WriteCleaningReport writes one line per cleaning rule
func (w *CSVWriter) WriteCleaningReport(filePath string, rows []ReportRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.Dimension,
			r.Rule,
			fmt.Sprint(r.Before),
			fmt.Sprint(r.Removed),
			formatPercent(r.Percent),
		}
	}
	return w.WriteSimpleCSV(filePath, CleaningReportHeaders, records)
}
