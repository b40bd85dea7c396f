package dataprocessing

import (
	"balag/internal/exporter"
	"balag/internal/validation"
)

// StageReport counts what one cleaning dimension removed. A row breaking
// several rules counts once in Removed and once per rule in PerRule.
type StageReport struct {
	Dimension string
	Before    int
	Removed   int
	PerRule   map[validation.Violation]int
}

// After returns the number of rows kept
func (s StageReport) After() int {
	return s.Before - s.Removed
}

// Percent returns the share of rows removed, in percent
func (s StageReport) Percent() float64 {
	return percentOf(s.Removed, s.Before)
}

// CleaningReport aggregates the stages of a full cleaning run
type CleaningReport struct {
	Input  int
	Output int
	Stages []StageReport
}

// Removed returns the number of rows dropped over all stages
func (r *CleaningReport) Removed() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Removed
	}
	return n
}

// Percent returns the share of input rows removed, in percent
func (r *CleaningReport) Percent() float64 {
	return percentOf(r.Removed(), r.Input)
}

// Rows flattens the report for export: one line per broken rule, then a
// total line per stage
func (r *CleaningReport) Rows() []exporter.ReportRow {
	var out []exporter.ReportRow
	for _, s := range r.Stages {
		for _, v := range validation.AllViolations() {
			n, ok := s.PerRule[v]
			if !ok || n == 0 {
				continue
			}
			out = append(out, exporter.ReportRow{
				Dimension: s.Dimension,
				Rule:      v.String(),
				Before:    s.Before,
				Removed:   n,
				Percent:   percentOf(n, s.Before),
			})
		}
		out = append(out, exporter.ReportRow{
			Dimension: s.Dimension,
			Rule:      "total",
			Before:    s.Before,
			Removed:   s.Removed,
			Percent:   s.Percent(),
		})
	}
	return out
}

func percentOf(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
