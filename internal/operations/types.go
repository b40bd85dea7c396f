package operations

import (
	"time"
)

// Step identifiers
const (
	StepIDLoad    = "load"
	StepIDClean   = "clean"
	StepIDEnrich  = "enrich"
	StepIDExport  = "export"
	StepIDAnalyze = "analyze"
)

// Step names
const (
	StepNameLoad    = "Invoice Loading"
	StepNameClean   = "Invoice Cleaning"
	StepNameEnrich  = "Company Enrichment"
	StepNameExport  = "Table Export"
	StepNameAnalyze = "Descriptive Analysis"
)

// Default report file names, relative to the reports directory
const (
	DefaultCleaningReportFile = "reports/cleaning_report.csv"
	DefaultEvaluationFile     = "reports/evaluation.csv"
)

// RetryConfig defines retry behavior for steps failing with a retryable error
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// delay returns how long to wait after the given failed attempt
func (c RetryConfig) delay(attempt int) time.Duration {
	d := c.InitialDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * c.Multiplier)
		if d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}
