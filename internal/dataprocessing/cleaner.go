package dataprocessing

import (
	"context"
	"log/slog"

	apperrors "balag/internal/errors"
	"balag/internal/infrastructure"
	"balag/internal/validation"
	"balag/pkg/contracts/domain"
)

// Cleaner drops the BalAG rows that break the enabled cleaning rules
type Cleaner struct {
	validator *validation.Validator
	logger    *slog.Logger
	metrics   *infrastructure.PipelineMetrics
}

// NewCleaner creates a cleaner. A nil metrics records nothing.
func NewCleaner(v *validation.Validator, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		validator: v,
		logger:    logger,
		metrics:   metrics,
	}
}

// rowCheck returns the rules broken by one row
type rowCheck func(r domain.RawInvoice) []validation.Violation

// CleanDates applies the date rules
func (c *Cleaner) CleanDates(ctx context.Context, rows []domain.RawInvoice) ([]domain.RawInvoice, StageReport, error) {
	return c.clean(ctx, validation.DimensionDates, rows, func(r domain.RawInvoice) []validation.Violation {
		return c.validator.ValidateDate(r.IssueDate, r.DueDate, r.LastPaymentDate)
	})
}

// CleanAmounts applies the amount rules
func (c *Cleaner) CleanAmounts(ctx context.Context, rows []domain.RawInvoice) ([]domain.RawInvoice, StageReport, error) {
	return c.clean(ctx, validation.DimensionAmount, rows, func(r domain.RawInvoice) []validation.Violation {
		if v := c.validator.ValidateMontant(r.Amount); v != validation.None {
			return []validation.Violation{v}
		}
		return nil
	})
}

// CleanDisputes drops invoices carrying a disputed amount
func (c *Cleaner) CleanDisputes(ctx context.Context, rows []domain.RawInvoice) ([]domain.RawInvoice, StageReport, error) {
	return c.clean(ctx, validation.DimensionDispute, rows, func(r domain.RawInvoice) []validation.Violation {
		if v := c.validator.ValidateDispute(r.DisputeAmount); v != validation.None {
			return []validation.Violation{v}
		}
		return nil
	})
}

// CleanIDs applies the identifier rules row by row, then drops the companies
// left with fewer bills than the configured minimum.
func (c *Cleaner) CleanIDs(ctx context.Context, rows []domain.RawInvoice) ([]domain.RawInvoice, StageReport, error) {
	kept, report, err := c.clean(ctx, validation.DimensionID, rows, func(r domain.RawInvoice) []validation.Violation {
		return c.validator.ValidateID(r.CompanyID)
	})
	if err != nil {
		return nil, report, err
	}

	rules := c.validator.Config().IDs
	if !rules.MinimalBills {
		return kept, report, nil
	}

	bills := make(map[string]int)
	for _, r := range kept {
		bills[r.CompanyID]++
	}

	out := kept[:0:0]
	dropped := 0
	for _, r := range kept {
		if bills[r.CompanyID] < rules.MinimalBillsNumber {
			dropped++
			continue
		}
		out = append(out, r)
	}

	if dropped > 0 {
		report.PerRule[validation.BillsNumber] += dropped
		report.Removed += dropped
		c.metrics.RowsRemoved(ctx, validation.DimensionID, validation.BillsNumber.String(), dropped)
		c.logger.InfoContext(ctx, "Companies under the minimal bills number removed",
			slog.Int("rows_removed", dropped),
			slog.Int("minimal_bills", rules.MinimalBillsNumber))
	}

	if len(out) == 0 {
		return nil, report, apperrors.NewEmptyResultError("id cleaning")
	}
	return out, report, nil
}

// CleanAll runs every dimension: dates, amounts, disputes and identifiers.
// Identifiers come last so the bills count sees the final table.
func (c *Cleaner) CleanAll(ctx context.Context, rows []domain.RawInvoice) ([]domain.RawInvoice, *CleaningReport, error) {
	report := &CleaningReport{Input: len(rows)}

	stages := []func(context.Context, []domain.RawInvoice) ([]domain.RawInvoice, StageReport, error){
		c.CleanDates,
		c.CleanAmounts,
		c.CleanDisputes,
		c.CleanIDs,
	}

	current := rows
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		kept, stageReport, err := stage(ctx, current)
		report.Stages = append(report.Stages, stageReport)
		if err != nil {
			return nil, report, err
		}
		current = kept
	}

	report.Output = len(current)
	c.logger.InfoContext(ctx, "Cleaning completed",
		slog.Int("rows_before", report.Input),
		slog.Int("rows_after", report.Output),
		slog.Float64("percent_removed", report.Percent()))

	return current, report, nil
}

func (c *Cleaner) clean(ctx context.Context, dimension string, rows []domain.RawInvoice, check rowCheck) ([]domain.RawInvoice, StageReport, error) {
	report := StageReport{
		Dimension: dimension,
		Before:    len(rows),
		PerRule:   make(map[validation.Violation]int),
	}
	if len(rows) == 0 {
		return nil, report, apperrors.NewEmptyResultError(dimension + " cleaning")
	}

	c.logger.DebugContext(ctx, "Starting cleaning", slog.String("dimension", dimension), slog.Int("rows", len(rows)))

	out := make([]domain.RawInvoice, 0, len(rows))
	for _, r := range rows {
		violations := check(r)
		if len(violations) == 0 {
			out = append(out, r)
			continue
		}
		report.Removed++
		for _, v := range violations {
			report.PerRule[v]++
		}
	}

	for rule, n := range report.PerRule {
		c.metrics.RowsRemoved(ctx, dimension, rule.String(), n)
	}

	c.logger.InfoContext(ctx, "Cleaning dimension done",
		slog.String("dimension", dimension),
		slog.Int("rows_removed", report.Removed),
		slog.Float64("percent_removed", report.Percent()))

	if len(out) == 0 {
		return nil, report, apperrors.NewEmptyResultError(dimension + " cleaning")
	}
	return out, report, nil
}
