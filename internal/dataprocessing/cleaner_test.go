package dataprocessing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balag/internal/config"
	apperrors "balag/internal/errors"
	"balag/internal/infrastructure"
	"balag/internal/validation"
	"balag/pkg/contracts/domain"
)

func bill(id, issue, due, last, amount string) domain.RawInvoice {
	return domain.RawInvoice{
		CompanyID:       id,
		IssueDate:       issue,
		DueDate:         due,
		LastPaymentDate: last,
		Amount:          amount,
		DisputeAmount:   "0",
		Currency:        "EUR",
		InsertDate:      StandardInsertDate,
	}
}

func newTestCleaner(t *testing.T, cfg config.CleaningConfig) *Cleaner {
	t.Helper()
	v, err := validation.NewValidator(cfg)
	require.NoError(t, err)
	metrics, err := infrastructure.NewPipelineMetrics(nil)
	require.NoError(t, err)
	return NewCleaner(v, slog.Default(), metrics)
}

func TestCleaner_CleanDates(t *testing.T) {
	cleaner := newTestCleaner(t, config.DefaultCleaning())

	rows := []domain.RawInvoice{
		bill("1", "2012-01-01", "2012-02-01", "2012-02-05", "5000"),
		bill("1", "2012-01-01", "2012-02-01", "2011-03-01", "5000"),
		bill("1", "2012-13-01", "2012-02-01", "", "5000"),
		bill("1", "2009-05-01", "2009-06-01", domain.UnpaidSentinel, "5000"),
		bill("1", "2013-03-01", "2013-04-01", domain.UnpaidSentinel, "5000"),
	}

	kept, report, err := cleaner.CleanDates(context.Background(), rows)
	require.NoError(t, err)

	assert.Len(t, kept, 2)
	assert.Equal(t, validation.DimensionDates, report.Dimension)
	assert.Equal(t, 5, report.Before)
	assert.Equal(t, 3, report.Removed)
	assert.Equal(t, 2, report.After())
	assert.InDelta(t, 60.0, report.Percent(), 1e-9)
	assert.Equal(t, 1, report.PerRule[validation.InconsistentDates])
	assert.Equal(t, 1, report.PerRule[validation.IssueDateFormat])
	assert.Equal(t, 1, report.PerRule[validation.MinimalDate])
}

func TestCleaner_CleanAmounts(t *testing.T) {
	cleaner := newTestCleaner(t, config.DefaultCleaning())

	tests := []struct {
		name   string
		amount string
		want   validation.Violation
	}{
		{name: "valid", amount: "5000", want: validation.None},
		{name: "negative", amount: "-5", want: validation.AmountFormat},
		{name: "not a number", amount: "12.5", want: validation.AmountFormat},
		{name: "under minimum", amount: "500", want: validation.AmountMinimal},
		{name: "over maximum", amount: "600000", want: validation.AmountMaximal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []domain.RawInvoice{
				bill("1", "2012-01-01", "2012-02-01", "", "5000"),
				bill("1", "2012-01-01", "2012-02-01", "", tt.amount),
			}

			kept, report, err := cleaner.CleanAmounts(context.Background(), rows)
			require.NoError(t, err)

			if tt.want == validation.None {
				assert.Len(t, kept, 2)
				assert.Zero(t, report.Removed)
				return
			}
			assert.Len(t, kept, 1)
			assert.Equal(t, 1, report.Removed)
			assert.Equal(t, 1, report.PerRule[tt.want])
		})
	}
}

func TestCleaner_CleanIDs(t *testing.T) {
	cfg := config.DefaultCleaning()
	cfg.IDs.MinimalBills = true
	cfg.IDs.MinimalBillsNumber = 2
	cleaner := newTestCleaner(t, cfg)

	rows := []domain.RawInvoice{
		bill("1", "2012-01-01", "2012-02-01", "", "5000"),
		bill("1", "2012-03-01", "2012-04-01", "", "5000"),
		bill("2", "2012-01-01", "2012-02-01", "", "5000"),
		bill("0", "2012-01-01", "2012-02-01", "", "5000"),
		bill("x", "2012-01-01", "2012-02-01", "", "5000"),
	}

	kept, report, err := cleaner.CleanIDs(context.Background(), rows)
	require.NoError(t, err)

	require.Len(t, kept, 2)
	for _, r := range kept {
		assert.Equal(t, "1", r.CompanyID)
	}
	assert.Equal(t, 3, report.Removed)
	assert.Equal(t, 2, report.PerRule[validation.IDFormat])
	assert.Equal(t, 1, report.PerRule[validation.BillsNumber])
}

func TestCleaner_CleanIDsBillsRuleDisabled(t *testing.T) {
	cleaner := newTestCleaner(t, config.DefaultCleaning())

	rows := []domain.RawInvoice{
		bill("1", "2012-01-01", "2012-02-01", "", "5000"),
		bill("2", "2012-01-01", "2012-02-01", "", "5000"),
	}

	kept, report, err := cleaner.CleanIDs(context.Background(), rows)
	require.NoError(t, err)
	assert.Len(t, kept, 2)
	assert.Zero(t, report.Removed)
}

func TestCleaner_CleanDisputes(t *testing.T) {
	cfg := config.DefaultCleaning()
	cfg.Disputes.NonZero = true
	cleaner := newTestCleaner(t, cfg)

	rows := []domain.RawInvoice{
		bill("1", "2012-01-01", "2012-02-01", "", "5000"),
		bill("1", "2012-01-01", "2012-02-01", "", "5000"),
		bill("1", "2012-01-01", "2012-02-01", "", "5000"),
	}
	rows[1].DisputeAmount = ""
	rows[2].DisputeAmount = "120"

	kept, report, err := cleaner.CleanDisputes(context.Background(), rows)
	require.NoError(t, err)
	assert.Len(t, kept, 2)
	assert.Equal(t, 1, report.PerRule[validation.DisputeNonZero])
}

func TestCleaner_EmptyResults(t *testing.T) {
	cleaner := newTestCleaner(t, config.DefaultCleaning())
	ctx := context.Background()

	tests := []struct {
		name string
		rows []domain.RawInvoice
	}{
		{name: "empty input", rows: nil},
		{name: "every row removed", rows: []domain.RawInvoice{
			bill("1", "2012-01-01", "2012-02-01", "", "-5"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := cleaner.CleanAmounts(ctx, tt.rows)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
			assert.ErrorIs(t, err, apperrors.ErrEmptyTable)
		})
	}
}

func cleaningFixture() []domain.RawInvoice {
	return []domain.RawInvoice{
		bill("1", "2012-01-01", "2012-02-01", "2012-02-05", "5000"),
		bill("1", "2012-02-01", "2012-03-01", "", "15000"),
		bill("1", "2013-05-01", "2013-06-15", "2013-06-01", "2500"),
		bill("2", "2012-01-01", "2012-02-01", "", "5000"),
		bill("2", "2012-01-01", "2011-12-01", "", "5000"),
		bill("3", "2012-01-01", "2012-02-01", "", "5000"),
		bill("3", "2012-01-01", "2012-02-01", "", "600000"),
		bill("4", "2008-01-01", "2008-02-01", "", "5000"),
		bill("-4", "2012-01-01", "2012-02-01", "", "5000"),
	}
}

func TestCleaner_CleanAll(t *testing.T) {
	cfg := config.DefaultCleaning()
	cfg.IDs.MinimalBills = true
	cfg.IDs.MinimalBillsNumber = 2
	cleaner := newTestCleaner(t, cfg)

	kept, report, err := cleaner.CleanAll(context.Background(), cleaningFixture())
	require.NoError(t, err)

	require.Len(t, kept, 3)
	for _, r := range kept {
		assert.Equal(t, "1", r.CompanyID)
	}

	assert.Equal(t, 9, report.Input)
	assert.Equal(t, 3, report.Output)
	assert.Equal(t, 6, report.Removed())
	assert.InDelta(t, 100*6.0/9.0, report.Percent(), 1e-9)

	require.Len(t, report.Stages, 4)
	dims := make([]string, len(report.Stages))
	for i, s := range report.Stages {
		dims[i] = s.Dimension
	}
	assert.Equal(t, []string{
		validation.DimensionDates,
		validation.DimensionAmount,
		validation.DimensionDispute,
		validation.DimensionID,
	}, dims)

	assert.Equal(t, 1, report.Stages[0].PerRule[validation.InconsistentDates])
	assert.Equal(t, 1, report.Stages[0].PerRule[validation.MinimalDate])
	assert.Equal(t, 1, report.Stages[1].PerRule[validation.AmountMaximal])
	assert.Equal(t, 1, report.Stages[3].PerRule[validation.IDFormat])
	assert.Equal(t, 2, report.Stages[3].PerRule[validation.BillsNumber])
}

func TestCleaner_CleanAllIsIdempotent(t *testing.T) {
	configs := map[string]func(*config.CleaningConfig){
		"defaults": func(*config.CleaningConfig) {},
		"bills rule": func(c *config.CleaningConfig) {
			c.IDs.MinimalBills = true
			c.IDs.MinimalBillsNumber = 2
		},
		"every rule": func(c *config.CleaningConfig) {
			c.IDs.MinimalBills = true
			c.IDs.MinimalBillsNumber = 2
			c.IDs.MaximalID = true
			c.IDs.MaximalIDValue = 3
			c.Dates.LastPaymentFormat = true
			c.Dates.MonthDiff = true
			c.Dates.MonthDiffValue = 1
			c.Dates.MaximalDate = true
			c.Disputes.NonZero = true
		},
	}

	for name, mutate := range configs {
		t.Run(name, func(t *testing.T) {
			cfg := config.DefaultCleaning()
			mutate(&cfg)
			cleaner := newTestCleaner(t, cfg)
			ctx := context.Background()

			once, _, err := cleaner.CleanAll(ctx, cleaningFixture())
			require.NoError(t, err)

			twice, report, err := cleaner.CleanAll(ctx, once)
			require.NoError(t, err)

			assert.Equal(t, once, twice)
			assert.Zero(t, report.Removed())
		})
	}
}

func TestCleaner_StagesAreIdempotent(t *testing.T) {
	cfg := config.DefaultCleaning()
	cfg.IDs.MinimalBills = true
	cfg.IDs.MinimalBillsNumber = 2
	cfg.Dates.LastPaymentFormat = true
	cfg.Dates.MaximalDate = true
	cleaner := newTestCleaner(t, cfg)

	stages := map[string]func(context.Context, []domain.RawInvoice) ([]domain.RawInvoice, StageReport, error){
		"dates":    cleaner.CleanDates,
		"amounts":  cleaner.CleanAmounts,
		"disputes": cleaner.CleanDisputes,
		"ids":      cleaner.CleanIDs,
	}

	for name, stage := range stages {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			once, first, err := stage(ctx, cleaningFixture())
			require.NoError(t, err)
			require.NotEmpty(t, once)

			twice, second, err := stage(ctx, once)
			require.NoError(t, err)

			assert.Equal(t, once, twice)
			assert.Zero(t, second.Removed)
			assert.Equal(t, len(once), second.Before)
			assert.Equal(t, len(cleaningFixture())-len(once), first.Removed)
		})
	}
}

func TestCleaner_UnreadableLastPaymentIsUnpaid(t *testing.T) {
	cleaner := newTestCleaner(t, config.DefaultCleaning())
	rows := []domain.RawInvoice{bill("1", "2012-01-01", "2012-02-01", "2012-13-45", "5000")}

	kept, report, err := cleaner.CleanAll(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.Zero(t, report.Removed())

	invoices, skipped := Materialize(kept)
	assert.Zero(t, skipped)
	require.Len(t, invoices, 1)
	assert.False(t, invoices[0].Paid())
	assert.Equal(t, 31, invoices[0].TermDays())
}

func TestCleaner_CleanAllCancelled(t *testing.T) {
	cleaner := newTestCleaner(t, config.DefaultCleaning())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := cleaner.CleanAll(ctx, cleaningFixture())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleaningReport_Rows(t *testing.T) {
	report := &CleaningReport{
		Input:  10,
		Output: 6,
		Stages: []StageReport{
			{
				Dimension: validation.DimensionDates,
				Before:    10,
				Removed:   3,
				PerRule: map[validation.Violation]int{
					validation.MinimalDate:       1,
					validation.InconsistentDates: 2,
				},
			},
			{
				Dimension: validation.DimensionAmount,
				Before:    7,
				Removed:   1,
				PerRule:   map[validation.Violation]int{validation.AmountMaximal: 1},
			},
		},
	}

	rows := report.Rows()
	require.Len(t, rows, 5)

	assert.Equal(t, "inconsistentDates", rows[0].Rule)
	assert.Equal(t, 2, rows[0].Removed)
	assert.InDelta(t, 20.0, rows[0].Percent, 1e-9)
	assert.Equal(t, "minimalDate", rows[1].Rule)
	assert.Equal(t, "total", rows[2].Rule)
	assert.Equal(t, 3, rows[2].Removed)
	assert.Equal(t, validation.DimensionAmount, rows[3].Dimension)
	assert.Equal(t, "maximal", rows[3].Rule)
	assert.Equal(t, 7, rows[4].Before)
}
