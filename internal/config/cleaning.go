package config

import (
	"fmt"
)

// CleaningConfig is the rule set applied by the record validator. Every rule
// has an enable flag and, where relevant, a threshold.
type CleaningConfig struct {
	IDs      IDRules      `yaml:"ids" envconfig:"IDS"`
	Dates    DateRules    `yaml:"dates" envconfig:"DATES"`
	Amounts  AmountRules  `yaml:"amounts" envconfig:"AMOUNTS"`
	Disputes DisputeRules `yaml:"disputes" envconfig:"DISPUTES"`
}

// IDRules configures the company identifier checks
type IDRules struct {
	IntFormat          bool  `yaml:"int_format" envconfig:"INT_FORMAT"`
	MinimalBills       bool  `yaml:"minimal_bills" envconfig:"MINIMAL_BILLS"`
	MinimalBillsNumber int   `yaml:"minimal_bills_number" envconfig:"MINIMAL_BILLS_NUMBER" validate:"gte=0"`
	MinimalID          bool  `yaml:"minimal_id" envconfig:"MINIMAL_ID"`
	MinimalIDValue     int64 `yaml:"minimal_id_value" envconfig:"MINIMAL_ID_VALUE"`
	MaximalID          bool  `yaml:"maximal_id" envconfig:"MAXIMAL_ID"`
	MaximalIDValue     int64 `yaml:"maximal_id_value" envconfig:"MAXIMAL_ID_VALUE"`
}

// DateRules configures the issue / due / last payment date checks
type DateRules struct {
	IssueFormat       bool   `yaml:"issue_format" envconfig:"ISSUE_FORMAT"`
	DueFormat         bool   `yaml:"due_format" envconfig:"DUE_FORMAT"`
	LastPaymentFormat bool   `yaml:"last_payment_format" envconfig:"LAST_PAYMENT_FORMAT"`
	Inconsistent      bool   `yaml:"inconsistent" envconfig:"INCONSISTENT"`
	MonthDiff         bool   `yaml:"month_diff" envconfig:"MONTH_DIFF"`
	MonthDiffValue    int    `yaml:"month_diff_value" envconfig:"MONTH_DIFF_VALUE" validate:"gte=0"`
	MinimalDate       bool   `yaml:"minimal_date" envconfig:"MINIMAL_DATE"`
	MinimalDateValue  string `yaml:"minimal_date_value" envconfig:"MINIMAL_DATE_VALUE" validate:"omitempty,datetime=2006-01-02"`
	MaximalDate       bool   `yaml:"maximal_date" envconfig:"MAXIMAL_DATE"`
	MaximalDateValue  string `yaml:"maximal_date_value" envconfig:"MAXIMAL_DATE_VALUE" validate:"omitempty,datetime=2006-01-02"`
}

// AmountRules configures the invoice amount checks
type AmountRules struct {
	IntFormat    bool  `yaml:"int_format" envconfig:"INT_FORMAT"`
	NonNegative  bool  `yaml:"non_negative" envconfig:"NON_NEGATIVE"`
	NonZero      bool  `yaml:"non_zero" envconfig:"NON_ZERO"`
	Minimal      bool  `yaml:"minimal" envconfig:"MINIMAL"`
	MinimalValue int64 `yaml:"minimal_value" envconfig:"MINIMAL_VALUE"`
	Maximal      bool  `yaml:"maximal" envconfig:"MAXIMAL"`
	MaximalValue int64 `yaml:"maximal_value" envconfig:"MAXIMAL_VALUE"`
}

// DisputeRules configures the dispute amount check
type DisputeRules struct {
	NonZero bool `yaml:"non_zero" envconfig:"NON_ZERO"`
}

// DefaultCleaning returns the rule set used when nothing is configured
func DefaultCleaning() CleaningConfig {
	return CleaningConfig{
		IDs: IDRules{
			IntFormat:          true,
			MinimalBills:       false,
			MinimalBillsNumber: 10,
			MinimalID:          true,
			MinimalIDValue:     1,
			MaximalID:          false,
			MaximalIDValue:     100000000,
		},
		Dates: DateRules{
			IssueFormat:       true,
			DueFormat:         true,
			LastPaymentFormat: false,
			Inconsistent:      true,
			MonthDiff:         false,
			MonthDiffValue:    36,
			MinimalDate:       true,
			MinimalDateValue:  "2010-01-01",
			MaximalDate:       false,
			MaximalDateValue:  "2015-12-31",
		},
		Amounts: AmountRules{
			IntFormat:    true,
			NonNegative:  true,
			NonZero:      true,
			Minimal:      true,
			MinimalValue: 1000,
			Maximal:      true,
			MaximalValue: 500000,
		},
		Disputes: DisputeRules{
			NonZero: false,
		},
	}
}

// Describe lists the cleaning rules, one line each. With all set to false
// only the rules that differ from DefaultCleaning are listed.
func (c CleaningConfig) Describe(all bool) []string {
	def := DefaultCleaning()
	var lines []string

	add := func(changed bool, format string, args ...any) {
		if all || changed {
			lines = append(lines, fmt.Sprintf(format, args...))
		}
	}

	add(c.IDs.IntFormat != def.IDs.IntFormat,
		"ids: int format: %t", c.IDs.IntFormat)
	add(c.IDs.MinimalBills != def.IDs.MinimalBills || c.IDs.MinimalBillsNumber != def.IDs.MinimalBillsNumber,
		"ids: minimal bills number: %s", flagValue(c.IDs.MinimalBills, c.IDs.MinimalBillsNumber))
	add(c.IDs.MinimalID != def.IDs.MinimalID || c.IDs.MinimalIDValue != def.IDs.MinimalIDValue,
		"ids: minimal id: %s", flagValue(c.IDs.MinimalID, c.IDs.MinimalIDValue))
	add(c.IDs.MaximalID != def.IDs.MaximalID || c.IDs.MaximalIDValue != def.IDs.MaximalIDValue,
		"ids: maximal id: %s", flagValue(c.IDs.MaximalID, c.IDs.MaximalIDValue))

	add(c.Dates.IssueFormat != def.Dates.IssueFormat,
		"dates: issue date format: %t", c.Dates.IssueFormat)
	add(c.Dates.DueFormat != def.Dates.DueFormat,
		"dates: due date format: %t", c.Dates.DueFormat)
	add(c.Dates.LastPaymentFormat != def.Dates.LastPaymentFormat,
		"dates: last payment date format: %t", c.Dates.LastPaymentFormat)
	add(c.Dates.Inconsistent != def.Dates.Inconsistent,
		"dates: inconsistent dates: %t", c.Dates.Inconsistent)
	add(c.Dates.MonthDiff != def.Dates.MonthDiff || c.Dates.MonthDiffValue != def.Dates.MonthDiffValue,
		"dates: month gap: %s", flagValue(c.Dates.MonthDiff, c.Dates.MonthDiffValue))
	add(c.Dates.MinimalDate != def.Dates.MinimalDate || c.Dates.MinimalDateValue != def.Dates.MinimalDateValue,
		"dates: minimal date: %s", flagValue(c.Dates.MinimalDate, c.Dates.MinimalDateValue))
	add(c.Dates.MaximalDate != def.Dates.MaximalDate || c.Dates.MaximalDateValue != def.Dates.MaximalDateValue,
		"dates: maximal date: %s", flagValue(c.Dates.MaximalDate, c.Dates.MaximalDateValue))

	add(c.Amounts.IntFormat != def.Amounts.IntFormat,
		"amounts: int format: %t", c.Amounts.IntFormat)
	add(c.Amounts.NonNegative != def.Amounts.NonNegative,
		"amounts: non negative: %t", c.Amounts.NonNegative)
	add(c.Amounts.NonZero != def.Amounts.NonZero,
		"amounts: non zero: %t", c.Amounts.NonZero)
	add(c.Amounts.Minimal != def.Amounts.Minimal || c.Amounts.MinimalValue != def.Amounts.MinimalValue,
		"amounts: minimal value: %s", flagValue(c.Amounts.Minimal, c.Amounts.MinimalValue))
	add(c.Amounts.Maximal != def.Amounts.Maximal || c.Amounts.MaximalValue != def.Amounts.MaximalValue,
		"amounts: maximal value: %s", flagValue(c.Amounts.Maximal, c.Amounts.MaximalValue))

	add(c.Disputes.NonZero != def.Disputes.NonZero,
		"disputes: non zero: %t", c.Disputes.NonZero)

	return lines
}

func flagValue(enabled bool, value any) string {
	if !enabled {
		return "false"
	}
	return fmt.Sprintf("true (%v)", value)
}
