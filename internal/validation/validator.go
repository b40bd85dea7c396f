package validation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"balag/internal/config"
	apperrors "balag/internal/errors"
	"balag/pkg/contracts/domain"
)

// daysPerMonth approximates a month for the month gap rule
const daysPerMonth = 30.45

// Validator checks invoice fields against a fixed cleaning rule set.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	cfg     config.CleaningConfig
	minDate time.Time
	maxDate time.Time
}

// NewValidator parses the threshold dates of cfg once
func NewValidator(cfg config.CleaningConfig) (*Validator, error) {
	v := &Validator{cfg: cfg}

	if cfg.Dates.MinimalDate {
		d, ok := ParseDate(cfg.Dates.MinimalDateValue)
		if !ok {
			return nil, apperrors.NewConfigError("invalid minimal date threshold", nil).
				WithContext("value", cfg.Dates.MinimalDateValue)
		}
		v.minDate = d
	}

	if cfg.Dates.MaximalDate {
		d, ok := ParseDate(cfg.Dates.MaximalDateValue)
		if !ok {
			return nil, apperrors.NewConfigError("invalid maximal date threshold", nil).
				WithContext("value", cfg.Dates.MaximalDateValue)
		}
		v.maxDate = d
	}

	return v, nil
}

// Config returns the rule set the validator was built with
func (v *Validator) Config() config.CleaningConfig {
	return v.cfg
}

// ValidateDate returns the date rules broken by an issue / due / last payment
// triple. An empty or sentinel last payment date means the invoice is unpaid.
func (v *Validator) ValidateDate(issue, due, lastPayment string) []Violation {
	rules := v.cfg.Dates
	var result []Violation

	d0, ok0 := ParseDate(issue)
	if !ok0 && rules.IssueFormat {
		result = append(result, IssueDateFormat)
	}
	d1, ok1 := ParseDate(due)
	if !ok1 && rules.DueFormat {
		result = append(result, DueDateFormat)
	}

	absent := lastPayment == "" || lastPayment == domain.UnpaidSentinel
	d2, ok2 := ParseDate(lastPayment)
	if !absent && !ok2 && rules.LastPaymentFormat {
		result = append(result, LastPaymentFormat)
	}

	if !ok0 || !ok1 {
		return result
	}

	if rules.Inconsistent {
		if d0.After(d1) || (ok2 && d0.After(d2)) {
			result = append(result, InconsistentDates)
		}
	}

	if rules.MonthDiff {
		gap := rules.MonthDiffValue
		if NbMonthsBetweenDates(d0, d1) > gap || (ok2 && NbMonthsBetweenDates(d0, d2) > gap) {
			result = append(result, MonthDiff)
		}
	}

	if rules.MinimalDate && d0.Before(v.minDate) {
		result = append(result, MinimalDate)
	}

	if rules.MaximalDate && d0.After(v.maxDate) {
		result = append(result, MaximalDate)
	}

	return result
}

// ValidateMontant returns the first amount rule broken by the raw amount,
// or None
func (v *Validator) ValidateMontant(raw string) Violation {
	rules := v.cfg.Amounts

	amount, ok := CheckIntFormat(raw, false, false)
	if rules.IntFormat {
		if _, valid := CheckIntFormat(raw, rules.NonNegative, rules.NonZero); !valid {
			return AmountFormat
		}
	}
	if !ok {
		return None
	}

	return v.checkAmountBounds(amount)
}

func (v *Validator) checkAmountBounds(amount int64) Violation {
	rules := v.cfg.Amounts
	if rules.Minimal && amount < rules.MinimalValue {
		return AmountMinimal
	}
	if rules.Maximal && amount > rules.MaximalValue {
		return AmountMaximal
	}
	return None
}

// ValidateID returns the identifier rules broken by a raw company id.
// The bills number rule needs the whole table and is applied by the cleaner.
func (v *Validator) ValidateID(raw string) []Violation {
	rules := v.cfg.IDs

	id, ok := CheckIntFormat(raw, false, false)
	if rules.IntFormat && (!ok || id <= 0) {
		return []Violation{IDFormat}
	}
	if !ok {
		return nil
	}

	var result []Violation
	if rules.MinimalID && id < rules.MinimalIDValue {
		result = append(result, IDMinimal)
	}
	if rules.MaximalID && id > rules.MaximalIDValue {
		result = append(result, IDMaximal)
	}
	return result
}

// ValidateDispute flags invoices carrying a disputed amount. An empty field
// counts as no dispute.
func (v *Validator) ValidateDispute(raw string) Violation {
	if !v.cfg.Disputes.NonZero {
		return None
	}
	if strings.TrimSpace(raw) == "" {
		return None
	}
	amount, ok := CheckIntFormat(raw, false, false)
	if !ok || amount != 0 {
		return DisputeNonZero
	}
	return None
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, bool) {
	d, err := time.Parse(domain.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// NbMonthsBetweenDates returns the number of whole months between a and b,
// in either order
func NbMonthsBetweenDates(a, b time.Time) int {
	days := math.Abs(domain.DaysBetween(a, b))
	return int(days / daysPerMonth)
}

// CheckIntFormat parses raw as an integer and checks its sign constraints
func CheckIntFormat(raw string, nonNegative, nonZero bool) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	if nonNegative && n < 0 {
		return n, false
	}
	if nonZero && n == 0 {
		return n, false
	}
	return n, true
}
