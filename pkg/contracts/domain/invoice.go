package domain

import (
	"math"
	"time"
)

// DateLayout is the layout of every date column in the BalAG extracts
const DateLayout = "2006-01-02"

// UnpaidSentinel marks an invoice without any recorded payment
const UnpaidSentinel = "0000-00-00"

// BalAG column names
const (
	ColCompanyID       = "entrep_id"
	ColIssueDate       = "datePiece"
	ColDueDate         = "dateEcheance"
	ColLastPaymentDate = "dateDernierPaiement"
	ColAmount          = "montantPieceEur"
	ColDisputeAmount   = "montantLitige"
	ColCurrency        = "devise"
	ColInsertDate      = "dateInsert"
)

// InvoiceColumns lists the BalAG columns in file order
var InvoiceColumns = []string{
	ColCompanyID,
	ColIssueDate,
	ColDueDate,
	ColLastPaymentDate,
	ColAmount,
	ColDisputeAmount,
	ColCurrency,
	ColInsertDate,
}

// RawInvoice is one BalAG row exactly as it was read from the extract.
// Validation works on these strings so malformed values can be reported
// as violations instead of failing the load.
type RawInvoice struct {
	CompanyID       string `json:"entrep_id"`
	IssueDate       string `json:"datePiece"`
	DueDate         string `json:"dateEcheance"`
	LastPaymentDate string `json:"dateDernierPaiement"`
	Amount          string `json:"montantPieceEur"`
	DisputeAmount   string `json:"montantLitige"`
	Currency        string `json:"devise"`
	InsertDate      string `json:"dateInsert"`
}

// Paid reports whether a last-payment date was recorded
func (r RawInvoice) Paid() bool {
	return r.LastPaymentDate != "" && r.LastPaymentDate != UnpaidSentinel
}

// Values returns the row in InvoiceColumns order
func (r RawInvoice) Values() []string {
	return []string{
		r.CompanyID,
		r.IssueDate,
		r.DueDate,
		r.LastPaymentDate,
		r.Amount,
		r.DisputeAmount,
		r.Currency,
		r.InsertDate,
	}
}

// Invoice is a cleaned, typed BalAG row
type Invoice struct {
	CompanyID       int64      `json:"entrep_id"`
	IssueDate       time.Time  `json:"datePiece"`
	DueDate         time.Time  `json:"dateEcheance"`
	LastPaymentDate *time.Time `json:"dateDernierPaiement,omitempty"`
	Amount          int64      `json:"montantPieceEur"`
	DisputeAmount   int64      `json:"montantLitige"`
	Currency        string     `json:"devise"`
	InsertDate      string     `json:"dateInsert"`
}

// Paid reports whether the invoice has a last-payment date
func (i Invoice) Paid() bool {
	return i.LastPaymentDate != nil
}

// TermDays is the payment term granted, in days between issue and due date
func (i Invoice) TermDays() int {
	return daysBetween(i.IssueDate, i.DueDate)
}

// PaymentDelayDays is the number of days between issue and last payment.
// The second value is false for unpaid invoices.
func (i Invoice) PaymentDelayDays() (int, bool) {
	if i.LastPaymentDate == nil {
		return 0, false
	}
	return daysBetween(i.IssueDate, *i.LastPaymentDate), true
}

// Year is the fiscal year used to join scores
func (i Invoice) Year() int {
	return i.IssueDate.Year()
}

// LogAmount returns log10(|amount|), or -Inf for a zero amount
func (i Invoice) LogAmount() float64 {
	return math.Log10(math.Abs(float64(i.Amount)))
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(DaysBetween(from, to)))
}

// DaysBetween returns the signed number of days from from to to. It counts
// Unix seconds so gaps beyond the range of time.Duration stay exact.
func DaysBetween(from, to time.Time) float64 {
	return float64(to.Unix()-from.Unix()) / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60
