package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "balag/internal/errors"
	"balag/internal/sources"
	"balag/internal/validation"
	"balag/pkg/contracts/domain"
)

// requiredInvoiceColumns must be present in every BalAG extract. The other
// InvoiceColumns are read when available.
var requiredInvoiceColumns = []string{
	domain.ColCompanyID,
	domain.ColIssueDate,
	domain.ColDueDate,
	domain.ColLastPaymentDate,
	domain.ColAmount,
}

// columnIndexes maps each wanted column to its position in the table header.
// Optional columns that are absent map to -1.
func columnIndexes(t *sources.Table, required, optional []string) (map[string]int, error) {
	idx := make(map[string]int, len(required)+len(optional))
	for _, col := range required {
		i := t.Index(col)
		if i < 0 {
			return nil, apperrors.NewParsingError("table lacks a required column",
				fmt.Errorf("%w: %s", apperrors.ErrMissingColumn, col)).
				WithContext("column", col)
		}
		idx[col] = i
	}
	for _, col := range optional {
		idx[col] = t.Index(col)
	}
	return idx, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseInvoices maps the rows of a BalAG table to raw invoices
func ParseInvoices(t *sources.Table) ([]domain.RawInvoice, error) {
	optional := []string{domain.ColDisputeAmount, domain.ColCurrency, domain.ColInsertDate}
	idx, err := columnIndexes(t, requiredInvoiceColumns, optional)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RawInvoice, 0, t.Len())
	for _, row := range t.Rows {
		out = append(out, domain.RawInvoice{
			CompanyID:       field(row, idx[domain.ColCompanyID]),
			IssueDate:       field(row, idx[domain.ColIssueDate]),
			DueDate:         field(row, idx[domain.ColDueDate]),
			LastPaymentDate: field(row, idx[domain.ColLastPaymentDate]),
			Amount:          field(row, idx[domain.ColAmount]),
			DisputeAmount:   field(row, idx[domain.ColDisputeAmount]),
			Currency:        field(row, idx[domain.ColCurrency]),
			InsertDate:      field(row, idx[domain.ColInsertDate]),
		})
	}
	return out, nil
}

// ParseEstablishments maps the rows of an Etab table
func ParseEstablishments(t *sources.Table) ([]domain.Establishment, error) {
	idx, err := columnIndexes(t, domain.EstablishmentColumns, nil)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Establishment, 0, t.Len())
	for _, row := range t.Rows {
		out = append(out, domain.Establishment{
			CompanyID:         field(row, idx[domain.ColCompanyID]),
			Capital:           field(row, idx[domain.ColCapital]),
			IncorporationDate: field(row, idx[domain.ColIncorporationDate]),
			Headcount:         field(row, idx[domain.ColHeadcount]),
		})
	}
	return out, nil
}

// ParseScores maps the rows of a Score table
func ParseScores(t *sources.Table) ([]domain.RawScore, error) {
	idx, err := columnIndexes(t, domain.ScoreColumns, nil)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RawScore, 0, t.Len())
	for _, row := range t.Rows {
		out = append(out, domain.RawScore{
			CompanyID:   field(row, idx[domain.ColCompanyID]),
			BalanceDate: field(row, idx[domain.ColBalanceDate]),
			Source:      field(row, idx[domain.ColSource]),
			Solvency:    field(row, idx[domain.ColSolvency]),
			ZScore:      field(row, idx[domain.ColZScore]),
			ConanHolder: field(row, idx[domain.ColConanHolder]),
			Altman:      field(row, idx[domain.ColAltman]),
		})
	}
	return out, nil
}

// InvoiceTable converts raw invoices back to a table in InvoiceColumns order
func InvoiceTable(rows []domain.RawInvoice) *sources.Table {
	t := &sources.Table{
		Header: append([]string(nil), domain.InvoiceColumns...),
		Rows:   make([][]string, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = r.Values()
	}
	return t
}

// FeatureTable converts feature rows to a table in FeatureColumns order
func FeatureTable(rows []domain.FeatureRow) *sources.Table {
	t := &sources.Table{
		Header: append([]string(nil), domain.FeatureColumns...),
		Rows:   make([][]string, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = r.Values()
	}
	return t
}

// Materialize converts cleaned raw invoices to typed invoices. Rows whose id,
// issue date, due date or amount still fail to parse, possible when format
// rules are disabled, are skipped and counted. A last payment date that does
// not parse leaves the invoice unpaid.
func Materialize(rows []domain.RawInvoice) ([]domain.Invoice, int) {
	out := make([]domain.Invoice, 0, len(rows))
	skipped := 0
	for _, r := range rows {
		inv, ok := materialize(r)
		if !ok {
			skipped++
			continue
		}
		out = append(out, inv)
	}
	return out, skipped
}

func materialize(r domain.RawInvoice) (domain.Invoice, bool) {
	id, ok := validation.CheckIntFormat(r.CompanyID, false, false)
	if !ok {
		return domain.Invoice{}, false
	}
	issue, ok := validation.ParseDate(r.IssueDate)
	if !ok {
		return domain.Invoice{}, false
	}
	due, ok := validation.ParseDate(r.DueDate)
	if !ok {
		return domain.Invoice{}, false
	}
	amount, ok := validation.CheckIntFormat(r.Amount, false, false)
	if !ok {
		return domain.Invoice{}, false
	}

	inv := domain.Invoice{
		CompanyID:  id,
		IssueDate:  issue,
		DueDate:    due,
		Amount:     amount,
		Currency:   r.Currency,
		InsertDate: r.InsertDate,
	}

	// an unreadable last payment counts as unpaid
	if r.Paid() {
		if last, ok := validation.ParseDate(r.LastPaymentDate); ok {
			inv.LastPaymentDate = &last
		}
	}

	if r.DisputeAmount != "" {
		if dispute, err := strconv.ParseInt(r.DisputeAmount, 10, 64); err == nil {
			inv.DisputeAmount = dispute
		}
	}

	return inv, true
}

// insertDay returns the day part of an insert timestamp
func insertDay(s string) (time.Time, bool) {
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	return validation.ParseDate(s)
}
