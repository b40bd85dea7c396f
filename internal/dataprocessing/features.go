package dataprocessing

import (
	"time"

	"balag/pkg/contracts/domain"
)

// JoinReport counts the invoices lost by the feature joins
type JoinReport struct {
	Invoices       int
	MissingCompany int
	MissingScore   int
	Rows           int
}

// BuildFeatures joins every invoice to its company on the company id and to
// the company scores on (company id, issue year). Invoices missing either
// side are dropped; an invoice matching several scores yields one row each.
// Ages are counted at today.
func BuildFeatures(invoices []domain.Invoice, companies []domain.Company, scores []domain.Score, today time.Time) ([]domain.FeatureRow, JoinReport) {
	report := JoinReport{Invoices: len(invoices)}

	byID := make(map[int64]domain.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}
	byKey := make(map[domain.ScoreKey][]domain.Score)
	for _, s := range scores {
		byKey[s.Key()] = append(byKey[s.Key()], s)
	}

	var out []domain.FeatureRow
	for _, inv := range invoices {
		company, ok := byID[inv.CompanyID]
		if !ok {
			report.MissingCompany++
			continue
		}
		matches := byKey[domain.ScoreKey{CompanyID: inv.CompanyID, Year: inv.Year()}]
		if len(matches) == 0 {
			report.MissingScore++
			continue
		}

		for _, s := range matches {
			out = append(out, domain.FeatureRow{
				CompanyID:   inv.CompanyID,
				Amount:      inv.Amount,
				LogAmount:   inv.LogAmount(),
				TermDays:    inv.TermDays(),
				Year:        inv.Year(),
				Age:         company.AgeAt(today),
				Capital:     company.Capital,
				Headcount:   company.Headcount,
				Solvency:    s.Solvency,
				ZScore:      s.ZScore,
				ConanHolder: s.ConanHolder,
				Altman:      s.Altman,
				Paid:        inv.Paid(),
			})
		}
	}

	report.Rows = len(out)
	return out, report
}
