package domain

import (
	"strconv"
)

// Feature column names of the preprocessed learning file
const (
	FeatLogAmount = "logMontant"
	FeatTermDays  = "echeance"
	FeatYear      = "year"
	FeatAge       = "age"
	FeatLabel     = "Y"
)

// FeatureColumns lists the exported feature columns in order
var FeatureColumns = []string{
	ColCompanyID,
	ColAmount,
	FeatLogAmount,
	FeatTermDays,
	FeatYear,
	FeatAge,
	ColCapital,
	ColHeadcount,
	ColSolvency,
	ColZScore,
	ColConanHolder,
	ColAltman,
	FeatLabel,
}

// FeatureRow is one invoice joined with its company and yearly scores
type FeatureRow struct {
	CompanyID   int64
	Amount      int64
	LogAmount   float64
	TermDays    int
	Year        int
	Age         int
	Capital     int64
	Headcount   int64
	Solvency    float64
	ZScore      float64
	ConanHolder float64
	Altman      float64
	Paid        bool
}

// Values returns the row formatted in FeatureColumns order
func (f FeatureRow) Values() []string {
	return []string{
		strconv.FormatInt(f.CompanyID, 10),
		strconv.FormatInt(f.Amount, 10),
		strconv.FormatFloat(f.LogAmount, 'f', 6, 64),
		strconv.Itoa(f.TermDays),
		strconv.Itoa(f.Year),
		strconv.Itoa(f.Age),
		strconv.FormatInt(f.Capital, 10),
		strconv.FormatInt(f.Headcount, 10),
		strconv.FormatFloat(f.Solvency, 'f', -1, 64),
		strconv.FormatFloat(f.ZScore, 'f', -1, 64),
		strconv.FormatFloat(f.ConanHolder, 'f', -1, 64),
		strconv.FormatFloat(f.Altman, 'f', -1, 64),
		strconv.FormatBool(f.Paid),
	}
}
