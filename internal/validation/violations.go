package validation

// Violation names one cleaning rule a row breaks
type Violation int

const (
	None Violation = iota
	IDFormat
	IDMinimal
	IDMaximal
	BillsNumber
	IssueDateFormat
	DueDateFormat
	LastPaymentFormat
	InconsistentDates
	MonthDiff
	MinimalDate
	MaximalDate
	AmountFormat
	AmountMinimal
	AmountMaximal
	DisputeNonZero
)

// Dimensions of the cleaning pipeline
const (
	DimensionID      = "id"
	DimensionDates   = "dates"
	DimensionAmount  = "amount"
	DimensionDispute = "dispute"
)

var violationTags = map[Violation]string{
	None:              "",
	IDFormat:          "idFormat",
	IDMinimal:         "minimalId",
	IDMaximal:         "maximalId",
	BillsNumber:       "minimalBillsNumber",
	IssueDateFormat:   "pieceFormat",
	DueDateFormat:     "echeanceFormat",
	LastPaymentFormat: "dernierPaiementFormat",
	InconsistentDates: "inconsistentDates",
	MonthDiff:         "monthDiff",
	MinimalDate:       "minimalDate",
	MaximalDate:       "maximalDate",
	AmountFormat:      "format",
	AmountMinimal:     "minimal",
	AmountMaximal:     "maximal",
	DisputeNonZero:    "litigeNonZero",
}

// String returns the historical rule tag, empty for None
func (v Violation) String() string {
	if tag, ok := violationTags[v]; ok {
		return tag
	}
	return "unknown"
}

// Dimension returns the cleaning dimension the rule belongs to
func (v Violation) Dimension() string {
	switch v {
	case IDFormat, IDMinimal, IDMaximal, BillsNumber:
		return DimensionID
	case IssueDateFormat, DueDateFormat, LastPaymentFormat, InconsistentDates, MonthDiff, MinimalDate, MaximalDate:
		return DimensionDates
	case AmountFormat, AmountMinimal, AmountMaximal:
		return DimensionAmount
	case DisputeNonZero:
		return DimensionDispute
	default:
		return ""
	}
}

// AllViolations lists every rule in declaration order, None excluded
func AllViolations() []Violation {
	out := make([]Violation, 0, len(violationTags)-1)
	for v := IDFormat; v <= DisputeNonZero; v++ {
		out = append(out, v)
	}
	return out
}
