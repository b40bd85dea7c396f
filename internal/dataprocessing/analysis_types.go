package dataprocessing

import (
	"time"

	"balag/internal/exporter"
	"balag/pkg/contracts/domain"
)

// IDSummary describes the companies of a BalAG table
type IDSummary struct {
	Companies int     `json:"companies"`
	Bills     int     `json:"bills"`
	MeanBills float64 `json:"mean_bills"`
	MinID     int64   `json:"min_id"`
	MaxID     int64   `json:"max_id"`
	MinBills  int     `json:"min_bills"`
	MaxBills  int     `json:"max_bills"`
}

// DateRange is the first and last value of a date column
type DateRange struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// BillGroupSummary describes the dates of the paid or of the unpaid bills.
// Payment fields stay zero for unpaid bills.
type BillGroupSummary struct {
	Count            int       `json:"count"`
	Percent          float64   `json:"percent"`
	IssueDates       DateRange `json:"issue_dates"`
	DueDates         DateRange `json:"due_dates"`
	LastPaymentDates DateRange `json:"last_payment_dates"`
	MeanTermDays     float64   `json:"mean_term_days"`
	MeanDelayDays    float64   `json:"mean_delay_days,omitempty"`
	MeanLatenessDays float64   `json:"mean_lateness_days,omitempty"`
	OnTimePercent    float64   `json:"on_time_percent,omitempty"`
}

// DateSummary splits the date statistics between paid and unpaid bills
type DateSummary struct {
	Bills  int              `json:"bills"`
	Paid   BillGroupSummary `json:"paid"`
	Unpaid BillGroupSummary `json:"unpaid"`
}

// AmountSummary describes the invoice amounts, in euros
type AmountSummary struct {
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// OtherSummary describes the columns the cleaning rules do not look at
type OtherSummary struct {
	Bills                    int      `json:"bills"`
	Disputed                 int      `json:"disputed"`
	DisputedPercent          float64  `json:"disputed_percent"`
	NonEURPercent            float64  `json:"non_eur_percent"`
	OtherCurrencies          []string `json:"other_currencies"`
	NonStandardInsertPercent float64  `json:"non_standard_insert_percent"`
}

// EtabSummary counts the establishment rows a correlation chart could use
type EtabSummary struct {
	Rows   int `json:"rows"`
	Errors int `json:"errors"`
	Clean  int `json:"clean"`
}

// ActivitySummary describes how long companies stay invoiced and how
// disputed bills end up
type ActivitySummary struct {
	Companies             int     `json:"companies"`
	MeanActivityYears     float64 `json:"mean_activity_years"`
	MinActivityYears      float64 `json:"min_activity_years"`
	MaxActivityYears      float64 `json:"max_activity_years"`
	MinMeanAmount         float64 `json:"min_mean_amount"`
	MaxMeanAmount         float64 `json:"max_mean_amount"`
	MaxDelayDays          int     `json:"max_delay_days"`
	Disputed              int     `json:"disputed"`
	DisputedPercent       float64 `json:"disputed_percent"`
	DisputedUnpaidPercent float64 `json:"disputed_unpaid_percent"`
	DisputedLatePercent   float64 `json:"disputed_late_percent"`
}

// IDMatch compares the BalAG companies with the companies of one extract.
// MissingIDs lists at most maxListedIDs of the BalAG companies the extract
// does not know.
type IDMatch struct {
	Companies      int     `json:"companies"`
	Common         int     `json:"common"`
	Missing        int     `json:"missing"`
	MissingPercent float64 `json:"missing_percent"`
	MissingIDs     []int64 `json:"missing_ids,omitempty"`
}

// IDCorrespondence tells which BalAG companies the side extracts cover
type IDCorrespondence struct {
	Companies int      `json:"companies"`
	Etab      *IDMatch `json:"etab,omitempty"`
	Scores    *IDMatch `json:"scores,omitempty"`
}

// ScoreRange is the span of one score over the BalAG companies and over
// every company of the extract
type ScoreRange struct {
	MergedMin float64 `json:"merged_min"`
	MergedMax float64 `json:"merged_max"`
	GlobalMin float64 `json:"global_min"`
	GlobalMax float64 `json:"global_max"`
}

// ScoreSummary describes the scores kept by the score filter. Coverage is
// the mean share of its invoiced years a BalAG company has a score for;
// a score of the year before the first bill counts for that first year.
type ScoreSummary struct {
	Global          int                   `json:"global"`
	Merged          int                   `json:"merged"`
	Invalid         int                   `json:"invalid"`
	Companies       int                   `json:"companies"`
	CoveragePercent float64               `json:"coverage_percent"`
	Ranges          map[string]ScoreRange `json:"ranges"`
}

// Extracts holds the side tables an analysis run may look at. Empty tables
// are skipped.
type Extracts struct {
	Etab        []domain.Establishment
	Scores      []domain.RawScore
	ScoreFilter ScoreFilter
}

// Analysis collects the summaries and charts of a full analysis run
type Analysis struct {
	GeneratedAt  time.Time               `json:"generated_at"`
	IDs          IDSummary               `json:"ids"`
	Dates        DateSummary             `json:"dates"`
	Amounts      AmountSummary           `json:"amounts"`
	Others       OtherSummary            `json:"others"`
	Activity     ActivitySummary         `json:"activity"`
	Etab         *EtabSummary            `json:"etab,omitempty"`
	Coverage     *IDCorrespondence       `json:"id_correspondence,omitempty"`
	Scores       *ScoreSummary           `json:"scores,omitempty"`
	Histograms   []*exporter.Histogram   `json:"-"`
	Histograms2D []*exporter.Histogram2D `json:"-"`
}
