package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"

	apperrors "balag/internal/errors"
	"balag/internal/exporter"
	"balag/pkg/contracts/domain"
)

// Payment delay distribution: 5 day bins, the last one gathering every delay
// of maxDelayDays or more
const (
	delayStepDays = 5
	maxDelayDays  = 100
)

const daysPerYear = 365.25

// activity is the invoicing span of one company
type activity struct {
	first, last time.Time
	amounts     []float64
}

// amountBucket gathers the bills of one power of ten of amounts
type amountBucket struct {
	bills  int
	delays []float64
}

// AnalyzeActivity describes how long companies are invoiced, how amounts
// evolve over the years and how delays depend on the amount, and reports
// what becomes of disputed bills
func (a *Analyzer) AnalyzeActivity(invoices []domain.Invoice) (ActivitySummary, []*exporter.Histogram, []*exporter.Histogram2D, error) {
	var summary ActivitySummary
	if len(invoices) == 0 {
		return summary, nil, nil, apperrors.NewEmptyResultError("activity analysis")
	}

	companies := make(map[int64]*activity)
	byYear := make(map[int][]float64)
	delays := make([]float64, maxDelayDays/delayStepDays+1)
	var buckets []amountBucket
	disputedUnpaid, disputedLate := 0, 0
	first, last := invoices[0].IssueDate, invoices[0].IssueDate

	for _, inv := range invoices {
		if inv.IssueDate.Before(first) {
			first = inv.IssueDate
		}
		if inv.IssueDate.After(last) {
			last = inv.IssueDate
		}

		c, ok := companies[inv.CompanyID]
		if !ok {
			c = &activity{first: inv.IssueDate, last: inv.IssueDate}
			companies[inv.CompanyID] = c
		}
		if inv.IssueDate.Before(c.first) {
			c.first = inv.IssueDate
		}
		if inv.IssueDate.After(c.last) {
			c.last = inv.IssueDate
		}
		amount := float64(inv.Amount)
		c.amounts = append(c.amounts, amount)
		byYear[inv.IssueDate.Year()] = append(byYear[inv.IssueDate.Year()], amount)

		m := logBin(amount, 1)
		for len(buckets) <= m {
			buckets = append(buckets, amountBucket{})
		}
		buckets[m].bills++

		delay, paid := inv.PaymentDelayDays()
		if paid {
			summary.MaxDelayDays = max(summary.MaxDelayDays, delay)
			delays[delayBin(delay)]++
			buckets[m].delays = append(buckets[m].delays, float64(delay))
		}

		if inv.DisputeAmount > 0 {
			summary.Disputed++
			switch {
			case !paid:
				disputedUnpaid++
			case inv.LastPaymentDate.After(inv.DueDate):
				disputedLate++
			}
		}
	}

	ids := make([]int64, 0, len(companies))
	for id := range companies {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	years := make([]float64, len(ids))
	means := make([]float64, len(ids))
	var starts, ends, multiStarts, multiEnds []float64
	for i, id := range ids {
		c := companies[id]
		years[i] = domain.DaysBetween(c.first, c.last) / daysPerYear
		means[i] = mean(c.amounts)
		starts = append(starts, fractionalYear(c.first))
		ends = append(ends, fractionalYear(c.last))
		if !c.first.Equal(c.last) {
			multiStarts = append(multiStarts, fractionalYear(c.first))
			multiEnds = append(multiEnds, fractionalYear(c.last))
		}
	}

	summary.Companies = len(ids)
	summary.MeanActivityYears = mean(years)
	summary.MinActivityYears = floats.Min(years)
	summary.MaxActivityYears = floats.Max(years)
	summary.MinMeanAmount = floats.Min(means)
	summary.MaxMeanAmount = floats.Max(means)
	summary.DisputedPercent = percentOf(summary.Disputed, len(invoices))
	summary.DisputedUnpaidPercent = percentOf(disputedUnpaid, summary.Disputed)
	summary.DisputedLatePercent = percentOf(disputedLate, summary.Disputed)

	a.logger.Info("Activity analysis",
		slog.Int("companies", summary.Companies),
		slog.Float64("mean_activity_years", summary.MeanActivityYears),
		slog.Float64("max_activity_years", summary.MaxActivityYears),
		slog.Float64("min_mean_amount", summary.MinMeanAmount),
		slog.Float64("max_mean_amount", summary.MaxMeanAmount),
		slog.Int("disputed", summary.Disputed),
		slog.Float64("disputed_unpaid_percent", summary.DisputedUnpaidPercent),
		slog.Float64("disputed_late_percent", summary.DisputedLatePercent))

	charts := []*exporter.Histogram{
		activeCompanies(ids, companies, first, last),
		meanAmountPerYear(byYear, first.Year(), last.Year()),
		delayOverAmount(buckets),
		delayDistribution(delays),
	}

	const (
		xlabel = "Année de la première facture"
		ylabel = "Année de dernière facture"
	)
	heatmaps := []*exporter.Histogram2D{
		histogram2D("08_ActivityTimeAll", "Activité de toutes les entreprises", xlabel, ylabel, starts, ends),
	}
	if len(multiStarts) > 0 {
		heatmaps = append(heatmaps,
			histogram2D("08b_ActivityTimeMoreThanOne", "Activité des entreprises de plus de une facture", xlabel, ylabel, multiStarts, multiEnds))
	} else {
		a.logger.Warn("No company invoiced on two distinct days")
	}
	return summary, charts, heatmaps, nil
}

// delayBin returns the delay distribution bin of delay. Negative delays,
// payments before issue, land in the first bin.
func delayBin(delay int) int {
	if delay < 0 {
		return 0
	}
	return min(delay/delayStepDays, maxDelayDays/delayStepDays)
}

// fractionalYear places t on a continuous year axis
func fractionalYear(t time.Time) float64 {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + domain.DaysBetween(start, t)/domain.DaysBetween(start, end)
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// activeCompanies counts, for every month between first and last, the
// companies invoiced both at or before and at or after that month
func activeCompanies(ids []int64, companies map[int64]*activity, first, last time.Time) *exporter.Histogram {
	start := monthIndex(first)
	counts := make([]float64, monthIndex(last)-start+1)
	for _, id := range ids {
		c := companies[id]
		for m := monthIndex(c.first); m <= monthIndex(c.last); m++ {
			counts[m-start]++
		}
	}

	labels := make([]string, len(counts))
	for i := range labels {
		if i == 0 || (start+i)%12 == 0 {
			labels[i] = strconv.Itoa((start + i) / 12)
		}
	}

	return &exporter.Histogram{
		File:   "07_CompleteEntreprisesActives",
		Name:   "Entreprises actives selon les années",
		YLabel: "Nombre d'entreprises",
		X:      labels,
		Series: []exporter.Series{{Values: counts}},
	}
}

func meanAmountPerYear(byYear map[int][]float64, first, last int) *exporter.Histogram {
	labels := make([]string, 0, last-first+1)
	values := make([]float64, 0, last-first+1)
	for year := first; year <= last; year++ {
		labels = append(labels, strconv.Itoa(year))
		values = append(values, mean(byYear[year]))
	}
	return &exporter.Histogram{
		File:   "09_CompleteMontantSelonAnnees",
		Name:   "Distribution des montants selon les années",
		YLabel: "Valeur moyenne des montants",
		X:      labels,
		Series: []exporter.Series{{Values: values}},
	}
}

func delayOverAmount(buckets []amountBucket) *exporter.Histogram {
	labels := make([]string, len(buckets))
	delays := make([]float64, len(buckets))
	paid := make([]float64, len(buckets))
	for i, b := range buckets {
		labels[i] = fmt.Sprintf("%.0e", math.Pow(10, float64(i)))
		delays[i] = mean(b.delays)
		paid[i] = percentOf(len(b.delays), b.bills)
	}
	return &exporter.Histogram{
		File:   "10_CompleteDelaiSelonMontant",
		Name:   "Distribution des délais de paiement en fonction du montant des factures",
		XLabel: "Valeur du montant de la facture (euros)",
		YLabel: "Délais de paiement (jours)",
		X:      labels,
		Series: []exporter.Series{
			{Name: "Délai moyen", Values: delays},
			{Name: "Pourcentage de factures payées", Values: paid},
		},
	}
}

func delayDistribution(counts []float64) *exporter.Histogram {
	labels := make([]string, len(counts))
	for i := range labels {
		labels[i] = strconv.Itoa(i * delayStepDays)
	}
	labels[len(labels)-1] += "+"
	return &exporter.Histogram{
		File:   "11_CompleteDistributionDelai",
		Name:   "Distribution des délais de paiement",
		XLabel: "Délais de paiement (jours)",
		YLabel: "Nombre de factures",
		X:      labels,
		Series: []exporter.Series{{Values: counts}},
	}
}
