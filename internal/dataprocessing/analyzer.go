package dataprocessing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"

	apperrors "balag/internal/errors"
	"balag/internal/exporter"
	"balag/internal/validation"
	"balag/pkg/contracts/domain"
)

// SummaryFile is the name of the JSON summary written next to the charts
const SummaryFile = "summary.json"

// StandardInsertDate is the load date of the historical BalAG extract
const StandardInsertDate = "2010-01-13"

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Analyzer computes the descriptive statistics and chart data of cleaned
// BalAG invoices
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// AnalyzeIDs counts companies and bills per company and charts the
// distributions of identifiers and of bills per company on a log scale
func (a *Analyzer) AnalyzeIDs(invoices []domain.Invoice) (IDSummary, []*exporter.Histogram, error) {
	var summary IDSummary
	if len(invoices) == 0 {
		return summary, nil, apperrors.NewEmptyResultError("id analysis")
	}

	bills := make(map[int64]int)
	for _, inv := range invoices {
		bills[inv.CompanyID]++
	}

	ids := make([]float64, 0, len(bills))
	counts := make([]float64, 0, len(bills))
	for id, n := range bills {
		ids = append(ids, float64(id))
		counts = append(counts, float64(n))
	}

	summary = IDSummary{
		Companies: len(bills),
		Bills:     len(invoices),
		MeanBills: float64(len(invoices)) / float64(len(bills)),
		MinID:     int64(floats.Min(ids)),
		MaxID:     int64(floats.Max(ids)),
		MinBills:  int(floats.Min(counts)),
		MaxBills:  int(floats.Max(counts)),
	}

	a.logger.Info("Identifier analysis",
		slog.Int("companies", summary.Companies),
		slog.Float64("mean_bills", summary.MeanBills),
		slog.Int64("min_id", summary.MinID),
		slog.Int64("max_id", summary.MaxID),
		slog.Int("min_bills", summary.MinBills),
		slog.Int("max_bills", summary.MaxBills))

	idDist := normalize(logDistribution(ids, idLogCoefficient))
	billDist := normalize(logDistribution(counts, idLogCoefficient))

	charts := []*exporter.Histogram{
		{
			File:   "01_IdIdentifiants",
			Name:   "Distribution des identifiants",
			XLabel: "Valeur de l'identifiant",
			YLabel: "Nombre d'entreprises",
			YAxis:  exporter.AxisLog,
			X:      logLabels(len(idDist), idLogCoefficient),
			Series: []exporter.Series{{Values: idDist}},
		},
		{
			File:   "02_IdNombreFactures",
			Name:   "Distribution du nombre de factures par entreprises",
			XLabel: "Nombre de factures",
			YLabel: "Nombre d'entreprises",
			YAxis:  exporter.AxisLog,
			X:      logLabels(len(billDist), idLogCoefficient),
			Series: []exporter.Series{{Values: billDist}},
		},
	}
	return summary, charts, nil
}

// logLabels labels log bins with the lower bound of each bin
func logLabels(n int, coef float64) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.1e", math.Pow(10, float64(i)/coef))
	}
	return labels
}

// AnalyzeDates summarizes the dates of paid and unpaid bills and charts the
// bills, the paid ratio and the mean delays per month of issue
func (a *Analyzer) AnalyzeDates(invoices []domain.Invoice) (DateSummary, []*exporter.Histogram, error) {
	summary := DateSummary{Bills: len(invoices)}
	if len(invoices) == 0 {
		return summary, nil, apperrors.NewEmptyResultError("date analysis")
	}

	var paid, unpaid []domain.Invoice
	for _, inv := range invoices {
		if inv.Paid() {
			paid = append(paid, inv)
		} else {
			unpaid = append(unpaid, inv)
		}
	}
	summary.Paid = billGroup(paid, len(invoices))
	summary.Unpaid = billGroup(unpaid, len(invoices))

	a.logger.Info("Date analysis",
		slog.Int("bills", summary.Bills),
		slog.Int("paid", summary.Paid.Count),
		slog.Float64("paid_percent", summary.Paid.Percent),
		slog.Float64("mean_term_days", summary.Paid.MeanTermDays),
		slog.Float64("mean_delay_days", summary.Paid.MeanDelayDays),
		slog.Float64("on_time_percent", summary.Paid.OnTimePercent),
		slog.Int("unpaid", summary.Unpaid.Count))

	first, last := invoices[0].IssueDate.Year(), invoices[0].IssueDate.Year()
	for _, inv := range invoices {
		first = min(first, inv.IssueDate.Year())
		last = max(last, inv.IssueDate.Year())
	}

	nMonths := (last - first + 1) * 12
	byMonth := newDateBuckets(nMonths)
	byCalendar := newDateBuckets(12)
	for _, inv := range invoices {
		m := int(inv.IssueDate.Month()) - 1
		byMonth.add(inv, (inv.IssueDate.Year()-first)*12+m)
		byCalendar.add(inv, m)
	}

	monthLabelsRange := make([]string, 0, nMonths)
	for year := first; year <= last; year++ {
		for month := 1; month <= 12; month++ {
			monthLabelsRange = append(monthLabelsRange, fmt.Sprintf("%d-%02d", month, year%100))
		}
	}

	charts := []*exporter.Histogram{
		{
			File:    "03_DateFacturesAnnees",
			Name:    "Distribution des factures par année",
			YLabel:  "Nombre de factures",
			X:       monthLabelsRange,
			Series:  []exporter.Series{{Values: byMonth.bills}},
			Percent: true,
		},
		{
			File:    "03b_DateFacturesMois",
			Name:    "Distribution des factures par mois",
			YLabel:  "Nombre de factures",
			X:       append([]string(nil), monthLabels...),
			Series:  []exporter.Series{{Values: byCalendar.bills}},
			Percent: true,
		},
		{
			File:   "04_RatioFacturesPayeesAnnees",
			Name:   "Ratio des factures payées par année",
			YLabel: "Pourcentage de factures",
			X:      monthLabelsRange,
			Series: []exporter.Series{{Name: "Pourcentage de factures payées", Values: byMonth.paidPercent()}},
		},
		{
			File:   "04b_RatioFacturesPayeesMois",
			Name:   "Ratio des factures payées par mois",
			YLabel: "Pourcentage de factures",
			X:      append([]string(nil), monthLabels...),
			Series: []exporter.Series{{Name: "Pourcentage de factures payées", Values: byCalendar.paidPercent()}},
		},
		{
			File:   "05_DelayFacturesAnnees",
			Name:   "Durées des délais d'échéance et de paiement",
			YLabel: "Jours de délais",
			X:      monthLabelsRange,
			Series: byMonth.delaySeries(),
		},
		{
			File:   "05b_DelayFacturesMois",
			Name:   "Durées des délais d'échéance et de paiement",
			YLabel: "Jours de délais",
			X:      append([]string(nil), monthLabels...),
			Series: byCalendar.delaySeries(),
		},
	}
	return summary, charts, nil
}

func billGroup(group []domain.Invoice, total int) BillGroupSummary {
	s := BillGroupSummary{Count: len(group), Percent: percentOf(len(group), total)}
	if len(group) == 0 {
		return s
	}

	s.IssueDates = DateRange{First: group[0].IssueDate, Last: group[0].IssueDate}
	s.DueDates = DateRange{First: group[0].DueDate, Last: group[0].DueDate}

	terms := make([]float64, 0, len(group))
	var delays, lateness []float64
	onTime := 0
	for _, inv := range group {
		s.IssueDates.extend(inv.IssueDate)
		s.DueDates.extend(inv.DueDate)
		terms = append(terms, float64(inv.TermDays()))

		if delay, ok := inv.PaymentDelayDays(); ok {
			paidOn := *inv.LastPaymentDate
			if len(delays) == 0 {
				s.LastPaymentDates = DateRange{First: paidOn, Last: paidOn}
			}
			s.LastPaymentDates.extend(paidOn)
			delays = append(delays, float64(delay))
			lateness = append(lateness, float64(delay-inv.TermDays()))
			if paidOn.Before(inv.DueDate) {
				onTime++
			}
		}
	}

	s.MeanTermDays = mean(terms)
	if len(delays) > 0 {
		s.MeanDelayDays = mean(delays)
		s.MeanLatenessDays = mean(lateness)
		s.OnTimePercent = percentOf(onTime, len(delays))
	}
	return s
}

func (r *DateRange) extend(t time.Time) {
	if t.Before(r.First) {
		r.First = t
	}
	if t.After(r.Last) {
		r.Last = t
	}
}

// dateBuckets accumulates bills per issue period
type dateBuckets struct {
	bills  []float64
	paid   []float64
	terms  [][]float64
	delays [][]float64
}

func newDateBuckets(n int) *dateBuckets {
	return &dateBuckets{
		bills:  make([]float64, n),
		paid:   make([]float64, n),
		terms:  make([][]float64, n),
		delays: make([][]float64, n),
	}
}

func (b *dateBuckets) add(inv domain.Invoice, i int) {
	b.bills[i]++
	b.terms[i] = append(b.terms[i], float64(inv.TermDays()))
	if delay, ok := inv.PaymentDelayDays(); ok {
		b.paid[i]++
		b.delays[i] = append(b.delays[i], float64(delay))
	}
}

func (b *dateBuckets) paidPercent() []float64 {
	out := make([]float64, len(b.bills))
	for i := range out {
		if b.bills[i] > 0 {
			out[i] = 100 * b.paid[i] / b.bills[i]
		}
	}
	return out
}

func (b *dateBuckets) delaySeries() []exporter.Series {
	terms := make([]float64, len(b.terms))
	delays := make([]float64, len(b.delays))
	for i := range terms {
		terms[i] = mean(b.terms[i])
		delays[i] = mean(b.delays[i])
	}
	return []exporter.Series{
		{Name: "Durée de l'échéance", Values: terms},
		{Name: "Durée du temps de paiement", Values: delays},
	}
}

// AnalyzeAmounts summarizes the amounts and charts their distribution on a
// log scale
func (a *Analyzer) AnalyzeAmounts(invoices []domain.Invoice) (AmountSummary, []*exporter.Histogram, error) {
	var summary AmountSummary
	if len(invoices) == 0 {
		return summary, nil, apperrors.NewEmptyResultError("amount analysis")
	}

	amounts := make([]float64, len(invoices))
	for i, inv := range invoices {
		amounts[i] = float64(inv.Amount)
	}

	summary = AmountSummary{
		Min:    int64(floats.Min(amounts)),
		Max:    int64(floats.Max(amounts)),
		Mean:   mean(amounts),
		Median: median(amounts),
	}

	a.logger.Info("Amount analysis",
		slog.Int64("min", summary.Min),
		slog.Int64("max", summary.Max),
		slog.Float64("mean", summary.Mean),
		slog.Float64("median", summary.Median))

	dist := logDistribution(amounts, amountLogCoefficient)
	labels := make([]string, len(dist))
	for i := range labels {
		if i%amountLogCoefficient == 0 {
			labels[i] = strconv.FormatFloat(math.Pow(10, float64(i/amountLogCoefficient)), 'f', -1, 64)
		}
	}

	charts := []*exporter.Histogram{{
		File:    "06_Montants",
		Name:    "Distribution des montants des factures",
		XLabel:  "Valeur des factures (euros)",
		YLabel:  "Nombre de factures",
		X:       labels,
		Series:  []exporter.Series{{Values: dist}},
		Percent: true,
	}}
	return summary, charts, nil
}

// AnalyzeOthers reports the share of disputed, non euro and non standard
// insert date bills
func (a *Analyzer) AnalyzeOthers(invoices []domain.Invoice) (OtherSummary, error) {
	summary := OtherSummary{Bills: len(invoices)}
	if len(invoices) == 0 {
		return summary, apperrors.NewEmptyResultError("other columns analysis")
	}

	standard, _ := validation.ParseDate(StandardInsertDate)
	currencies := make(map[string]bool)
	nonEUR, nonStandard := 0, 0
	for _, inv := range invoices {
		if inv.DisputeAmount > 0 {
			summary.Disputed++
		}
		if inv.Currency != "EUR" {
			nonEUR++
			currencies[inv.Currency] = true
		}
		if day, ok := insertDay(inv.InsertDate); !ok || !day.Equal(standard) {
			nonStandard++
		}
	}

	for c := range currencies {
		summary.OtherCurrencies = append(summary.OtherCurrencies, c)
	}
	sort.Strings(summary.OtherCurrencies)

	summary.DisputedPercent = percentOf(summary.Disputed, len(invoices))
	summary.NonEURPercent = percentOf(nonEUR, len(invoices))
	summary.NonStandardInsertPercent = percentOf(nonStandard, len(invoices))

	a.logger.Info("Other columns analysis",
		slog.Float64("disputed_percent", summary.DisputedPercent),
		slog.Float64("non_eur_percent", summary.NonEURPercent),
		slog.Any("other_currencies", summary.OtherCurrencies),
		slog.Float64("non_standard_insert_percent", summary.NonStandardInsertPercent))

	return summary, nil
}

// TermOverAmount charts the payment term against the amount, over every bill
// and zoomed on bills under 100000 euros with a term under 100 days
func (a *Analyzer) TermOverAmount(invoices []domain.Invoice) ([]*exporter.Histogram2D, error) {
	if len(invoices) == 0 {
		return nil, apperrors.NewEmptyResultError("term over amount analysis")
	}

	var xs, ys, zx, zy []float64
	for _, inv := range invoices {
		amount, term := float64(inv.Amount), float64(inv.TermDays())
		xs = append(xs, amount)
		ys = append(ys, term)
		if amount < 100000 && term < 100 {
			zx = append(zx, amount)
			zy = append(zy, term)
		}
	}

	const (
		name   = "Echéance selon Montant"
		xlabel = "montant facture"
		ylabel = "nombre de jours d'échéance"
	)
	charts := []*exporter.Histogram2D{histogram2D("01_montant_echeance", name, xlabel, ylabel, xs, ys)}
	if len(zx) > 0 {
		charts = append(charts, histogram2D("01_montant_echeance_zoom", name, xlabel, ylabel, zx, zy))
	} else {
		a.logger.Warn("No bill in the term over amount zoom window")
	}
	return charts, nil
}

// HeadcountOverCapital charts the headcount against the capital of raw
// establishments, over every numeric row and over rows where both are
// positive
func (a *Analyzer) HeadcountOverCapital(rows []domain.Establishment) (EtabSummary, []*exporter.Histogram2D, error) {
	summary := EtabSummary{Rows: len(rows)}
	if len(rows) == 0 {
		return summary, nil, apperrors.NewEmptyResultError("headcount over capital analysis")
	}

	var xs, ys, cx, cy []float64
	for _, r := range rows {
		capital, ok1 := validation.CheckIntFormat(r.Capital, false, false)
		headcount, ok2 := validation.CheckIntFormat(r.Headcount, false, false)
		if !ok1 || !ok2 {
			summary.Errors++
			continue
		}
		xs = append(xs, float64(capital))
		ys = append(ys, float64(headcount))
		if capital > 0 && headcount > 0 {
			cx = append(cx, float64(capital))
			cy = append(cy, float64(headcount))
		}
	}
	summary.Clean = len(cx)

	a.logger.Info("Headcount over capital analysis",
		slog.Int("rows", summary.Rows),
		slog.Float64("error_percent", percentOf(summary.Errors, summary.Rows)))

	if len(xs) == 0 {
		return summary, nil, apperrors.NewEmptyResultError("headcount over capital analysis")
	}

	charts := []*exporter.Histogram2D{
		histogram2D("02_effectif_over_capital", "Effectif selon capital (complet)", "capital", "effectif", xs, ys),
	}
	if len(cx) > 0 {
		charts = append(charts,
			histogram2D("02_effectif_over_capital_clean", "Effectif selon capital (nettoyé)", "capital", "effectif", cx, cy))
	}
	return summary, charts, nil
}

// AnalyzeAll runs every invoice analysis and, for each extract given, the
// headcount over capital chart, the identifier correspondence and the score
// distributions
func (a *Analyzer) AnalyzeAll(ctx context.Context, invoices []domain.Invoice, extracts Extracts) (*Analysis, error) {
	result := &Analysis{GeneratedAt: time.Now()}
	var err error
	var charts []*exporter.Histogram
	var heatmaps []*exporter.Histogram2D

	if result.IDs, charts, err = a.AnalyzeIDs(invoices); err != nil {
		return nil, err
	}
	result.Histograms = append(result.Histograms, charts...)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result.Dates, charts, err = a.AnalyzeDates(invoices); err != nil {
		return nil, err
	}
	result.Histograms = append(result.Histograms, charts...)

	if result.Amounts, charts, err = a.AnalyzeAmounts(invoices); err != nil {
		return nil, err
	}
	result.Histograms = append(result.Histograms, charts...)

	if result.Others, err = a.AnalyzeOthers(invoices); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result.Activity, charts, heatmaps, err = a.AnalyzeActivity(invoices); err != nil {
		return nil, err
	}
	result.Histograms = append(result.Histograms, charts...)
	result.Histograms2D = append(result.Histograms2D, heatmaps...)

	if heatmaps, err = a.TermOverAmount(invoices); err != nil {
		return nil, err
	}
	result.Histograms2D = append(result.Histograms2D, heatmaps...)

	if len(extracts.Etab) > 0 {
		summary, heatmaps, err := a.HeadcountOverCapital(extracts.Etab)
		if err != nil {
			return nil, err
		}
		result.Etab = &summary
		result.Histograms2D = append(result.Histograms2D, heatmaps...)
	}

	if len(extracts.Etab) > 0 || len(extracts.Scores) > 0 {
		coverage, err := a.AnalyzeIDCorrespondence(invoices, extracts.Etab, extracts.Scores)
		if err != nil {
			return nil, err
		}
		result.Coverage = &coverage
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(extracts.Scores) > 0 {
		summary, charts, err := a.AnalyzeScores(invoices, extracts.Scores, extracts.ScoreFilter)
		if err != nil {
			return nil, err
		}
		result.Scores = &summary
		result.Histograms = append(result.Histograms, charts...)
	}

	return result, nil
}

// Save writes every chart file and the JSON summary to dir and returns the
// files written
func (r *Analysis) Save(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create analysis directory", err).
			WithContext("directory", dir)
	}

	var files []string
	for _, h := range r.Histograms {
		path, err := exporter.SaveHistogram(dir, h)
		if err != nil {
			return files, apperrors.NewStorageError("failed to save histogram", err).WithContext("chart", h.File)
		}
		files = append(files, path)
	}
	for _, h := range r.Histograms2D {
		path, err := exporter.SaveHistogram2D(dir, h)
		if err != nil {
			return files, apperrors.NewStorageError("failed to save histogram", err).WithContext("chart", h.File)
		}
		files = append(files, path)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return files, fmt.Errorf("failed to marshal summary: %w", err)
	}
	path := filepath.Join(dir, SummaryFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return files, apperrors.NewStorageError("failed to write summary", err).WithContext("file", path)
	}
	files = append(files, path)

	return files, nil
}
