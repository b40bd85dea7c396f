package dataprocessing

import (
	"log/slog"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"

	apperrors "balag/internal/errors"
	"balag/internal/exporter"
	"balag/internal/validation"
	"balag/pkg/contracts/domain"
)

// maxListedIDs caps the unknown companies kept in an IDMatch
const maxListedIDs = 100

// scoreBins is the number of bins of the score distribution charts
const scoreBins = 50

// scoreKind reads one score of a row. Bounded kinds are charted over
// [lo, hi] whatever their extreme values.
type scoreKind struct {
	name    string
	value   func(domain.Score) float64
	bounded bool
	lo, hi  float64
}

var scoreKinds = []scoreKind{
	{name: domain.ColSolvency, value: func(s domain.Score) float64 { return s.Solvency }},
	{name: domain.ColZScore, value: func(s domain.Score) float64 { return s.ZScore }, bounded: true, lo: -20, hi: 20},
	{name: domain.ColConanHolder, value: func(s domain.Score) float64 { return s.ConanHolder }},
	{name: domain.ColAltman, value: func(s domain.Score) float64 { return s.Altman }, bounded: true, lo: 0, hi: 20},
}

// AnalyzeIDCorrespondence reports which BalAG companies are unknown to the
// establishment and score extracts. An empty extract leaves its match nil.
func (a *Analyzer) AnalyzeIDCorrespondence(invoices []domain.Invoice, etab []domain.Establishment, scores []domain.RawScore) (IDCorrespondence, error) {
	var result IDCorrespondence
	if len(invoices) == 0 {
		return result, apperrors.NewEmptyResultError("id correspondence analysis")
	}

	balag := CompaniesOf(invoices)
	result.Companies = len(balag)

	if len(etab) > 0 {
		ids := make([]string, len(etab))
		for i, r := range etab {
			ids[i] = r.CompanyID
		}
		result.Etab = matchIDs(balag, ids)
		a.logMatch("etab", result.Etab)
	}
	if len(scores) > 0 {
		ids := make([]string, len(scores))
		for i, r := range scores {
			ids[i] = r.CompanyID
		}
		result.Scores = matchIDs(balag, ids)
		a.logMatch("score", result.Scores)
	}
	return result, nil
}

func (a *Analyzer) logMatch(extract string, m *IDMatch) {
	a.logger.Info("Identifier correspondence",
		slog.String("extract", extract),
		slog.Int("companies", m.Companies),
		slog.Int("common", m.Common),
		slog.Int("missing", m.Missing),
		slog.Float64("missing_percent", m.MissingPercent))
}

// matchIDs compares balag with the identifiers of an extract. Identifiers
// that are not integers cannot match any company and are ignored.
func matchIDs(balag CompanySet, raw []string) *IDMatch {
	known := make(CompanySet)
	for _, r := range raw {
		if id, ok := validation.CheckIntFormat(r, false, false); ok {
			known[id] = struct{}{}
		}
	}

	m := &IDMatch{Companies: len(known)}
	var missing []int64
	for id := range balag {
		if known.Contains(id) {
			m.Common++
		} else {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)

	m.Missing = len(missing)
	m.MissingPercent = percentOf(m.Missing, len(balag))
	if len(missing) > maxListedIDs {
		missing = missing[:maxListedIDs]
	}
	m.MissingIDs = missing
	return m
}

// AnalyzeScores compares the scores of the BalAG companies with the scores
// of every company in the extract. Only the source and years of filter
// apply; its company set is ignored. Coverage counts, per BalAG company, the
// distinct score years between the year before its first bill and the year
// of its last bill, over the years it was invoiced, capped at 100 percent.
func (a *Analyzer) AnalyzeScores(invoices []domain.Invoice, raw []domain.RawScore, filter ScoreFilter) (ScoreSummary, []*exporter.Histogram, error) {
	var summary ScoreSummary
	if len(invoices) == 0 {
		return summary, nil, apperrors.NewEmptyResultError("score analysis")
	}

	type span struct{ first, last int }
	spans := make(map[int64]span)
	for _, inv := range invoices {
		y := inv.IssueDate.Year()
		s, ok := spans[inv.CompanyID]
		if !ok {
			s = span{first: y, last: y}
		}
		s.first, s.last = min(s.first, y), max(s.last, y)
		spans[inv.CompanyID] = s
	}

	filter.Companies = nil
	var global, merged []domain.Score
	scored := make(map[int64]map[int]bool)
	for _, r := range raw {
		s, ok := parseScore(r)
		if !ok {
			summary.Invalid++
			continue
		}
		if !filter.keep(s) {
			continue
		}
		global = append(global, s)

		sp, ok := spans[s.CompanyID]
		if !ok {
			continue
		}
		merged = append(merged, s)
		if s.Year >= sp.first-1 && s.Year <= sp.last {
			if scored[s.CompanyID] == nil {
				scored[s.CompanyID] = make(map[int]bool)
			}
			scored[s.CompanyID][s.Year] = true
		}
	}
	if len(global) == 0 {
		return summary, nil, apperrors.NewEmptyResultError("score analysis")
	}

	coverage := make([]float64, 0, len(spans))
	for id, sp := range spans {
		coverage = append(coverage, min(100, 100*float64(len(scored[id]))/float64(sp.last-sp.first+1)))
	}
	companies := make(CompanySet)
	for _, s := range merged {
		companies[s.CompanyID] = struct{}{}
	}

	summary.Global = len(global)
	summary.Merged = len(merged)
	summary.Companies = len(companies)
	summary.CoveragePercent = mean(coverage)
	summary.Ranges = make(map[string]ScoreRange, len(scoreKinds))

	charts := make([]*exporter.Histogram, 0, len(scoreKinds))
	for _, kind := range scoreKinds {
		gv := scoreValues(global, kind)
		mv := scoreValues(merged, kind)

		r := ScoreRange{GlobalMin: floats.Min(gv), GlobalMax: floats.Max(gv)}
		if len(mv) > 0 {
			r.MergedMin, r.MergedMax = floats.Min(mv), floats.Max(mv)
		}
		summary.Ranges[kind.name] = r

		lo, hi := r.GlobalMin, r.GlobalMax
		if kind.bounded {
			lo, hi = kind.lo, kind.hi
		}
		charts = append(charts, scoreDistribution(kind.name, lo, hi, mv, gv))
	}

	a.logger.Info("Score analysis",
		slog.Int("global", summary.Global),
		slog.Int("merged", summary.Merged),
		slog.Int("invalid", summary.Invalid),
		slog.Int("companies", summary.Companies),
		slog.Float64("coverage_percent", summary.CoveragePercent))

	return summary, charts, nil
}

func scoreValues(scores []domain.Score, kind scoreKind) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = kind.value(s)
	}
	return out
}

// scoreDistribution bins merged and global over [lo, hi]; values outside
// the range land in the first or last bin
func scoreDistribution(name string, lo, hi float64, merged, global []float64) *exporter.Histogram {
	if hi <= lo {
		hi = lo + 1
	}
	edges := floats.Span(make([]float64, scoreBins+1), lo, hi)

	count := func(values []float64) []float64 {
		out := make([]float64, scoreBins)
		for _, v := range values {
			out[binIndex(edges, v)]++
		}
		return out
	}

	labels := make([]string, scoreBins)
	for i := range labels {
		labels[i] = strconv.FormatFloat(edges[i], 'g', 3, 64)
	}

	return &exporter.Histogram{
		File:   "12_Repartition_" + name,
		Name:   "Repartition of " + name,
		XLabel: "score",
		YLabel: "number of entreprises",
		X:      labels,
		Series: []exporter.Series{
			{Name: name + " merged", Values: count(merged)},
			{Name: name + " global", Values: count(global)},
		},
		Percent: true,
	}
}
