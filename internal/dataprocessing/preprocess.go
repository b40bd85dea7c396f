package dataprocessing

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"

	"balag/internal/config"
	apperrors "balag/internal/errors"
	"balag/internal/validation"
	"balag/pkg/contracts/domain"
)

// datePattern matches the plausible YYYY-MM-DD dates of the Etab and Score
// extracts (years 1900-1999 and 2000-2099)
var datePattern = regexp.MustCompile(`^[12][90][0-9][0-9]-[01][0-9]-[0-3][0-9]$`)

// CompanySet restricts preprocessing to a set of companies. A nil set keeps
// every company.
type CompanySet map[int64]struct{}

// CompaniesOf returns the companies invoiced in invoices
func CompaniesOf(invoices []domain.Invoice) CompanySet {
	set := make(CompanySet)
	for _, inv := range invoices {
		set[inv.CompanyID] = struct{}{}
	}
	return set
}

// Contains reports whether id is kept by the set
func (s CompanySet) Contains(id int64) bool {
	if s == nil {
		return true
	}
	_, ok := s[id]
	return ok
}

// PreprocessReport counts the rows a preprocessing step read and kept
type PreprocessReport struct {
	Source  string
	Before  int
	Invalid int
	Kept    int
}

// Removed returns the number of input rows that did not make it to the output
func (r PreprocessReport) Removed() int {
	return r.Before - r.Kept
}

// Percent returns the share of input rows removed, in percent
func (r PreprocessReport) Percent() float64 {
	return percentOf(r.Removed(), r.Before)
}

// PreprocessEtab keeps the establishments with a valid incorporation date and
// numeric capital and headcount, restricted to companies, and merges them per
// company: earliest incorporation date, largest capital and headcount.
// Companies are returned in id order.
func PreprocessEtab(rows []domain.Establishment, companies CompanySet, logger *slog.Logger) ([]domain.Company, PreprocessReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := PreprocessReport{Source: "etab", Before: len(rows)}
	if len(rows) == 0 {
		return nil, report, apperrors.NewEmptyResultError("etab preprocessing")
	}

	merged := make(map[int64]domain.Company)
	for _, r := range rows {
		c, ok := parseEstablishment(r)
		if !ok {
			report.Invalid++
			continue
		}
		if !companies.Contains(c.ID) {
			continue
		}
		if prev, seen := merged[c.ID]; seen {
			c = prev.Merge(c)
		}
		merged[c.ID] = c
	}

	out := make([]domain.Company, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	report.Kept = len(out)

	logger.Info("Etab preprocessed",
		slog.Int("rows_before", report.Before),
		slog.Int("invalid_rows", report.Invalid),
		slog.Int("companies", report.Kept),
		slog.Float64("percent_removed", report.Percent()))

	if len(out) == 0 {
		return nil, report, apperrors.NewEmptyResultError("etab preprocessing")
	}
	return out, report, nil
}

func parseEstablishment(r domain.Establishment) (domain.Company, bool) {
	if !datePattern.MatchString(r.IncorporationDate) {
		return domain.Company{}, false
	}
	date, ok := validation.ParseDate(r.IncorporationDate)
	if !ok {
		return domain.Company{}, false
	}
	id, ok := validation.CheckIntFormat(r.CompanyID, false, false)
	if !ok {
		return domain.Company{}, false
	}
	capital, ok := validation.CheckIntFormat(r.Capital, false, false)
	if !ok {
		return domain.Company{}, false
	}
	headcount, ok := validation.CheckIntFormat(r.Headcount, false, false)
	if !ok {
		return domain.Company{}, false
	}
	return domain.Company{
		ID:                id,
		IncorporationDate: date,
		Capital:           capital,
		Headcount:         headcount,
	}, true
}

// ScoreFilter selects the scores joined to the invoices. Zero fields do not
// filter.
type ScoreFilter struct {
	Companies CompanySet
	Source    string
	MinYear   int
	MaxYear   int
}

// NewScoreFilter builds the filter of the configured source tag and year
// range for companies
func NewScoreFilter(cfg config.SourcesConfig, companies CompanySet) ScoreFilter {
	return ScoreFilter{
		Companies: companies,
		Source:    cfg.ScoreSource,
		MinYear:   cfg.ScoreMinYear,
		MaxYear:   cfg.ScoreMaxYear,
	}
}

func (f ScoreFilter) keep(s domain.Score) bool {
	if f.Source != "" && s.Source != f.Source {
		return false
	}
	if f.MinYear > 0 && s.Year < f.MinYear {
		return false
	}
	if f.MaxYear > 0 && s.Year > f.MaxYear {
		return false
	}
	return f.Companies.Contains(s.CompanyID)
}

// PreprocessScores turns the balance date of each score row into its year,
// drops incomplete rows and applies filter
func PreprocessScores(rows []domain.RawScore, filter ScoreFilter, logger *slog.Logger) ([]domain.Score, PreprocessReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	report := PreprocessReport{Source: "score", Before: len(rows)}
	if len(rows) == 0 {
		return nil, report, apperrors.NewEmptyResultError("score preprocessing")
	}

	out := make([]domain.Score, 0, len(rows))
	for _, r := range rows {
		s, ok := parseScore(r)
		if !ok {
			report.Invalid++
			continue
		}
		if filter.keep(s) {
			out = append(out, s)
		}
	}
	report.Kept = len(out)

	logger.Info("Scores preprocessed",
		slog.Int("rows_before", report.Before),
		slog.Int("invalid_rows", report.Invalid),
		slog.Int("rows_after", report.Kept),
		slog.Float64("percent_removed", report.Percent()))

	if len(out) == 0 {
		return nil, report, apperrors.NewEmptyResultError("score preprocessing")
	}
	return out, report, nil
}

func parseScore(r domain.RawScore) (domain.Score, bool) {
	if !datePattern.MatchString(r.BalanceDate) {
		return domain.Score{}, false
	}
	date, ok := validation.ParseDate(r.BalanceDate)
	if !ok {
		return domain.Score{}, false
	}
	id, ok := validation.CheckIntFormat(r.CompanyID, false, false)
	if !ok || r.Source == "" {
		return domain.Score{}, false
	}

	values := make([]float64, 4)
	for i, raw := range []string{r.Solvency, r.ZScore, r.ConanHolder, r.Altman} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.Score{}, false
		}
		values[i] = v
	}

	return domain.Score{
		CompanyID:   id,
		Year:        date.Year(),
		Source:      r.Source,
		Solvency:    values[0],
		ZScore:      values[1],
		ConanHolder: values[2],
		Altman:      values[3],
	}, true
}
