package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balag/internal/config"
	apperrors "balag/internal/errors"
	"balag/pkg/contracts/domain"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	require.NoError(t, err)
	return d
}

func TestPreprocessEtab(t *testing.T) {
	rows := []domain.Establishment{
		{CompanyID: "1", Capital: "1000", IncorporationDate: "2001-05-01", Headcount: "3"},
		{CompanyID: "1", Capital: "500", IncorporationDate: "1998-02-10", Headcount: "8"},
		{CompanyID: "2", Capital: "20000", IncorporationDate: "2005-01-01", Headcount: "40"},
		{CompanyID: "3", Capital: "100", IncorporationDate: "1850-01-01", Headcount: "1"},
		{CompanyID: "3", Capital: "100", IncorporationDate: "2005-13-01", Headcount: "1"},
		{CompanyID: "3", Capital: "100", IncorporationDate: "20050101", Headcount: "1"},
		{CompanyID: "4", Capital: "n/a", IncorporationDate: "2005-01-01", Headcount: "1"},
		{CompanyID: "5", Capital: "10", IncorporationDate: "2010-02-30", Headcount: "1"},
	}

	t.Run("every company", func(t *testing.T) {
		got, report, err := PreprocessEtab(rows, nil, nil)
		require.NoError(t, err)

		require.Len(t, got, 2)
		assert.Equal(t, domain.Company{
			ID:                1,
			IncorporationDate: date(t, "1998-02-10"),
			Capital:           1000,
			Headcount:         8,
		}, got[0])
		assert.Equal(t, int64(2), got[1].ID)

		assert.Equal(t, len(rows), report.Before)
		assert.Equal(t, 5, report.Invalid)
		assert.Equal(t, 2, report.Kept)
		assert.Equal(t, 6, report.Removed())
	})

	t.Run("restricted to invoiced companies", func(t *testing.T) {
		got, _, err := PreprocessEtab(rows, CompanySet{2: {}}, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(20000), got[0].Capital)
	})

	t.Run("nothing left", func(t *testing.T) {
		_, _, err := PreprocessEtab(rows, CompanySet{99: {}}, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
	})

	t.Run("empty input", func(t *testing.T) {
		_, _, err := PreprocessEtab(nil, nil, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
	})
}

func score(id, date, source string) domain.RawScore {
	return domain.RawScore{
		CompanyID:   id,
		BalanceDate: date,
		Source:      source,
		Solvency:    "1.5",
		ZScore:      "-0.25",
		ConanHolder: "4",
		Altman:      "2.75",
	}
}

func TestPreprocessScores(t *testing.T) {
	rows := []domain.RawScore{
		score("1", "2012-12-31", "bilans1"),
		score("1", "2009-12-31", "bilans1"),
		score("1", "2013-12-31", "manual"),
		score("2", "2014-06-30", "bilans1"),
		score("3", "2012-12-31", "bilans1"),
		score("1", "31/12/2012", "bilans1"),
		score("1", "2012-12-31", ""),
	}
	nan := score("1", "2012-12-31", "bilans1")
	nan.Altman = "NaN"
	empty := score("1", "2012-12-31", "bilans1")
	empty.ZScore = ""
	rows = append(rows, nan, empty)

	t.Run("no filter", func(t *testing.T) {
		got, report, err := PreprocessScores(rows, ScoreFilter{}, nil)
		require.NoError(t, err)
		assert.Len(t, got, 5)
		assert.Equal(t, 4, report.Invalid)

		assert.Equal(t, domain.Score{
			CompanyID:   1,
			Year:        2012,
			Source:      "bilans1",
			Solvency:    1.5,
			ZScore:      -0.25,
			ConanHolder: 4,
			Altman:      2.75,
		}, got[0])
	})

	t.Run("configured filter", func(t *testing.T) {
		cfg := config.SourcesConfig{ScoreSource: "bilans1", ScoreMinYear: 2010, ScoreMaxYear: 2013}
		filter := NewScoreFilter(cfg, CompanySet{1: {}, 2: {}})

		got, report, err := PreprocessScores(rows, filter, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.ScoreKey{CompanyID: 1, Year: 2012}, got[0].Key())
		assert.Equal(t, 1, report.Kept)
	})

	t.Run("nothing left", func(t *testing.T) {
		_, _, err := PreprocessScores(rows, ScoreFilter{Source: "other"}, nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeEmptyResult))
	})
}

func TestCompanySet(t *testing.T) {
	var all CompanySet
	assert.True(t, all.Contains(42))

	set := CompaniesOf([]domain.Invoice{{CompanyID: 1}, {CompanyID: 3}, {CompanyID: 1}})
	assert.Len(t, set, 2)
	assert.True(t, set.Contains(3))
	assert.False(t, set.Contains(2))
}
