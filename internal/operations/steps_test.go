package operations

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balag/internal/config"
	"balag/internal/dataprocessing"
	apperrors "balag/internal/errors"
	"balag/internal/exporter"
	"balag/internal/shared/testutil"
	"balag/internal/sources"
	"balag/internal/validation"
	"balag/pkg/contracts/domain"
)

const balagFile = "entrep_id\tdatePiece\tdateEcheance\tdateDernierPaiement\tmontantPieceEur\tmontantLitige\tdevise\tdateInsert\n" +
	"1\t2012-01-10\t2012-02-09\t2012-02-20\t5000\t0\tEUR\t2010-01-13 00:00:00\n" +
	"1\t2013-03-01\t2013-04-01\t0000-00-00\t8000\t0\tEUR\t2010-01-13 00:00:00\n" +
	"2\t2012-06-01\t2012-07-01\t2012-07-15\t20000\t0\tEUR\t2011-05-02 10:00:00\n" +
	"3\t2012-06-01\t2012-05-01\t0000-00-00\t5000\t0\tEUR\t2010-01-13 00:00:00\n" +
	"2\t2012-06-01\t2012-07-01\t0000-00-00\t10\t0\tEUR\t2010-01-13 00:00:00\n"

const etabFile = "entrep_id\tcapital\tDCREN\tEFF_ENT\tville\n" +
	"1\t5000\t2000-01-01\t12\tLyon\n" +
	"1\t3000\t1999-06-01\t4\tParis\n" +
	"2\t100\t2010-01-01\t1\tNantes\n" +
	"9\t100\t2010-01-01\t1\tLille\n"

const scoreFile = "entrep_id\tdateBilan\tsourceModif\tscoreSolv\tscoreZ\tscoreCH\tscoreAltman\n" +
	"1\t2012-12-31\tbilans1\t1\t2\t3\t4\n" +
	"1\t2013-12-31\tbilans1\t5\t6\t7\t8\n" +
	"2\t2012-12-31\tbilans1\t1\t1\t1\t1\n"

type pipelineFixture struct {
	paths   *config.Paths
	source  *sources.LocalSource
	sources config.SourcesConfig
	cleaner *dataprocessing.Cleaner
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	root := t.TempDir()
	paths := config.NewPaths(root)
	require.NoError(t, paths.EnsureDirectories())

	testutil.WriteExtract(t, paths.RawDir, "balag.csv.gz", balagFile)
	testutil.WriteExtract(t, paths.RawDir, "etab.csv", etabFile)
	testutil.WriteExtract(t, paths.RawDir, "score.csv", scoreFile)

	v, err := validation.NewValidator(config.DefaultCleaning())
	require.NoError(t, err)

	return &pipelineFixture{
		paths:  paths,
		source: sources.NewLocalSource(paths.RawDir, nil),
		sources: config.SourcesConfig{
			BalAGFile:      "balag.csv.gz",
			BalAGSeparator: "\t",
			EtabFile:       "etab.csv",
			EtabSeparator:  "\t",
			ScoreFile:      "score.csv",
			ScoreSeparator: "\t",
		},
		cleaner: dataprocessing.NewCleaner(v, nil, nil),
	}
}

func TestSeparator(t *testing.T) {
	assert.Equal(t, '\t', Separator(""))
	assert.Equal(t, ';', Separator(";"))
	assert.Equal(t, '\t', Separator("\t"))
}

func TestPipeline_CleanExportAnalyze(t *testing.T) {
	f := newPipelineFixture(t)
	remote := t.TempDir()
	sink := sources.NewLocalSource(remote, nil)

	export := NewExportStep(exporter.NewTSVWriter(f.paths), "cleaned.csv", DefaultCleaningReportFile, "")
	export.Sink = sink
	export.RemoteName = "cleaned.csv.gz"

	analyze := NewAnalyzeStep(dataprocessing.NewAnalyzer(nil), f.paths)
	analyze.Now = func() time.Time { return time.Date(2014, 3, 5, 9, 30, 0, 0, time.UTC) }

	r := NewRunner(nil, nil, nil)
	require.NoError(t, r.Add(
		NewLoadInvoicesStep(f.source, f.sources.BalAGFile, Separator(f.sources.BalAGSeparator), nil),
		NewCleanInvoicesStep(f.cleaner, nil),
		export,
		analyze,
	))

	state := NewOperationState("clean")
	require.NoError(t, r.Run(context.Background(), state))

	assert.Len(t, state.Raw, 5)
	assert.Len(t, state.Cleaned, 3)
	assert.Len(t, state.Invoices, 3)
	require.NotNil(t, state.Cleaning)
	assert.Equal(t, 2, state.Cleaning.Removed())

	cleaned, err := os.ReadFile(filepath.Join(f.paths.ProcessedDir, "cleaned.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(cleaned)), "\n"), 4)
	report, err := os.ReadFile(filepath.Join(f.paths.ReportsDir, "cleaning_report.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(report), strings.Join(exporter.CleaningReportHeaders, ",")+"\n"))

	table, err := sources.Fetch(context.Background(), sink, "cleaned.csv.gz", sources.TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	require.NotNil(t, state.Analysis)
	assert.Equal(t, filepath.Join(f.paths.AnalysisDir, "0_05-03-14_09-30"), state.AnalysisDir)
	assert.Nil(t, state.Analysis.Etab)
	assert.FileExists(t, filepath.Join(state.AnalysisDir, dataprocessing.SummaryFile))
	assert.Contains(t, state.Outputs, "cleaned.csv.gz")

	step := state.GetStep(StepIDAnalyze)
	files, ok := step.GetMetadata("files")
	require.True(t, ok)
	assert.Greater(t, files.(int), 0)
}

func TestPipeline_Preprocess(t *testing.T) {
	f := newPipelineFixture(t)
	today := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)

	sink := sources.NewLocalSource(t.TempDir(), nil)
	export := NewExportStep(exporter.NewTSVWriter(f.paths), "", "", "features.csv")
	export.Sink = sink

	r := NewRunner(nil, nil, nil)
	require.NoError(t, r.Add(
		NewLoadInvoicesStep(f.source, f.sources.BalAGFile, '\t', nil),
		NewCleanInvoicesStep(f.cleaner, nil),
		NewEnrichStep(f.source, f.sources, today, nil, nil),
		export,
	))

	state := NewOperationState("preprocess")
	require.NoError(t, r.Run(context.Background(), state))

	assert.Len(t, state.Establishments, 4)
	require.Len(t, state.Companies, 2)
	assert.Equal(t, int64(5000), state.Companies[0].Capital)
	assert.Len(t, state.Scores, 3)
	require.Len(t, state.Features, 3)
	assert.Equal(t, 3, state.Join.Rows)
	assert.Equal(t, 16, state.Features[0].Age)

	featuresPath := filepath.Join(f.paths.ProcessedDir, "features.csv")
	assert.Equal(t, []string{featuresPath, "features.csv"}, state.Outputs)

	uploaded, err := sources.Fetch(context.Background(), sink, "features.csv", sources.TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.FeatureColumns, uploaded.Header)
	assert.Equal(t, 3, uploaded.Len())

	file, err := os.Open(featuresPath)
	require.NoError(t, err)
	defer file.Close()
	table, err := sources.ReadTable(file, sources.TableOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestPipeline_PreprocessAnalyze(t *testing.T) {
	f := newPipelineFixture(t)

	analyze := NewAnalyzeStep(dataprocessing.NewAnalyzer(nil), f.paths)
	analyze.Dir = filepath.Join(t.TempDir(), "analysis")
	analyze.ScoreFilter = dataprocessing.NewScoreFilter(config.SourcesConfig{ScoreSource: "bilans1"}, nil)

	r := NewRunner(nil, nil, nil)
	require.NoError(t, r.Add(
		NewLoadInvoicesStep(f.source, f.sources.BalAGFile, '\t', nil),
		NewCleanInvoicesStep(f.cleaner, nil),
		NewEnrichStep(f.source, f.sources, time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC), nil, nil),
		analyze,
	))

	state := NewOperationState("preprocess")
	require.NoError(t, r.Run(context.Background(), state))
	assert.Len(t, state.RawScores, 3)

	analysis := state.Analysis
	require.NotNil(t, analysis)
	require.NotNil(t, analysis.Etab)
	require.NotNil(t, analysis.Coverage)
	assert.Equal(t, 2, analysis.Coverage.Companies)
	assert.Equal(t, 3, analysis.Coverage.Etab.Companies)
	assert.Equal(t, 0, analysis.Coverage.Etab.Missing)
	assert.Equal(t, 0, analysis.Coverage.Scores.Missing)
	require.NotNil(t, analysis.Scores)
	assert.Equal(t, 3, analysis.Scores.Merged)
	assert.InDelta(t, 100.0, analysis.Scores.CoveragePercent, 1e-9)
	assert.FileExists(t, filepath.Join(analyze.Dir, dataprocessing.SummaryFile))
}

func TestEnrichStep_MissingExtract(t *testing.T) {
	f := newPipelineFixture(t)
	f.sources.ScoreFile = "absent.csv"

	logger, logs := testutil.NewTestLogger(t)
	enrich := NewEnrichStep(f.source, f.sources, time.Now(), logger, nil)
	r := NewRunner(logger, nil, nil).WithRetry(fastRetry(2))
	require.NoError(t, r.Add(
		NewLoadInvoicesStep(f.source, f.sources.BalAGFile, '\t', nil),
		NewCleanInvoicesStep(f.cleaner, nil),
		enrich,
	))

	state := NewOperationState("missing")
	err := r.Run(context.Background(), state)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFetch))
	assert.Equal(t, 2, state.GetStep(StepIDEnrich).Attempts)
	assert.Equal(t, StepStatusFailed, state.GetStep(StepIDEnrich).GetStatus())
	assert.Empty(t, state.Features)

	assert.Equal(t, 1, logs.Count("step_retry"))
	testutil.AssertLogContains(t, logs, slog.LevelError, "operation_error")
	failure, ok := logs.Find("operation_error")
	require.True(t, ok)
	assert.Equal(t, StepIDEnrich, failure.Attrs["step"])
}

func TestStepValidation(t *testing.T) {
	empty := NewOperationState("empty")

	tests := []struct {
		name string
		step Step
	}{
		{name: "load without source", step: NewLoadInvoicesStep(nil, "balag.csv", '\t', nil)},
		{name: "clean without rows", step: NewCleanInvoicesStep(nil, nil)},
		{name: "enrich without invoices", step: NewEnrichStep(nil, config.SourcesConfig{}, time.Time{}, nil, nil)},
		{name: "export without tables", step: NewExportStep(exporter.NewTSVWriter(nil), "a.csv", "", "")},
		{name: "analyze without invoices", step: NewAnalyzeStep(nil, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.step.Validate(empty))
		})
	}
}
