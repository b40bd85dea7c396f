package operations

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"balag/internal/config"
	"balag/internal/dataprocessing"
	apperrors "balag/internal/errors"
	"balag/internal/exporter"
	"balag/internal/infrastructure"
	"balag/internal/sources"
	"balag/pkg/contracts/domain"
)

// Separator returns the first rune of a configured separator, tab when empty
func Separator(s string) rune {
	for _, r := range s {
		return r
	}
	return '\t'
}

// LoadInvoicesStep fetches the BalAG extract and parses it into raw invoices
type LoadInvoicesStep struct {
	BaseStep
	Source    sources.Source
	File      string
	Separator rune
	Metrics   *infrastructure.PipelineMetrics
}

// NewLoadInvoicesStep creates the loading step
func NewLoadInvoicesStep(src sources.Source, file string, sep rune, metrics *infrastructure.PipelineMetrics) *LoadInvoicesStep {
	return &LoadInvoicesStep{
		BaseStep:  NewBaseStep(StepIDLoad, StepNameLoad),
		Source:    src,
		File:      file,
		Separator: sep,
		Metrics:   metrics,
	}
}

// Validate implements Step
func (s *LoadInvoicesStep) Validate(*OperationState) error {
	if s.Source == nil || s.File == "" {
		return fmt.Errorf("no BalAG source configured")
	}
	return nil
}

// Execute implements Step
func (s *LoadInvoicesStep) Execute(ctx context.Context, state *OperationState) error {
	table, err := sources.Fetch(ctx, s.Source, s.File, sources.TableOptions{Separator: s.Separator})
	if err != nil {
		return err
	}

	rows, err := dataprocessing.ParseInvoices(table)
	if err != nil {
		return err
	}

	s.Metrics.RowsLoaded(ctx, "balag", len(rows))
	state.Raw = rows
	state.GetStep(s.ID()).SetMetadata("rows", len(rows))
	return nil
}

// CleanInvoicesStep applies every cleaning rule to the loaded rows and
// converts the kept rows to typed invoices
type CleanInvoicesStep struct {
	BaseStep
	Cleaner *dataprocessing.Cleaner
	Logger  *slog.Logger
}

// NewCleanInvoicesStep creates the cleaning step
func NewCleanInvoicesStep(cleaner *dataprocessing.Cleaner, logger *slog.Logger) *CleanInvoicesStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanInvoicesStep{
		BaseStep: NewBaseStep(StepIDClean, StepNameClean),
		Cleaner:  cleaner,
		Logger:   logger,
	}
}

// Validate implements Step
func (s *CleanInvoicesStep) Validate(state *OperationState) error {
	if len(state.Raw) == 0 {
		return fmt.Errorf("no invoice loaded")
	}
	return nil
}

// Execute implements Step
func (s *CleanInvoicesStep) Execute(ctx context.Context, state *OperationState) error {
	kept, report, err := s.Cleaner.CleanAll(ctx, state.Raw)
	if err != nil {
		return err
	}

	invoices, skipped := dataprocessing.Materialize(kept)
	if skipped > 0 {
		s.Logger.WarnContext(ctx, "Cleaned rows that cannot be typed were dropped",
			slog.Int("skipped", skipped))
	}
	if len(invoices) == 0 {
		return apperrors.NewEmptyResultError("invoice conversion")
	}

	state.Cleaned = kept
	state.Cleaning = report
	state.Invoices = invoices

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"rows.input":   report.Input,
		"rows.kept":    len(kept),
		"rows.skipped": skipped,
	})

	step := state.GetStep(s.ID())
	step.SetMetadata("kept", len(kept))
	step.SetMetadata("removed_percent", report.Percent())
	return nil
}

// EnrichStep fetches the Etab and Score extracts concurrently, preprocesses
// them for the companies of the cleaned invoices and joins everything into
// learning rows
type EnrichStep struct {
	BaseStep
	Source  sources.Source
	Config  config.SourcesConfig
	Today   time.Time
	Logger  *slog.Logger
	Metrics *infrastructure.PipelineMetrics
}

// NewEnrichStep creates the enrichment step; ages are counted at today
func NewEnrichStep(src sources.Source, cfg config.SourcesConfig, today time.Time, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *EnrichStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichStep{
		BaseStep: NewBaseStep(StepIDEnrich, StepNameEnrich),
		Source:   src,
		Config:   cfg,
		Today:    today,
		Logger:   logger,
		Metrics:  metrics,
	}
}

// Validate implements Step
func (s *EnrichStep) Validate(state *OperationState) error {
	if len(state.Invoices) == 0 {
		return fmt.Errorf("no cleaned invoice to enrich")
	}
	if s.Source == nil {
		return fmt.Errorf("no Etab/Score source configured")
	}
	return nil
}

// Execute implements Step
func (s *EnrichStep) Execute(ctx context.Context, state *OperationState) error {
	var (
		etab   []domain.Establishment
		scores []domain.RawScore
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		table, err := sources.Fetch(gctx, s.Source, s.Config.EtabFile, sources.TableOptions{
			Separator: Separator(s.Config.EtabSeparator),
			Columns:   domain.EstablishmentColumns,
		})
		if err != nil {
			return err
		}
		etab, err = dataprocessing.ParseEstablishments(table)
		return err
	})
	g.Go(func() error {
		table, err := sources.Fetch(gctx, s.Source, s.Config.ScoreFile, sources.TableOptions{
			Separator: Separator(s.Config.ScoreSeparator),
			Columns:   domain.ScoreColumns,
		})
		if err != nil {
			return err
		}
		scores, err = dataprocessing.ParseScores(table)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	s.Metrics.RowsLoaded(ctx, "etab", len(etab))
	s.Metrics.RowsLoaded(ctx, "score", len(scores))

	companies := dataprocessing.CompaniesOf(state.Invoices)

	merged, etabReport, err := dataprocessing.PreprocessEtab(etab, companies, s.Logger)
	if err != nil {
		return err
	}
	kept, scoreReport, err := dataprocessing.PreprocessScores(scores, dataprocessing.NewScoreFilter(s.Config, companies), s.Logger)
	if err != nil {
		return err
	}

	today := s.Today
	if today.IsZero() {
		today = time.Now()
	}
	features, join := dataprocessing.BuildFeatures(state.Invoices, merged, kept, today)

	s.Logger.InfoContext(ctx, "Invoices enriched",
		slog.Int("companies", len(merged)),
		slog.Float64("etab_removed_percent", etabReport.Percent()),
		slog.Int("scores", len(kept)),
		slog.Float64("score_removed_percent", scoreReport.Percent()),
		slog.Int("missing_company", join.MissingCompany),
		slog.Int("missing_score", join.MissingScore),
		slog.Int("rows", join.Rows))

	if len(features) == 0 {
		return apperrors.NewEmptyResultError("feature join")
	}

	state.Establishments = etab
	state.Companies = merged
	state.Scores = kept
	state.RawScores = scores
	state.Features = features
	state.Join = join
	state.GetStep(s.ID()).SetMetadata("rows", len(features))
	return nil
}

// ExportStep writes whatever tables the previous steps produced. Empty file
// names are not written. When Sink is set the cleaned invoices are also
// uploaded to it.
type ExportStep struct {
	BaseStep
	Writer       *exporter.CSVWriter
	CleanedFile  string
	ReportFile   string
	FeaturesFile string
	Sink         sources.Sink
	RemoteName   string
}

// NewExportStep creates the export step
func NewExportStep(writer *exporter.CSVWriter, cleanedFile, reportFile, featuresFile string) *ExportStep {
	return &ExportStep{
		BaseStep:     NewBaseStep(StepIDExport, StepNameExport),
		Writer:       writer,
		CleanedFile:  cleanedFile,
		ReportFile:   reportFile,
		FeaturesFile: featuresFile,
	}
}

// Validate implements Step
func (s *ExportStep) Validate(state *OperationState) error {
	if s.Writer == nil {
		return fmt.Errorf("no writer configured")
	}
	if len(state.Cleaned) == 0 && len(state.Features) == 0 {
		return fmt.Errorf("nothing to export")
	}
	return nil
}

// Execute implements Step
func (s *ExportStep) Execute(ctx context.Context, state *OperationState) error {
	if s.CleanedFile != "" && len(state.Cleaned) > 0 {
		if err := s.Writer.WriteInvoices(s.CleanedFile, state.Cleaned); err != nil {
			return apperrors.NewStorageError("failed to export cleaned invoices", err)
		}
		state.AddOutput(s.Writer.Path(s.CleanedFile))
	}

	if s.ReportFile != "" && state.Cleaning != nil {
		// the report is read by people, not by the next stage
		report := s.Writer.WithDelimiter(',')
		if err := report.WriteCleaningReport(s.ReportFile, state.Cleaning.Rows()); err != nil {
			return apperrors.NewStorageError("failed to export cleaning report", err)
		}
		state.AddOutput(report.Path(s.ReportFile))
	}

	if s.FeaturesFile != "" && len(state.Features) > 0 {
		if err := s.Writer.WriteFeatures(s.FeaturesFile, state.Features); err != nil {
			return apperrors.NewStorageError("failed to export features", err)
		}
		state.AddOutput(s.Writer.Path(s.FeaturesFile))
	}

	if s.Sink != nil && len(state.Cleaned) > 0 {
		name := s.RemoteName
		if name == "" {
			name = filepath.Base(s.CleanedFile)
		}
		if err := sources.Store(ctx, s.Sink, name, dataprocessing.InvoiceTable(state.Cleaned)); err != nil {
			return err
		}
		state.AddOutput(name)
	}

	if s.Sink != nil && s.FeaturesFile != "" && len(state.Features) > 0 {
		name := filepath.Base(s.FeaturesFile)
		if err := sources.Store(ctx, s.Sink, name, dataprocessing.FeatureTable(state.Features)); err != nil {
			return err
		}
		state.AddOutput(name)
	}

	return nil
}

// AnalyzeStep computes the descriptive analysis of the cleaned invoices and
// saves its charts into Dir, or into a fresh analysis run directory when Dir
// is empty. Establishments and scores loaded by EnrichStep are analyzed too,
// scores through ScoreFilter.
type AnalyzeStep struct {
	BaseStep
	Analyzer    *dataprocessing.Analyzer
	Paths       *config.Paths
	Dir         string
	ScoreFilter dataprocessing.ScoreFilter
	Now         func() time.Time
}

// NewAnalyzeStep creates the analysis step
func NewAnalyzeStep(analyzer *dataprocessing.Analyzer, paths *config.Paths) *AnalyzeStep {
	return &AnalyzeStep{
		BaseStep: NewBaseStep(StepIDAnalyze, StepNameAnalyze),
		Analyzer: analyzer,
		Paths:    paths,
		Now:      time.Now,
	}
}

// Validate implements Step
func (s *AnalyzeStep) Validate(state *OperationState) error {
	if len(state.Invoices) == 0 {
		return fmt.Errorf("no cleaned invoice to analyze")
	}
	if s.Dir == "" && s.Paths == nil {
		return fmt.Errorf("no analysis directory configured")
	}
	return nil
}

// Execute implements Step
func (s *AnalyzeStep) Execute(ctx context.Context, state *OperationState) error {
	analysis, err := s.Analyzer.AnalyzeAll(ctx, state.Invoices, dataprocessing.Extracts{
		Etab:        state.Establishments,
		Scores:      state.RawScores,
		ScoreFilter: s.ScoreFilter,
	})
	if err != nil {
		return err
	}

	dir := s.Dir
	if dir == "" {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		dir, err = s.Paths.NextAnalysisDir(now())
		if err != nil {
			return apperrors.NewStorageError("cannot create analysis directory", err)
		}
	}

	files, err := analysis.Save(dir)
	if err != nil {
		return err
	}

	state.Analysis = analysis
	state.AnalysisDir = dir
	state.AddOutput(files...)
	state.GetStep(s.ID()).SetMetadata("files", len(files))
	return nil
}
