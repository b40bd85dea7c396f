package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Renderer draws chart data
type Renderer interface {
	RenderBar(h *Histogram) error
	RenderHeatmap(h *Histogram2D) error
}

const maxSheetName = 31

// WorkbookRenderer draws every chart on its own sheet of an Excel workbook:
// the data table at the top left and the chart next to it
type WorkbookRenderer struct {
	file   *excelize.File
	logger *slog.Logger
	sheets []string
	taken  map[string]bool
}

// NewWorkbookRenderer creates a renderer on an empty workbook
func NewWorkbookRenderer(logger *slog.Logger) *WorkbookRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookRenderer{
		file:   excelize.NewFile(),
		logger: logger,
		taken:  map[string]bool{"sheet1": true},
	}
}

// Sheets returns the sheets drawn so far, in workbook order
func (r *WorkbookRenderer) Sheets() []string {
	return append([]string(nil), r.sheets...)
}

// RenderBar writes the histogram data and a clustered column chart
func (r *WorkbookRenderer) RenderBar(h *Histogram) error {
	if err := h.Validate(); err != nil {
		return err
	}

	sheet, err := r.newSheet(h.File, h.Name)
	if err != nil {
		return err
	}

	series := h.Display()
	header := []interface{}{h.XLabel}
	for i, s := range series {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("y%d", i+1)
		}
		header = append(header, name)
	}
	if err := r.file.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for row, label := range h.X {
		values := []interface{}{label}
		for _, s := range series {
			values = append(values, s.Values[row])
		}
		cell, _ := excelize.CoordinatesToCellName(1, row+2)
		if err := r.file.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	last := len(h.X) + 1
	chart := &excelize.Chart{
		Type:   excelize.Col,
		Title:  []excelize.RichTextRun{{Text: h.Name}},
		Legend: excelize.ChartLegend{Position: "top"},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: h.XLabel}},
		},
		YAxis: excelize.ChartAxis{
			Title:          []excelize.RichTextRun{{Text: h.YLabel}},
			MajorGridLines: true,
		},
		Dimension: excelize.ChartDimension{Width: 960, Height: 480},
	}
	if h.YAxis == AxisLog {
		chart.YAxis.LogBase = 10
	}
	if len(series) == 1 && series[0].Name == "" {
		chart.Legend.Position = "none"
	}

	for i := range series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		chart.Series = append(chart.Series, excelize.ChartSeries{
			Name:       fmt.Sprintf("'%s'!$%s$1", sheet, col),
			Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", sheet, last),
			Values:     fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet, col, col, last),
		})
	}

	anchor, _ := excelize.ColumnNumberToName(len(series) + 3)
	if err := r.file.AddChart(sheet, anchor+"2", chart); err != nil {
		return fmt.Errorf("failed to add chart %q: %w", h.Name, err)
	}

	r.logger.Debug("Bar chart rendered",
		slog.String("sheet", sheet),
		slog.Int("bars", len(h.X)),
		slog.Int("series", len(series)))
	return nil
}

// RenderHeatmap writes the histogram as a grid coloured with a three colour
// scale, x bins as rows and y bins as columns
func (r *WorkbookRenderer) RenderHeatmap(h *Histogram2D) error {
	if err := h.Validate(); err != nil {
		return err
	}

	sheet, err := r.newSheet(h.File, h.Name)
	if err != nil {
		return err
	}

	title := []interface{}{h.Name, fmt.Sprintf("%s / %s", h.XLabel, h.YLabel)}
	if err := r.file.SetSheetRow(sheet, "A1", &title); err != nil {
		return err
	}

	header := []interface{}{h.XLabel}
	for j := 0; j+1 < len(h.YEdges); j++ {
		header = append(header, binLabel(h.YEdges[j], h.YEdges[j+1]))
	}
	if err := r.file.SetSheetRow(sheet, "A2", &header); err != nil {
		return err
	}

	for i, counts := range h.Counts {
		row := []interface{}{binLabel(h.XEdges[i], h.XEdges[i+1])}
		for _, c := range counts {
			row = append(row, c)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		if err := r.file.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	first, _ := excelize.CoordinatesToCellName(2, 3)
	last, _ := excelize.CoordinatesToCellName(len(h.YEdges), len(h.Counts)+2)
	err = r.file.SetConditionalFormat(sheet, first+":"+last, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "min",
		MidType:  "percentile",
		MidValue: "50",
		MaxType:  "max",
		MinColor: "#0C3383",
		MidColor: "#F2D338",
		MaxColor: "#D91E1E",
	}})
	if err != nil {
		return fmt.Errorf("failed to colour heatmap %q: %w", h.Name, err)
	}

	r.logger.Debug("Heatmap rendered",
		slog.String("sheet", sheet),
		slog.Int("rows", len(h.Counts)),
		slog.Int("columns", len(h.YEdges)-1))
	return nil
}

// SaveAs writes the workbook and releases it
func (r *WorkbookRenderer) SaveAs(path string) error {
	defer r.file.Close()

	if len(r.sheets) == 0 {
		return fmt.Errorf("no chart was rendered")
	}

	if err := r.file.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	r.file.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := r.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	r.logger.Info("Workbook saved",
		slog.String("file", path),
		slog.Int("sheets", len(r.sheets)))
	return nil
}

func (r *WorkbookRenderer) newSheet(file, title string) (string, error) {
	base := sheetName(file)
	if base == "" {
		base = sheetName(title)
	}
	if base == "" {
		base = "Chart"
	}

	name := base
	for i := 2; r.taken[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("_%d", i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}

	if _, err := r.file.NewSheet(name); err != nil {
		return "", fmt.Errorf("failed to create sheet %q: %w", name, err)
	}
	r.sheets = append(r.sheets, name)
	r.taken[strings.ToLower(name)] = true
	return name, nil
}

// sheetName strips the characters Excel forbids in sheet names
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']', '\'':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	return truncate(s, maxSheetName)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func binLabel(lo, hi float64) string {
	return fmt.Sprintf("[%s, %s)", formatFloat(lo), formatFloat(hi))
}

// RenderDir draws every chart file of dir with r, in file name order.
// Files that cannot be parsed are logged and skipped; the number of charts
// drawn is returned.
func RenderDir(dir string, r Renderer, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	drawn := 0
	for _, name := range names {
		path := filepath.Join(dir, name)

		switch filepath.Ext(name) {
		case HistogramExt:
			h, err := LoadHistogram(path)
			if err != nil {
				logger.Warn("Skipping chart file", slog.String("file", name), slog.String("error", err.Error()))
				continue
			}
			if err := r.RenderBar(h); err != nil {
				return drawn, err
			}
		case Histogram2DExt:
			h, err := LoadHistogram2D(path)
			if err != nil {
				logger.Warn("Skipping chart file", slog.String("file", name), slog.String("error", err.Error()))
				continue
			}
			if err := r.RenderHeatmap(h); err != nil {
				return drawn, err
			}
		default:
			continue
		}

		drawn++
		logger.Info("Chart rendered", slog.String("file", name))
	}

	return drawn, nil
}
