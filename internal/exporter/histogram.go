package exporter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File extensions of the chart data files of an analysis directory
const (
	HistogramExt   = ".txt"
	Histogram2DExt = ".hist2d"
)

// Y axis scales
const (
	AxisLinear = "linear"
	AxisLog    = "log"
)

const maxSeries = 3

// Series is one set of bars of a histogram
type Series struct {
	Name   string
	Values []float64
}

// Histogram is a bar chart with up to three series sharing the x labels
type Histogram struct {
	// File is the base name of the chart file, without extension
	File    string
	Name    string
	XLabel  string
	YLabel  string
	YAxis   string
	X       []string
	Series  []Series
	Percent bool
}

// Validate checks that the histogram can be written and drawn
func (h *Histogram) Validate() error {
	if len(h.Series) == 0 || len(h.Series) > maxSeries {
		return fmt.Errorf("histogram %q has %d series, want 1 to %d", h.Name, len(h.Series), maxSeries)
	}
	for i, s := range h.Series {
		if len(s.Values) != len(h.X) {
			return fmt.Errorf("histogram %q series %d has %d values for %d labels", h.Name, i+1, len(s.Values), len(h.X))
		}
	}
	if h.YAxis != "" && h.YAxis != AxisLinear && h.YAxis != AxisLog {
		return fmt.Errorf("histogram %q has unknown y axis type %q", h.Name, h.YAxis)
	}
	return nil
}

// Display returns the series values to draw, scaled so each series sums to
// 100 when Percent is set
func (h *Histogram) Display() []Series {
	if !h.Percent {
		return h.Series
	}
	out := make([]Series, len(h.Series))
	for i, s := range h.Series {
		total := 0.0
		for _, v := range s.Values {
			total += v
		}
		values := make([]float64, len(s.Values))
		if total != 0 {
			for j, v := range s.Values {
				values[j] = 100 * v / total
			}
		}
		out[i] = Series{Name: s.Name, Values: values}
	}
	return out
}

// WriteTo writes the histogram in the key:value text layout
// (name, xlabel, ylabel, typeyaxis, x, y1, name1, percent, then y2/name2 and
// y3/name3 when present)
func (h *Histogram) WriteTo(w io.Writer) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}

	yaxis := h.YAxis
	if yaxis == "" {
		yaxis = AxisLinear
	}

	var b strings.Builder
	fmt.Fprintf(&b, "name:%s\n", h.Name)
	fmt.Fprintf(&b, "xlabel:%s\n", h.XLabel)
	fmt.Fprintf(&b, "ylabel:%s\n", h.YLabel)
	fmt.Fprintf(&b, "typeyaxis:%s\n", yaxis)
	fmt.Fprintf(&b, "x:%s\n", strings.Join(h.X, ","))
	fmt.Fprintf(&b, "y1:%s\n", joinFloats(h.Series[0].Values))
	fmt.Fprintf(&b, "name1:%s\n", h.Series[0].Name)
	fmt.Fprintf(&b, "percent:%s\n", titleBool(h.Percent))
	for i := 1; i < len(h.Series); i++ {
		fmt.Fprintf(&b, "y%d:%s\n", i+1, joinFloats(h.Series[i].Values))
		fmt.Fprintf(&b, "name%d:%s\n", i+1, h.Series[i].Name)
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ReadHistogram parses a histogram written by WriteTo. Unknown keys are
// ignored and missing labels keep their defaults.
func ReadHistogram(r io.Reader) (*Histogram, error) {
	h := &Histogram{Name: "Untitled", YAxis: AxisLinear}
	values := make([][]float64, maxSeries)
	names := make([]string, maxSeries)
	seen := make([]bool, maxSeries)
	hasX := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		key, value, ok := strings.Cut(strings.TrimRight(scanner.Text(), "\r"), ":")
		if !ok {
			continue
		}

		switch key {
		case "name":
			h.Name = value
		case "xlabel":
			h.XLabel = value
		case "ylabel":
			h.YLabel = value
		case "typeyaxis":
			h.YAxis = value
		case "percent":
			h.Percent = strings.HasPrefix(value, "True")
		case "x":
			h.X = splitList(value)
			hasX = true
		case "y1", "y2", "y3":
			idx := int(key[1] - '1')
			v, err := parseFloats(value)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, key, err)
			}
			values[idx] = v
			seen[idx] = true
		case "name1", "name2", "name3":
			names[int(key[4]-'1')] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !hasX || !seen[0] {
		return nil, fmt.Errorf("histogram %q lacks x or y1", h.Name)
	}
	for i := 0; i < maxSeries && seen[i]; i++ {
		h.Series = append(h.Series, Series{Name: names[i], Values: values[i]})
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Histogram2D is a two dimensional histogram. Counts[i][j] covers
// [XEdges[i], XEdges[i+1]) x [YEdges[j], YEdges[j+1]).
type Histogram2D struct {
	File   string
	Name   string
	XLabel string
	YLabel string
	XEdges []float64
	YEdges []float64
	Counts [][]float64
}

// Validate checks the edges and counts agree
func (h *Histogram2D) Validate() error {
	if len(h.XEdges) < 2 || len(h.YEdges) < 2 {
		return fmt.Errorf("histogram %q needs at least two edges per axis", h.Name)
	}
	if len(h.Counts) != len(h.XEdges)-1 {
		return fmt.Errorf("histogram %q has %d rows for %d x bins", h.Name, len(h.Counts), len(h.XEdges)-1)
	}
	for i, row := range h.Counts {
		if len(row) != len(h.YEdges)-1 {
			return fmt.Errorf("histogram %q row %d has %d cells for %d y bins", h.Name, i, len(row), len(h.YEdges)-1)
		}
	}
	return nil
}

// WriteTo writes the histogram: labels, xedges, yedges and one row: line
// per x bin
func (h *Histogram2D) WriteTo(w io.Writer) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "name:%s\n", h.Name)
	fmt.Fprintf(&b, "xlabel:%s\n", h.XLabel)
	fmt.Fprintf(&b, "ylabel:%s\n", h.YLabel)
	fmt.Fprintf(&b, "xedges:%s\n", joinFloats(h.XEdges))
	fmt.Fprintf(&b, "yedges:%s\n", joinFloats(h.YEdges))
	for _, row := range h.Counts {
		fmt.Fprintf(&b, "row:%s\n", joinFloats(row))
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ReadHistogram2D parses a histogram written by Histogram2D.WriteTo
func ReadHistogram2D(r io.Reader) (*Histogram2D, error) {
	h := &Histogram2D{Name: "Untitled"}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		key, value, ok := strings.Cut(strings.TrimRight(scanner.Text(), "\r"), ":")
		if !ok {
			continue
		}

		var err error
		switch key {
		case "name":
			h.Name = value
		case "xlabel":
			h.XLabel = value
		case "ylabel":
			h.YLabel = value
		case "xedges":
			h.XEdges, err = parseFloats(value)
		case "yedges":
			h.YEdges, err = parseFloats(value)
		case "row":
			var row []float64
			row, err = parseFloats(value)
			h.Counts = append(h.Counts, row)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// SaveHistogram writes h as <dir>/<h.File>.txt
func SaveHistogram(dir string, h *Histogram) (string, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}
	return saveChart(dir, h.File, HistogramExt, h)
}

// SaveHistogram2D writes h as <dir>/<h.File>.hist2d
func SaveHistogram2D(dir string, h *Histogram2D) (string, error) {
	if err := h.Validate(); err != nil {
		return "", err
	}
	return saveChart(dir, h.File, Histogram2DExt, h)
}

// LoadHistogram reads a .txt chart file, naming it after the file
func LoadHistogram(path string) (*Histogram, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	h, err := ReadHistogram(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	h.File = strings.TrimSuffix(filepath.Base(path), HistogramExt)
	return h, nil
}

// LoadHistogram2D reads a .hist2d chart file, naming it after the file
func LoadHistogram2D(path string) (*Histogram2D, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	h, err := ReadHistogram2D(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	h.File = strings.TrimSuffix(filepath.Base(path), Histogram2DExt)
	return h, nil
}

func saveChart(dir, name, ext string, chart io.WriterTo) (string, error) {
	if name == "" {
		return "", fmt.Errorf("chart has no file name")
	}
	path := filepath.Join(dir, name+ext)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	if _, err := chart.WriteTo(file); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	return path, file.Close()
}

// titleBool renders b as True or False, the spelling of existing chart files
func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
