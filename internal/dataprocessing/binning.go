package dataprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"balag/internal/exporter"
)

// Log scale resolution of the distribution charts: bins per decade
const (
	idLogCoefficient     = 3
	amountLogCoefficient = 3
)

// heatmapBins is the number of bins per axis of the 2-D histograms
const heatmapBins = 20

// logEpsilon absorbs the rounding of math.Log10 at exact powers of ten
const logEpsilon = 1e-9

// logBin maps x to its bin on a log10 scale with coef bins per decade.
// Values below 1 fall in bin 0.
func logBin(x float64, coef float64) int {
	if x <= 1 {
		return 0
	}
	return int(math.Log10(x)*coef + logEpsilon)
}

// logDistribution counts values per log bin, from bin 0 to the highest bin
// reached
func logDistribution(values []float64, coef float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	bins := make([]float64, len(values))
	for i, v := range values {
		bins[i] = float64(logBin(v, coef))
	}
	sort.Float64s(bins)

	top := bins[len(bins)-1]
	dividers := make([]float64, int(top)+2)
	floats.Span(dividers, 0, top+1)

	return stat.Histogram(nil, dividers, bins, nil)
}

// normalize scales counts so they sum to one
func normalize(counts []float64) []float64 {
	out := append([]float64(nil), counts...)
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}

// mean returns the mean of values, 0 when empty
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// median returns the middle value, or the mean of the two middle values,
// of an unsorted slice
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// histogram2D bins the points (xs[i], ys[i]) on a regular grid spanning their
// range. Cells hold the percentage of points they contain.
func histogram2D(file, name, xlabel, ylabel string, xs, ys []float64) *exporter.Histogram2D {
	xEdges := edges(xs, heatmapBins)
	yEdges := edges(ys, heatmapBins)

	counts := make([][]float64, len(xEdges)-1)
	for i := range counts {
		counts[i] = make([]float64, len(yEdges)-1)
	}
	for i := range xs {
		counts[binIndex(xEdges, xs[i])][binIndex(yEdges, ys[i])]++
	}

	if n := float64(len(xs)); n > 0 {
		for _, row := range counts {
			floats.Scale(100/n, row)
		}
	}

	return &exporter.Histogram2D{
		File:   file,
		Name:   name,
		XLabel: xlabel,
		YLabel: ylabel,
		XEdges: xEdges,
		YEdges: yEdges,
		Counts: counts,
	}
}

// edges returns bins+1 evenly spaced edges covering values
func edges(values []float64, bins int) []float64 {
	lo, hi := floats.Min(values), floats.Max(values)
	if hi <= lo {
		hi = lo + 1
	}
	out := make([]float64, bins+1)
	return floats.Span(out, lo, hi)
}

// binIndex returns the bin of x; the last bin includes its upper edge
func binIndex(edges []float64, x float64) int {
	i := sort.SearchFloat64s(edges, x)
	if i < len(edges) && edges[i] == x {
		i++
	}
	i--
	if i < 0 {
		return 0
	}
	if i > len(edges)-2 {
		return len(edges) - 2
	}
	return i
}
