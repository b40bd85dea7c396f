package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

// formatFloat formats a value with the shortest exact representation
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatPercent formats a ratio already expressed in percent with exactly 2
// decimal places
func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

// joinFloats renders values as a comma separated list
func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ",")
}

// splitList splits a comma separated list, dropping the quotes some writers
// put around labels
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 && p[0] == '\'' && p[len(p)-1] == '\'' {
			p = p[1 : len(p)-1]
		}
		parts[i] = p
	}
	return parts
}

// parseFloats parses a comma separated list of numbers
func parseFloats(s string) ([]float64, error) {
	parts := splitList(s)
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}
