package core

// notation.go renders ingested samples as the lab's "input text" field.
//
// Flat input is comma-joined: "1,2,3". Grid input is row-major with rows
// separated by semicolons: "1,2,3;4,5,0". Views and transform stages that only
// see the text field can recover the numbers with ParseInputText.

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	colSep = ","
	rowSep = ";"
)

func formatSample(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatInputText renders a sequence as comma-joined text.
func FormatInputText(seq Sequence) string {
	parts := make([]string, len(seq))
	for i, v := range seq {
		parts[i] = formatSample(v)
	}
	return strings.Join(parts, colSep)
}

// FormatGridText renders a grid in row-major "a,b;c,d" notation.
func FormatGridText(g Grid) string {
	rows := make([]string, len(g))
	for i, row := range g {
		rows[i] = FormatInputText(row)
	}
	return strings.Join(rows, rowSep)
}

// ParseInputText reads text produced by FormatInputText or FormatGridText.
// Text containing a row separator is returned as a grid, otherwise as a
// one-row grid. Every cell must be a number and rows must be rectangular.
func ParseInputText(text string) (Grid, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyOrInvalidInput
	}

	lines := strings.Split(text, rowSep)
	g := make(Grid, 0, len(lines))
	for r, line := range lines {
		cells := strings.Split(line, colSep)
		row := make([]float64, len(cells))
		for c, cell := range cells {
			v, ok := parseToken(strings.TrimSpace(cell), true)
			if !ok {
				return nil, fmt.Errorf("row %d col %d %q: %w", r+1, c+1, cell, ErrInvalidToken)
			}
			row[c] = v
		}
		if r > 0 && len(row) != len(g[0]) {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", r+1, len(row), len(g[0]), ErrInvalidToken)
		}
		g = append(g, row)
	}
	return g, nil
}
