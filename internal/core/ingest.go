package core

// ingest.go turns raw text files into numeric samples.
//
// Parsing is tolerant by default: the file is split on runs of whitespace and
// commas, every token is read as a decimal number, and anything that does not
// start with a number is dropped and counted. Only a file with no numbers at
// all is rejected. Strict mode rejects the first bad token instead.
//
// Grid mode reshapes the same flat samples into a near-square matrix:
//
//	rows = floor(sqrt(M))
//	cols = ceil(M / rows)
//
// The tail is zero-padded to rows*cols cells and sliced row-major.

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextExtension is the only file extension accepted for ingest.
const TextExtension = ".txt"

// numberPrefix matches the leading decimal literal of a token.
// A token like "12px" yields 12; "px12" yields nothing.
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// utf8BOM is stripped from the start of files saved by Windows editors.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseOptions tunes token handling.
type ParseOptions struct {
	// Strict fails on the first token that is not entirely a finite number.
	Strict bool
}

// Samples is the flat parse of one file.
type Samples struct {
	Values  Sequence
	Skipped int
}

// Count returns the number of samples kept.
func (s Samples) Count() int { return len(s.Values) }

// ValidateFileName checks the extension before any read is attempted.
func ValidateFileName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), TextExtension) {
		return fmt.Errorf("%q: %w", filepath.Base(name), ErrUnsupportedFileType)
	}
	return nil
}

// Decode returns the file contents as text, dropping a leading BOM and
// replacing invalid UTF-8 with U+FFFD.
func Decode(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// Tokenize splits text on any run of whitespace and commas.
// Consecutive separators collapse, so no empty tokens are produced.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, isSeparator)
}

// isSeparator matches commas and the JavaScript \s class: Unicode white space
// plus U+FEFF, without NEL (U+0085).
func isSeparator(r rune) bool {
	switch r {
	case ',', '\uFEFF':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}

// parseToken reads one token. Lenient parsing takes the longest numeric prefix;
// strict parsing requires the whole token to be a number.
func parseToken(tok string, strict bool) (float64, bool) {
	lit := numberPrefix.FindString(tok)
	if lit == "" || (strict && lit != tok) {
		return 0, false
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// ParseFlat parses file bytes into a sequence in file order.
// Returns ErrEmptyOrInvalidInput if no token is numeric.
func ParseFlat(data []byte, opts ParseOptions) (Samples, error) {
	tokens := Tokenize(Decode(data))

	s := Samples{Values: make(Sequence, 0, len(tokens))}
	for i, tok := range tokens {
		v, ok := parseToken(tok, opts.Strict)
		if !ok {
			if opts.Strict {
				return Samples{}, fmt.Errorf("token %d %q: %w", i+1, tok, ErrInvalidToken)
			}
			s.Skipped++
			continue
		}
		s.Values = append(s.Values, v)
	}

	if len(s.Values) == 0 {
		return Samples{}, ErrEmptyOrInvalidInput
	}
	return s, nil
}

// ParseGrid parses file bytes and reshapes them with Reshape.
// Failure conditions are the same as ParseFlat.
func ParseGrid(data []byte, opts ParseOptions) (Grid, Samples, error) {
	s, err := ParseFlat(data, opts)
	if err != nil {
		return nil, Samples{}, err
	}
	return Reshape(s.Values), s, nil
}

// GridDims returns the reshape dimensions for m samples.
// Both are zero when m < 1.
func GridDims(m int) (rows, cols int) {
	if m < 1 {
		return 0, 0
	}
	rows = int(math.Sqrt(float64(m)))
	for rows*rows > m {
		rows--
	}
	for (rows+1)*(rows+1) <= m {
		rows++
	}
	cols = (m + rows - 1) / rows
	return rows, cols
}

// Reshape pads seq with zeros and slices it into a row-major grid.
// The input is not modified. An empty sequence yields a nil grid.
func Reshape(seq Sequence) Grid {
	rows, cols := GridDims(len(seq))
	if rows == 0 {
		return nil
	}

	cells := make([]float64, rows*cols)
	copy(cells, seq)

	g := make(Grid, rows)
	for r := range g {
		g[r] = cells[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return g
}
