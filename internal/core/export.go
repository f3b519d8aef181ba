package core

// export.go serializes complex results to text and hands them to a Downloader.
//
// Every export is one transaction:
//
//	validate -> format -> acquire download -> write -> trigger -> release
//
// Validation happens before any download is acquired, and Release runs on
// every exit path once Acquire succeeded, including a failing or panicking
// Trigger.

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultPrefix is used when no file name prefix is given.
const DefaultPrefix = "dft"

// ContentType of exported files.
const ContentType = "text/plain; charset=utf-8"

// MaxPrecision bounds the number of fractional digits per part.
const MaxPrecision = 17

// Precision is the number of fractional digits for each part of a value.
type Precision struct {
	Real int `json:"real"`
	Imag int `json:"imag"`
}

// DefaultPrecision matches the lab's file format: 6 digits real, 4 imaginary.
var DefaultPrecision = Precision{Real: 6, Imag: 4}

// Validate checks that both parts are within 0..MaxPrecision.
func (p Precision) Validate() error {
	if p.Real < 0 || p.Real > MaxPrecision || p.Imag < 0 || p.Imag > MaxPrecision {
		return fmt.Errorf("precision %d/%d must be within 0-%d: %w", p.Real, p.Imag, MaxPrecision, ErrInvalidPrecision)
	}
	return nil
}

// formatPart prints v with a fixed number of decimals, rounding halves away
// from zero on the exact binary value. Negative zero is printed as zero.
func formatPart(v float64, digits int) string {
	if v == 0 {
		v = 0
	}
	neg := math.Signbit(v)
	// 1074 fractional digits represent any float64 exactly.
	exact := strconv.FormatFloat(math.Abs(v), 'f', 1074, 64)
	dot := strings.IndexByte(exact, '.')
	kept := []byte(exact[:dot] + exact[dot+1:dot+1+digits])
	if exact[dot+1+digits] >= '5' {
		kept = incrementDecimal(kept)
	}

	intLen := len(kept) - digits
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.Write(kept[:intLen])
	if digits > 0 {
		b.WriteByte('.')
		b.Write(kept[intLen:])
	}
	return b.String()
}

// incrementDecimal adds one to a string of decimal digits, growing it on carry.
func incrementDecimal(d []byte) []byte {
	for i := len(d) - 1; i >= 0; i-- {
		if d[i] != '9' {
			d[i]++
			return d
		}
		d[i] = '0'
	}
	return append([]byte{'1'}, d...)
}

// FormatValue renders one complex value as "<re> <im>".
func FormatValue(c complex128, p Precision) string {
	return formatPart(real(c), p.Real) + " " + formatPart(imag(c), p.Imag)
}

// Serialize renders a result as newline-joined "<re> <im>" lines.
// Grids are flattened row-major; the 2D shape is not recorded in the output.
// There is no header and no trailing newline.
func Serialize(r *Result, p Precision) (string, error) {
	if r.Len() == 0 {
		return "", ErrNothingToExport
	}
	if err := p.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	first := true
	writeAll := func(values []complex128) {
		for _, c := range values {
			if !first {
				b.WriteByte('\n')
			}
			first = false
			b.WriteString(FormatValue(c, p))
		}
	}

	if r.Shape == ShapeGrid {
		for _, row := range r.Grid {
			writeAll(row)
		}
	} else {
		writeAll(r.Flat)
	}
	return b.String(), nil
}

// FileName builds "{prefix}_N{size}.txt". An empty prefix becomes DefaultPrefix.
// size is rendered as given, so callers may pass a number or a label.
func FileName(prefix string, size any) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_N%v%s", prefix, size, TextExtension)
}

// Download is a transient handle for one exported file.
// Release must be safe to call after Trigger and after a failed Write.
type Download interface {
	io.Writer
	Trigger() error
	Release() error
}

// Downloader materializes exported files: an HTTP attachment, a file on disk.
type Downloader interface {
	Acquire(name, contentType string, size int) (Download, error)
}

// ExportRequest describes one export.
type ExportRequest struct {
	Result    *Result
	SizeLabel any    // logical sample count used in the file name
	Prefix    string // defaults to DefaultPrefix
	Precision Precision
}

// ExportReceipt reports what was written.
type ExportReceipt struct {
	FileName string `json:"file_name"`
	Lines    int    `json:"lines"`
	Bytes    int    `json:"bytes"`
}

// Export serializes req.Result and delivers it through d.
// Nothing is acquired from d when serialization fails.
func Export(d Downloader, req ExportRequest) (receipt ExportReceipt, err error) {
	content, err := Serialize(req.Result, req.Precision)
	if err != nil {
		return ExportReceipt{}, err
	}

	name := FileName(req.Prefix, req.SizeLabel)
	dl, err := d.Acquire(name, ContentType, len(content))
	if err != nil {
		return ExportReceipt{}, fmt.Errorf("acquire %s: %w", name, err)
	}
	defer func() {
		if rerr := dl.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("release %s: %w", name, rerr)
		}
	}()

	if _, err := io.WriteString(dl, content); err != nil {
		return ExportReceipt{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := dl.Trigger(); err != nil {
		return ExportReceipt{}, fmt.Errorf("trigger %s: %w", name, err)
	}

	return ExportReceipt{
		FileName: name,
		Lines:    req.Result.Len(),
		Bytes:    len(content),
	}, nil
}
