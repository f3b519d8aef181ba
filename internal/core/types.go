package core

import "time"

// Sequence is an ordered run of finite samples. Order is the sample index.
type Sequence []float64

// Grid is a row-major matrix of samples. Every row has the same length.
type Grid [][]float64

// Rows returns the number of rows.
func (g Grid) Rows() int { return len(g) }

// Cols returns the row length, or 0 for an empty grid.
func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Mode selects how an ingested file is shaped.
type Mode string

const (
	ModeFlat Mode = "flat"
	ModeGrid Mode = "grid"
)

// ParseMode converts a form or flag value to a Mode.
// Empty input defaults to ModeFlat.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeFlat:
		return ModeFlat, true
	case ModeGrid:
		return ModeGrid, true
	}
	return "", false
}

// Shape tags which half of a Result is populated.
type Shape int

const (
	ShapeFlat Shape = iota
	ShapeGrid
)

func (s Shape) String() string {
	if s == ShapeGrid {
		return "grid"
	}
	return "flat"
}

// Result is a complex-valued transform output. The producer decides the shape;
// consumers never probe the structure at runtime.
type Result struct {
	Shape Shape
	Flat  []complex128
	Grid  [][]complex128
}

// FlatResult wraps a 1D transform output.
func FlatResult(values []complex128) *Result {
	return &Result{Shape: ShapeFlat, Flat: values}
}

// GridResult wraps a 2D transform output.
func GridResult(values [][]complex128) *Result {
	return &Result{Shape: ShapeGrid, Grid: values}
}

// Len returns the number of complex values held, across all rows for grids.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	if r.Shape == ShapeGrid {
		n := 0
		for _, row := range r.Grid {
			n += len(row)
		}
		return n
	}
	return len(r.Flat)
}

// Values returns the result in row-major order. Flat results are returned as-is.
func (r *Result) Values() []complex128 {
	if r == nil {
		return nil
	}
	if r.Shape != ShapeGrid {
		return r.Flat
	}
	out := make([]complex128, 0, r.Len())
	for _, row := range r.Grid {
		out = append(out, row...)
	}
	return out
}

// Stats summarises an ingested sequence.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// IngestResult is the outcome of one successful file ingest.
type IngestResult struct {
	IngestID   string        `json:"ingest_id"`
	Ticket     uint64        `json:"ticket"`
	FileName   string        `json:"file_name"`
	Mode       Mode          `json:"mode"`
	Sequence   Sequence      `json:"sequence,omitempty"`
	Grid       Grid          `json:"grid,omitempty"`
	Count      int           `json:"count"`   // logical sample count before padding
	Skipped    int           `json:"skipped"` // tokens dropped as non-numeric
	Rows       int           `json:"rows,omitempty"`
	Cols       int           `json:"cols,omitempty"`
	Stats      Stats         `json:"stats"`
	Duration   time.Duration `json:"-"`
	IngestedAt time.Time     `json:"ingested_at"`
}
