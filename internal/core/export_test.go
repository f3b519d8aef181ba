package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// fakeDownloader records the calls Export makes.
type fakeDownloader struct {
	acquired    []string
	contentType string
	size        int
	acquireErr  error

	dl *fakeDownload
}

type fakeDownload struct {
	buf        bytes.Buffer
	triggered  int
	released   int
	triggerErr error
	panicOn    bool
}

func (f *fakeDownloader) Acquire(name, contentType string, size int) (Download, error) {
	f.acquired = append(f.acquired, name)
	f.contentType = contentType
	f.size = size
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	if f.dl == nil {
		f.dl = &fakeDownload{}
	}
	return f.dl, nil
}

func (d *fakeDownload) Write(p []byte) (int, error) { return d.buf.Write(p) }

func (d *fakeDownload) Trigger() error {
	d.triggered++
	if d.panicOn {
		panic("trigger exploded")
	}
	return d.triggerErr
}

func (d *fakeDownload) Release() error {
	d.released++
	return nil
}

func TestSerialize(t *testing.T) {
	r := FlatResult([]complex128{complex(1.23456, -0.1), complex(0, 2)})

	got, err := Serialize(r, Precision{Real: 6, Imag: 4})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	want := "1.234560 -0.1000\n0.000000 2.0000"
	if got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerialize_RoundsHalvesAwayFromZero(t *testing.T) {
	tests := []struct {
		v      float64
		digits int
		want   string
	}{
		{0.0078125, 6, "0.007813"},
		{0.03125, 4, "0.0313"},
		{-0.03125, 4, "-0.0313"},
		{2.5, 0, "3"},
		{-2.5, 0, "-3"},
		{9.5, 0, "10"},
		{0.96875, 1, "1.0"},
		{0.1, 20, "0.10000000000000000555"},
		{-0.00001, 4, "-0.0000"},
		{123.456, 2, "123.46"},
		{0, 3, "0.000"},
	}

	for _, tt := range tests {
		if got := formatPart(tt.v, tt.digits); got != tt.want {
			t.Errorf("formatPart(%v, %d) = %q, want %q", tt.v, tt.digits, got, tt.want)
		}
	}

	got, err := Serialize(FlatResult([]complex128{complex(0.0078125, -0.03125)}), DefaultPrecision)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if got != "0.007813 -0.0313" {
		t.Errorf("Serialize() = %q, want %q", got, "0.007813 -0.0313")
	}
}

func TestSerialize_NegativeZero(t *testing.T) {
	negZero := complex(negativeZero(), negativeZero())
	got, err := Serialize(FlatResult([]complex128{negZero}), DefaultPrecision)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if got != "0.000000 0.0000" {
		t.Errorf("Serialize(-0) = %q, want %q", got, "0.000000 0.0000")
	}
}

func negativeZero() float64 {
	z := 0.0
	return -z
}

func TestSerialize_GridFlattensRowMajor(t *testing.T) {
	grid := GridResult([][]complex128{
		{1, complex(2, 1)},
		{complex(3, -1), 4},
	})
	flat := FlatResult([]complex128{1, complex(2, 1), complex(3, -1), 4})

	got, err := Serialize(grid, DefaultPrecision)
	if err != nil {
		t.Fatalf("Serialize(grid) error = %v", err)
	}
	want, err := Serialize(flat, DefaultPrecision)
	if err != nil {
		t.Fatalf("Serialize(flat) error = %v", err)
	}
	if got != want {
		t.Errorf("grid serialization %q differs from flattened %q", got, want)
	}
	if lines := strings.Split(got, "\n"); len(lines) != 4 {
		t.Errorf("got %d lines, want 4", len(lines))
	}
}

func TestSerialize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		result  *Result
		prec    Precision
		wantErr error
	}{
		{"nil result", nil, DefaultPrecision, ErrNothingToExport},
		{"empty flat", FlatResult(nil), DefaultPrecision, ErrNothingToExport},
		{"empty grid", GridResult([][]complex128{{}, {}}), DefaultPrecision, ErrNothingToExport},
		{"negative digits", FlatResult([]complex128{1}), Precision{Real: -1, Imag: 4}, ErrInvalidPrecision},
		{"too many digits", FlatResult([]complex128{1}), Precision{Real: 6, Imag: MaxPrecision + 1}, ErrInvalidPrecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Serialize(tt.result, tt.prec)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Serialize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		prefix string
		size   any
		want   string
	}{
		{"dft", 8, "dft_N8.txt"},
		{"", 8, "dft_N8.txt"},
		{"spectrum", 1024, "spectrum_N1024.txt"},
		{"dft", "16", "dft_N16.txt"},
	}

	for _, tt := range tests {
		if got := FileName(tt.prefix, tt.size); got != tt.want {
			t.Errorf("FileName(%q, %v) = %q, want %q", tt.prefix, tt.size, got, tt.want)
		}
	}
}

func TestExport(t *testing.T) {
	d := &fakeDownloader{}
	r := FlatResult(make([]complex128, 8))

	receipt, err := Export(d, ExportRequest{Result: r, SizeLabel: 8, Prefix: "dft", Precision: DefaultPrecision})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if receipt.FileName != "dft_N8.txt" {
		t.Errorf("FileName = %q, want %q", receipt.FileName, "dft_N8.txt")
	}
	if receipt.Lines != 8 {
		t.Errorf("Lines = %d, want 8", receipt.Lines)
	}
	if d.contentType != ContentType {
		t.Errorf("content type = %q, want %q", d.contentType, ContentType)
	}
	if d.size != receipt.Bytes || d.dl.buf.Len() != receipt.Bytes {
		t.Errorf("size hint %d, written %d, receipt %d", d.size, d.dl.buf.Len(), receipt.Bytes)
	}
	if d.dl.triggered != 1 || d.dl.released != 1 {
		t.Errorf("triggered %d released %d, want 1/1", d.dl.triggered, d.dl.released)
	}

	want := strings.Repeat("0.000000 0.0000\n", 7) + "0.000000 0.0000"
	if got := d.dl.buf.String(); got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestExport_DefaultPrefix(t *testing.T) {
	d := &fakeDownloader{}
	receipt, err := Export(d, ExportRequest{Result: FlatResult([]complex128{1}), SizeLabel: 1, Precision: DefaultPrecision})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if receipt.FileName != "dft_N1.txt" {
		t.Errorf("FileName = %q, want dft_N1.txt", receipt.FileName)
	}
}

func TestExport_NothingToExportAcquiresNothing(t *testing.T) {
	d := &fakeDownloader{}
	_, err := Export(d, ExportRequest{Result: nil, SizeLabel: 0, Precision: DefaultPrecision})
	if !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("Export() error = %v, want ErrNothingToExport", err)
	}
	if len(d.acquired) != 0 {
		t.Errorf("Acquire called %d times, want 0", len(d.acquired))
	}
}

func TestExport_AcquireError(t *testing.T) {
	d := &fakeDownloader{acquireErr: errors.New("disk full")}
	_, err := Export(d, ExportRequest{Result: FlatResult([]complex128{1}), SizeLabel: 1, Precision: DefaultPrecision})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Export() error = %v, want acquire failure", err)
	}
}

func TestExport_ReleasesOnTriggerFailure(t *testing.T) {
	d := &fakeDownloader{dl: &fakeDownload{triggerErr: errors.New("blocked")}}
	_, err := Export(d, ExportRequest{Result: FlatResult([]complex128{1}), SizeLabel: 1, Precision: DefaultPrecision})
	if err == nil {
		t.Fatal("Export() error = nil, want trigger failure")
	}
	if d.dl.released != 1 {
		t.Errorf("released %d times, want 1", d.dl.released)
	}
}

func TestExport_ReleasesOnTriggerPanic(t *testing.T) {
	d := &fakeDownloader{dl: &fakeDownload{panicOn: true}}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		Export(d, ExportRequest{Result: FlatResult([]complex128{1}), SizeLabel: 1, Precision: DefaultPrecision})
	}()

	if d.dl.released != 1 {
		t.Errorf("released %d times, want 1", d.dl.released)
	}
}
