package transform

import (
	"errors"
	"math/cmplx"
	"testing"

	"github.com/JonMunkholm/dftlab/internal/core"
)

const tolerance = 1e-9

func assertClose(t *testing.T, got, want []complex128) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if cmplx.Abs(got[i]-want[i]) > tolerance {
			t.Errorf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestForward(t *testing.T) {
	res, err := applyForward(&core.IngestResult{Mode: core.ModeFlat, Sequence: core.Sequence{1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("applyForward() error = %v", err)
	}
	if res.Shape != core.ShapeFlat {
		t.Errorf("Shape = %v, want flat", res.Shape)
	}
	assertClose(t, res.Flat, []complex128{10, complex(-2, 2), -2, complex(-2, -2)})
}

func TestInverse(t *testing.T) {
	res, err := applyInverse(&core.IngestResult{Mode: core.ModeFlat, Sequence: core.Sequence{1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("applyInverse() error = %v", err)
	}
	assertClose(t, res.Flat, []complex128{2.5, complex(-0.5, -0.5), -0.5, complex(-0.5, 0.5)})
}

func TestForward2D(t *testing.T) {
	res, err := applyForward2D(&core.IngestResult{Mode: core.ModeGrid, Grid: core.Grid{{1, 2}, {3, 4}}})
	if err != nil {
		t.Fatalf("applyForward2D() error = %v", err)
	}
	if res.Shape != core.ShapeGrid {
		t.Fatalf("Shape = %v, want grid", res.Shape)
	}
	assertClose(t, res.Values(), []complex128{10, -2, -4, 0})
}

func TestApply_Empty(t *testing.T) {
	for name, apply := range map[string]ApplyFunc{
		Forward:   applyForward,
		Inverse:   applyInverse,
		Forward2D: applyForward2D,
	} {
		if _, err := apply(&core.IngestResult{}); !errors.Is(err, core.ErrEmptyOrInvalidInput) {
			t.Errorf("%s on empty input: error = %v, want ErrEmptyOrInvalidInput", name, err)
		}
	}
}
