package transform

import (
	"github.com/JonMunkholm/dftlab/internal/core"
	"github.com/mjibson/go-dsp/fft"
)

// Built-in transform names.
const (
	Forward   = "dft"
	Inverse   = "idft"
	Forward2D = "dft2"
)

func init() {
	Register(Definition{
		Name:    Forward,
		Label:   "Forward DFT",
		Accepts: core.ModeFlat,
		Apply:   applyForward,
	})
	Register(Definition{
		Name:    Inverse,
		Label:   "Inverse DFT",
		Accepts: core.ModeFlat,
		Apply:   applyInverse,
	})
	Register(Definition{
		Name:    Forward2D,
		Label:   "Forward 2D DFT",
		Accepts: core.ModeGrid,
		Apply:   applyForward2D,
	})
}

func applyForward(in *core.IngestResult) (*core.Result, error) {
	if len(in.Sequence) == 0 {
		return nil, core.ErrEmptyOrInvalidInput
	}
	return core.FlatResult(fft.FFTReal(in.Sequence)), nil
}

func applyInverse(in *core.IngestResult) (*core.Result, error) {
	if len(in.Sequence) == 0 {
		return nil, core.ErrEmptyOrInvalidInput
	}
	return core.FlatResult(fft.IFFTReal(in.Sequence)), nil
}

func applyForward2D(in *core.IngestResult) (*core.Result, error) {
	if len(in.Grid) == 0 {
		return nil, core.ErrEmptyOrInvalidInput
	}
	return core.GridResult(fft.FFT2Real(in.Grid)), nil
}
