package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/dftlab/internal/core"
)

var (
	// ErrNoTransform is returned when no transform is configured for the
	// input's shape.
	ErrNoTransform = errors.New("no transform for input shape")

	// ErrSuperseded is returned when newer input arrived while computing.
	ErrSuperseded = errors.New("result superseded by newer input")
)

// Runner recomputes the workspace result whenever a new input is published.
type Runner struct {
	ws   *core.Workspace
	flat Definition
	grid Definition
}

// NewRunner builds a runner using the named transforms for flat and grid
// inputs. Either name may be empty to leave that shape without a result.
func NewRunner(ws *core.Workspace, flatName, gridName string) (*Runner, error) {
	r := &Runner{ws: ws}
	var err error
	if flatName != "" {
		if r.flat, err = lookupFor(flatName, core.ModeFlat); err != nil {
			return nil, err
		}
	}
	if gridName != "" {
		if r.grid, err = lookupFor(gridName, core.ModeGrid); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func lookupFor(name string, mode core.Mode) (Definition, error) {
	def, err := Lookup(name)
	if err != nil {
		return Definition{}, err
	}
	if def.Accepts != mode {
		return Definition{}, fmt.Errorf("transform %s takes %s input, not %s", name, def.Accepts, mode)
	}
	return def, nil
}

// Run follows the workspace until ctx is cancelled or the workspace closes.
func (r *Runner) Run(ctx context.Context) error {
	updates, cancel := r.ws.Subscribe(4)
	defer cancel()

	var lastVersion uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if snap.Input == nil || snap.InputVersion == lastVersion {
				continue
			}
			lastVersion = snap.InputVersion

			err := r.Compute(snap)
			switch {
			case err == nil:
			case errors.Is(err, ErrSuperseded):
				slog.Debug("transform result superseded", "input_version", snap.InputVersion)
			case errors.Is(err, ErrNoTransform):
				slog.Warn("transform skipped", "input_version", snap.InputVersion, "error", err)
			default:
				slog.Error("transform failed", "input_version", snap.InputVersion, "error", err)
			}
		}
	}
}

// Compute runs the transform for one snapshot and publishes the result.
func (r *Runner) Compute(snap core.Snapshot) error {
	if snap.Input == nil {
		return core.ErrEmptyOrInvalidInput
	}
	def := r.flat
	if snap.Input.Mode == core.ModeGrid {
		def = r.grid
	}
	if def.Apply == nil {
		return fmt.Errorf("%s input: %w", snap.Input.Mode, ErrNoTransform)
	}

	start := time.Now()
	res, err := safeApply(def, snap.Input)
	if err != nil {
		return fmt.Errorf("%s: %w", def.Name, err)
	}
	if res.Len() == 0 {
		return fmt.Errorf("%s: empty result", def.Name)
	}

	if !r.ws.PublishResult(snap.InputVersion, def.Name, res) {
		return ErrSuperseded
	}
	slog.Info("transform published",
		"transform", def.Name,
		"input_version", snap.InputVersion,
		"values", res.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// safeApply converts a panic inside a transform into an error.
func safeApply(def Definition, in *core.IngestResult) (res *core.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s: %v", def.Name, p)
		}
	}()
	return def.Apply(in)
}
