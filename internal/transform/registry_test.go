package transform

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/dftlab/internal/core"
)

func TestBuiltinsRegistered(t *testing.T) {
	for _, name := range []string{Forward, Inverse, Forward2D} {
		if _, ok := Get(name); !ok {
			t.Errorf("transform %q not registered", name)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("wavelet")
	if !errors.Is(err, core.ErrUnknownTransform) {
		t.Errorf("Lookup() error = %v, want ErrUnknownTransform", err)
	}
}

func TestAll_Sorted(t *testing.T) {
	all := All()
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Fatalf("All() not sorted: %q before %q", all[i-1].Name, all[i].Name)
		}
	}
}

func TestForMode(t *testing.T) {
	for _, def := range ForMode(core.ModeGrid) {
		if def.Accepts != core.ModeGrid {
			t.Errorf("ForMode(grid) returned %q accepting %q", def.Name, def.Accepts)
		}
	}
	found := false
	for _, def := range ForMode(core.ModeFlat) {
		if def.Name == Forward {
			found = true
		}
	}
	if !found {
		t.Error("ForMode(flat) is missing dft")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	def := Definition{Name: "test-duplicate", Accepts: core.ModeFlat, Apply: applyForward}
	Register(def)

	defer func() {
		if recover() == nil {
			t.Error("second Register should panic")
		}
	}()
	Register(def)
}
