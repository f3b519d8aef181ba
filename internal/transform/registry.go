// Package transform is the lab's transform stage. It computes complex results
// from ingested samples using go-dsp and publishes them to the workspace.
package transform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/dftlab/internal/core"
)

// ApplyFunc computes a result from an ingested input.
type ApplyFunc func(in *core.IngestResult) (*core.Result, error)

// Definition describes one registered transform.
type Definition struct {
	Name    string    // Unique key: "dft"
	Label   string    // Display name: "Forward DFT"
	Accepts core.Mode // Input shape the transform consumes
	Apply   ApplyFunc
}

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds a transform. Panics if the name is already taken.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("transform already registered: %s", def.Name))
	}
	registry[def.Name] = def
}

// Get returns a transform by name.
func Get(name string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// Lookup is Get with an error wrapping core.ErrUnknownTransform.
func Lookup(name string) (Definition, error) {
	def, ok := Get(name)
	if !ok {
		return Definition{}, fmt.Errorf("%q: %w", name, core.ErrUnknownTransform)
	}
	return def, nil
}

// All returns every registered transform sorted by name.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ForMode returns the transforms that accept the given input shape.
func ForMode(mode core.Mode) []Definition {
	var result []Definition
	for _, def := range All() {
		if def.Accepts == mode {
			result = append(result, def)
		}
	}
	return result
}
