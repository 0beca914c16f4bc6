// Package lens holds the closed set of text-transformation presets.
package lens

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	Corporate = "corporate"
	Sales     = "sales"
	Hotdog    = "hotdog"
)

var ErrUnknownPreset = errors.New("unknown lens preset")

// Preset is one transformation style. Instructions go to the upstream
// service as the system directive.
type Preset struct {
	ID           string   `json:"id" yaml:"id"`
	Label        string   `json:"label" yaml:"label"`
	Description  string   `json:"description" yaml:"description"`
	Instructions string   `json:"-" yaml:"instructions"`
	Progress     []string `json:"-" yaml:"progress"`
}

// Registry is an immutable id -> preset table. Safe for concurrent reads.
type Registry struct {
	ids  []string
	byID map[string]Preset
}

func newRegistry(presets []Preset) (*Registry, error) {
	r := &Registry{byID: make(map[string]Preset, len(presets))}
	for _, p := range presets {
		if strings.TrimSpace(p.ID) == "" {
			return nil, errors.New("lens: preset id is empty")
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("lens: duplicate preset %q", p.ID)
		}
		if strings.TrimSpace(p.Instructions) == "" {
			return nil, fmt.Errorf("lens: preset %q has no instructions", p.ID)
		}
		p.Progress = slices.Clone(p.Progress)
		r.ids = append(r.ids, p.ID)
		r.byID[p.ID] = p
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := newRegistry(builtin())
	if err != nil {
		panic(err)
	}
	return r
}

// IDs returns the lens ids in their fixed display order.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Get looks up a preset. The returned value is a copy.
func (r *Registry) Get(id string) (Preset, error) {
	p, ok := r.byID[id]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	p.Progress = slices.Clone(p.Progress)
	return p, nil
}

// List returns all presets in id order.
func (r *Registry) List() []Preset {
	out := make([]Preset, 0, len(r.ids))
	for _, id := range r.ids {
		p, _ := r.Get(id)
		out = append(out, p)
	}
	return out
}

// Choices renders the ids for user-facing text: "a, b, or c".
func (r *Registry) Choices() string {
	switch n := len(r.ids); n {
	case 0:
		return ""
	case 1:
		return r.ids[0]
	case 2:
		return r.ids[0] + " or " + r.ids[1]
	default:
		return strings.Join(r.ids[:n-1], ", ") + ", or " + r.ids[n-1]
	}
}
