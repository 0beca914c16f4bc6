package lens

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type lensFile struct {
	Lenses []Preset `yaml:"lenses"`
}

// LoadFile builds a registry from the built-in presets with overrides read
// from a YAML file. Only the built-in ids may be overridden; empty fields keep
// the built-in value.
//
//	lenses:
//	  - id: corporate
//	    label: Corporate
//	    instructions: |
//	      ...
func LoadFile(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lens file: %w", err)
	}
	return parse(b)
}

func parse(b []byte) (*Registry, error) {
	var f lensFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("lens file: bad yaml: %w", err)
	}

	base := builtin()
	idx := make(map[string]int, len(base))
	for i, p := range base {
		idx[p.ID] = i
	}
	for _, o := range f.Lenses {
		i, ok := idx[o.ID]
		if !ok {
			return nil, fmt.Errorf("lens file: %w: %q", ErrUnknownPreset, o.ID)
		}
		if s := strings.TrimSpace(o.Label); s != "" {
			base[i].Label = s
		}
		if s := strings.TrimSpace(o.Description); s != "" {
			base[i].Description = s
		}
		if s := strings.TrimSpace(o.Instructions); s != "" {
			base[i].Instructions = s
		}
		if len(o.Progress) > 0 {
			base[i].Progress = o.Progress
		}
	}
	return newRegistry(base)
}
