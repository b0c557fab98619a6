package terrain

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// terrainFile is the YAML schema for terrain type definitions.
// Both lockstep peers must load a byte-identical file; the registry is part
// of the simulation's agreed-upon input, not transmitted at runtime.
type terrainFile struct {
	Types []typeEntry `yaml:"types"`
}

type typeEntry struct {
	Index             uint32   `yaml:"index"`
	Name              string   `yaml:"name"`
	WalkableNeighbors []uint32 `yaml:"walkable_neighbors"`
}

// LoadRegistry loads terrain type definitions from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading terrain defs %s: %w", path, err)
	}

	var f terrainFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing terrain defs %s: %w", path, err)
	}

	types := make([]Type, 0, len(f.Types))
	for _, e := range f.Types {
		types = append(types, Type{
			Index:             e.Index,
			Name:              e.Name,
			WalkableNeighbors: e.WalkableNeighbors,
		})
	}

	r, err := NewRegistry(types)
	if err != nil {
		return nil, fmt.Errorf("validating terrain defs %s: %w", path, err)
	}

	slog.Info("terrain definitions loaded", "file", path, "types", r.Count())
	return r, nil
}
