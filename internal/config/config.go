// Package config loads the optional HCL run configuration. CLI flags
// override anything set here.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Run holds the tunable knobs of one aggregation run.
type Run struct {
	// Workers sets the parallel batch width; 1 means sequential.
	Workers int `hcl:"workers,optional"`
	// Strategy requests an explicit combination strategy
	// (single, array or merge). Empty uses schema-driven placement.
	Strategy string `hcl:"strategy,optional"`
	// ConflictPolicy for merge aggregation: first-wins, last-wins or
	// array-combine.
	ConflictPolicy string `hcl:"conflict_policy,optional"`
	// PreserveArrays makes merge aggregation concatenate arrays.
	PreserveArrays bool `hcl:"preserve_arrays,optional"`
	// ArrayKey names the wrapping key of array aggregation.
	ArrayKey string `hcl:"array_key,optional"`
	// IncludeMetadata adds the aggregationMetadata block.
	IncludeMetadata bool `hcl:"include_metadata,optional"`
	// Format of the rendered output: json or yaml.
	Format string `hcl:"format,optional"`
	// MaxHeapMB aborts the run when the heap grows past this many
	// megabytes; 0 disables the bounds check.
	MaxHeapMB int `hcl:"max_heap_mb,optional"`
}

// Default returns the built-in run configuration.
func Default() Run {
	return Run{
		Workers:        1,
		ConflictPolicy: "last-wins",
		Format:         "json",
	}
}

// LoadFile decodes an HCL run configuration over the defaults.
func LoadFile(path string) (Run, error) {
	cfg := Default()
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Load decodes HCL source over the defaults; filename only labels
// diagnostics.
func Load(filename string, src []byte) (Run, error) {
	cfg := Default()
	if err := hclsimple.Decode(filename, src, nil, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", filename, err)
	}
	return cfg, nil
}
