package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// RuntimeSettings holds the generator's operational knobs: everything
// the declarative control file doesn't cover because it's a property of
// this run, not of the tablebase being produced (spec.md §5). These are
// not part of the XML control-file format, so they get their own TOML
// document, grounded on the other example repos that ship engine
// runtime settings this way (e.g. FrankyGo's config.toml).
type RuntimeSettings struct {
	// PropTableMemoryMB bounds the in-memory proptable tier before it
	// spills to the on-disk badger store.
	PropTableMemoryMB int `toml:"proptable_memory_mb"`
	// SpillDir is where the proptable writes its badger data directory.
	SpillDir string `toml:"spill_dir"`
	// Workers is decoded but not read by the generator: futurebase and
	// intra-table back-propagation run single-threaded.
	Workers int `toml:"workers"`
	// OutputDir is decoded but not read by the generator; the generate
	// command takes its artifact path from its -out flag.
	OutputDir string `toml:"output_dir"`
}

// DefaultRuntimeSettings returns the settings used when no TOML file is
// supplied: single-threaded, a modest in-memory proptable budget, and
// spill/output directories under the current working directory.
func DefaultRuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		PropTableMemoryMB: 256,
		SpillDir:          "./tb-spill",
		Workers:           1,
		OutputDir:         "./tb-out",
	}
}

// LoadRuntimeSettings reads a generator.toml-style file at path, filling
// in defaults for anything unset.
func LoadRuntimeSettings(path string) (RuntimeSettings, error) {
	settings := DefaultRuntimeSettings()
	if path == "" {
		return settings, nil
	}
	if _, err := toml.DecodeFile(path, &settings); err != nil {
		return settings, fmt.Errorf("config: decoding runtime settings: %w", err)
	}
	return settings, nil
}
