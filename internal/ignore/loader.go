// Package ignore loads a TOML ignore file into a filter.Filter, letting
// a repo commit its glob excludes. Grounded on the teacher's internal/ignore package; rewired
// onto internal/filter.Filter instead of a standalone IgnoreConfig, and
// fixed to actually define the config type it decodes into (the
// teacher's loader.go referenced an IgnoreConfig that was never
// declared anywhere in the package).
package ignore

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/pgdrift/pgdrift/internal/filter"
)

// FileName is the default ignore-file name pgdrift looks for; as a
// relative path it is resolved against the current working directory.
const FileName = ".pgdriftignore"

type tomlConfig struct {
	Tables     patternList `toml:"tables,omitempty"`
	Views      patternList `toml:"views,omitempty"`
	Functions  patternList `toml:"functions,omitempty"`
	Procedures patternList `toml:"procedures,omitempty"`
	Types      patternList `toml:"types,omitempty"`
	Sequences  patternList `toml:"sequences,omitempty"`
}

type patternList struct {
	Patterns []string `toml:"patterns,omitempty"`
}

// Load reads path and returns the filter.Filter it describes. A
// missing file is not an error: ignore files are optional, so Load
// returns a zero-value filter.Filter in that case.
func Load(path string) (filter.Filter, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return filter.Filter{}, nil
	} else if err != nil {
		return filter.Filter{}, err
	}

	var cfg tomlConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return filter.Filter{}, err
	}

	return filter.Filter{
		Tables:     cfg.Tables.Patterns,
		Views:      cfg.Views.Patterns,
		Functions:  cfg.Functions.Patterns,
		Procedures: cfg.Procedures.Patterns,
		Types:      cfg.Types.Patterns,
		Sequences:  cfg.Sequences.Patterns,
	}, nil
}
