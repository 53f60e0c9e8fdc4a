// Package config holds run settings unmarshalled from Viper: built-in
// defaults, an optional config file, and ADLEMAN_* environment variables.
// Command line flags are applied on top by the caller (see /cmd).
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultStrandLength = 20
	DefaultOverlap      = 10
	DefaultStoreDir     = ".adleman"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// ADLEMAN_STRAND_LENGTH maps to strand-length.
var envReplacer = strings.NewReplacer("-", "_")

// Config is the root-level settings struct.
type Config struct {
	// StrandLength is the length L of every node strand.
	StrandLength int `mapstructure:"strand-length"`

	// Overlap is the annealing length shared by assembly, amplification
	// and trimming. It must be half the strand length.
	Overlap int `mapstructure:"overlap"`

	// Start is the node the path must begin at.
	Start string `mapstructure:"start"`

	// End is the node the path must finish at.
	End string `mapstructure:"end"`

	// Seed seeds strand generation; zero means a random seed.
	Seed uint64 `mapstructure:"seed"`

	// Store is the directory holding the run database.
	Store string `mapstructure:"store"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		StrandLength: DefaultStrandLength,
		Overlap:      DefaultOverlap,
		Store:        DefaultStoreDir,
	}
}

// Load reads settings from the defaults, the optional config file at path
// and the environment, in increasing priority.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("strand-length", def.StrandLength)
	v.SetDefault("overlap", def.Overlap)
	v.SetDefault("store", def.Store)
	v.SetDefault("start", "")
	v.SetDefault("end", "")
	v.SetDefault("seed", 0)

	v.SetEnvPrefix("ADLEMAN")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

// Validate checks the invariants the pipeline relies on.
func (c Config) Validate() error {
	if c.StrandLength <= 0 || c.StrandLength%2 != 0 {
		return fmt.Errorf("%w: strand length %d must be a positive even number", ErrInvalid, c.StrandLength)
	}
	if c.Overlap != c.StrandLength/2 {
		return fmt.Errorf("%w: overlap %d must be half the strand length (%d)", ErrInvalid, c.Overlap, c.StrandLength/2)
	}
	if c.Start == "" || c.End == "" {
		return fmt.Errorf("%w: start and end nodes are required", ErrInvalid)
	}
	if c.Start == c.End {
		return fmt.Errorf("%w: start and end must differ (%s)", ErrInvalid, c.Start)
	}
	return nil
}

// StorePath returns the Badger directory inside the store directory.
func (c Config) StorePath() string {
	return filepath.Join(c.Store, "badger")
}
