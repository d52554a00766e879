// Package config loads qvmdis.toml, the optional per-project settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is looked up in the working directory when no path is given.
const FileName = "qvmdis.toml"

// Config holds the symbol sources and output preferences for an image.
type Config struct {
	Map      string `toml:"map" json:"map,omitempty" jsonschema:"title=Map File,description=q3asm linker map naming functions and data"`
	Syscalls string `toml:"syscalls" json:"syscalls,omitempty" jsonschema:"title=Syscall Table,description=q3asm .asm file with equ lines naming syscalls"`
	HashMap  string `toml:"hmap" json:"hmap,omitempty" jsonschema:"title=Hash Map,description=.hmap file naming functions by content hash"`
	Strict   bool   `toml:"strict" json:"strict,omitempty" jsonschema:"title=Strict,description=Check the segment layout against the file size"`
	Color    *bool  `toml:"color" json:"color,omitempty" jsonschema:"title=Color,description=Highlight listings on a terminal (default true)"`
	Debug    bool   `toml:"debug" json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`

	// Dir is the directory the file was read from; relative paths resolve against it.
	Dir string `toml:"-" json:"-"`
}

// Load parses the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	c.Map = c.resolve(c.Map)
	c.Syscalls = c.resolve(c.Syscalls)
	c.HashMap = c.resolve(c.HashMap)
	return &c, nil
}

// LoadDefault loads FileName from dir. A missing file yields an empty config.
func LoadDefault(dir string) (*Config, error) {
	c, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{Dir: dir}, nil
	}
	return c, err
}

// ColorEnabled reports the color preference, defaulting to true.
func (c *Config) ColorEnabled() bool {
	return c.Color == nil || *c.Color
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
