// Package recipe stores extractor configurations as files so that feature
// pipelines can be reproduced. A recipe names a registered extractor and
// carries the flat mapping form of its configuration:
//
//	extractor: fbank
//	config:
//	  num_mel_bins: 80
//	  dither: 0.1
//
// YAML, TOML and JSON are supported and chosen by file extension.
package recipe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-features/features"
)

// ErrUnknownFormat is returned for file extensions without a codec.
var ErrUnknownFormat = errors.New("unknown recipe format")

// Format is a recipe serialization format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// ParseFormat accepts a format name such as "yaml" or "yml".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Recipe is the file form of a configured extractor.
type Recipe struct {
	Extractor string         `yaml:"extractor" toml:"extractor" json:"extractor"`
	Config    map[string]any `yaml:"config,omitempty" toml:"config,omitempty" json:"config,omitempty"`
}

// FromExtractor captures the name and configuration of ext.
func FromExtractor(ext features.Extractor) Recipe {
	return Recipe{
		Extractor: ext.Name(),
		Config:    ext.Params(),
	}
}

// Default returns the recipe of a registered extractor built with its
// default configuration.
func Default(reg *features.Registry, name string) (Recipe, error) {
	if reg == nil {
		reg = features.DefaultRegistry()
	}
	ext, err := reg.New(name, nil)
	if err != nil {
		return Recipe{}, err
	}
	return FromExtractor(ext), nil
}

// Build creates the extractor the recipe describes. A nil registry means
// the default one.
func (r Recipe) Build(reg *features.Registry, opts ...features.Option) (features.Extractor, error) {
	if r.Extractor == "" {
		return nil, errors.New("recipe: missing extractor name")
	}
	if reg == nil {
		reg = features.DefaultRegistry()
	}
	return reg.New(r.Extractor, r.Config, opts...)
}

// Decode reads a recipe in the given format.
func Decode(rd io.Reader, format Format) (Recipe, error) {
	var r Recipe

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(rd).Decode(&r); err != nil {
			return Recipe{}, fmt.Errorf("decode yaml recipe: %w", err)
		}
	case FormatTOML:
		if _, err := toml.NewDecoder(rd).Decode(&r); err != nil {
			return Recipe{}, fmt.Errorf("decode toml recipe: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(rd).Decode(&r); err != nil {
			return Recipe{}, fmt.Errorf("decode json recipe: %w", err)
		}
	default:
		return Recipe{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	return r, nil
}

// Encode writes r in the given format.
func Encode(w io.Writer, r Recipe, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml recipe: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(r); err != nil {
			return fmt.Errorf("encode toml recipe: %w", err)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode json recipe: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Load reads a recipe file.
func Load(path string) (Recipe, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Recipe{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, fmt.Errorf("read recipe: %w", err)
	}

	r, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return Recipe{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Save writes r to path in the format implied by its extension.
func Save(path string, r Recipe) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, r, format); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write recipe: %w", err)
	}
	return nil
}
