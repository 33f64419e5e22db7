package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a content file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported content file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// ParseDefinition decodes a content file strictly: unknown fields are errors.
func ParseDefinition(data []byte, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&def); err != nil {
			return nil, fmt.Errorf("failed strict JSON unmarshaling: %w", err)
		}
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&def); err != nil {
			return nil, fmt.Errorf("failed strict YAML unmarshaling: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown content format %q", format)
	}
	return &def, nil
}

// LoadFile reads, decodes and validates a content file. See NewCatalog for
// how a partially valid file is reported.
func LoadFile(path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file %s: %w", path, err)
	}

	def, err := ParseDefinition(data, format)
	if err != nil {
		return nil, fmt.Errorf("content file %s: %w", path, err)
	}

	return NewCatalog(*def)
}

// Open loads the content file at path, or the built-in catalog when path is
// empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Builtin()
	}
	return LoadFile(path)
}
