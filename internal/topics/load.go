package topics

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"playscribe/internal/matching"
	"playscribe/internal/services"
)

//go:embed sample_topics.toml
var sampleRules string

// Format identifies a rules file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// File is the on-disk shape of the topic rules file.
type File struct {
	Topics         map[string]*matching.RuleSet `json:"topics" toml:"topics" yaml:"topics"`
	Disambiguation []Priority                   `json:"disambiguation" toml:"disambiguation" yaml:"disambiguation"`
}

// FormatForPath infers the rules encoding from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported topic rules extension %q", services.ErrConfiguration, filepath.Ext(path))
	}
}

// Load reads and compiles the rules file at path.
func Load(path string) (*Registry, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read topic rules %s: %w", services.ErrConfiguration, path, err)
	}
	reg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("topic rules %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes rules in the given format and builds a registry.
func Parse(data []byte, format Format) (*Registry, error) {
	file, err := decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", services.ErrConfiguration, format, err)
	}
	return New(file.Topics, file.Disambiguation)
}

func decode(data []byte, format Format) (File, error) {
	var file File
	switch format {
	case FormatTOML:
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		err := decoder.Decode(&file)
		return file, err
	case FormatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return file, err
		}
		return file, nil
	case FormatJSON:
		return decodeJSON(data)
	default:
		return file, fmt.Errorf("unknown format %q", format)
	}
}

// decodeJSON accepts both the structured File shape and a bare map of topic
// name to rule set (or null), which is how older rule files were written.
func decodeJSON(data []byte) (File, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return File{}, err
	}
	_, hasTopics := probe["topics"]
	_, hasPriorities := probe["disambiguation"]
	if hasTopics || hasPriorities {
		var file File
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		err := decoder.Decode(&file)
		return file, err
	}
	file := File{Topics: make(map[string]*matching.RuleSet, len(probe))}
	for name, raw := range probe {
		var set *matching.RuleSet
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&set); err != nil {
			return File{}, fmt.Errorf("topic %q: %w", name, err)
		}
		file.Topics[name] = set
	}
	return file, nil
}

// CreateSample writes an example rules file to path. Existing files are left alone.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("topic rules already exist at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create rules directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleRules), 0o644); err != nil {
		return fmt.Errorf("write sample rules: %w", err)
	}
	return nil
}

// SampleRules returns the embedded example rules file.
func SampleRules() string {
	return sampleRules
}
