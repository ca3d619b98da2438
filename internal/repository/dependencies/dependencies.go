// Package dependencies reads the resolved dependency list handed over by the
// build system. Both YAML and JSON are accepted.
package dependencies

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/launcher-manifest/internal/domain/artifact"
)

// ErrInvalidArtifact is returned for records without a coordinate or file.
var ErrInvalidArtifact = errors.New("invalid resolved artifact")

// Record is one resolved artifact as written by the build system.
type Record struct {
	Group      string `yaml:"group"`
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Classifier string `yaml:"classifier,omitempty"`
	// File is the local jar; relative paths are resolved against the list's directory.
	File string `yaml:"file"`
}

// Document is the top-level form of the list. A bare sequence of records is accepted too.
type Document struct {
	Artifacts []Record `yaml:"artifacts"`
}

// Load reads resolved artifacts from path in file order.
func Load(path string) ([]artifact.ResolvedArtifact, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read dependency list: %w", err)
	}

	records, err := Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	result := make([]artifact.ResolvedArtifact, 0, len(records))

	for i, record := range records {
		resolved, err := record.resolve(base)
		if err != nil {
			return nil, fmt.Errorf("%s: entry %d: %w", path, i, err)
		}

		result = append(result, resolved)
	}

	return result, nil
}

// Parse decodes either a Document or a bare list of records.
func Parse(contents []byte) ([]Record, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(contents, &root); err != nil {
		return nil, fmt.Errorf("decode dependency list: %w", err)
	}

	// Empty document.
	if len(root.Content) == 0 {
		return nil, nil
	}

	node := root.Content[0]

	if node.Kind == yaml.SequenceNode {
		var records []Record
		if err := node.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode dependency list: %w", err)
		}

		return records, nil
	}

	var doc Document
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode dependency list: %w", err)
	}

	return doc.Artifacts, nil
}

// ParseInline parses "group:name:version[:classifier]=path" as given on the command line.
func ParseInline(value string) (artifact.ResolvedArtifact, error) {
	coordinate, file, ok := strings.Cut(value, "=")
	if !ok || strings.TrimSpace(file) == "" {
		return artifact.ResolvedArtifact{}, fmt.Errorf("%q: expected coordinate=path: %w", value, ErrInvalidArtifact)
	}

	c, err := artifact.ParseCoordinate(coordinate)
	if err != nil {
		return artifact.ResolvedArtifact{}, err
	}

	return artifact.ResolvedArtifact{
		Coordinate: c,
		File:       filepath.Clean(strings.TrimSpace(file)),
	}, nil
}

func (r Record) resolve(base string) (artifact.ResolvedArtifact, error) {
	c := artifact.Coordinate{
		Group:      r.Group,
		Name:       r.Name,
		Version:    r.Version,
		Classifier: r.Classifier,
	}

	if err := c.Validate(); err != nil {
		return artifact.ResolvedArtifact{}, err
	}

	if r.File == "" {
		return artifact.ResolvedArtifact{}, fmt.Errorf("%s has no file: %w", c, ErrInvalidArtifact)
	}

	file := r.File
	if !filepath.IsAbs(file) {
		file = filepath.Join(base, file)
	}

	return artifact.ResolvedArtifact{
		Coordinate: c,
		File:       filepath.Clean(file),
	}, nil
}
