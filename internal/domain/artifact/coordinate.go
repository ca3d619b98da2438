package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCoordinate is returned for coordinates with missing parts.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate identifies a dependency in a Maven-layout repository.
type Coordinate struct {
	// Group is the dotted group id, e.g. "com.google.guava".
	Group string
	// Name is the artifact id.
	Name string
	// Version is the resolved version string.
	Version string
	// Classifier is optional and distinguishes platform-specific variants.
	Classifier string
}

// ParseCoordinate parses "group:name:version[:classifier]".
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("%q: %w", s, ErrInvalidCoordinate)
	}

	c := Coordinate{
		Group:   parts[0],
		Name:    parts[1],
		Version: parts[2],
	}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}

	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}

	return c, nil
}

// Validate reports whether group, name and version are all present.
func (c Coordinate) Validate() error {
	if c.Group == "" || c.Name == "" || c.Version == "" {
		return fmt.Errorf("%q: %w", c.String(), ErrInvalidCoordinate)
	}

	if strings.ContainsAny(c.Group+c.Name+c.Version+c.Classifier, "/\\ ") {
		return fmt.Errorf("%q contains path separators or spaces: %w", c.String(), ErrInvalidCoordinate)
	}

	return nil
}

// String joins the coordinate with colons; the classifier is appended only when set.
func (c Coordinate) String() string {
	s := c.Group + ":" + c.Name + ":" + c.Version
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}

	return s
}

// FileName is "name-version[-classifier].jar".
func (c Coordinate) FileName() string {
	name := c.Name + "-" + c.Version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}

	return name + ".jar"
}

// Path returns the repository-relative location of the jar:
// group with dots replaced by slashes, then name, version and file name.
// It depends on the coordinate alone.
func (c Coordinate) Path() string {
	return strings.ReplaceAll(c.Group, ".", "/") + "/" + c.Name + "/" + c.Version + "/" + c.FileName()
}

// ResolvedArtifact is a coordinate the build system already resolved to a local file.
type ResolvedArtifact struct {
	Coordinate

	// File is the local path of the resolved jar.
	File string
}
