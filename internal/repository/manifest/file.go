package manifest

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/launcher-manifest/internal/checksum"
	"github.com/oshokin/launcher-manifest/internal/domain/artifact"
)

const (
	// DefaultFileMode is applied to written manifests.
	DefaultFileMode os.FileMode = 0o644

	// dirMode is used for <root>/<id>.
	dirMode os.FileMode = 0o755

	fileExtension = ".json"
	oldSuffix     = ".old"
)

var (
	// ErrNotFound is returned by Load for a manifest that was never written.
	ErrNotFound = errors.New("manifest not found")

	errEmptyID = errors.New("manifest id is empty")
)

// Repository stores generated manifests.
type Repository interface {
	Save(ctx context.Context, m *artifact.Manifest) (string, error)
}

// FileRepository keeps manifests under a root directory laid out the way a
// launcher's versions directory is: <root>/<id>/<id>.json.
type FileRepository struct {
	// root is the versions directory.
	root string
	// mu serialises writes to the same tree.
	mu sync.Mutex
	// apply swaps the target file; goupdate.Apply outside tests.
	apply func(update io.Reader, opts goupdate.Options) error
}

// NewFileRepository creates a repository rooted at root.
func NewFileRepository(root string) *FileRepository {
	return &FileRepository{
		root:  filepath.Clean(root),
		apply: goupdate.Apply,
	}
}

// PathFor returns where the manifest with id is stored.
func (r *FileRepository) PathFor(id string) string {
	return filepath.Join(r.root, id, id+fileExtension)
}

// Save encodes m and atomically replaces its file, creating parent directories as needed.
// It returns the written path.
func (r *FileRepository) Save(_ context.Context, m *artifact.Manifest) (string, error) {
	if m == nil || m.ID == "" {
		return "", errEmptyID
	}

	data, err := Encode(m)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.PathFor(m.ID)
	if err = os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return "", fmt.Errorf("create manifest directory: %w", err)
	}

	// go-update swaps an existing target, so a first write needs a placeholder.
	var placeholder bool
	if _, err = os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(path, nil, DefaultFileMode); err != nil {
			return "", fmt.Errorf("create manifest file: %w", err)
		}

		placeholder = true
	}

	sum, err := hex.DecodeString(checksum.Bytes(data).SHA1)
	if err != nil {
		return "", fmt.Errorf("encode manifest checksum: %w", err)
	}

	options := goupdate.Options{
		TargetPath: path,
		TargetMode: DefaultFileMode,
		Checksum:   sum,
		Hash:       checksum.DefaultFunction,
	}

	if err = r.apply(bytes.NewReader(data), options); err != nil {
		if placeholder {
			_ = os.Remove(path)
		}

		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			return "", fmt.Errorf("replace %s: %w (rollback failed: %w)", path, err, rollbackErr)
		}

		return "", fmt.Errorf("replace %s: %w", path, err)
	}

	// Windows only hides the previous file instead of deleting it.
	oldPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+oldSuffix)
	if _, err = os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	return path, nil
}

// Load reads a previously written manifest, the same file a launcher resolves
// for a version id.
func (r *FileRepository) Load(_ context.Context, id string) (*artifact.Manifest, error) {
	if id == "" {
		return nil, errEmptyID
	}

	contents, err := os.ReadFile(r.PathFor(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m artifact.Manifest
	if err = json.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", id, err)
	}

	return &m, nil
}

// Encode renders m as indented JSON with a trailing newline.
// URLs are written verbatim rather than HTML-escaped.
func Encode(m *artifact.Manifest) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}
