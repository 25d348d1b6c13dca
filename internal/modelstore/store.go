// Package modelstore maps model names to weight files on disk. Models live in
// a models directory; a model missing there is copied in from the bundled
// assets directory on first use.
package modelstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"llamachat/internal/common/fsutil"
	"llamachat/pkg/types"
)

// ErrInvalidName is returned for names that are not a plain file name.
var ErrInvalidName = errors.New("invalid model name")

// Store resolves model names inside ModelsDir, seeding it from AssetsDir.
type Store struct {
	modelsDir string
	assetsDir string
	mu        sync.Mutex // serializes asset copies
}

// New returns a Store. Both directories may start with '~'. assetsDir may be
// empty, in which case Resolve never copies.
func New(modelsDir, assetsDir string) (*Store, error) {
	md, err := absDir(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("models dir: %w", err)
	}
	ad := ""
	if assetsDir != "" {
		if ad, err = absDir(assetsDir); err != nil {
			return nil, fmt.Errorf("assets dir: %w", err)
		}
	}
	return &Store{modelsDir: md, assetsDir: ad}, nil
}

func absDir(dir string) (string, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	return abs, nil
}

// ModelsDir returns the absolute models directory.
func (s *Store) ModelsDir() string { return s.modelsDir }

// Resolve returns the path of the weights for name, copying them from the
// assets directory when they are not yet in the models directory.
func (s *Store) Resolve(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	dst := filepath.Join(s.modelsDir, name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if fsutil.PathExists(dst) {
		return dst, nil
	}
	if s.assetsDir == "" {
		return "", fmt.Errorf("model %s not found in %s: %w", name, s.modelsDir, fs.ErrNotExist)
	}
	src := filepath.Join(s.assetsDir, name)
	if !fsutil.PathExists(src) {
		return "", fmt.Errorf("model %s not found in %s or %s: %w", name, s.modelsDir, s.assetsDir, fs.ErrNotExist)
	}
	if err := os.MkdirAll(s.modelsDir, 0o755); err != nil {
		return "", fmt.Errorf("create models dir: %w", err)
	}
	if err := fsutil.CopyFile(src, dst); err != nil {
		return "", fmt.Errorf("copy model from assets: %w", err)
	}
	return dst, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// List returns the models present in the models directory.
func (s *Store) List() ([]types.Model, error) {
	models, err := LoadDir(s.modelsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return models, err
}

// LoadDir scans a directory for *.gguf files and builds model entries from the
// filenames. ID is the full filename (including extension); Path is the
// absolute file path.
func LoadDir(dir string) ([]types.Model, error) {
	abs, err := absDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		m := types.Model{ID: name, Name: name, Path: filepath.Join(abs, name), Quant: parseQuant(name)}
		if info, err := e.Info(); err == nil {
			m.SizeBytes = info.Size()
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

var quantRe = regexp.MustCompile(`(?i)(?:^|[.\-_])((?:I?Q\d+(?:_[A-Z0-9]+)*)|BF16|F16|F32)$`)

// parseQuant extracts a quantization tag such as Q5_K_M from a gguf filename.
func parseQuant(filename string) string {
	base := filename[:len(filename)-len(filepath.Ext(filename))]
	m := quantRe.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
