package videostore

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thelonepunk/amorphic-learn/internal/logging"
)

// ErrInvalidName is returned for names that could escape the store or
// reference internal transcode artifacts.
var ErrInvalidName = errors.New("invalid video name")

const (
	origMarker = "_orig"
	tempMarker = "_tmp"
)

// Store manages video files under a single public directory. Served files,
// their _orig backups, and transient _tmp encoder outputs all share the
// same base name and directory.
type Store struct {
	dir string
}

// New creates the store directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create video directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// GenerateName produces a unique stored name of the form
// <field>-<unix-ms>-<random>.<ext>, keeping the upload's extension.
func GenerateName(field, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext == "" {
		ext = ".mp4"
	}

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		// Timestamp alone still gives practical uniqueness.
		return fmt.Sprintf("%s-%d%s", field, time.Now().UnixMilli(), ext)
	}

	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixMilli(), hex.EncodeToString(suffix), ext)
}

// ValidateName rejects names with path separators, traversal components,
// or the internal _orig/_tmp markers, which are never exposed to clients.
func ValidateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.HasSuffix(base, origMarker) || strings.HasSuffix(base, tempMarker) {
		return ErrInvalidName
	}
	return nil
}

// ServedPath returns the absolute path clients stream from.
func (s *Store) ServedPath(name string) string {
	return filepath.Join(s.dir, name)
}

// OriginalPath returns the path of the pre-transcode backup copy.
func (s *Store) OriginalPath(name string) string {
	return s.sibling(name, origMarker)
}

// TempPath returns the path of the transient encoder output.
func (s *Store) TempPath(name string) string {
	return s.sibling(name, tempMarker)
}

// sibling inserts a marker before the extension so the encoder can still
// infer the container format from the suffix.
func (s *Store) sibling(name, marker string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return filepath.Join(s.dir, base+marker+ext)
}

// Save writes the uploaded bytes to the served path for name. The write
// goes to a .part file first and is renamed into place so the served path
// is never observed half-written.
func (s *Store) Save(src io.Reader, name string) (int64, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}

	served := s.ServedPath(name)
	part := served + ".part"

	dst, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(dst, src)
	if err != nil {
		dst.Close()
		if rmErr := os.Remove(part); rmErr != nil {
			logging.Warn("failed to remove partial upload %s: %v", part, rmErr)
		}
		return 0, fmt.Errorf("failed to write upload: %w", err)
	}

	if err := dst.Close(); err != nil {
		_ = os.Remove(part)
		return 0, fmt.Errorf("failed to flush upload: %w", err)
	}

	if err := os.Rename(part, served); err != nil {
		_ = os.Remove(part)
		return 0, fmt.Errorf("failed to finalize upload: %w", err)
	}

	return written, nil
}

// Backup copies the served file to its _orig sibling. The backup is the
// encoder's input, leaving the served path untouched until the final swap.
func (s *Store) Backup(name string) error {
	src, err := os.Open(s.ServedPath(name))
	if err != nil {
		return fmt.Errorf("failed to open served file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(s.OriginalPath(name))
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(s.OriginalPath(name))
		return fmt.Errorf("failed to copy backup: %w", err)
	}

	return dst.Close()
}

// Swap atomically renames the _tmp encoder output over the served path.
// This is the single moment the served bytes change; a concurrent reader
// holding an open handle keeps reading the old file.
func (s *Store) Swap(name string) error {
	if err := os.Rename(s.TempPath(name), s.ServedPath(name)); err != nil {
		return fmt.Errorf("failed to swap encoded file: %w", err)
	}
	return nil
}

// RemoveTemp deletes the _tmp output if present.
func (s *Store) RemoveTemp(name string) {
	path := s.TempPath(name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove temp output %s: %v", path, err)
	}
}

// Remove deletes a served file, used when the catalog write that
// references it fails.
func (s *Store) Remove(name string) {
	if err := ValidateName(name); err != nil {
		return
	}
	if err := os.Remove(s.ServedPath(name)); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove video %s: %v", name, err)
	}
}

// Open opens a served file for streaming after validating the name.
func (s *Store) Open(name string) (*os.File, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return os.Open(s.ServedPath(name))
}

// Size returns the size of the served file for name.
func (s *Store) Size(name string) (int64, error) {
	info, err := os.Stat(s.ServedPath(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// CleanupStale removes leftover .part and _tmp files from interrupted
// uploads or transcodes. _orig backups are always retained as recovery
// copies. Returns the number of files removed.
func (s *Store) CleanupStale() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read video directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		base := strings.TrimSuffix(name, filepath.Ext(name))

		if !strings.HasSuffix(name, ".part") && !strings.HasSuffix(base, tempMarker) {
			continue
		}

		path := filepath.Join(s.dir, name)
		if err := os.Remove(path); err != nil {
			logging.Warn("failed to remove stale file %s: %v", path, err)
			continue
		}
		logging.Info("Removed stale transcode artifact: %s", name)
		removed++
	}

	return removed, nil
}
