package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // webp decode support for course covers

	"github.com/thelonepunk/amorphic-learn/internal/logging"
)

// maxCoverWidth bounds stored cover images; larger uploads are downscaled.
const maxCoverWidth = 1280

// CoverStore persists course cover images, re-encoded as bounded-width JPEGs.
type CoverStore struct {
	dir string
}

// NewCoverStore creates the cover directory if needed.
func NewCoverStore(dir string) (*CoverStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cover directory: %w", err)
	}
	return &CoverStore{dir: dir}, nil
}

// Save decodes, downscales, and stores a cover image, returning the stored
// name. JPEG, PNG, GIF, and WebP uploads are accepted.
func (c *CoverStore) Save(src io.Reader) (string, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode cover image: %w", err)
	}

	if img.Bounds().Dx() > maxCoverWidth {
		img = imaging.Resize(img, maxCoverWidth, 0, imaging.Lanczos)
	}

	name := "cover-" + uuid.New().String() + ".jpg"
	path := filepath.Join(c.dir, name)

	if err := imaging.Save(img, path, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to save cover image: %w", err)
	}

	return name, nil
}

// Open opens a stored cover for serving.
func (c *CoverStore) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid cover name")
	}
	return os.Open(filepath.Join(c.dir, name))
}

// Remove deletes a stored cover; missing files are not an error.
func (c *CoverStore) Remove(name string) {
	if name == "" || name != filepath.Base(name) {
		return
	}
	if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove cover %s: %v", name, err)
	}
}
