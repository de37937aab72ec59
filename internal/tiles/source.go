package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MemorySource serves images registered in memory.
type MemorySource struct {
	mu     sync.RWMutex
	images map[string]*image.RGBA
}

// NewMemorySource creates an empty MemorySource
func NewMemorySource() *MemorySource {
	return &MemorySource{images: make(map[string]*image.RGBA)}
}

// Put registers img under path.
func (s *MemorySource) Put(path string, img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[path] = img
}

func (s *MemorySource) Fetch(ctx context.Context, path string) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return img, nil
}

// exported host textures are looked up under these extensions, in order
var fileExtensions = []string{"", ".png", ".webp", ".bmp", ".tiff", ".jpg"}

// FileSource reads exported tile images below Root. Host texture paths such as
// "ui/map/s1d1/00/s1d100_m.tex" are matched against files with the same stem
// and any supported image extension.
type FileSource struct {
	Root string
}

func (s FileSource) Fetch(ctx context.Context, path string) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stem := filepath.Join(s.Root, filepath.FromSlash(path))
	if ext := filepath.Ext(stem); strings.EqualFold(ext, ".tex") {
		stem = strings.TrimSuffix(stem, ext)
	}
	for _, ext := range fileExtensions {
		img, err := decodeFile(stem + ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", stem+ext, err)
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

func decodeFile(name string) (*image.RGBA, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		return nil, fs.ErrNotExist
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return ToRGBA(img), nil
}
