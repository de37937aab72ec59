// Package tiles fetches, blends and uploads zone map tiles.
package tiles

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"golang.org/x/image/draw"
)

var (
	// ErrNotFound is returned by a Source when a path does not exist.
	ErrNotFound = errors.New("tile not found")
	// ErrNoTiles is returned when a zone produced no usable tiles.
	ErrNoTiles = errors.New("no maps available for zone")
	// ErrSizeMismatch is returned when a parchment overlay does not match its base.
	ErrSizeMismatch = errors.New("overlay size does not match base")
)

// Source yields decoded RGBA images for host texture paths.
type Source interface {
	Fetch(ctx context.Context, path string) (*image.RGBA, error)
}

// Texture is a renderer-owned image handle. Dispose must be safe to call more
// than once.
type Texture interface {
	Size() image.Point
	Dispose()
}

// TextureFactory turns a blended image into a Texture.
type TextureFactory interface {
	NewTexture(img *image.RGBA) (Texture, error)
}

// ImageTexture is an in-process Texture backed by the decoded image.
type ImageTexture struct {
	img      *image.RGBA
	disposed atomic.Bool
}

// Image returns the backing image, or nil after Dispose.
func (t *ImageTexture) Image() *image.RGBA {
	if t.disposed.Load() {
		return nil
	}
	return t.img
}

func (t *ImageTexture) Size() image.Point {
	return t.img.Bounds().Size()
}

func (t *ImageTexture) Dispose() {
	t.disposed.Store(true)
}

// Disposed reports whether Dispose was called.
func (t *ImageTexture) Disposed() bool {
	return t.disposed.Load()
}

// ImageFactory creates ImageTextures.
type ImageFactory struct{}

func (ImageFactory) NewTexture(img *image.RGBA) (Texture, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	return &ImageTexture{img: img}, nil
}

// Blend multiplies base by overlay per channel: out = base*overlay/255.
func Blend(base, overlay *image.RGBA) (*image.RGBA, error) {
	if base.Bounds().Size() != overlay.Bounds().Size() {
		return nil, fmt.Errorf("%w: %v vs %v", ErrSizeMismatch, base.Bounds().Size(), overlay.Bounds().Size())
	}
	out := image.NewRGBA(image.Rect(0, 0, base.Bounds().Dx(), base.Bounds().Dy()))
	w := base.Bounds().Dx() * 4
	for y := 0; y < base.Bounds().Dy(); y++ {
		bRow := base.Pix[y*base.Stride : y*base.Stride+w]
		oRow := overlay.Pix[y*overlay.Stride : y*overlay.Stride+w]
		dRow := out.Pix[y*out.Stride : y*out.Stride+w]
		for i := range dRow {
			dRow[i] = uint8(uint16(bRow[i]) * uint16(oRow[i]) / 255)
		}
	}
	return out, nil
}

// ToRGBA converts any image into a zero-origin RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Thumbnail scales img to fit within size x size, keeping the aspect ratio.
func Thumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := size, size
	if b.Dx() > b.Dy() {
		h = max(1, size*b.Dy()/b.Dx())
	} else if b.Dy() > b.Dx() {
		w = max(1, size*b.Dx()/b.Dy())
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}
