package tiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/zoneinfo"
)

var errNoBase = errors.New("sub-map has no base image")

// Tile is a loaded sub-map texture and the map it was built from. Skipped
// sub-maps leave gaps, so callers pair textures with maps through Tile.Map
// rather than by index.
type Tile struct {
	Texture
	Map zoneinfo.MapInfo
}

// Loader builds the textures for a zone's sub-maps.
type Loader struct {
	Source  Source
	Factory TextureFactory
	Logger  zerolog.Logger
}

// Load fetches every sub-map in order and returns one Tile per texture.
// Cancellation is checked between tiles; a cancelled load disposes what it
// built and returns the context error. A sub-map whose base image does not
// exist is skipped. Any other per-tile failure is logged and stops the load,
// keeping earlier tiles. A load that produced nothing returns ErrNoTiles.
func (l *Loader) Load(ctx context.Context, maps []zoneinfo.MapInfo) ([]Texture, error) {
	out := make([]Texture, 0, len(maps))
	for _, m := range maps {
		if err := ctx.Err(); err != nil {
			disposeAll(out)
			return nil, err
		}
		tex, err := l.loadOne(ctx, m)
		if errors.Is(err, errNoBase) {
			l.Logger.Debug().Uint32("map", m.MapID).Str("path", m.ImagePath).Msg("Skipping sub-map without image")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				disposeAll(out)
				return nil, ctx.Err()
			}
			l.Logger.Error().Err(err).
				Uint32("map", m.MapID).
				Str("path", m.ImagePath).
				Int("loaded", len(out)).
				Msg("Failed to load map tile")
			break
		}
		out = append(out, Tile{Texture: tex, Map: m})
	}
	if len(out) == 0 {
		return nil, ErrNoTiles
	}
	return out, nil
}

func (l *Loader) loadOne(ctx context.Context, m zoneinfo.MapInfo) (Texture, error) {
	base, err := l.Source.Fetch(ctx, m.ImagePath)
	if errors.Is(err, ErrNotFound) {
		return nil, errNoBase
	}
	if err != nil {
		return nil, fmt.Errorf("fetching base %s: %w", m.ImagePath, err)
	}
	img := base
	if m.HasParchment() {
		overlay, err := l.Source.Fetch(ctx, m.ParchmentPath)
		switch {
		case errors.Is(err, ErrNotFound):
			l.Logger.Debug().Str("path", m.ParchmentPath).Msg("No parchment overlay, using base")
		case err != nil:
			return nil, fmt.Errorf("fetching parchment %s: %w", m.ParchmentPath, err)
		default:
			if img, err = Blend(base, overlay); err != nil {
				return nil, err
			}
		}
	}
	return l.Factory.NewTexture(img)
}

func disposeAll(ts []Texture) {
	for _, t := range ts {
		t.Dispose()
	}
}
