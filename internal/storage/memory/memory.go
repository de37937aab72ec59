// internal/storage/memory/memory.go
package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/fastwaymarks/overlay/internal/zoneinfo"
)

// ErrInvalidTerritory is returned for territories without an id.
var ErrInvalidTerritory = errors.New("territory id must be non-zero")

// Config holds in-memory catalog settings
type Config struct {
	// Path is an optional JSON seed file, gzip-compressed when it ends in .gz
	Path string
}

// Catalog keeps every territory in memory. It also serves as the read cache of
// the database-backed catalogs.
type Catalog struct {
	cfg Config

	mu          sync.RWMutex
	territories map[uint32]zoneinfo.Territory
	byContent   map[uint32]uint32
}

// New creates an empty in-memory catalog
func New(cfg Config) *Catalog {
	return &Catalog{
		cfg:         cfg,
		territories: make(map[uint32]zoneinfo.Territory),
		byContent:   make(map[uint32]uint32),
	}
}

// Init loads the seed file when one is configured and exists.
func (c *Catalog) Init() error {
	if c.cfg.Path == "" {
		return nil
	}
	err := c.LoadFile(c.cfg.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (c *Catalog) Close() error {
	return nil
}

// PutTerritory inserts or replaces t. Sub-map territory ids are forced to t.ID.
func (c *Catalog) PutTerritory(t zoneinfo.Territory) error {
	if t.ID == 0 {
		return ErrInvalidTerritory
	}
	maps := make([]zoneinfo.MapInfo, len(t.Maps))
	for i, m := range t.Maps {
		m.TerritoryID = t.ID
		maps[i] = m
	}
	t.Maps = maps

	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.territories[t.ID]; ok && old.ContentID != 0 && c.byContent[old.ContentID] == t.ID {
		delete(c.byContent, old.ContentID)
	}
	c.territories[t.ID] = t
	if t.ContentID != 0 {
		c.byContent[t.ContentID] = t.ID
	}
	return nil
}

func (c *Catalog) Territories() []zoneinfo.Territory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]zoneinfo.Territory, 0, len(c.territories))
	for _, t := range c.territories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) ContentIDForTerritory(territoryID uint32) uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.territories[territoryID].ContentID
}

func (c *Catalog) TerritoryForContent(contentID uint32) uint32 {
	if contentID == 0 {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byContent[contentID]
}

func (c *Catalog) MapInfos(territoryID uint32) []zoneinfo.MapInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.territories[territoryID]
	if !ok || len(t.Maps) == 0 {
		return nil
	}
	out := make([]zoneinfo.MapInfo, len(t.Maps))
	copy(out, t.Maps)
	return out
}

// LoadFile adds every territory from a JSON file.
func (c *Catalog) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var territories []zoneinfo.Territory
	if err := json.NewDecoder(r).Decode(&territories); err != nil {
		return fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	for _, t := range territories {
		if err := c.PutTerritory(t); err != nil {
			return fmt.Errorf("territory %q: %w", t.Name, err)
		}
	}
	return nil
}

// WriteFile exports the catalog as JSON.
func (c *Catalog) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		gzWriter := gzip.NewWriter(f)
		defer gzWriter.Close()
		w = gzWriter
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(c.Territories())
}
