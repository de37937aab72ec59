// Package viewstate persists the per-zone map preview state (selected sub-map,
// zoom and pan) between sessions.
package viewstate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/fastwaymarks/overlay/internal/mapview"
	"github.com/fastwaymarks/overlay/pkg/core"
)

// FileName is the view state file inside the config directory.
const FileName = "MapViewStateData_v1.json"

const schemaURL = "viewstate.schema.json"

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if schemaErr = c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); schemaErr != nil {
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Vec2 is a 2D value in normalized texture space.
type Vec2 struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
}

// SubMapViewState is the zoom and pan of one sub-map.
type SubMapViewState struct {
	Zoom float64 `json:"Zoom"`
	Pan  Vec2    `json:"Pan"`
}

// View converts to the mapview representation.
func (s SubMapViewState) View() mapview.View {
	return mapview.View{Zoom: s.Zoom, Pan: core.Position2D{X: s.Pan.X, Y: s.Pan.Y}}
}

// FromView converts a mapview.View.
func FromView(v mapview.View) SubMapViewState {
	return SubMapViewState{Zoom: v.Zoom, Pan: Vec2{X: v.Pan.X, Y: v.Pan.Y}}
}

// MapViewState is the saved view of one zone.
type MapViewState struct {
	SelectedSubMapIndex int               `json:"SelectedSubMapIndex"`
	SubMapViewData      []SubMapViewState `json:"SubMapViewData"`
}

// Store holds view state for every zone the user has opened. It is owned by
// the UI goroutine and is not safe for concurrent use.
type Store struct {
	path  string
	zones map[uint32]*MapViewState
}

// NewStore creates an empty store persisted at path.
func NewStore(path string) *Store {
	return &Store{path: path, zones: make(map[uint32]*MapViewState)}
}

// NewStoreInDir creates an empty store persisted as FileName inside dir.
func NewStoreInDir(dir string) *Store {
	return NewStore(filepath.Join(dir, FileName))
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of zones with saved state.
func (s *Store) Len() int {
	return len(s.zones)
}

// Load replaces the store contents with the file. A missing file leaves the
// store empty and is not an error; an unreadable or invalid file also leaves
// it empty and returns the error.
func (s *Store) Load() error {
	s.zones = make(map[uint32]*MapViewState)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading view state: %w", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compiling view state schema: %w", err)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing view state: %w", err)
	}
	if err := sch.Validate(raw); err != nil {
		return fmt.Errorf("validating view state: %w", err)
	}

	zones := make(map[uint32]*MapViewState)
	if err := json.Unmarshal(data, &zones); err != nil {
		return fmt.Errorf("decoding view state: %w", err)
	}
	for id, z := range zones {
		if z == nil {
			delete(zones, id)
		}
	}
	s.zones = zones
	return nil
}

// Save writes the whole store. An empty store is not written.
func (s *Store) Save() error {
	if len(s.zones) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(s.zones, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding view state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating view state dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing view state: %w", err)
	}
	return nil
}

// Clear empties the store and deletes the file.
func (s *Store) Clear() error {
	s.zones = make(map[uint32]*MapViewState)
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing view state: %w", err)
	}
	return nil
}

// Get returns the saved state of zone.
func (s *Store) Get(zone uint32) (*MapViewState, bool) {
	z, ok := s.zones[zone]
	return z, ok
}

// Ensure returns the state of zone, creating it and appending default sub-map
// views until there is one per entry of sizeFactors. Existing entries are
// never modified.
func (s *Store) Ensure(zone uint32, sizeFactors []float64) *MapViewState {
	z, ok := s.zones[zone]
	if !ok {
		z = &MapViewState{}
		s.zones[zone] = z
	}
	for i := len(z.SubMapViewData); i < len(sizeFactors); i++ {
		z.SubMapViewData = append(z.SubMapViewData, FromView(mapview.NewView(sizeFactors[i])))
	}
	return z
}
