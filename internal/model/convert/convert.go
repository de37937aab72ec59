// Package convert provides functions to convert GORM catalog models to zoneinfo types
package convert

import (
	"encoding/json"
	"sort"

	"github.com/fastwaymarks/overlay/internal/model"
	"github.com/fastwaymarks/overlay/internal/zoneinfo"
)

// MapRecordToInfo converts a GORM MapRecord. Rows without stored paths fall
// back to the standard paths derived from the map key.
func MapRecordToInfo(r model.MapRecord) zoneinfo.MapInfo {
	var paths model.MapPaths
	if len(r.Paths) > 0 {
		_ = json.Unmarshal(r.Paths, &paths)
	}
	if paths.Image == "" {
		paths.Image, paths.Parchment = zoneinfo.DefaultPaths(r.Key)
	}
	return zoneinfo.MapInfo{
		MapID:         r.ID,
		TerritoryID:   r.TerritoryID,
		Key:           r.Key,
		SizeFactor:    r.SizeFactor,
		OffsetX:       r.OffsetX,
		OffsetY:       r.OffsetY,
		PlaceNameSub:  r.PlaceNameSub,
		ImagePath:     paths.Image,
		ParchmentPath: paths.Parchment,
	}
}

// MapInfoToRecord converts a MapInfo at position order within its territory.
func MapInfoToRecord(m zoneinfo.MapInfo, order int) model.MapRecord {
	paths, _ := json.Marshal(model.MapPaths{Image: m.ImagePath, Parchment: m.ParchmentPath})
	return model.MapRecord{
		ID:           m.MapID,
		TerritoryID:  m.TerritoryID,
		SortOrder:    order,
		Key:          m.Key,
		SizeFactor:   m.SizeFactor,
		OffsetX:      m.OffsetX,
		OffsetY:      m.OffsetY,
		PlaceNameSub: m.PlaceNameSub,
		Paths:        paths,
	}
}

// TerritoryToZoneInfo converts a Territory with its preloaded maps, ordered by
// SortOrder.
func TerritoryToZoneInfo(t model.Territory) zoneinfo.Territory {
	records := make([]model.MapRecord, len(t.Maps))
	copy(records, t.Maps)
	sort.SliceStable(records, func(i, j int) bool { return records[i].SortOrder < records[j].SortOrder })

	out := zoneinfo.Territory{ID: t.ID, ContentID: t.ContentID, Name: t.Name}
	for _, r := range records {
		out.Maps = append(out.Maps, MapRecordToInfo(r))
	}
	return out
}

// TerritoryToGorm converts a zoneinfo Territory. Map territory ids are forced
// to the territory's id.
func TerritoryToGorm(t zoneinfo.Territory) model.Territory {
	out := model.Territory{ID: t.ID, ContentID: t.ContentID, Name: t.Name}
	for i, m := range t.Maps {
		m.TerritoryID = t.ID
		out.Maps = append(out.Maps, MapInfoToRecord(m, i))
	}
	return out
}
