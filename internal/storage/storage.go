// internal/storage/storage.go
package storage

import "github.com/fastwaymarks/overlay/internal/zoneinfo"

// Catalog is the interface all zone catalog backends must satisfy. Lookups
// through zoneinfo.Resolver are served from memory and never block on I/O.
type Catalog interface {
	zoneinfo.Resolver

	// Lifecycle
	Init() error
	Close() error

	// PutTerritory inserts or replaces a territory and its sub-maps.
	PutTerritory(t zoneinfo.Territory) error
	// Territories lists every territory ordered by id.
	Territories() []zoneinfo.Territory
}
