package session

import (
	"sync"
)

// Zone identifies where the local player currently is.
type Zone struct {
	TerritoryID uint32
	ContentID   uint32
}

// Context holds per-frame overlay state that is shared between the frame
// update, command handlers and the map window.
type Context struct {
	mu              sync.RWMutex
	zone            Zone
	zoneChanged     bool
	settingsChanged bool
}

// NewContext creates a new Context with no zone loaded
func NewContext() *Context {
	return &Context{}
}

// GetZone returns the current zone
func (c *Context) GetZone() Zone {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zone
}

// SetZone records the current zone and reports whether it differs from the
// previous one. A change is latched until TakeZoneChanged.
func (c *Context) SetZone(z Zone) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.zone == z {
		return false
	}
	c.zone = z
	c.zoneChanged = true
	return true
}

// PeekZoneChanged reports the zone-changed latch without clearing it.
func (c *Context) PeekZoneChanged() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zoneChanged
}

// TakeZoneChanged returns and clears the zone-changed latch.
func (c *Context) TakeZoneChanged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.zoneChanged
	c.zoneChanged = false
	return v
}

// MarkSettingsChanged flags that the layout settings were edited.
func (c *Context) MarkSettingsChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settingsChanged = true
}

// TakeSettingsChanged returns and clears the settings-changed flag.
func (c *Context) TakeSettingsChanged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.settingsChanged
	c.settingsChanged = false
	return v
}
