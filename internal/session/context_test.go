package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_SetZoneLatchesChange(t *testing.T) {
	ctx := NewContext()
	assert.Equal(t, Zone{}, ctx.GetZone())

	assert.True(t, ctx.SetZone(Zone{TerritoryID: 1, ContentID: 2}))
	assert.False(t, ctx.SetZone(Zone{TerritoryID: 1, ContentID: 2}))

	assert.True(t, ctx.PeekZoneChanged())
	assert.True(t, ctx.PeekZoneChanged())
	assert.True(t, ctx.TakeZoneChanged())
	assert.False(t, ctx.TakeZoneChanged())
	assert.False(t, ctx.PeekZoneChanged())
	assert.Equal(t, uint32(2), ctx.GetZone().ContentID)
}

func TestContext_SettingsChanged(t *testing.T) {
	ctx := NewContext()
	assert.False(t, ctx.TakeSettingsChanged())

	ctx.MarkSettingsChanged()
	ctx.MarkSettingsChanged()

	assert.True(t, ctx.TakeSettingsChanged())
	assert.False(t, ctx.TakeSettingsChanged())
}

func TestContext_ThreadSafe(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			ctx.SetZone(Zone{TerritoryID: uint32(i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = ctx.GetZone()
			ctx.MarkSettingsChanged()
		}()
	}
	wg.Wait()
	assert.True(t, ctx.TakeSettingsChanged())
}
