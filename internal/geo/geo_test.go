package geo

import (
	"math"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastwaymarks/overlay/pkg/core"
)

func TestPosition2DFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    core.Position2D
		wantErr bool
	}{
		{"comma", "100,100", core.Position2D{X: 100, Y: 100}, false},
		{"spaces around", " 12.5 , -3 ", core.Position2D{X: 12.5, Y: -3}, false},
		{"whitespace separated", "1 2", core.Position2D{X: 1, Y: 2}, false},
		{"bracketed", "[4,5]", core.Position2D{X: 4, Y: 5}, false},
		{"single value", "100", core.Position2D{}, true},
		{"three values", "1,2,3", core.Position2D{}, true},
		{"not a number", "a,b", core.Position2D{}, true},
		{"empty", "", core.Position2D{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Position2DFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPosition3DFromString(t *testing.T) {
	p, err := Position3DFromString("1,2,3")
	require.NoError(t, err)
	assert.Equal(t, core.Position3D{X: 1, Y: 2, Z: 3}, p)

	p, err = Position3DFromString("1,3")
	require.NoError(t, err)
	assert.Equal(t, core.Position3D{X: 1, Z: 3}, p)

	_, err = Position3DFromString("1,2,3,4")
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestGroundPoint(t *testing.T) {
	pt, err := GroundPoint(core.Position2D{X: 100.5, Y: 200.25})
	require.NoError(t, err)
	xy, ok := pt.XY()
	require.True(t, ok)
	assert.Equal(t, 100.5, xy.X)
	assert.Equal(t, 200.25, xy.Y)

	_, err = GroundPoint(core.Position2D{X: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestContains(t *testing.T) {
	square, err := geom.UnmarshalWKT("POLYGON((0 0,10 0,10 10,0 10,0 0))")
	require.NoError(t, err)

	for _, tc := range []struct {
		p    core.Position2D
		want bool
	}{
		{core.Position2D{X: 5, Y: 5}, true},
		{core.Position2D{X: 10, Y: 5}, true},
		{core.Position2D{X: 11, Y: 5}, false},
	} {
		got, err := Contains(square, tc.p)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%v", tc.p)
	}

	_, err = Contains(square, core.Position2D{Y: math.Inf(-1)})
	assert.Error(t, err)
}
