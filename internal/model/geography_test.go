package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

func TestGeography_LocationEWKB(t *testing.T) {
	g := Geography{ZipCode: "11354", Latitude: 40.7598, Longitude: -73.8303}
	require.True(t, g.HasLocation())

	data, err := g.LocationEWKB()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	pt, ok := decoded.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 4326, pt.SRID())
	assert.InDelta(t, -73.8303, pt.X(), 1e-9)
	assert.InDelta(t, 40.7598, pt.Y(), 1e-9)
}

func TestGeography_LocationEWKB_NoCoordinates(t *testing.T) {
	g := Geography{ZipCode: "20001"}
	assert.False(t, g.HasLocation())

	data, err := g.LocationEWKB()
	require.NoError(t, err)
	assert.Nil(t, data)
}
