package model

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// Geography is the resolved place/jurisdiction record for a ZIP code.
// ZipCode is the natural key; ID is assigned by the store.
type Geography struct {
	ID                    int64     `json:"id,omitempty" yaml:"-"`
	ZipCode               string    `json:"zip_code" yaml:"zip_code"`
	City                  string    `json:"city" yaml:"city"`
	State                 string    `json:"state" yaml:"state"`
	StateName             string    `json:"state_name" yaml:"state_name"`
	County                string    `json:"county" yaml:"county"`
	CongressionalDistrict string    `json:"congressional_district" yaml:"congressional_district"`
	Latitude              float64   `json:"latitude" yaml:"latitude"`
	Longitude             float64   `json:"longitude" yaml:"longitude"`
	UpdatedAt             time.Time `json:"updated_at,omitzero" yaml:"-"`
}

// HasLocation reports whether both coordinates are set.
func (g Geography) HasLocation() bool {
	return g.Latitude != 0 || g.Longitude != 0
}

// LocationEWKB encodes the coordinates as an SRID 4326 EWKB point.
// Returns nil, nil when the geography has no coordinates.
func (g Geography) LocationEWKB() ([]byte, error) {
	if !g.HasLocation() {
		return nil, nil
	}
	pt := geom.NewPointFlat(geom.XY, []float64{g.Longitude, g.Latitude}).SetSRID(4326)
	data, err := ewkb.Marshal(pt, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "model: encode geography location")
	}
	return data, nil
}
