package store

import (
	"time"

	"github.com/sells-group/rep-ingest/internal/db"
	"github.com/sells-group/rep-ingest/internal/model"
)

var geographyUpsert = db.UpsertConfig{
	Table: "geography",
	Columns: []string{
		"zip_code", "city", "state", "state_name", "county",
		"congressional_district", "latitude", "longitude", "location_ewkb",
	},
	ConflictKeys: []string{"zip_code"},
	TouchCol:     "updated_at",
	Returning:    "id",
}

var representativeUpsert = db.UpsertConfig{
	Table: "representatives",
	Columns: []string{
		"name", "title", "party", "branch", "office_type", "phone", "email",
		"website", "photo_url", "address_line1", "address_line2",
		"address_city", "address_state", "address_zip", "term_start",
		"term_end", "is_active",
	},
	ConflictKeys: []string{"name", "title"},
	TouchCol:     "updated_at",
	Returning:    "id",
}

var mappingUpsert = db.UpsertConfig{
	Table:        "rep_geography_map",
	Columns:      []string{"representative_id", "geography_id", "jurisdiction_level"},
	ConflictKeys: []string{"representative_id", "geography_id"},
	TouchCol:     "updated_at",
}

const geographyColumns = `id, zip_code, city, state, state_name, county, congressional_district, latitude, longitude, updated_at`

const representativeColumns = `r.id, r.name, r.title, r.party, r.branch, r.office_type, r.phone, r.email,
	r.website, r.photo_url, r.address_line1, r.address_line2, r.address_city,
	r.address_state, r.address_zip, r.term_start, r.term_end, r.is_active, r.updated_at`

const representativesByZIPFrom = `
	FROM representatives r
	JOIN rep_geography_map m ON m.representative_id = r.id
	JOIN geography g ON g.id = m.geography_id
	WHERE g.zip_code = %s
	ORDER BY r.id`

// statements holds the upsert SQL rendered for one placeholder style.
type statements struct {
	geography      string
	representative string
	mapping        string
}

func buildStatements(ph db.Placeholder) (statements, error) {
	var st statements
	var err error
	if st.geography, err = db.UpsertSQL(geographyUpsert, ph); err != nil {
		return st, err
	}
	if st.representative, err = db.UpsertSQL(representativeUpsert, ph); err != nil {
		return st, err
	}
	if st.mapping, err = db.UpsertSQL(mappingUpsert, ph); err != nil {
		return st, err
	}
	return st, nil
}

// mustStatements panics on a malformed upsert config; the configs above are
// static and covered by tests.
func mustStatements(ph db.Placeholder) statements {
	st, err := buildStatements(ph)
	if err != nil {
		panic(err)
	}
	return st
}

func geographyArgs(g model.Geography) ([]any, error) {
	loc, err := g.LocationEWKB()
	if err != nil {
		return nil, err
	}
	var lat, lon any
	if g.HasLocation() {
		lat, lon = g.Latitude, g.Longitude
	}
	var ewkb any
	if loc != nil {
		ewkb = loc
	}
	return []any{
		g.ZipCode,
		nilIfEmpty(g.City),
		nilIfEmpty(g.State),
		nilIfEmpty(g.StateName),
		nilIfEmpty(g.County),
		nilIfEmpty(g.CongressionalDistrict),
		lat,
		lon,
		ewkb,
	}, nil
}

func representativeArgs(r model.Representative) []any {
	return []any{
		r.Name,
		r.Title,
		r.Party,
		string(r.Branch),
		r.OfficeType,
		r.Phone,
		r.Email,
		r.Website,
		r.PhotoURL,
		r.Address.Line1,
		r.Address.Line2,
		r.Address.City,
		r.Address.State,
		r.Address.Zip,
		dateArg(r.TermStart),
		dateArg(r.TermEnd),
		r.IsActive,
	}
}

func mappingArgs(m model.Mapping) []any {
	return []any{m.RepresentativeID, m.GeographyID, m.JurisdictionLevel}
}

// dateArg drops the clock part of a term date, which is stored as DATE.
func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nilIfEmpty returns nil for empty strings, allowing NULL storage.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scannable interface {
	Scan(dest ...any) error
}
