package store

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rep-ingest/internal/model"
)

func scanGeography(row scannable) (*model.Geography, error) {
	var (
		g                                     model.Geography
		city, state, stateName, county, distr *string
		lat, lon                              *float64
		updated                               any
	)
	if err := row.Scan(&g.ID, &g.ZipCode, &city, &state, &stateName, &county, &distr, &lat, &lon, &updated); err != nil {
		return nil, err
	}
	g.City = model.Deref(city)
	g.State = model.Deref(state)
	g.StateName = model.Deref(stateName)
	g.County = model.Deref(county)
	g.CongressionalDistrict = model.Deref(distr)
	if lat != nil {
		g.Latitude = *lat
	}
	if lon != nil {
		g.Longitude = *lon
	}
	t, err := asTime(updated)
	if err != nil {
		return nil, err
	}
	g.UpdatedAt = t
	return &g, nil
}

func scanRepresentative(row scannable) (*model.Representative, error) {
	var (
		r                  model.Representative
		branch             string
		termStart, termEnd any
		updated            any
	)
	if err := row.Scan(
		&r.ID, &r.Name, &r.Title, &r.Party, &branch, &r.OfficeType, &r.Phone, &r.Email,
		&r.Website, &r.PhotoURL, &r.Address.Line1, &r.Address.Line2, &r.Address.City,
		&r.Address.State, &r.Address.Zip, &termStart, &termEnd, &r.IsActive, &updated,
	); err != nil {
		return nil, err
	}
	r.Branch = model.Branch(branch)

	var err error
	if r.TermStart, err = asTimePtr(termStart); err != nil {
		return nil, err
	}
	if r.TermEnd, err = asTimePtr(termEnd); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = asTime(updated); err != nil {
		return nil, err
	}
	return &r, nil
}

// sqliteTimeLayouts are the layouts modernc.org/sqlite and CURRENT_TIMESTAMP
// produce for DATETIME columns.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// asTime converts a scanned timestamp. Postgres yields time.Time; SQLite may
// yield time.Time or text depending on how the value was written.
func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		return parseSQLiteTime(t)
	case []byte:
		return parseSQLiteTime(string(t))
	default:
		return time.Time{}, eris.Errorf("store: unsupported time value %T", v)
	}
}

func asTimePtr(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	t, err := asTime(v)
	if err != nil || t.IsZero() {
		return nil, err
	}
	return &t, nil
}

func parseSQLiteTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("store: unparseable time %q", s)
}
