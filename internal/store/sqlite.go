package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/rep-ingest/internal/db"
	"github.com/sells-group/rep-ingest/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db    *sql.DB
	stmts statements
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// busy_timeout and foreign_keys are connection-scoped, so they ride on the DSN
// and apply to every pooled connection.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", withConnPragmas(dsn))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn, stmts: mustStatements(db.Question)}, nil
}

func withConnPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geography (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	zip_code               TEXT NOT NULL UNIQUE,
	city                   TEXT,
	state                  TEXT,
	state_name             TEXT,
	county                 TEXT,
	congressional_district TEXT,
	latitude               REAL,
	longitude              REAL,
	location_ewkb          BLOB,
	created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS representatives (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL,
	title         TEXT NOT NULL,
	party         TEXT,
	branch        TEXT NOT NULL DEFAULT 'federal',
	office_type   TEXT,
	phone         TEXT,
	email         TEXT,
	website       TEXT,
	photo_url     TEXT,
	address_line1 TEXT,
	address_line2 TEXT,
	address_city  TEXT,
	address_state TEXT,
	address_zip   TEXT,
	term_start    DATE,
	term_end      DATE,
	is_active     BOOLEAN NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (name, title)
);

CREATE TABLE IF NOT EXISTS rep_geography_map (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	representative_id  INTEGER NOT NULL REFERENCES representatives(id) ON DELETE CASCADE,
	geography_id       INTEGER NOT NULL REFERENCES geography(id) ON DELETE CASCADE,
	jurisdiction_level TEXT NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (representative_id, geography_id)
);

CREATE INDEX IF NOT EXISTS idx_rep_geography_map_geography ON rep_geography_map(geography_id);
CREATE INDEX IF NOT EXISTS idx_geography_state ON geography(state);
`

// Migrate creates the geography, representatives and mapping tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Ping checks connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// inTx mirrors db.InTx for database/sql.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// UpsertGeography inserts or updates a geography row by ZIP code.
func (s *SQLiteStore) UpsertGeography(ctx context.Context, geo model.Geography) (int64, error) {
	args, err := geographyArgs(geo)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert geography")
	}
	var id int64
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, s.stmts.geography, args...).Scan(&id)
	})
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert geography %s", geo.ZipCode)
	}
	return id, nil
}

// UpsertRepresentative inserts or updates a representative by (name, title).
func (s *SQLiteStore) UpsertRepresentative(ctx context.Context, rep model.Representative) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, s.stmts.representative, representativeArgs(rep)...).Scan(&id)
	})
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: upsert representative %q", rep.Name)
	}
	return id, nil
}

// UpsertMapping inserts or updates a representative-geography mapping.
func (s *SQLiteStore) UpsertMapping(ctx context.Context, m model.Mapping) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.stmts.mapping, mappingArgs(m)...)
		return err
	})
	return eris.Wrapf(err, "sqlite: upsert mapping rep=%d geo=%d", m.RepresentativeID, m.GeographyID)
}

// GetGeography returns the stored geography for zip, or nil if absent.
func (s *SQLiteStore) GetGeography(ctx context.Context, zip string) (*model.Geography, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+geographyColumns+` FROM geography WHERE zip_code = ?`, zip)
	g, err := scanGeography(row)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get geography %s", zip)
	}
	return g, nil
}

// ListRepresentativesByZIP returns the representatives mapped to zip.
func (s *SQLiteStore) ListRepresentativesByZIP(ctx context.Context, zip string) ([]model.Representative, error) {
	query := `SELECT ` + representativeColumns + fmt.Sprintf(representativesByZIPFrom, "?")
	rows, err := s.db.QueryContext(ctx, query, zip)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list representatives %s", zip)
	}
	defer rows.Close() //nolint:errcheck

	reps := []model.Representative{}
	for rows.Next() {
		r, err := scanRepresentative(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan representative")
		}
		reps = append(reps, *r)
	}
	return reps, eris.Wrap(rows.Err(), "sqlite: iterate representatives")
}

var _ Store = (*SQLiteStore)(nil)
