package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rep-ingest/internal/db"
	"github.com/sells-group/rep-ingest/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	stmts   statements
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool, pool.Close), nil
}

func newPostgresStore(pool db.Pool, closeFn func()) *PostgresStore {
	return &PostgresStore{pool: pool, stmts: mustStatements(db.Dollar), closeFn: closeFn}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geography (
	id                     BIGSERIAL PRIMARY KEY,
	zip_code               TEXT NOT NULL,
	city                   TEXT,
	state                  TEXT,
	state_name             TEXT,
	county                 TEXT,
	congressional_district TEXT,
	latitude               DOUBLE PRECISION,
	longitude              DOUBLE PRECISION,
	location_ewkb          BYTEA,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT geography_zip_code_key UNIQUE (zip_code)
);

CREATE TABLE IF NOT EXISTS representatives (
	id            BIGSERIAL PRIMARY KEY,
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
	is_active     BOOLEAN NOT NULL DEFAULT true,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT representatives_name_title_key UNIQUE (name, title)
);

CREATE TABLE IF NOT EXISTS rep_geography_map (
	id                 BIGSERIAL PRIMARY KEY,
	representative_id  BIGINT NOT NULL REFERENCES representatives(id) ON DELETE CASCADE,
	geography_id       BIGINT NOT NULL REFERENCES geography(id) ON DELETE CASCADE,
	jurisdiction_level TEXT NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT rep_geography_map_rep_geo_key UNIQUE (representative_id, geography_id)
);

CREATE INDEX IF NOT EXISTS idx_rep_geography_map_geography ON rep_geography_map(geography_id);
CREATE INDEX IF NOT EXISTS idx_geography_state ON geography(state);
`

// Migrate creates the geography, representatives and mapping tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// UpsertGeography inserts or updates a geography row by ZIP code.
func (s *PostgresStore) UpsertGeography(ctx context.Context, geo model.Geography) (int64, error) {
	args, err := geographyArgs(geo)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert geography")
	}
	var id int64
	err = db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, s.stmts.geography, args...).Scan(&id)
	})
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert geography %s", geo.ZipCode)
	}
	return id, nil
}

// UpsertRepresentative inserts or updates a representative by (name, title).
func (s *PostgresStore) UpsertRepresentative(ctx context.Context, rep model.Representative) (int64, error) {
	var id int64
	err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, s.stmts.representative, representativeArgs(rep)...).Scan(&id)
	})
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert representative %q", rep.Name)
	}
	return id, nil
}

// UpsertMapping inserts or updates a representative-geography mapping.
func (s *PostgresStore) UpsertMapping(ctx context.Context, m model.Mapping) error {
	err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, s.stmts.mapping, mappingArgs(m)...)
		return err
	})
	return eris.Wrapf(err, "postgres: upsert mapping rep=%d geo=%d", m.RepresentativeID, m.GeographyID)
}

// GetGeography returns the stored geography for zip, or nil if absent.
func (s *PostgresStore) GetGeography(ctx context.Context, zip string) (*model.Geography, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+geographyColumns+` FROM geography WHERE zip_code = $1`, zip)
	g, err := scanGeography(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get geography %s", zip)
	}
	return g, nil
}

// ListRepresentativesByZIP returns the representatives mapped to zip.
func (s *PostgresStore) ListRepresentativesByZIP(ctx context.Context, zip string) ([]model.Representative, error) {
	query := `SELECT ` + representativeColumns + fmt.Sprintf(representativesByZIPFrom, "$1")
	rows, err := s.pool.Query(ctx, query, zip)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list representatives %s", zip)
	}
	defer rows.Close()

	reps := []model.Representative{}
	for rows.Next() {
		r, err := scanRepresentative(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan representative")
		}
		reps = append(reps, *r)
	}
	return reps, eris.Wrap(rows.Err(), "postgres: iterate representatives")
}

var _ Store = (*PostgresStore)(nil)
