package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rep-ingest/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateTwice(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_Ping(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}

func TestSQLite_UpsertGeography_SingleRow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for range 3 {
		_, err := st.UpsertGeography(ctx, testGeography())
		require.NoError(t, err)
	}

	var n int
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM geography`).Scan(&n))
	assert.Equal(t, 1, n)

	var loc []byte
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT location_ewkb FROM geography`).Scan(&loc))
	assert.NotEmpty(t, loc)
}

func TestSQLite_UpsertRepresentative_UpdatesMutableFields(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rep := testRep("Grace Meng", "U.S. House Rep, NY-6")
	_, err := st.UpsertRepresentative(ctx, rep)
	require.NoError(t, err)

	rep.Email = strPtr("grace@example.com")
	_, err = st.UpsertRepresentative(ctx, rep)
	require.NoError(t, err)

	var n int
	var email *string
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM representatives`).Scan(&n))
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT email FROM representatives`).Scan(&email))
	assert.Equal(t, 1, n)
	assert.Equal(t, "grace@example.com", model.Deref(email))
}

func TestSQLite_UpsertMapping_ForeignKey(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.UpsertMapping(context.Background(), model.Mapping{
		RepresentativeID: 42, GeographyID: 7, JurisdictionLevel: "federal",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: upsert mapping")
}

func TestSQLite_UpsertMapping_SingleRow(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	geoID, err := st.UpsertGeography(ctx, testGeography())
	require.NoError(t, err)
	repID, err := st.UpsertRepresentative(ctx, testRep("Chuck Schumer", "U.S. Senator, NY"))
	require.NoError(t, err)

	m := model.Mapping{RepresentativeID: repID, GeographyID: geoID, JurisdictionLevel: "federal"}
	require.NoError(t, st.UpsertMapping(ctx, m))
	m.JurisdictionLevel = "state"
	require.NoError(t, st.UpsertMapping(ctx, m))

	var n int
	var level string
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT COUNT(*), MAX(jurisdiction_level) FROM rep_geography_map`).Scan(&n, &level))
	assert.Equal(t, 1, n)
	assert.Equal(t, "state", level)
}

func TestSQLite_ClosedStore(t *testing.T) {
	st, err := NewSQLite(filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = st.UpsertGeography(context.Background(), testGeography())
	assert.Error(t, err)
}

func TestWithConnPragmas(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", withConnPragmas("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", withConnPragmas("file:a.db?mode=rwc"))
}

func TestAsTime(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	got, err := asTime("2024-05-01 12:30:00")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = asTime(want)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = asTime(nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = asTime("not a time")
	assert.Error(t, err)

	_, err = asTime(42)
	assert.Error(t, err)

	ptr, err := asTimePtr(nil)
	require.NoError(t, err)
	assert.Nil(t, ptr)
}
