// Package store is the persistence gateway: idempotent upserts of geography,
// representative and mapping records, each in its own transaction.
package store

import (
	"context"

	"github.com/sells-group/rep-ingest/internal/model"
)

// Store defines the persistence interface for the ingestion pipeline.
type Store interface {
	// UpsertGeography inserts or updates the geography keyed by ZIP code and
	// returns its stable id.
	UpsertGeography(ctx context.Context, geo model.Geography) (int64, error)

	// UpsertRepresentative inserts or updates the representative keyed by
	// (name, title) and returns its stable id. Concurrent callers with the
	// same key resolve to a single row through the unique constraint.
	UpsertRepresentative(ctx context.Context, rep model.Representative) (int64, error)

	// UpsertMapping inserts or updates the mapping keyed by
	// (representative_id, geography_id).
	UpsertMapping(ctx context.Context, m model.Mapping) error

	// GetGeography returns the stored geography for zip, or nil if absent.
	GetGeography(ctx context.Context, zip string) (*model.Geography, error)

	// ListRepresentativesByZIP returns the representatives mapped to zip.
	ListRepresentativesByZIP(ctx context.Context, zip string) ([]model.Representative, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
