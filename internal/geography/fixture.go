package geography

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rep-ingest/internal/fixture"
	"github.com/sells-group/rep-ingest/internal/model"
)

// FixtureResolver resolves ZIP codes from the static fixture table.
type FixtureResolver struct {
	set *fixture.Set
}

// NewFixtureResolver creates a resolver over set.
func NewFixtureResolver(set *fixture.Set) *FixtureResolver {
	return &FixtureResolver{set: set}
}

// Resolve implements Resolver.
func (r *FixtureResolver) Resolve(_ context.Context, zip string) (*model.Geography, error) {
	if err := ValidateZIP(zip); err != nil {
		return nil, err
	}
	geo, ok := r.set.LookupGeography(zip)
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "geography: fixture %s", zip)
	}
	return &geo, nil
}
