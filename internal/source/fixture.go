package source

import (
	"context"

	"github.com/sells-group/rep-ingest/internal/fixture"
	"github.com/sells-group/rep-ingest/internal/model"
)

// FixtureName is the registry name of the fixture adapter.
const FixtureName = "fixture"

// FixtureAdapter serves the house member and senators for a ZIP code purely
// from the static fixture tables. It makes no network calls.
type FixtureAdapter struct {
	set *fixture.Set
}

var _ Adapter = (*FixtureAdapter)(nil)

// NewFixtureAdapter creates a fixture-backed adapter.
func NewFixtureAdapter(set *fixture.Set) *FixtureAdapter {
	return &FixtureAdapter{set: set}
}

// Name implements Adapter.
func (a *FixtureAdapter) Name() string { return FixtureName }

// Fetch implements Adapter.
func (a *FixtureAdapter) Fetch(_ context.Context, zip string, geo *model.Geography) (Result, error) {
	res := emptyResult()
	rep, ok := a.set.LookupHouse(zip)
	if !ok {
		return res, nil
	}
	res.Candidates = append(res.Candidates, rep)

	state := rep.State
	if state == "" && geo != nil {
		state = geo.State
	}
	res.Candidates = append(res.Candidates, a.set.SenatorsFor(state)...)
	return res, nil
}
