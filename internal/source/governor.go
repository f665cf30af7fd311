package source

import (
	"context"

	"github.com/sells-group/rep-ingest/internal/fixture"
	"github.com/sells-group/rep-ingest/internal/model"
)

// GovernorName is the registry name of the governor adapter.
const GovernorName = "governor"

// GovernorAdapter returns the governor of the geography's state.
type GovernorAdapter struct {
	set *fixture.Set
}

var _ Adapter = (*GovernorAdapter)(nil)

// NewGovernorAdapter creates a governor adapter over the fixture tables.
func NewGovernorAdapter(set *fixture.Set) *GovernorAdapter {
	return &GovernorAdapter{set: set}
}

// Name implements Adapter.
func (a *GovernorAdapter) Name() string { return GovernorName }

// Fetch implements Adapter.
func (a *GovernorAdapter) Fetch(_ context.Context, zip string, geo *model.Geography) (Result, error) {
	res := emptyResult()
	state := a.set.StateForZIP(zip)
	if geo != nil && geo.State != "" {
		state = geo.State
	}
	if gov, ok := a.set.GovernorFor(state); ok {
		res.Candidates = append(res.Candidates, gov)
	}
	return res, nil
}
