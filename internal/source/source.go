// Package source defines the Source Adapter capability and its
// implementations: the live House lookup (with fixture fallback and a senators
// stage), a pure fixture adapter, and a governor adapter.
package source

import (
	"context"

	"github.com/sells-group/rep-ingest/internal/model"
)

// Adapter produces raw representative candidates for a ZIP code.
type Adapter interface {
	// Name returns the adapter's registry name.
	Name() string

	// Fetch returns candidates for zip. geo is the already-resolved geography.
	// Exhausted retries and other recoverable conditions are reported as
	// Result.Warnings with a non-nil, possibly empty, candidate list. A
	// returned error means the adapter itself failed.
	Fetch(ctx context.Context, zip string, geo *model.Geography) (Result, error)
}

// Result is one adapter's output for one ZIP code.
type Result struct {
	Candidates []model.Candidate
	Warnings   []string
}

// emptyResult returns a Result with a non-nil candidate slice.
func emptyResult() Result {
	return Result{Candidates: []model.Candidate{}}
}

func (r *Result) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
