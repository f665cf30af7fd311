// Package geography resolves ZIP codes to geography records.
package geography

import (
	"context"
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rep-ingest/internal/model"
)

// ErrNotFound is returned when no backend knows the ZIP code. It is distinct
// from transport failures, which are returned as-is.
var ErrNotFound = eris.New("geography: zip not found")

// ErrInvalidZIP is returned for input that is not exactly five digits.
var ErrInvalidZIP = eris.New("geography: invalid zip")

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// Resolver maps a ZIP code to a geography record.
type Resolver interface {
	// Resolve returns the geography for zip, ErrInvalidZIP for malformed
	// input, or ErrNotFound for an unknown ZIP code.
	Resolve(ctx context.Context, zip string) (*model.Geography, error)
}

// ValidateZIP reports ErrInvalidZIP unless zip is exactly five decimal digits.
func ValidateZIP(zip string) error {
	if !zipPattern.MatchString(zip) {
		return eris.Wrapf(ErrInvalidZIP, "geography: %q", zip)
	}
	return nil
}

// IsNotFound reports whether err is an unknown-ZIP outcome.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

// IsInvalidZIP reports whether err is a ZIP format failure.
func IsInvalidZIP(err error) bool {
	return eris.Is(err, ErrInvalidZIP)
}
