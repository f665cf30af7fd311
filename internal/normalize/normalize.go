// Package normalize turns raw adapter candidates into canonical,
// deduplicated representative records.
package normalize

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/rep-ingest/internal/model"
)

// Process discards candidates without a name or title, keeps the first
// candidate per dedup key (later duplicates are dropped, not merged) and
// normalizes every surviving field. Output order follows first occurrence.
func Process(candidates []model.Candidate) []model.Representative {
	out := make([]model.Representative, 0, len(candidates))
	seen := make(map[model.RepKey]struct{}, len(candidates))
	var incomplete, duplicates int

	for _, c := range candidates {
		rep := Representative(c)
		if rep.Name == "" || rep.Title == "" {
			incomplete++
			continue
		}
		key := rep.Key()
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rep)
	}

	if incomplete > 0 || duplicates > 0 {
		zap.L().Debug("normalize: dropped candidates",
			zap.Int("incomplete", incomplete),
			zap.Int("duplicates", duplicates),
			zap.Int("kept", len(out)),
		)
	}
	return out
}

// Representative normalizes a single candidate without deduplication.
func Representative(c model.Candidate) model.Representative {
	branch := strings.ToLower(clean(c.Branch))
	if branch == "" {
		branch = string(model.BranchFederal)
	}
	active := true
	if c.IsActive != nil {
		active = *c.IsActive
	}

	return model.Representative{
		Name:       clean(c.Name),
		Title:      clean(c.Title),
		Party:      optional(c.Party),
		Branch:     model.Branch(branch),
		OfficeType: optional(c.OfficeType),
		Phone:      optional(c.Phone),
		Email:      optional(c.Email),
		Website:    optional(c.Website),
		PhotoURL:   optional(c.PhotoURL),
		Address: model.Address{
			Line1: optional(c.AddressLine1),
			Line2: optional(c.AddressLine2),
			City:  optional(c.AddressCity),
			State: optional(c.AddressState),
			Zip:   optional(c.AddressZip),
		},
		TermStart: c.TermStart,
		TermEnd:   c.TermEnd,
		IsActive:  active,
	}
}

// clean trims s and puts it in Unicode NFC so visually identical names
// compare equal.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// optional returns nil for blank values.
func optional(s string) *string {
	s = clean(s)
	if s == "" {
		return nil
	}
	return &s
}
