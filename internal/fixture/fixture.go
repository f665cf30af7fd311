// Package fixture provides the static fixture source: ZIP->geography,
// ZIP->house representative, state->senators and state->governor tables used
// as deterministic fallback data by resolvers and source adapters.
package fixture

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rep-ingest/internal/model"
)

//go:embed fixtures.yaml
var embedded []byte

// Set is an immutable collection of fixture tables. Lookups return copies so
// callers may mutate results freely.
type Set struct {
	States    map[string]string            `yaml:"states"`
	Geography map[string]model.Geography   `yaml:"geography"`
	House     map[string]model.Candidate   `yaml:"house"`
	Senators  map[string][]model.Candidate `yaml:"senators"`
	Governors map[string]model.Candidate   `yaml:"governors"`
	Demo      []string                     `yaml:"demo"`
}

// Default returns the embedded fixture set. It panics only if the embedded
// file is malformed, which the package tests guard against.
func Default() *Set {
	s, err := Parse(embedded)
	if err != nil {
		panic(err)
	}
	return s
}

// Load reads fixtures from path, or the embedded tables when path is empty.
func Load(path string) (*Set, error) {
	if path == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML fixture document.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "fixture: parse yaml")
	}
	for zip, g := range s.Geography {
		g.ZipCode = zip
		if g.StateName == "" {
			g.StateName = s.States[g.State]
		}
		s.Geography[zip] = g
	}
	return &s, nil
}

// LookupGeography returns the fixture geography for zip.
func (s *Set) LookupGeography(zip string) (model.Geography, bool) {
	g, ok := s.Geography[zip]
	return g, ok
}

// LookupHouse returns the fixture house representative for zip.
func (s *Set) LookupHouse(zip string) (model.Candidate, bool) {
	c, ok := s.House[zip]
	return c, ok
}

// SenatorsFor returns the fixture senators for a two-letter state.
func (s *Set) SenatorsFor(state string) []model.Candidate {
	src := s.Senators[state]
	out := make([]model.Candidate, len(src))
	copy(out, src)
	return out
}

// GovernorFor returns the fixture governor for a two-letter state.
func (s *Set) GovernorFor(state string) (model.Candidate, bool) {
	c, ok := s.Governors[state]
	return c, ok
}

// StateName returns the full state name for a two-letter abbreviation.
func (s *Set) StateName(abbr string) string {
	return s.States[abbr]
}

// StateForZIP returns the state of a fixture geography, or "XX" when unknown.
func (s *Set) StateForZIP(zip string) string {
	if g, ok := s.Geography[zip]; ok && g.State != "" {
		return g.State
	}
	return "XX"
}

// DemoZIPs returns the demo ZIP codes in declaration order.
func (s *Set) DemoZIPs() []string {
	out := make([]string, len(s.Demo))
	copy(out, s.Demo)
	return out
}
