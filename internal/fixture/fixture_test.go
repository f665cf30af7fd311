package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Geography(t *testing.T) {
	s := Default()

	g, ok := s.LookupGeography("11354")
	require.True(t, ok)
	assert.Equal(t, "11354", g.ZipCode)
	assert.Equal(t, "Flushing", g.City)
	assert.Equal(t, "NY", g.State)
	assert.Equal(t, "New York", g.StateName)
	assert.Equal(t, "06", g.CongressionalDistrict)
	assert.InDelta(t, 40.7598, g.Latitude, 1e-9)

	_, ok = s.LookupGeography("00000")
	assert.False(t, ok)
}

func TestDefault_HouseAndSenators(t *testing.T) {
	s := Default()

	rep, ok := s.LookupHouse("90210")
	require.True(t, ok)
	assert.Equal(t, "Brad Sherman", rep.Name)
	assert.Equal(t, "CA", rep.State)
	assert.Equal(t, "30", rep.District)

	assert.Len(t, s.SenatorsFor("NY"), 2)
	assert.Len(t, s.SenatorsFor("CA"), 2)
	assert.Empty(t, s.SenatorsFor("DC"))
	assert.Empty(t, s.SenatorsFor("ZZ"))
}

func TestSenatorsFor_ReturnsCopy(t *testing.T) {
	s := Default()
	got := s.SenatorsFor("NY")
	got[0].Name = "mutated"
	assert.Equal(t, "Chuck Schumer", s.SenatorsFor("NY")[0].Name)
}

func TestGovernorFor(t *testing.T) {
	s := Default()
	gov, ok := s.GovernorFor("CA")
	require.True(t, ok)
	assert.Equal(t, "Gavin Newsom", gov.Name)
	assert.Equal(t, "state", gov.Branch)

	_, ok = s.GovernorFor("DC")
	assert.False(t, ok)
}

func TestStateForZIP(t *testing.T) {
	s := Default()
	assert.Equal(t, "DC", s.StateForZIP("20301"))
	assert.Equal(t, "XX", s.StateForZIP("12345"))
}

func TestDemoZIPs(t *testing.T) {
	assert.Equal(t, []string{"11354", "20301", "90210"}, Default().DemoZIPs())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	doc := `
states:
  TX: Texas
geography:
  "73301":
    city: Austin
    state: TX
    congressional_district: "10"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := Load(path)
	require.NoError(t, err)

	g, ok := s.LookupGeography("73301")
	require.True(t, ok)
	assert.Equal(t, "73301", g.ZipCode)
	assert.Equal(t, "Texas", g.StateName)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture: read")
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("geography: [unterminated"))
	require.Error(t, err)
}
