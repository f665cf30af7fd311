package source

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rep-ingest/internal/fetcher"
	"github.com/sells-group/rep-ingest/internal/model"
)

// senateMember is one <member> entry of the senate.gov contact feed.
type senateMember struct {
	FirstName string `xml:"first_name"`
	LastName  string `xml:"last_name"`
	Party     string `xml:"party"`
	State     string `xml:"state"`
	Address   string `xml:"address"`
	Phone     string `xml:"phone"`
	Email     string `xml:"email"`
	Website   string `xml:"website"`
}

var senateAddress = regexp.MustCompile(`^(.*?)\s+Washington,?\s+DC\s+(\d{5})`)

func (m senateMember) candidate() model.Candidate {
	state := strings.ToUpper(strings.TrimSpace(m.State))
	c := model.Candidate{
		Name:       CleanText(m.FirstName + " " + m.LastName),
		Title:      "U.S. Senator, " + state,
		Party:      partyName(m.Party),
		Branch:     string(model.BranchFederal),
		OfficeType: "Senator",
		Phone:      ExtractPhone(m.Phone),
		Email:      ExtractEmail(m.Email),
		Website:    strings.TrimSpace(m.Website),
		State:      state,
	}
	addr := CleanText(m.Address)
	if mm := senateAddress.FindStringSubmatch(addr); mm != nil {
		c.AddressLine1 = mm[1]
		c.AddressCity = "Washington"
		c.AddressState = "DC"
		c.AddressZip = mm[2]
	} else {
		c.AddressLine1 = addr
	}
	return c
}

func partyName(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "D":
		return "Democratic"
	case "R":
		return "Republican"
	case "I", "ID":
		return "Independent"
	default:
		return strings.TrimSpace(code)
	}
}

// senateDirectory loads the senate contact feed once per process and serves
// per-state lookups from it. A failed load is not cached.
type senateDirectory struct {
	fetcher fetcher.Fetcher
	url     string

	mu      sync.Mutex
	byState map[string][]model.Candidate
}

func newSenateDirectory(f fetcher.Fetcher, url string) *senateDirectory {
	return &senateDirectory{fetcher: f, url: url}
}

func (d *senateDirectory) forState(ctx context.Context, state string) ([]model.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.byState == nil {
		byState, err := d.load(ctx)
		if err != nil {
			return nil, err
		}
		d.byState = byState
	}

	src := d.byState[state]
	out := make([]model.Candidate, len(src))
	copy(out, src)
	return out, nil
}

func (d *senateDirectory) load(ctx context.Context) (map[string][]model.Candidate, error) {
	resp, err := d.fetcher.Fetch(ctx, fetcher.Get(d.url))
	if err != nil {
		return nil, err
	}
	members, err := fetcher.DecodeXML[senateMember](ctx, bytes.NewReader(resp.Body), "member")
	if err != nil {
		return nil, eris.Wrap(err, "source: parse senate feed")
	}
	if len(members) == 0 {
		return nil, eris.Errorf("source: senate feed at %s has no members", d.url)
	}

	byState := make(map[string][]model.Candidate)
	for _, m := range members {
		c := m.candidate()
		if c.State == "" || strings.TrimSpace(m.LastName) == "" {
			continue
		}
		byState[c.State] = append(byState[c.State], c)
	}
	return byState, nil
}
