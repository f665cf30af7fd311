package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/sells-group/rep-ingest/internal/fetcher"
	"github.com/sells-group/rep-ingest/internal/fixture"
	"github.com/sells-group/rep-ingest/internal/model"
)

// HouseName is the registry name of the House adapter.
const HouseName = "house"

// HouseConfig configures the House adapter.
type HouseConfig struct {
	LookupURL   string
	SenatorsURL string
	// Live enables network calls. When false only fixtures are consulted.
	Live bool
}

// HouseAdapter finds the House member for a ZIP code through the ziplook
// service, falling back to the fixture table when the live response yields no
// match, then appends the senators for the member's state.
type HouseAdapter struct {
	cfg      HouseConfig
	fetcher  fetcher.Fetcher
	fixtures *fixture.Set
	senate   *senateDirectory
}

var _ Adapter = (*HouseAdapter)(nil)

// NewHouseAdapter creates a House adapter. f may be nil when cfg.Live is false.
func NewHouseAdapter(cfg HouseConfig, f fetcher.Fetcher, fixtures *fixture.Set) *HouseAdapter {
	return &HouseAdapter{
		cfg:      cfg,
		fetcher:  f,
		fixtures: fixtures,
		senate:   newSenateDirectory(f, cfg.SenatorsURL),
	}
}

// Name implements Adapter.
func (a *HouseAdapter) Name() string { return HouseName }

// Fetch implements Adapter.
func (a *HouseAdapter) Fetch(ctx context.Context, zip string, geo *model.Geography) (Result, error) {
	res := emptyResult()

	rep, ok := a.houseRep(ctx, zip, geo, &res)
	if !ok {
		return res, nil
	}
	res.Candidates = append(res.Candidates, rep)

	state := rep.State
	if state == "" && geo != nil {
		state = geo.State
	}
	if state == "" || state == "XX" {
		return res, nil
	}
	res.Candidates = append(res.Candidates, a.senators(ctx, state, &res)...)
	return res, nil
}

func (a *HouseAdapter) live() bool {
	return a.cfg.Live && a.fetcher != nil
}

func (a *HouseAdapter) houseRep(ctx context.Context, zip string, geo *model.Geography, res *Result) (model.Candidate, bool) {
	if a.live() && a.cfg.LookupURL != "" {
		resp, err := a.fetcher.Fetch(ctx, fetcher.PostForm(a.cfg.LookupURL, url.Values{
			"ZIP":    {zip},
			"Submit": {"FIND YOUR REP"},
		}))
		if err != nil {
			res.warn(fmt.Sprintf("house: lookup %s: %v", zip, err))
		} else if c, ok := parseHouseLookup(resp.Body, resp.URL, a.stateFor(zip, geo)); ok {
			return c, true
		} else {
			zap.L().Debug("house lookup had no structured match, using fixtures", zap.String("zip", zip))
		}
	}

	// Fixtures never override a parsed live result; they only fill the gap.
	return a.fixtures.LookupHouse(zip)
}

func (a *HouseAdapter) stateFor(zip string, geo *model.Geography) string {
	if geo != nil && geo.State != "" {
		return geo.State
	}
	return a.fixtures.StateForZIP(zip)
}

func (a *HouseAdapter) senators(ctx context.Context, state string, res *Result) []model.Candidate {
	if a.live() && a.cfg.SenatorsURL != "" {
		list, err := a.senate.forState(ctx, state)
		if err != nil {
			res.warn(fmt.Sprintf("house: senators %s: %v", state, err))
		} else if len(list) > 0 {
			return list
		}
	}
	return a.fixtures.SenatorsFor(state)
}

// parseHouseLookup is a best-effort extraction of the member from a ziplook
// response: the first non-empty link to a member page. The district comes
// from the link, then from the surrounding block, then defaults to "00".
func parseHouseLookup(body []byte, pageURL, state string) (model.Candidate, bool) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return model.Candidate{}, false
	}

	link := findMemberLink(doc)
	if link == nil {
		return model.Candidate{}, false
	}
	name := CleanText(nodeText(link))
	href := attr(link, "href")

	block := CleanText(nodeText(enclosingBlock(link)))
	district := ExtractDistrict(href)
	if district == "" {
		district = ExtractDistrict(block)
	}
	if district == "" {
		district = "00"
	}

	return model.Candidate{
		Name:         name,
		Title:        houseTitle(state, district),
		Branch:       string(model.BranchFederal),
		OfficeType:   "House Representative",
		Phone:        ExtractPhone(block),
		Email:        ExtractEmail(block),
		Website:      resolveHref(pageURL, href),
		AddressState: state,
		State:        state,
		District:     district,
	}, true
}

func houseTitle(state, district string) string {
	n, err := strconv.Atoi(district)
	if err != nil || n == 0 {
		return fmt.Sprintf("U.S. House Rep, %s-At Large", state)
	}
	return fmt.Sprintf("U.S. House Rep, %s-%d", state, n)
}

func findMemberLink(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "a" && isMemberHref(attr(n, "href")) && CleanText(nodeText(n)) != "" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findMemberLink(c); found != nil {
			return found
		}
	}
	return nil
}

func isMemberHref(href string) bool {
	if strings.Contains(href, "/representatives/") {
		return true
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return strings.HasSuffix(host, ".house.gov") && host != "www.house.gov" && host != "ziplook.house.gov"
}

// enclosingBlock returns the nearest ancestor that groups a member's details.
func enclosingBlock(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.Data {
		case "div", "td", "li", "section", "p", "body":
			return p
		}
	}
	return n
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func resolveHref(pageURL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	if strings.HasPrefix(href, "/representatives/") {
		return "https://www.house.gov" + href
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
