package geography

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/rep-ingest/internal/model"
	"github.com/sells-group/rep-ingest/internal/resilience"
)

const defaultZippopotamURL = "https://api.zippopotam.us/us"

// zippopotamResponse is the JSON body returned for a US postal code.
type zippopotamResponse struct {
	PostCode string            `json:"post code"`
	Places   []zippopotamPlace `json:"places"`
}

type zippopotamPlace struct {
	PlaceName string `json:"place name"`
	State     string `json:"state"`
	StateAbbr string `json:"state abbreviation"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Option configures a ZippopotamResolver.
type Option func(*ZippopotamResolver)

// WithBaseURL overrides the Zippopotam endpoint.
func WithBaseURL(u string) Option {
	return func(z *ZippopotamResolver) {
		z.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(z *ZippopotamResolver) {
		z.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(z *ZippopotamResolver) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		z.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(z *ZippopotamResolver) {
		z.retry = cfg
	}
}

// ZippopotamResolver resolves ZIP codes against the public Zippopotam API.
// County and congressional district are not part of that dataset and are
// left empty.
type ZippopotamResolver struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewZippopotamResolver creates a live resolver.
func NewZippopotamResolver(opts ...Option) *ZippopotamResolver {
	z := &ZippopotamResolver{
		baseURL:    defaultZippopotamURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(5, 5),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(z)
	}
	if z.retry.OnRetry == nil {
		z.retry.OnRetry = resilience.RetryLogger("zippopotam", "resolve")
	}
	return z
}

// Resolve implements Resolver.
func (z *ZippopotamResolver) Resolve(ctx context.Context, zip string) (*model.Geography, error) {
	if err := ValidateZIP(zip); err != nil {
		return nil, err
	}

	geo, err := resilience.DoVal(ctx, z.retry, func(ctx context.Context) (*model.Geography, error) {
		return z.fetch(ctx, zip)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Debug("geography resolved", zap.String("zip", zip), zap.String("source", "zippopotam"))
	return geo, nil
}

func (z *ZippopotamResolver) fetch(ctx context.Context, zip string) (*model.Geography, error) {
	if err := z.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geography: zippopotam rate limit")
	}

	reqURL := z.baseURL + "/" + zip
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geography: zippopotam build request")
	}

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "geography: zippopotam request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, eris.Wrapf(ErrNotFound, "geography: zippopotam %s", zip)
	}
	if err := resilience.CheckStatus(resp.StatusCode, reqURL); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "geography: zippopotam read body"), 0)
	}

	var zr zippopotamResponse
	if err := json.Unmarshal(body, &zr); err != nil {
		return nil, eris.Wrap(err, "geography: zippopotam parse response")
	}
	if len(zr.Places) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "geography: zippopotam %s has no places", zip)
	}

	p := zr.Places[0]
	lat, _ := strconv.ParseFloat(strings.TrimSpace(p.Latitude), 64)
	lon, _ := strconv.ParseFloat(strings.TrimSpace(p.Longitude), 64)

	return &model.Geography{
		ZipCode:   zip,
		City:      strings.TrimSpace(p.PlaceName),
		State:     strings.ToUpper(strings.TrimSpace(p.StateAbbr)),
		StateName: strings.TrimSpace(p.State),
		Latitude:  lat,
		Longitude: lon,
	}, nil
}
