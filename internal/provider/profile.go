package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Profile carries the company classification used for weight resolution.
// Empty Sector/Industry are valid and degrade to default weights downstream.
type Profile struct {
	Ticker   string `json:"symbol"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// ProfileProvider resolves a ticker to its sector/industry classification.
// Constructed once at process start and passed by dependency injection; there
// is no package-level client.
type ProfileProvider interface {
	GetProfile(ctx context.Context, ticker string) (*Profile, error)
}

// HTTPConfig tunes the HTTP profile client.
type HTTPConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	RPS            float64
	Burst          int
	BreakerName    string
	OpenAfter      uint32 // consecutive failures before the breaker opens
	CooldownPeriod time.Duration
}

// DefaultHTTPConfig returns conservative client settings for a free-tier
// profile API.
func DefaultHTTPConfig(baseURL, apiKey string) HTTPConfig {
	return HTTPConfig{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		RequestTimeout: 10 * time.Second,
		RPS:            2,
		Burst:          2,
		BreakerName:    "profile-api",
		OpenAfter:      5,
		CooldownPeriod: 30 * time.Second,
	}
}

// HTTPProvider fetches profiles from a JSON endpoint, rate-limited and
// wrapped in a circuit breaker so a failing upstream cannot stall a batch.
type HTTPProvider struct {
	config  HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPProvider creates a profile client from the given config.
func NewHTTPProvider(config HTTPConfig) *HTTPProvider {
	settings := gobreaker.Settings{
		Name:    config.BreakerName,
		Timeout: config.CooldownPeriod,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.OpenAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Profile API breaker state change")
		},
	}

	return &HTTPProvider{
		config:  config,
		client:  &http.Client{Timeout: config.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(config.RPS), config.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// GetProfile fetches {sector, industry} for the ticker. Waits for rate-limit
// headroom first; an open breaker fails fast without hitting the wire.
func (p *HTTPProvider) GetProfile(ctx context.Context, ticker string) (*Profile, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Profile), nil
}

func (p *HTTPProvider) fetch(ctx context.Context, ticker string) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/profile/%s", p.config.BaseURL, url.PathEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile request: %w", err)
	}
	if p.config.APIKey != "" {
		q := req.URL.Query()
		q.Set("apikey", p.config.APIKey)
		req.URL.RawQuery = q.Encode()
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile API returned status %d for %s", resp.StatusCode, ticker)
	}

	// The profile endpoint answers with a single-element array.
	var payload []Profile
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("no profile data for %s", ticker)
	}

	profile := payload[0]
	profile.Ticker = ticker
	return &profile, nil
}

// Static serves profiles from a fixed map. Used for offline runs and tests.
type Static struct {
	Profiles map[string]Profile
}

// GetProfile returns the mapped profile, or an empty classification when the
// ticker is unknown (callers fall back to default weights).
func (s *Static) GetProfile(_ context.Context, ticker string) (*Profile, error) {
	if p, ok := s.Profiles[ticker]; ok {
		p.Ticker = ticker
		return &p, nil
	}
	return &Profile{Ticker: ticker}, nil
}
