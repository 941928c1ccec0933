// Package spotify implements the Catalog port against the Spotify Web API
// using an application (client-credentials) token.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/vibelist/backend/internal/core/domain"
	"github.com/ewilliams-labs/vibelist/backend/internal/core/ports"
)

const (
	defaultBaseURL  = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token" // #nosec G101 -- public OAuth endpoint, not a credential
	defaultTimeout  = 10 * time.Second
)

// Config carries the adapter's connection settings.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
	MaxRetries   int
	BaseBackoff  time.Duration
}

// Client is an HTTP catalog adapter for the Spotify Web API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	maxRetries  int
	baseBackoff time.Duration
	log         zerolog.Logger
}

// compile-time interface assertion
var _ ports.Catalog = (*Client)(nil)

// NewClient constructs a Client that authenticates with the
// client-credentials flow; the oauth2 transport refreshes the app token
// transparently.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("spotify adapter: %w: missing client credentials", domain.ErrNotConnected)
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
	}
	httpClient := creds.Client(context.Background())
	httpClient.Timeout = timeout

	c := newClient(httpClient, cfg.BaseURL, log)
	c.maxRetries = cfg.MaxRetries
	c.baseBackoff = cfg.BaseBackoff
	return c, nil
}

// NewClientWithBaseURL constructs a Client against an arbitrary base URL
// with no authentication, for tests.
func NewClientWithBaseURL(httpClient *http.Client, baseURL string) *Client {
	return newClient(httpClient, baseURL, zerolog.Nop())
}

func newClient(httpClient *http.Client, baseURL string, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "spotify",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		breaker:    breaker,
		log:        log,
	}
}

// getJSON issues a GET with retry and circuit breaking, then decodes the
// body into out. Auth rejections map to domain.ErrNotConnected.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("spotify adapter: build request: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("spotify adapter: status %d: %w", resp.StatusCode, domain.ErrNotConnected)
	default:
		return fmt.Errorf("spotify adapter: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify adapter: decode response: %w", err)
	}
	return nil
}
