// =============================
// File: internal/discover/discover.go
// =============================

// Package discover consumes the paginated listing of newly created Pump.fun
// markets and applies the launch filter ahead of a buy.
package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Launch is one newly created market with its liquidity/volume/age metadata.
type Launch struct {
	Mint         string
	LiquiditySOL float64
	VolumeSOL    float64
	CreatedAt    time.Time
}

// Filter narrows recent launches before they are considered for a buy.
// Zero values disable the corresponding criterion.
type Filter struct {
	MinLiquiditySOL float64
	MinVolumeSOL    float64
	MaxAge          time.Duration
	Blocklist       []string
}

// Client fetches recent launches from the discovery feed.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

// NewClient creates a discovery client for the given feed base URL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.Named("discover"),
		now:     time.Now,
	}
}

type launchFeedResponse struct {
	Projects []struct {
		MintAddress  string  `json:"mintAddress"`
		LiquiditySol float64 `json:"liquiditySol"`
		Volume24h    float64 `json:"volume24h"`
		CreatedTime  int64   `json:"createdTime"` // unix seconds
	} `json:"projects"`
}

// RecentLaunches fetches the latest page of launches, retrying transient
// HTTP failures, and applies the filter.
func (c *Client) RecentLaunches(ctx context.Context, f Filter) ([]Launch, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second

	notify := func(err error, d time.Duration) {
		c.logger.Warn("Launch feed fetch failed, retrying",
			zap.Error(err), zap.Duration("backoff", d))
	}

	operation := func() (*launchFeedResponse, error) {
		return c.fetchPage(ctx)
	}

	feed, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(3),
		backoff.WithNotify(notify))
	if err != nil {
		return nil, fmt.Errorf("launch feed unavailable: %w", err)
	}

	blocked := make(map[string]bool, len(f.Blocklist))
	for _, mint := range f.Blocklist {
		blocked[mint] = true
	}

	now := c.now()
	var launches []Launch
	for _, p := range feed.Projects {
		launch := Launch{
			Mint:         p.MintAddress,
			LiquiditySOL: p.LiquiditySol,
			VolumeSOL:    p.Volume24h,
			CreatedAt:    time.Unix(p.CreatedTime, 0),
		}
		if !f.match(launch, blocked, now) {
			continue
		}
		launches = append(launches, launch)
	}
	return launches, nil
}

func (f Filter) match(l Launch, blocked map[string]bool, now time.Time) bool {
	if blocked[l.Mint] {
		return false
	}
	if f.MinLiquiditySOL > 0 && l.LiquiditySOL < f.MinLiquiditySOL {
		return false
	}
	if f.MinVolumeSOL > 0 && l.VolumeSOL < f.MinVolumeSOL {
		return false
	}
	if f.MaxAge > 0 && now.Sub(l.CreatedAt) > f.MaxAge {
		return false
	}
	return true
}

func (c *Client) fetchPage(ctx context.Context) (*launchFeedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/projects?limit=50", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("launch feed returned status %d", resp.StatusCode)
	}

	var feed launchFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode launch feed: %w", err)
	}
	return &feed, nil
}
