package adsb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gojson "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tmarini/skywatch/internal/config"
	"github.com/tmarini/skywatch/pkg/logger"
)

// Client fetches raw telemetry snapshots from the ADS-B source. One cycle
// merges every configured tile plus the dedicated military feed; a failed
// tile is logged and skipped so a single bad request never aborts a cycle.
type Client struct {
	httpClient      *http.Client
	tileURLTemplate string
	militaryURL     string
	tiles           []config.Tile
	retries         int
	backoff         time.Duration
	fetchMilitary   bool
	limiter         *rate.Limiter
	logger          *logger.Logger
}

// NewClient creates a new telemetry client
func NewClient(cfg config.ADSBConfig, log *logger.Logger) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1.0
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout(),
		},
		tileURLTemplate: cfg.TileURLTemplate,
		militaryURL:     cfg.MilitaryURL,
		tiles:           cfg.Tiles,
		retries:         cfg.HTTPRetries,
		backoff:         time.Duration(cfg.HTTPBackoffSecs * float64(time.Second)),
		fetchMilitary:   cfg.FetchMilitaryFeed,
		limiter:         rate.NewLimiter(rate.Limit(rps), 1),
		logger:          log.Named("adsb-client"),
	}
}

// FetchCycle fetches one complete raw snapshot set: all tiles merged with
// the military feed. Only fails when every request failed and nothing at
// all was retrieved.
func (c *Client) FetchCycle(ctx context.Context) ([]RawAircraft, error) {
	var merged []RawAircraft
	failures := 0

	for _, tile := range c.tiles {
		records, err := c.fetchTile(ctx, tile)
		if err != nil {
			failures++
			c.logger.Warn("Tile fetch failed",
				logger.Float64("lat", tile.Lat),
				logger.Float64("lon", tile.Lon),
				logger.Error(err),
			)
			continue
		}
		merged = append(merged, records...)
	}

	if c.fetchMilitary {
		military, err := c.fetchMilitaryFeed(ctx)
		if err != nil {
			c.logger.Warn("Military feed fetch failed", logger.Error(err))
		} else {
			merged = append(merged, military...)
		}
	}

	if merged == nil && failures == len(c.tiles) && len(c.tiles) > 0 {
		return nil, fmt.Errorf("all %d tile fetches failed", failures)
	}

	c.logger.Debug("Fetched telemetry snapshot",
		logger.Int("aircraft_count", len(merged)),
		logger.Int("tile_failures", failures),
	)

	return merged, nil
}

// fetchTile fetches one circular tile with retries and linear backoff
func (c *Client) fetchTile(ctx context.Context, tile config.Tile) ([]RawAircraft, error) {
	url := fmt.Sprintf(c.tileURLTemplate, tile.Lat, tile.Lon, tile.RangeNM)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var data RawAircraftData
	if err := gojson.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to parse tile response: %w", err)
	}

	return data.Aircraft, nil
}

// fetchMilitaryFeed fetches the dedicated military endpoint. Responses come
// in three shapes in the wild: {"ac": [...]}, {"aircraft": [...]}, or a bare
// array. Every record is force-flagged military regardless of its own fields.
func (c *Client) fetchMilitaryFeed(ctx context.Context) ([]RawAircraft, error) {
	body, err := c.get(ctx, c.militaryURL)
	if err != nil {
		return nil, err
	}

	var payload struct {
		AC       []RawAircraft `json:"ac"`
		Aircraft []RawAircraft `json:"aircraft"`
	}

	records := []RawAircraft{}
	if err := gojson.Unmarshal(body, &payload); err == nil {
		if len(payload.AC) > 0 {
			records = payload.AC
		} else {
			records = payload.Aircraft
		}
	} else {
		var list []RawAircraft
		if err2 := gojson.Unmarshal(body, &list); err2 != nil {
			return nil, fmt.Errorf("failed to parse military response: %w", err)
		}
		records = list
	}

	for i := range records {
		records[i].ForcedMilitary = true
	}

	return records, nil
}

// get performs one rate-limited GET with retries
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			// Linear backoff between attempts
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.doRequest(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.retries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}
