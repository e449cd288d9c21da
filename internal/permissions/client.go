// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

// Package permissions decides what slice of the item tree a user may see.
//
// Decisions come from the external authorization service and are translated
// into SQL conditions that narrow item listings per zone. Responses are
// cached briefly and the upstream is guarded with a circuit breaker.
package permissions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/datalodge/metacat/internal/config"
	"github.com/datalodge/metacat/internal/logging"
	"github.com/datalodge/metacat/internal/models"
)

// Resource names understood by the authorization service.
const (
	ResourceFileAny          = "file_any"
	ResourceFileInNamefolder = "file_in_own_namefolder"
)

// AuthClient answers permission questions about one user in one project.
type AuthClient interface {
	HasPermission(ctx context.Context, projectCode, resource, zone, operation, username string) (bool, error)
}

// authResponse is the authorization service's answer envelope.
type authResponse struct {
	Result struct {
		HasPermission bool `json:"has_permission"`
	} `json:"result"`
}

type cacheEntry struct {
	allowed   bool
	expiresAt time.Time
}

// HTTPAuthClient asks the authorization service over HTTP, with a short
// per-decision cache and a circuit breaker around the upstream.
type HTTPAuthClient struct {
	baseURL  string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[bool]
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry

	now func() time.Time
}

// NewHTTPAuthClient builds a client from the auth configuration.
func NewHTTPAuthClient(cfg config.AuthConfig) *HTTPAuthClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "auth-service",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("auth service circuit breaker state change")
		},
	})

	return &HTTPAuthClient{
		baseURL:  strings.TrimSuffix(cfg.ServiceURL, "/") + "/",
		client:   &http.Client{Timeout: timeout},
		breaker:  breaker,
		cacheTTL: cfg.CacheTTL,
		cache:    make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// HasPermission reports whether the user holds the permission, consulting
// the cache first.
func (c *HTTPAuthClient) HasPermission(ctx context.Context, projectCode, resource, zone, operation, username string) (bool, error) {
	key := strings.Join([]string{projectCode, resource, zone, operation, username}, "|")

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return entry.allowed, nil
	}

	allowed, err := c.breaker.Execute(func() (bool, error) {
		return c.fetch(ctx, projectCode, resource, zone, operation, username)
	})
	if err != nil {
		return false, models.Internal("authorization service unavailable", err)
	}

	if c.cacheTTL > 0 {
		c.mu.Lock()
		c.cache[key] = cacheEntry{allowed: allowed, expiresAt: c.now().Add(c.cacheTTL)}
		c.mu.Unlock()
	}
	return allowed, nil
}

func (c *HTTPAuthClient) fetch(ctx context.Context, projectCode, resource, zone, operation, username string) (bool, error) {
	query := url.Values{}
	query.Set("project_code", projectCode)
	query.Set("resource", resource)
	query.Set("zone", zone)
	query.Set("operation", operation)
	query.Set("username", username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"authorize?"+query.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("build authorize request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("authorize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("authorize request: unexpected status %d", resp.StatusCode)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode authorize response: %w", err)
	}
	return body.Result.HasPermission, nil
}
