// Package frontend implements the gateway: an LRU-cached, load-balanced
// proxy in front of the catalog and order replica pools, plus the
// invalidation endpoint the backends call when catalog data changes.
package frontend

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"bazar/internal/cache"
	"bazar/internal/peers"
)

const proxyTimeout = 5 * time.Second

// Gateway holds the gateway's cache, backend pools and HTTP client.
type Gateway struct {
	cache    *cache.LRU
	catalogs *peers.Pool
	orders   *peers.Pool
	client   *http.Client
	group    singleflight.Group
	logger   *slog.Logger
}

// NewGateway wires the gateway.
func NewGateway(lru *cache.LRU, catalogs, orders *peers.Pool, logger *slog.Logger) *Gateway {
	return &Gateway{
		cache:    lru,
		catalogs: catalogs,
		orders:   orders,
		client:   &http.Client{Timeout: proxyTimeout},
		logger:   logger,
	}
}

// fetched is one backend response body plus its status.
type fetched struct {
	status int
	body   []byte
}

// cachedFetch serves key from the cache or fetches path from the catalog
// pool. Concurrent misses for the same key are coalesced into one backend
// call; only 200 responses are written back to the cache.
func (g *Gateway) cachedFetch(key, path string) (fetched, error) {
	if body, ok := g.cache.Get(key); ok {
		return fetched{status: http.StatusOK, body: body}, nil
	}

	v, err, _ := g.group.Do(key, func() (any, error) {
		backend, err := g.catalogs.Next()
		if err != nil {
			return nil, err
		}

		resp, err := g.client.Get(backend + path)
		if err != nil {
			return nil, fmt.Errorf("catalog fetch: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("catalog fetch: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			g.cache.Put(key, body)
		}
		return fetched{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		return fetched{}, err
	}
	return v.(fetched), nil
}

// proxy forwards one request to the next member of pool and relays the
// response verbatim.
func (g *Gateway) proxy(pool *peers.Pool, method, path string) (fetched, error) {
	backend, err := pool.Next()
	if err != nil {
		return fetched{}, err
	}

	req, err := http.NewRequest(method, backend+path, nil)
	if err != nil {
		return fetched{}, fmt.Errorf("proxy request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fetched{}, fmt.Errorf("proxy request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fetched{}, fmt.Errorf("proxy request: %w", err)
	}
	return fetched{status: resp.StatusCode, body: body}, nil
}
