// Package config provides runtime configuration for the bookstore services.
// Everything comes from environment variables with working local defaults,
// so a replica set can be assembled from plain process environments.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Catalog holds the catalog service configuration.
type Catalog struct {
	HTTPAddr        string
	Database        string
	SelfURL         string
	ReplicaURLs     []string
	InvalidateURL   string
	Primary         bool
	RestockInterval time.Duration
	RestockAmount   int
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Order holds the order service configuration.
type Order struct {
	HTTPAddr        string
	Database        string
	SelfURL         string
	ReplicaURLs     []string
	CatalogURLs     []string
	InvalidateURL   string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Frontend holds the gateway configuration.
type Frontend struct {
	HTTPAddr        string
	CatalogURLs     []string
	OrderURLs       []string
	CacheCapacity   int
	LogLevel        string
	ShutdownTimeout time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

// listenv splits a comma-separated URL list, trimming whitespace and dropping
// blank entries.
func listenv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadCatalog collects catalog service configuration from the environment.
func LoadCatalog() Catalog {
	return Catalog{
		HTTPAddr:        getenv("HTTP_ADDR", ":5001"),
		Database:        getenv("DATABASE", "data/catalog"),
		SelfURL:         getenv("CURRENT_REPLICA_URL", "http://localhost:5001"),
		ReplicaURLs:     listenv("REPLICA_URLS"),
		InvalidateURL:   getenv("FRONTEND_CACHE_INVALIDATE_URL", "http://localhost:5000/invalidate"),
		Primary:         boolenv("PRIMARY", false),
		RestockInterval: durenvs("RESTOCK_INTERVAL", 60),
		RestockAmount:   atoienv("RESTOCK_AMOUNT", 5),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 10),
	}
}

// LoadOrder collects order service configuration from the environment.
func LoadOrder() Order {
	return Order{
		HTTPAddr:        getenv("HTTP_ADDR", ":5002"),
		Database:        getenv("DATABASE", "data/orders"),
		SelfURL:         getenv("CURRENT_REPLICA_URL", "http://localhost:5002"),
		ReplicaURLs:     listenv("REPLICA_URLS"),
		CatalogURLs:     listenv("CATALOG_SERVICE_URLS"),
		InvalidateURL:   getenv("FRONTEND_CACHE_INVALIDATE_URL", "http://localhost:5000/invalidate"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 10),
	}
}

// LoadFrontend collects gateway configuration from the environment.
func LoadFrontend() Frontend {
	return Frontend{
		HTTPAddr:        getenv("HTTP_ADDR", ":5000"),
		CatalogURLs:     listenv("CATALOG_SERVICE_URLS"),
		OrderURLs:       listenv("ORDER_SERVICE_URLS"),
		CacheCapacity:   atoienv("CACHE_CAPACITY", 100),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 10),
	}
}
