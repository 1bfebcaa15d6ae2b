package frontend

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bazar/internal/api"
	"bazar/internal/cache"
	"bazar/internal/peers"
)

// Routes registers the gateway endpoints and wraps them in the shared
// middleware chain.
func (g *Gateway) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/search/{topic}", g.Search).Methods(http.MethodGet)
	r.HandleFunc("/info/{item_id:[0-9]+}", g.Info).Methods(http.MethodGet)
	r.HandleFunc("/purchase/{item_id}", g.Purchase).Methods(http.MethodPut)
	r.HandleFunc("/orders", g.Orders).Methods(http.MethodGet)
	r.HandleFunc("/invalidate/{item_id:[0-9]+}", g.Invalidate).Methods(http.MethodPost)
	r.HandleFunc("/healthz", api.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return api.Chain(r,
		api.WithRecovery(g.logger),
		api.WithRequestID,
		api.WithLogging(g.logger),
	)
}

// Search handles GET /search/{topic} with caching.
func (g *Gateway) Search(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	res, err := g.cachedFetch(cache.SearchKey(topic), "/search/"+topic)
	if err != nil {
		g.writeProxyError(w, err, "No Catalog Service available")
		return
	}
	writeRaw(w, res)
}

// Info handles GET /info/{item_id} with caching.
func (g *Gateway) Info(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["item_id"])

	res, err := g.cachedFetch(cache.InfoKey(id), fmt.Sprintf("/info/%d", id))
	if err != nil {
		g.writeProxyError(w, err, "No Catalog Service available")
		return
	}
	writeRaw(w, res)
}

// Purchase handles PUT /purchase/{item_id}: an uncached pass-through to the
// order pool.
func (g *Gateway) Purchase(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["item_id"]

	res, err := g.proxy(g.orders, http.MethodPut, "/purchase/"+itemID)
	if err != nil {
		g.writeProxyError(w, err, "No Order Service available")
		return
	}
	writeRaw(w, res)
}

// Orders handles GET /orders: an uncached pass-through to the order pool.
func (g *Gateway) Orders(w http.ResponseWriter, r *http.Request) {
	res, err := g.proxy(g.orders, http.MethodGet, "/orders")
	if err != nil {
		g.writeProxyError(w, err, "No Order Service available")
		return
	}
	writeRaw(w, res)
}

// Invalidate handles POST /invalidate/{item_id}, called by backends when an
// item changes. It evicts the item's info entry and every search entry.
func (g *Gateway) Invalidate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["item_id"])

	g.cache.Invalidate(id)
	g.logger.Info("cache entries invalidated", "item_id", id)
	api.WriteMessage(w, http.StatusOK, "Cache invalidated")
}

func (g *Gateway) writeProxyError(w http.ResponseWriter, err error, unavailableMsg string) {
	if errors.Is(err, peers.ErrNoBackends) {
		api.WriteError(w, http.StatusServiceUnavailable, unavailableMsg)
		return
	}
	g.logger.Error("backend call failed", "error", err)
	api.WriteError(w, http.StatusInternalServerError, "An error occurred while processing your request.")
}

func writeRaw(w http.ResponseWriter, res fetched) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.status)
	_, _ = w.Write(res.body)
}
