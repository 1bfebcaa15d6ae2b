package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bazar/internal/api"
	"bazar/internal/model"
	"bazar/internal/peers"
	"bazar/internal/store"
)

// Handler holds the order service's HTTP dependencies.
type Handler struct {
	orders       *store.Orders
	orchestrator *Orchestrator
	applier      *Applier
	logger       *slog.Logger
}

// NewHandler creates the order HTTP handler set.
func NewHandler(orders *store.Orders, orchestrator *Orchestrator, applier *Applier, logger *slog.Logger) *Handler {
	return &Handler{orders: orders, orchestrator: orchestrator, applier: applier, logger: logger}
}

// Routes registers the order endpoints and wraps them in the shared
// middleware chain.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/purchase/{item_id}", h.Purchase).Methods(http.MethodPut)
	r.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	r.HandleFunc("/replica_purchase", h.ReplicaPurchase).Methods(http.MethodPost)
	r.HandleFunc("/healthz", api.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return api.Chain(r,
		api.WithRecovery(h.logger),
		api.WithRequestID,
		api.WithLogging(h.logger),
	)
}

// Purchase handles PUT /purchase/{item_id}.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["item_id"])
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	order, err := h.orchestrator.Purchase(id)
	if err != nil {
		h.writePurchaseError(w, err)
		return
	}

	api.WriteMessage(w, http.StatusOK, fmt.Sprintf("Purchased item %d", order.ItemID))
}

func (h *Handler) writePurchaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidItem):
		api.WriteError(w, http.StatusBadRequest, "Invalid item ID")
	case errors.Is(err, peers.ErrNoBackends):
		api.WriteError(w, http.StatusServiceUnavailable, "No Catalog Service available")
	case errors.Is(err, ErrItemNotFound):
		api.WriteError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, ErrOutOfStock):
		api.WriteError(w, http.StatusBadRequest, "Item out of stock")
	case errors.Is(err, ErrUpdateFailed):
		api.WriteError(w, http.StatusInternalServerError, "Failed to update stock")
	case errors.Is(err, ErrRecordFailed):
		api.WriteError(w, http.StatusInternalServerError, "Failed to record order")
	default:
		api.WriteError(w, http.StatusInternalServerError, "An error occurred while processing your purchase.")
	}
}

// ListOrders handles GET /orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	rows := h.orders.Scan()
	if rows == nil {
		rows = []model.Order{}
	}
	api.WriteJSON(w, http.StatusOK, rows)
}

// ReplicaPurchase handles POST /replica_purchase: purchases propagated by a
// sibling replica, applied without further propagation.
func (h *Handler) ReplicaPurchase(w http.ResponseWriter, r *http.Request) {
	var m model.OrderMutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if m.ItemID == 0 || m.Quantity == 0 || m.Timestamp == "" {
		api.WriteError(w, http.StatusBadRequest, "Incomplete data provided.")
		return
	}

	if err := h.applier.Apply(m); err != nil {
		api.WriteError(w, http.StatusInternalServerError, "An error occurred while recording the purchase.")
		return
	}

	api.WriteMessage(w, http.StatusOK, "Replica purchase recorded")
}
