package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bazar/internal/api"
	"bazar/internal/model"
	"bazar/internal/store"
)

// Handler holds the catalog service's HTTP dependencies.
type Handler struct {
	books   *store.Books
	svc     *Service
	applier *Applier
	logger  *slog.Logger
}

// NewHandler creates the catalog HTTP handler set.
func NewHandler(books *store.Books, svc *Service, applier *Applier, logger *slog.Logger) *Handler {
	return &Handler{books: books, svc: svc, applier: applier, logger: logger}
}

// Routes registers the catalog endpoints and wraps them in the shared
// middleware chain.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/search/{topic}", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/info/{item_id:[0-9]+}", h.Info).Methods(http.MethodGet)
	r.HandleFunc("/update/{item_id:[0-9]+}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/replica_update", h.ReplicaUpdate).Methods(http.MethodPost)
	r.HandleFunc("/healthz", api.Healthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return api.Chain(r,
		api.WithRecovery(h.logger),
		api.WithRequestID,
		api.WithLogging(h.logger),
	)
}

type searchResult struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Search handles GET /search/{topic}.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	books := h.books.Search(topic)
	results := make([]searchResult, 0, len(books))
	for _, b := range books {
		results = append(results, searchResult{ID: b.ID, Title: b.Title})
	}

	api.WriteJSON(w, http.StatusOK, results)
}

type infoResponse struct {
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Info handles GET /info/{item_id}.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["item_id"])

	book, err := h.books.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "An error occurred while processing your request.")
		return
	}

	api.WriteJSON(w, http.StatusOK, infoResponse{
		Title:    book.Title,
		Quantity: book.Quantity,
		Price:    book.Price,
	})
}

type updateRequest struct {
	Quantity *int     `json:"quantity"`
	Price    *float64 `json:"price"`
}

// Update handles PUT /update/{item_id}: the originate path for a field
// update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["item_id"])

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeUpdateDecodeError(w, err)
		return
	}
	if req.Quantity == nil && req.Price == nil {
		api.WriteError(w, http.StatusBadRequest, "No data provided.")
		return
	}

	err := h.svc.UpdateItem(id, req.Quantity, req.Price)
	if errors.Is(err, store.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "An error occurred while updating the item.")
		return
	}

	api.WriteMessage(w, http.StatusOK, "Item updated")
}

// ReplicaUpdate handles POST /replica_update: mutations propagated by a
// sibling replica. It goes through the Applier, which cannot re-propagate.
func (h *Handler) ReplicaUpdate(w http.ResponseWriter, r *http.Request) {
	var m model.CatalogMutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if !m.Restock && m.ItemID == 0 {
		api.WriteError(w, http.StatusBadRequest, "No item_id provided.")
		return
	}

	if err := h.applier.Apply(m); err != nil {
		api.WriteError(w, http.StatusInternalServerError, "An error occurred while updating the replica.")
		return
	}

	api.WriteMessage(w, http.StatusOK, "Replica updated")
}

func writeUpdateDecodeError(w http.ResponseWriter, err error) {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "quantity":
			api.WriteError(w, http.StatusBadRequest, "Quantity must be an integer.")
			return
		case "price":
			api.WriteError(w, http.StatusBadRequest, "Price must be a number.")
			return
		}
	}
	api.WriteError(w, http.StatusBadRequest, "No data provided.")
}
