// Package order implements the order service: the cross-service purchase
// orchestrator, order listing, and application of purchases propagated by
// sibling replicas.
package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bazar/internal/invalidate"
	"bazar/internal/metrics"
	"bazar/internal/model"
	"bazar/internal/peers"
	"bazar/internal/replication"
	"bazar/internal/store"
)

// Purchase failure modes, mapped to HTTP statuses at the handler boundary.
var (
	ErrInvalidItem  = errors.New("invalid item id")
	ErrItemNotFound = errors.New("item not found")
	ErrOutOfStock   = errors.New("item out of stock")
	ErrUpstream     = errors.New("catalog request failed")
	ErrUpdateFailed = errors.New("stock update failed")
	ErrRecordFailed = errors.New("order record failed")
)

const catalogTimeout = 5 * time.Second

// Orchestrator runs the purchase sequence: check stock on a round-robin
// catalog backend, invalidate the gateway cache, push the decrement,
// record the order locally, propagate it to sibling order replicas.
//
// The decrement and the order insert are not transactional: a crash between
// them leaves inventory decremented with no order row.
type Orchestrator struct {
	orders     *store.Orders
	catalogs   *peers.Pool
	notifier   *invalidate.Notifier
	propagator *replication.Propagator
	client     *http.Client
	logger     *slog.Logger
}

// NewOrchestrator wires the purchase path.
func NewOrchestrator(orders *store.Orders, catalogs *peers.Pool, notifier *invalidate.Notifier, propagator *replication.Propagator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		orders:     orders,
		catalogs:   catalogs,
		notifier:   notifier,
		propagator: propagator,
		client:     &http.Client{Timeout: catalogTimeout},
		logger:     logger,
	}
}

type itemInfo struct {
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Purchase buys one unit of itemID and returns the recorded order.
func (o *Orchestrator) Purchase(itemID int) (model.Order, error) {
	if itemID <= 0 {
		metrics.PurchasesTotal.WithLabelValues("invalid").Inc()
		return model.Order{}, ErrInvalidItem
	}

	catalogURL, err := o.catalogs.Next()
	if err != nil {
		metrics.PurchasesTotal.WithLabelValues("unavailable").Inc()
		return model.Order{}, err
	}

	info, err := o.fetchInfo(catalogURL, itemID)
	if err != nil {
		return model.Order{}, err
	}

	if info.Quantity <= 0 {
		metrics.PurchasesTotal.WithLabelValues("out_of_stock").Inc()
		return model.Order{}, ErrOutOfStock
	}
	newQuantity := info.Quantity - 1

	o.notifier.Invalidate(itemID)

	if err := o.pushDecrement(catalogURL, itemID, newQuantity); err != nil {
		metrics.PurchasesTotal.WithLabelValues("update_failed").Inc()
		return model.Order{}, err
	}

	order, err := o.orders.Insert(itemID, 1, time.Now().Format(time.RFC3339))
	if err != nil {
		metrics.PurchasesTotal.WithLabelValues("record_failed").Inc()
		return model.Order{}, fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}

	o.propagator.Propagate(model.OrderMutation{
		MutationID: replication.NewMutationID(),
		ItemID:     order.ItemID,
		Quantity:   order.Quantity,
		Timestamp:  order.Timestamp,
	})

	metrics.PurchasesTotal.WithLabelValues("purchased").Inc()
	o.logger.Info("book purchased", "item_id", itemID, "title", info.Title, "order_id", order.OrderID)
	return order, nil
}

func (o *Orchestrator) fetchInfo(catalogURL string, itemID int) (itemInfo, error) {
	resp, err := o.client.Get(fmt.Sprintf("%s/info/%d", catalogURL, itemID))
	if err != nil {
		metrics.PurchasesTotal.WithLabelValues("upstream_error").Inc()
		return itemInfo{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		metrics.PurchasesTotal.WithLabelValues("not_found").Inc()
		return itemInfo{}, ErrItemNotFound
	}
	if resp.StatusCode != http.StatusOK {
		metrics.PurchasesTotal.WithLabelValues("upstream_error").Inc()
		return itemInfo{}, fmt.Errorf("%w: catalog returned %s", ErrUpstream, resp.Status)
	}

	var info itemInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		metrics.PurchasesTotal.WithLabelValues("upstream_error").Inc()
		return itemInfo{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return info, nil
}

func (o *Orchestrator) pushDecrement(catalogURL string, itemID, newQuantity int) error {
	body, _ := json.Marshal(map[string]int{"quantity": newQuantity})
	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/update/%d", catalogURL, itemID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: catalog returned %s", ErrUpdateFailed, resp.Status)
	}
	return nil
}

// Applier applies purchases received from sibling order replicas. Like the
// catalog Applier it has no propagator and no notifier: the originator
// already invalidated the cache and fanned the mutation out.
type Applier struct {
	orders *store.Orders
	logger *slog.Logger
}

// NewApplier wires the replica-receive path.
func NewApplier(orders *store.Orders, logger *slog.Logger) *Applier {
	return &Applier{orders: orders, logger: logger}
}

// Apply records one propagated purchase with a locally assigned order id,
// keeping the originator's timestamp.
func (a *Applier) Apply(m model.OrderMutation) error {
	metrics.ReplicationAppliesTotal.Inc()

	order, err := a.orders.Insert(m.ItemID, m.Quantity, m.Timestamp)
	if err != nil {
		return err
	}
	a.logger.Info("replica purchase recorded", "item_id", m.ItemID, "order_id", order.OrderID, "mutation_id", m.MutationID)
	return nil
}
