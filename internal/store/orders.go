package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"bazar/internal/metrics"
	"bazar/internal/model"
)

// Orders is the order record store. Rows are append-only: ids are assigned
// monotonically per replica and rows are never mutated or deleted.
type Orders struct {
	mu      sync.Mutex
	rows    []model.Order
	nextID  int
	journal *journal
	logger  *slog.Logger
}

// OpenOrders opens the order store under dir, replaying the journal.
func OpenOrders(dir string, logger *slog.Logger) (*Orders, error) {
	j, err := openJournal(filepath.Join(dir, "orders"))
	if err != nil {
		return nil, fmt.Errorf("open orders journal: %w", err)
	}

	o := &Orders{nextID: 1, journal: j, logger: logger}

	err = j.replay(func(data []byte) error {
		var order model.Order
		if err := unmarshalRecord(data, &order); err != nil {
			return err
		}
		o.rows = append(o.rows, order)
		if order.OrderID >= o.nextID {
			o.nextID = order.OrderID + 1
		}
		return nil
	})
	if err != nil {
		j.Close()
		return nil, fmt.Errorf("replay orders journal: %w", err)
	}

	return o, nil
}

// Insert records a new order, assigning the next local order id. The
// timestamp comes from the originating replica and is stored verbatim.
func (o *Orders) Insert(itemID, quantity int, timestamp string) (model.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	order := model.Order{
		OrderID:   o.nextID,
		ItemID:    itemID,
		Quantity:  quantity,
		Timestamp: timestamp,
	}

	// Journal first: a row must never become visible unless it is durable.
	if err := o.journal.append(order); err != nil {
		metrics.StoreJournalErrorsTotal.Inc()
		o.logger.Error("orders journal append failed", "order_id", order.OrderID, "error", err)
		return model.Order{}, fmt.Errorf("storage: %w", err)
	}

	o.rows = append(o.rows, order)
	o.nextID++
	return order, nil
}

// Scan returns every recorded order in insertion order.
func (o *Orders) Scan() []model.Order {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]model.Order, len(o.rows))
	copy(out, o.rows)
	return out
}

// Close releases the journal.
func (o *Orders) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.journal.Close()
}
