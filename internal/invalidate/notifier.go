// Package invalidate notifies the gateway cache that an item's entries are
// stale. Calls are best-effort: a gateway outage costs cache freshness, not
// the mutation that triggered the call.
package invalidate

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bazar/internal/metrics"
)

const callTimeout = 5 * time.Second

// Notifier posts invalidations to the gateway's invalidate endpoint.
type Notifier struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewNotifier builds a notifier for the configured gateway invalidate URL
// (e.g. "http://frontend:5000/invalidate").
func NewNotifier(baseURL string, logger *slog.Logger) *Notifier {
	return &Notifier{
		baseURL: baseURL,
		client:  &http.Client{Timeout: callTimeout},
		logger:  logger,
	}
}

// Invalidate asks the gateway to evict the entries for itemID. It is called
// before the local mutation commits to narrow the stale-read window, and
// its failure is logged and dropped.
func (n *Notifier) Invalidate(itemID int) {
	resp, err := n.client.Post(fmt.Sprintf("%s/%d", n.baseURL, itemID), "application/json", nil)
	if err != nil {
		n.logger.Error("cache invalidate failed", "item_id", itemID, "error", err)
		metrics.InvalidationSendsTotal.WithLabelValues("failed").Inc()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.Error("cache invalidate rejected", "item_id", itemID, "status", resp.Status)
		metrics.InvalidationSendsTotal.WithLabelValues("failed").Inc()
		return
	}

	n.logger.Info("cache invalidated", "item_id", itemID)
	metrics.InvalidationSendsTotal.WithLabelValues("ok").Inc()
}
