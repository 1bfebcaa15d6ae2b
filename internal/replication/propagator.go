// Package replication implements best-effort propagation of local mutations
// to sibling replicas. Sends are fire-and-forget from the caller's point of
// view: each peer gets its own goroutine, responses are awaited only to log
// and count them, failures are never retried and never surface to the
// client whose request originated the mutation.
//
// Only the originating code paths hold a Propagator. The handlers that
// receive propagated mutations apply them through the store directly and
// have no Propagator to call, which is what keeps a full mesh from looping.
package replication

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bazar/internal/metrics"
	"bazar/internal/peers"
)

const sendTimeout = 5 * time.Second

// Propagator fans one mutation out to every sibling replica.
type Propagator struct {
	replicas *peers.ReplicaSet
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewPropagator builds a propagator posting to the given endpoint path
// (e.g. "/replica_update") on each peer.
func NewPropagator(replicas *peers.ReplicaSet, endpoint string, logger *slog.Logger) *Propagator {
	return &Propagator{
		replicas: replicas,
		endpoint: endpoint,
		client:   &http.Client{Timeout: sendTimeout},
		logger:   logger,
	}
}

// NewMutationID mints the trace token carried on propagated payloads.
func NewMutationID() string {
	return uuid.NewString()
}

// Propagate sends the payload to every peer except self and blank entries.
// It returns as soon as the sends are launched.
func (p *Propagator) Propagate(payload any) {
	for _, peer := range p.replicas.Others() {
		go p.send(peer, payload)
	}
}

func (p *Propagator) send(peer string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("marshal propagation payload", "peer", peer, "error", err)
		metrics.ReplicationSendsTotal.WithLabelValues("failed").Inc()
		return
	}

	resp, err := p.client.Post(peer+p.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		p.logger.Error("propagation failed", "peer", peer, "error", err)
		metrics.ReplicationSendsTotal.WithLabelValues("failed").Inc()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Error("propagation rejected", "peer", peer, "status", resp.Status)
		metrics.ReplicationSendsTotal.WithLabelValues("failed").Inc()
		return
	}

	p.logger.Info("mutation propagated", "peer", peer)
	metrics.ReplicationSendsTotal.WithLabelValues("ok").Inc()
}
