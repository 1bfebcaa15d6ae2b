// Package catalog implements the catalog service: search/info reads, field
// updates, the periodic restock loop, and application of mutations
// propagated by sibling replicas.
//
// Mutations have two distinct entry points. Service originates them:
// invalidate the gateway cache, commit through the store, propagate to
// siblings. Applier applies propagated ones through the store only; it has
// no propagator and no notifier, so an applied mutation can never echo back
// into the mesh.
package catalog

import (
	"errors"
	"log/slog"

	"bazar/internal/invalidate"
	"bazar/internal/metrics"
	"bazar/internal/model"
	"bazar/internal/replication"
	"bazar/internal/store"
)

// Service executes locally originated catalog mutations.
type Service struct {
	books      *store.Books
	notifier   *invalidate.Notifier
	propagator *replication.Propagator
	logger     *slog.Logger
}

// NewService wires the originate path.
func NewService(books *store.Books, notifier *invalidate.Notifier, propagator *replication.Propagator, logger *slog.Logger) *Service {
	return &Service{
		books:      books,
		notifier:   notifier,
		propagator: propagator,
		logger:     logger,
	}
}

// UpdateItem originates a partial field update. The gateway cache is
// invalidated before the commit to narrow the stale-read window; the
// propagation fan-out is launched after and never blocks the caller.
func (s *Service) UpdateItem(id int, quantity *int, price *float64) error {
	s.notifier.Invalidate(id)

	if err := s.books.Update(id, quantity, price); err != nil {
		return err
	}

	s.propagator.Propagate(model.CatalogMutation{
		MutationID: replication.NewMutationID(),
		ItemID:     id,
		Quantity:   quantity,
		Price:      price,
	})

	s.logger.Info("item updated", "item_id", id)
	return nil
}

// Restock originates a bulk quantity bump: every item is incremented, every
// item's cache entry is invalidated, and one restock descriptor is
// propagated to siblings.
func (s *Service) Restock(amount int) error {
	ids, err := s.books.IncrementAll(amount)
	if err != nil {
		return err
	}

	for _, id := range ids {
		s.notifier.Invalidate(id)
	}

	s.propagator.Propagate(model.CatalogMutation{
		MutationID: replication.NewMutationID(),
		Restock:    true,
	})
	return nil
}

// Applier applies catalog mutations received from sibling replicas.
type Applier struct {
	books         *store.Books
	restockAmount int
	logger        *slog.Logger
}

// NewApplier wires the replica-receive path. restockAmount is this
// replica's configured bump, applied when a restock descriptor arrives.
func NewApplier(books *store.Books, restockAmount int, logger *slog.Logger) *Applier {
	return &Applier{books: books, restockAmount: restockAmount, logger: logger}
}

// Apply commits one propagated mutation locally. It never re-propagates and
// never touches the gateway cache: only the originator does that.
func (a *Applier) Apply(m model.CatalogMutation) error {
	metrics.ReplicationAppliesTotal.Inc()

	if m.Restock {
		_, err := a.books.IncrementAll(a.restockAmount)
		if err == nil {
			a.logger.Info("replica restock applied", "mutation_id", m.MutationID)
		}
		return err
	}

	err := a.books.Update(m.ItemID, m.Quantity, m.Price)
	if errors.Is(err, store.ErrNotFound) {
		// Replicas can disagree on catalog membership; an update for an
		// unknown item is dropped, not failed.
		a.logger.Warn("replica update for unknown item", "item_id", m.ItemID, "mutation_id", m.MutationID)
		return nil
	}
	if err == nil {
		a.logger.Info("replica update applied", "item_id", m.ItemID, "mutation_id", m.MutationID)
	}
	return err
}
