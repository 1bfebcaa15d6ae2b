// Package store implements the per-replica record stores for catalog items
// and orders. Each store serializes every operation on one mutex; callers
// must never hold a store call open across a network round trip.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"bazar/internal/metrics"
	"bazar/internal/model"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// seedBooks is the canonical starting catalog, written once when a replica
// boots with an empty journal.
var seedBooks = []model.Book{
	{ID: 1, Title: "How to get a good grade in DOS in 40 minutes a day", Topic: "distributed systems", Quantity: 10, Price: 50.0},
	{ID: 2, Title: "RPCs for Noobs", Topic: "distributed systems", Quantity: 10, Price: 25.0},
	{ID: 3, Title: "Xen and the Art of Surviving Undergraduate School", Topic: "undergraduate school", Quantity: 10, Price: 75.0},
	{ID: 4, Title: "Cooking for the Impatient Undergrad", Topic: "undergraduate school", Quantity: 10, Price: 100.0},
	{ID: 5, Title: "How to finish Project 3 on time", Topic: "project management", Quantity: 10, Price: 60.0},
	{ID: 6, Title: "Why theory classes are so hard", Topic: "education", Quantity: 10, Price: 40.0},
	{ID: 7, Title: "Spring in the Pioneer Valley", Topic: "travel", Quantity: 10, Price: 30.0},
}

// Books is the catalog record store.
type Books struct {
	mu      sync.Mutex
	byID    map[int]model.Book
	journal *journal
	logger  *slog.Logger
}

// OpenBooks opens the catalog store under dir, replaying the journal and
// seeding the default catalog when the journal is empty.
func OpenBooks(dir string, logger *slog.Logger) (*Books, error) {
	j, err := openJournal(filepath.Join(dir, "catalog"))
	if err != nil {
		return nil, fmt.Errorf("open catalog journal: %w", err)
	}

	b := &Books{
		byID:    make(map[int]model.Book),
		journal: j,
		logger:  logger,
	}

	err = j.replay(func(data []byte) error {
		var book model.Book
		if err := unmarshalRecord(data, &book); err != nil {
			return err
		}
		b.byID[book.ID] = book
		return nil
	})
	if err != nil {
		j.Close()
		return nil, fmt.Errorf("replay catalog journal: %w", err)
	}

	if len(b.byID) == 0 {
		for _, book := range seedBooks {
			if err := j.append(book); err != nil {
				j.Close()
				return nil, fmt.Errorf("seed catalog: %w", err)
			}
			b.byID[book.ID] = book
		}
		logger.Info("catalog seeded", "books", len(seedBooks))
	}

	return b, nil
}

// Get returns the book with the given id or ErrNotFound.
func (b *Books) Get(id int) (model.Book, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	book, ok := b.byID[id]
	if !ok {
		return model.Book{}, ErrNotFound
	}
	return book, nil
}

// Update overwrites the supplied fields of one book. Nil fields are left
// unchanged.
func (b *Books) Update(id int, quantity *int, price *float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	book, ok := b.byID[id]
	if !ok {
		return ErrNotFound
	}
	if quantity != nil {
		book.Quantity = *quantity
	}
	if price != nil {
		book.Price = *price
	}

	if err := b.commit(book); err != nil {
		return err
	}
	b.byID[id] = book
	return nil
}

// IncrementAll adds delta to every book's quantity and returns the affected
// ids in ascending order. Used by the restock path on both the originating
// and the applying side.
func (b *Books) IncrementAll(delta int) ([]int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]int, 0, len(b.byID))
	for id := range b.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		book := b.byID[id]
		book.Quantity += delta
		if err := b.commit(book); err != nil {
			return nil, err
		}
		b.byID[id] = book
	}
	return ids, nil
}

// Scan returns every book ordered by id.
func (b *Books) Scan() []model.Book {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]model.Book, 0, len(b.byID))
	for _, book := range b.byID {
		out = append(out, book)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Search returns the books matching a topic, ordered by id.
func (b *Books) Search(topic string) []model.Book {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []model.Book
	for _, book := range b.byID {
		if book.Topic == topic {
			out = append(out, book)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close releases the journal.
func (b *Books) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.journal.Close()
}

// commit appends the post-mutation row to the journal. Callers apply the
// in-memory change only after commit returns nil, so a failed append leaves
// the store exactly as it was.
func (b *Books) commit(book model.Book) error {
	if err := b.journal.append(book); err != nil {
		metrics.StoreJournalErrorsTotal.Inc()
		b.logger.Error("catalog journal append failed", "item_id", book.ID, "error", err)
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}
