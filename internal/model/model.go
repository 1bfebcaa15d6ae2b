// Package model defines the domain types shared by the bookstore services.
package model

// Book is a single catalog item. ID is immutable; Quantity must never go
// negative.
type Book struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Topic    string  `json:"topic"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is one recorded purchase. Orders are created once and never mutated.
// OrderID is assigned by the replica that records the row; Timestamp is
// assigned by the originating replica and carried unchanged through
// propagation.
type Order struct {
	OrderID   int    `json:"order_id"`
	ItemID    int    `json:"item_id"`
	Quantity  int    `json:"quantity"`
	Timestamp string `json:"timestamp"`
}

// CatalogMutation is the wire form of a catalog change exchanged between
// catalog replicas. When Restock is set every item's quantity is bumped and
// the remaining fields are ignored; otherwise the non-nil fields of item
// ItemID are overwritten.
//
// MutationID is a trace token assigned by the originator. Receivers log it
// but never deduplicate on it; delivery is at-least-once.
type CatalogMutation struct {
	MutationID string   `json:"mutation_id,omitempty"`
	Restock    bool     `json:"restock,omitempty"`
	ItemID     int      `json:"item_id,omitempty"`
	Quantity   *int     `json:"quantity,omitempty"`
	Price      *float64 `json:"price,omitempty"`
}

// OrderMutation is the wire form of a purchase exchanged between order
// replicas.
type OrderMutation struct {
	MutationID string `json:"mutation_id,omitempty"`
	ItemID     int    `json:"item_id"`
	Quantity   int    `json:"quantity"`
	Timestamp  string `json:"timestamp"`
}
