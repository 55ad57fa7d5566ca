package models

import "time"

const (
	HistoryDice        = "dice"
	HistoryTransaction = "transaction"
	HistoryProperty    = "property"
	HistoryPassGo      = "passGo"
	HistoryAuction     = "auction"
	HistoryTax         = "tax"
	HistoryFreeParking = "freeParking"
)

// HistoryEntry is append-only; entries are never mutated or removed.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Actor     string    `json:"actor,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
