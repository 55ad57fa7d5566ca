package models

import "time"

type Bid struct {
	PlayerID string    `json:"playerId"`
	Amount   int       `json:"amount"`
	At       time.Time `json:"at"`
}

type AuctionState struct {
	Active       bool     `json:"active"`
	PropertyName string   `json:"propertyName"`
	ListPrice    int      `json:"listPrice"`
	StartedBy    string   `json:"startedBy"`
	Bids         []Bid    `json:"bids"`
	DroppedOut   []string `json:"droppedOut"`
}

// HighestBid returns the current winning bid. Bids are appended only when
// strictly greater than the previous high, so the last bid is the highest
// and ties cannot occur.
func (a *AuctionState) HighestBid() *Bid {
	if len(a.Bids) == 0 {
		return nil
	}
	return &a.Bids[len(a.Bids)-1]
}

func (a *AuctionState) HasDropped(playerID string) bool {
	for _, id := range a.DroppedOut {
		if id == playerID {
			return true
		}
	}
	return false
}

func (a *AuctionState) Clone() *AuctionState {
	cp := *a
	cp.Bids = append([]Bid(nil), a.Bids...)
	cp.DroppedOut = append([]string(nil), a.DroppedOut...)
	return &cp
}
