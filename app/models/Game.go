package models

import "time"

const (
	StatusLobby   = "lobby"
	StatusPlaying = "playing"
	StatusEnded   = "ended"
)

// GameConfig is fixed at game start; only the host may change it afterwards.
type GameConfig struct {
	StartingBalance    int  `json:"startingBalance"`
	PassGoAmount       int  `json:"passGoAmount"`
	FreeParkingJackpot bool `json:"freeParkingJackpot"`
	DoubleOnExactGo    bool `json:"doubleOnExactGo"`
	AuctionOnUnowned   bool `json:"auctionOnUnowned"`
	AlternateDice      bool `json:"alternateDice"`
}

func DefaultConfig() GameConfig {
	return GameConfig{
		StartingBalance: 1500,
		PassGoAmount:    200,
	}
}

type DiceRoll struct {
	PlayerID string    `json:"playerId"`
	Dice     []int     `json:"dice"`
	Total    int       `json:"total"`
	IsDouble bool      `json:"isDouble"`
	RolledAt time.Time `json:"rolledAt"`
}

// Game is the shared game document. Player documents live alongside it in
// the store as their own collection.
type Game struct {
	ID                 string         `json:"id"`
	Code               string         `json:"code"`
	HostID             string         `json:"hostId"`
	Status             string         `json:"status"`
	Config             GameConfig     `json:"config"`
	CreatedAt          time.Time      `json:"createdAt"`
	LastActivity       time.Time      `json:"lastActivity"`
	LastDiceRoll       *DiceRoll      `json:"lastDiceRoll,omitempty"`
	FreeParkingBalance int            `json:"freeParkingBalance,omitempty"`
	Auction            *AuctionState  `json:"auction,omitempty"`
	TradeOffer         *TradeOffer    `json:"tradeOffer,omitempty"`
	History            []HistoryEntry `json:"history"`
}

// Clone deep-copies the game document.
func (g *Game) Clone() *Game {
	cp := *g
	if g.LastDiceRoll != nil {
		roll := *g.LastDiceRoll
		roll.Dice = append([]int(nil), g.LastDiceRoll.Dice...)
		cp.LastDiceRoll = &roll
	}
	if g.Auction != nil {
		cp.Auction = g.Auction.Clone()
	}
	if g.TradeOffer != nil {
		offer := *g.TradeOffer
		offer.OfferProperties = append([]string(nil), g.TradeOffer.OfferProperties...)
		offer.RequestProperties = append([]string(nil), g.TradeOffer.RequestProperties...)
		cp.TradeOffer = &offer
	}
	cp.History = append([]HistoryEntry(nil), g.History...)
	return &cp
}

// GameRow is the durable lobby registry row (postgres).
type GameRow struct {
	Id        string
	Code      string
	HostId    string
	Status    string
	CreatedAt time.Time
}

type GameCreateDto struct {
	Config *GameConfig `json:"config"`
}

type VerifyGameDto struct {
	Code string `query:"code"`
}

type JoinGameDto struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	PieceId string `json:"pieceId"`
	Color   string `json:"color"`
}
