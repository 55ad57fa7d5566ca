package models

import "time"

// PropertyRecord is a property as held by a player. The static definition
// (price, rent table, group) lives on the board; the record only carries
// mutable ownership state.
type PropertyRecord struct {
	Name      string `json:"name"`
	Houses    int    `json:"houses"`
	Hotel     bool   `json:"hotel"`
	Mortgaged bool   `json:"mortgaged"`
}

type Player struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	PieceID          string           `json:"pieceId"`
	Color            string           `json:"color"`
	Balance          int              `json:"balance"`
	Properties       []PropertyRecord `json:"properties"`
	IsReady          bool             `json:"isReady"`
	IsConnected      bool             `json:"isConnected"`
	LastSeen         time.Time        `json:"lastSeen"`
	Order            int              `json:"order"`
	Position         int              `json:"position"`
	InJail           bool             `json:"inJail"`
	DoublesCount     int              `json:"doublesCount"`
	GetOutOfJailFree int              `json:"getOutOfJailFree"`
	IsBankrupt       bool             `json:"isBankrupt"`
	IsPro            bool             `json:"isPro"`
}

// FindProperty returns a pointer into the player's holdings, or nil.
func (p *Player) FindProperty(name string) *PropertyRecord {
	for i := range p.Properties {
		if p.Properties[i].Name == name {
			return &p.Properties[i]
		}
	}
	return nil
}

func (p *Player) OwnsProperty(name string) bool {
	return p.FindProperty(name) != nil
}

// DropProperty removes the named record from the player's holdings.
// Returns false if the player does not hold it.
func (p *Player) DropProperty(name string) bool {
	for i := range p.Properties {
		if p.Properties[i].Name == name {
			p.Properties = append(p.Properties[:i], p.Properties[i+1:]...)
			return true
		}
	}
	return false
}

// Clone deep-copies the player so snapshots can leave the live struct alone.
func (p *Player) Clone() *Player {
	cp := *p
	cp.Properties = make([]PropertyRecord, len(p.Properties))
	copy(cp.Properties, p.Properties)
	return &cp
}

// PlayerRow is the durable lobby registry row (postgres). Live play state
// lives in the shared store, not here.
type PlayerRow struct {
	Id      string
	GameId  string
	UserId  string
	Name    string
	PieceId string
	Color   string
}
