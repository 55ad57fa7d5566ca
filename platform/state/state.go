// Package state holds the local, optimistic view of one game. Mutations are
// applied here synchronously; the authoritative copy lives in the shared
// store and replaces slices of this view wholesale when snapshots arrive.
package state

import (
	"errors"
	"sync"

	"github.com/MedicD21/monopoly-banker/app/models"
)

var ErrUnknownPlayer = errors.New("unknown player")

// Table is the unlocked view handed to mutation closures. Domain operations
// (ledger, rules, trade, auction, chance) work on a Table; they never take
// locks themselves.
type Table struct {
	Game    *models.Game
	Players map[string]*models.Player
	Order   []string
}

func (t *Table) Player(id string) (*models.Player, error) {
	p, ok := t.Players[id]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	return p, nil
}

// FindOwner returns the player currently holding the named property.
func (t *Table) FindOwner(propertyName string) (*models.Player, *models.PropertyRecord) {
	for _, id := range t.Order {
		p := t.Players[id]
		if rec := p.FindProperty(propertyName); rec != nil {
			return p, rec
		}
	}
	return nil, nil
}

// PlayersInOrder returns the live player structs in seating order.
func (t *Table) PlayersInOrder() []*models.Player {
	out := make([]*models.Player, 0, len(t.Order))
	for _, id := range t.Order {
		if p, ok := t.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// GameState guards a Table with a lock. All access goes through Update /
// View; snapshot replacement from the remote feed goes through ReplaceGame /
// ReplacePlayer.
type GameState struct {
	mu    sync.RWMutex
	table Table
}

func New(game *models.Game) *GameState {
	return &GameState{table: Table{
		Game:    game,
		Players: make(map[string]*models.Player),
	}}
}

// Update runs fn with exclusive access. If fn returns an error the local
// state may still have been partially modified; mutation entry points are
// expected to validate before touching anything.
func (s *GameState) Update(fn func(t *Table) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.table)
}

// View runs fn with shared read access. fn must not mutate.
func (s *GameState) View(fn func(t *Table) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.table)
}

// AddPlayer seats a player at the table. No-op if already seated.
func (s *GameState) AddPlayer(p *models.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.table.Players[p.ID]; ok {
		return
	}
	s.table.Players[p.ID] = p
	s.table.Order = append(s.table.Order, p.ID)
}

// ReplaceGame swaps in an authoritative game document (last snapshot wins).
func (s *GameState) ReplaceGame(g *models.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table.Game = g
}

// ReplacePlayer swaps in an authoritative player record wholesale. Unknown
// players are seated at the end of the order.
func (s *GameState) ReplacePlayer(p *models.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.table.Players[p.ID]; !ok {
		s.table.Order = append(s.table.Order, p.ID)
	}
	s.table.Players[p.ID] = p
}

// Snapshot deep-copies the whole table for read-only consumers.
func (s *GameState) Snapshot() (*models.Game, []*models.Player) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*models.Player, 0, len(s.table.Order))
	for _, id := range s.table.Order {
		if p, ok := s.table.Players[id]; ok {
			players = append(players, p.Clone())
		}
	}
	return s.table.Game.Clone(), players
}

// Player returns a deep copy of one player.
func (s *GameState) Player(id string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.table.Players[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}
