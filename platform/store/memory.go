package store

import (
	"context"
	"sync"

	"github.com/MedicD21/monopoly-banker/app/models"
)

// Memory is the in-process store used by single-device games and tests.
type Memory struct {
	mu      sync.RWMutex
	games   map[string]*models.Game
	players map[string]map[string]*models.Player
	order   map[string][]string
	watches map[string][]chan Event
}

func NewMemory() *Memory {
	return &Memory{
		games:   make(map[string]*models.Game),
		players: make(map[string]map[string]*models.Player),
		order:   make(map[string][]string),
		watches: make(map[string][]chan Event),
	}
}

func (m *Memory) publish(ev Event) {
	for _, ch := range m.watches[ev.GameID] {
		select {
		case ch <- ev:
		default:
			// A stalled watcher drops events; the next one re-syncs it.
		}
	}
}

func (m *Memory) SaveGame(ctx context.Context, g *models.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g.Clone()
	m.publish(Event{Kind: EventGame, GameID: g.ID})
	return nil
}

func (m *Memory) LoadGame(ctx context.Context, gameID string) (*models.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return g.Clone(), nil
}

func (m *Memory) SavePlayer(ctx context.Context, gameID string, p *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.players[gameID] == nil {
		m.players[gameID] = make(map[string]*models.Player)
	}
	if _, ok := m.players[gameID][p.ID]; !ok {
		m.order[gameID] = append(m.order[gameID], p.ID)
	}
	m.players[gameID][p.ID] = p.Clone()
	m.publish(Event{Kind: EventPlayer, GameID: gameID, PlayerID: p.ID})
	return nil
}

func (m *Memory) LoadPlayer(ctx context.Context, gameID, playerID string) (*models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[gameID][playerID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) LoadPlayers(ctx context.Context, gameID string) ([]*models.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Player, 0, len(m.order[gameID]))
	for _, id := range m.order[gameID] {
		if p, ok := m.players[gameID][id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (m *Memory) DeleteGame(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	delete(m.players, gameID)
	delete(m.order, gameID)
	return nil
}

func (m *Memory) Watch(ctx context.Context, gameID string) (<-chan Event, error) {
	ch := make(chan Event, 16)
	m.mu.Lock()
	m.watches[gameID] = append(m.watches[gameID], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		watchers := m.watches[gameID]
		for i, c := range watchers {
			if c == ch {
				m.watches[gameID] = append(watchers[:i], watchers[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch, nil
}

func (m *Memory) Close() error {
	return nil
}
