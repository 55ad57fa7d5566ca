// Package session is the synchronization layer: one Session per running
// game, holding the optimistic local state and the handle to the shared
// store. Mutations apply locally first, then the touched documents are
// pushed asynchronously; the store's change feed delivers authoritative
// snapshots back, which replace the local slices wholesale.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/auction"
	"github.com/MedicD21/monopoly-banker/platform/state"
	"github.com/MedicD21/monopoly-banker/platform/store"
	"github.com/MedicD21/monopoly-banker/platform/trade"
	"github.com/sirupsen/logrus"
)

// TouchGame names the game document in a Mutate touched list; any other
// string is a player id.
const TouchGame = "game"

type Session struct {
	GameID  string
	State   *state.GameState
	Auction *auction.Manager
	Trades  *trade.Manager

	// OnChange fires after every local mutation and after every applied
	// remote snapshot; the socket layer uses it to rebroadcast.
	OnChange func()

	store  store.Store
	log    *logrus.Entry
	cancel context.CancelFunc
}

func newSession(gameID string, st store.Store, game *models.Game) *Session {
	s := &Session{
		GameID: gameID,
		State:  state.New(game),
		store:  st,
		log:    logrus.WithField("game", gameID),
	}
	s.Auction = auction.New(s.Mutate)
	s.Trades = trade.New(s.Mutate)
	return s
}

// Mutate applies fn to the local state synchronously, then pushes the named
// documents to the shared store in the background. A failed remote write is
// logged and the optimistic state kept; the next authoritative snapshot
// corrects any divergence.
func (s *Session) Mutate(fn func(t *state.Table) error, touched ...string) error {
	if err := s.State.Update(fn); err != nil {
		return err
	}
	if len(touched) > 0 {
		go s.push(touched)
	}
	if s.OnChange != nil {
		s.OnChange()
	}
	return nil
}

// JoinPlayer seats a new player and writes their document synchronously:
// a join that never lands remotely would strand the player locally.
func (s *Session) JoinPlayer(p *models.Player) error {
	s.State.AddPlayer(p)
	if err := s.store.SavePlayer(context.Background(), s.GameID, p.Clone()); err != nil {
		return err
	}
	if s.OnChange != nil {
		s.OnChange()
	}
	return nil
}

// PlayerIDs returns the ids of everyone seated, for push sets that touch
// the whole table.
func (s *Session) PlayerIDs() []string {
	_, players := s.State.Snapshot()
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

func (s *Session) push(touched []string) {
	ctx := context.Background()
	for _, doc := range touched {
		if doc == TouchGame {
			game, _ := s.State.Snapshot()
			if err := s.store.SaveGame(ctx, game); err != nil {
				s.log.WithError(err).Warn("remote game write failed")
			}
			continue
		}
		p, ok := s.State.Player(doc)
		if !ok {
			continue
		}
		if err := s.store.SavePlayer(ctx, s.GameID, p); err != nil {
			s.log.WithError(err).WithField("player", doc).Warn("remote player write failed")
		}
	}
}

// start begins consuming the change feed.
func (s *Session) start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	ch, err := s.store.Watch(ctx, s.GameID)
	if err != nil {
		s.cancel()
		return err
	}
	go s.watchLoop(ch)
	return nil
}

// watchLoop applies the change feed: each event reloads the document and
// replaces the corresponding local slice. Last snapshot wins at the
// granularity of a whole player record or the whole game document; there is
// no field-level merging.
func (s *Session) watchLoop(ch <-chan store.Event) {
	for ev := range ch {
		switch ev.Kind {
		case store.EventGame:
			g, err := s.store.LoadGame(context.Background(), s.GameID)
			if err != nil {
				s.log.WithError(err).Warn("game snapshot load failed")
				continue
			}
			s.State.ReplaceGame(g)
		case store.EventPlayer:
			p, err := s.store.LoadPlayer(context.Background(), s.GameID, ev.PlayerID)
			if err != nil {
				s.log.WithError(err).WithField("player", ev.PlayerID).Warn("player snapshot load failed")
				continue
			}
			s.State.ReplacePlayer(p)
		}
		if s.OnChange != nil {
			s.OnChange()
		}
	}
}

// Close stops the auction countdown and the feed subscription.
func (s *Session) Close() {
	s.Auction.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

// Manager tracks the sessions running on this process.
type Manager struct {
	store    store.Store
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(st store.Store) *Manager {
	return &Manager{store: st, sessions: make(map[string]*Session)}
}

func (m *Manager) Get(gameID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[gameID]
	return s, ok
}

// Create registers a brand-new game with the shared store and opens its
// session.
func (m *Manager) Create(ctx context.Context, game *models.Game) (*Session, error) {
	if err := m.store.SaveGame(ctx, game); err != nil {
		return nil, err
	}
	return m.Open(ctx, game.ID)
}

// Open loads the game and its players from the shared store and starts a
// session around them. Reuses a running session when one exists.
func (m *Manager) Open(ctx context.Context, gameID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[gameID]; ok {
		return s, nil
	}

	game, err := m.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s := newSession(gameID, m.store, game)
	players, err := m.store.LoadPlayers(ctx, gameID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	for _, p := range players {
		s.State.AddPlayer(p)
	}
	if err := s.start(ctx); err != nil {
		return nil, err
	}
	m.sessions[gameID] = s
	return s, nil
}

// Close tears down one session, leaving the store documents in place.
func (m *Manager) Close(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[gameID]; ok {
		s.Close()
		delete(m.sessions, gameID)
	}
}

// CloseAll tears down every session, for shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}
