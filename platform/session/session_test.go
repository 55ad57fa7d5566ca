package session

import (
	"context"
	"testing"
	"time"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/ledger"
	"github.com/MedicD21/monopoly-banker/platform/state"
	"github.com/MedicD21/monopoly-banker/platform/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGame() *models.Game {
	return &models.Game{ID: "g1", Code: "12345", Status: models.StatusLobby, Config: models.DefaultConfig()}
}

func seat(t *testing.T, s *Session, id, name string) {
	t.Helper()
	require.NoError(t, s.JoinPlayer(&models.Player{ID: id, Name: name, Balance: 1500}))
}

func TestCreateAndReopen(t *testing.T) {
	st := store.NewMemory()
	mgr := NewManager(st)
	defer mgr.CloseAll()

	s, err := mgr.Create(context.Background(), newGame())
	require.NoError(t, err)
	seat(t, s, "p1", "Ada")

	// Open on the same manager reuses the running session.
	again, err := mgr.Open(context.Background(), "g1")
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestOpenLoadsPlayersFromStore(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, st.SaveGame(ctx, newGame()))
	require.NoError(t, st.SavePlayer(ctx, "g1", &models.Player{ID: "p1", Name: "Ada", Balance: 1500}))
	require.NoError(t, st.SavePlayer(ctx, "g1", &models.Player{ID: "p2", Name: "Ben", Balance: 1500}))

	mgr := NewManager(st)
	defer mgr.CloseAll()
	s, err := mgr.Open(ctx, "g1")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"p1", "p2"}, s.PlayerIDs())
}

func TestOpenUnknownGame(t *testing.T) {
	mgr := NewManager(store.NewMemory())
	_, err := mgr.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMutatePushesTouchedDocuments(t *testing.T) {
	st := store.NewMemory()
	mgr := NewManager(st)
	defer mgr.CloseAll()

	s, err := mgr.Create(context.Background(), newGame())
	require.NoError(t, err)
	seat(t, s, "p1", "Ada")
	seat(t, s, "p2", "Ben")

	require.NoError(t, s.Mutate(func(t *state.Table) error {
		return ledger.Transfer(t, "p1", "p2", 300, false)
	}, TouchGame, "p1", "p2"))

	// Local state updates synchronously.
	p1, ok := s.State.Player("p1")
	require.True(t, ok)
	assert.Equal(t, 1200, p1.Balance)

	// The store catches up asynchronously.
	require.Eventually(t, func() bool {
		p, err := st.LoadPlayer(context.Background(), "g1", "p2")
		return err == nil && p.Balance == 1800
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		g, err := st.LoadGame(context.Background(), "g1")
		return err == nil && len(g.History) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMutateErrorLeavesStoreAlone(t *testing.T) {
	st := store.NewMemory()
	mgr := NewManager(st)
	defer mgr.CloseAll()

	s, err := mgr.Create(context.Background(), newGame())
	require.NoError(t, err)
	seat(t, s, "p1", "Ada")

	err = s.Mutate(func(t *state.Table) error {
		return ledger.Transfer(t, "p1", "ghost", 10, false)
	}, TouchGame, "p1")
	assert.ErrorIs(t, err, state.ErrUnknownPlayer)

	p, err := st.LoadPlayer(context.Background(), "g1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1500, p.Balance)
}

func TestTwoSessionsConvergeThroughSharedStore(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	hostMgr := NewManager(st)
	defer hostMgr.CloseAll()
	host, err := hostMgr.Create(ctx, newGame())
	require.NoError(t, err)
	seat(t, host, "p1", "Ada")
	seat(t, host, "p2", "Ben")

	// A second process opens the same game off the shared store.
	guestMgr := NewManager(st)
	defer guestMgr.CloseAll()
	guest, err := guestMgr.Open(ctx, "g1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, guest.PlayerIDs())

	require.NoError(t, host.Mutate(func(t *state.Table) error {
		return ledger.Transfer(t, "p1", "p2", 500, false)
	}, TouchGame, "p1", "p2"))

	// The change feed replaces the guest's player documents wholesale.
	require.Eventually(t, func() bool {
		p1, ok1 := guest.State.Player("p1")
		p2, ok2 := guest.State.Player("p2")
		return ok1 && ok2 && p1.Balance == 1000 && p2.Balance == 2000
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRemoteSnapshotReplacesLocalGame(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	mgr := NewManager(st)
	defer mgr.CloseAll()

	s, err := mgr.Create(ctx, newGame())
	require.NoError(t, err)

	// Another writer flips the game to playing directly in the store.
	g, err := st.LoadGame(ctx, "g1")
	require.NoError(t, err)
	g.Status = models.StatusPlaying
	require.NoError(t, st.SaveGame(ctx, g))

	require.Eventually(t, func() bool {
		game, _ := s.State.Snapshot()
		return game.Status == models.StatusPlaying
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOnChangeFiresForLocalAndRemoteChanges(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	mgr := NewManager(st)
	defer mgr.CloseAll()

	s, err := mgr.Create(ctx, newGame())
	require.NoError(t, err)

	changes := make(chan struct{}, 16)
	s.OnChange = func() { changes <- struct{}{} }

	require.NoError(t, s.Mutate(func(t *state.Table) error { return nil }))
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("local mutation never fired OnChange")
	}

	require.NoError(t, st.SavePlayer(ctx, "g1", &models.Player{ID: "p9", Name: "Zoe", Balance: 1500}))
	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("remote snapshot never fired OnChange")
	}

	// The late joiner delivered over the feed is seated locally.
	require.Eventually(t, func() bool {
		_, ok := s.State.Player("p9")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}
