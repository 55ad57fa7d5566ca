package trade

import (
	"sync"
	"testing"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(players ...*models.Player) *state.GameState {
	gs := state.New(&models.Game{ID: "g1", Config: models.DefaultConfig()})
	for _, p := range players {
		gs.AddPlayer(p)
	}
	return gs
}

func applier(gs *state.GameState) Apply {
	return func(fn func(t *state.Table) error, touched ...string) error {
		return gs.Update(fn)
	}
}

func twoPlayers() *state.GameState {
	return newState(
		&models.Player{ID: "p1", Name: "Ada", Balance: 1500},
		&models.Player{ID: "p2", Name: "Ben", Balance: 1500, Properties: []models.PropertyRecord{{Name: "North Line"}}},
	)
}

func TestProposeAcceptMovesMoneyAndProperty(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	offer, err := m.Propose("p1", "p2", Terms{
		OfferMoney:        100,
		RequestProperties: []string{"North Line"},
	})
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.False(t, offer.IsCounterOffer)

	require.NoError(t, m.Accept(offer.ID, "p2"))

	p1, _ := gs.Player("p1")
	p2, _ := gs.Player("p2")
	assert.Equal(t, 1400, p1.Balance)
	assert.Equal(t, 1600, p2.Balance)
	assert.True(t, p1.OwnsProperty("North Line"))
	assert.False(t, p2.OwnsProperty("North Line"))

	game, _ := gs.Snapshot()
	assert.Nil(t, game.TradeOffer)
	require.NotEmpty(t, game.History)
}

func TestSinglePendingOfferEnforced(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	_, err := m.Propose("p1", "p2", Terms{OfferMoney: 10})
	require.NoError(t, err)
	_, err = m.Propose("p2", "p1", Terms{OfferMoney: 10})
	assert.ErrorIs(t, err, ErrTradeInFlight)
}

func TestProposeValidation(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	_, err := m.Propose("p1", "p1", Terms{OfferMoney: 10})
	assert.ErrorIs(t, err, ErrSelfTrade)

	_, err = m.Propose("p1", "p2", Terms{OfferMoney: 2000})
	assert.ErrorIs(t, err, ErrCannotCover)

	_, err = m.Propose("p1", "p2", Terms{RequestMoney: 2000})
	assert.ErrorIs(t, err, ErrTargetNoCover)

	_, err = m.Propose("p1", "ghost", Terms{})
	assert.ErrorIs(t, err, state.ErrUnknownPlayer)
}

func TestCounterBuildsFreshOfferWithRolesSwapped(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	first, err := m.Propose("p1", "p2", Terms{OfferMoney: 100, RequestProperties: []string{"North Line"}})
	require.NoError(t, err)

	counter, err := m.Counter("p2", Terms{OfferProperties: []string{"North Line"}, RequestMoney: 250})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, counter.ID)
	assert.Equal(t, "p2", counter.FromID)
	assert.Equal(t, "p1", counter.ToID)
	assert.True(t, counter.IsCounterOffer)
	assert.Equal(t, 250, counter.RequestMoney)

	// The original offer id no longer accepts.
	assert.ErrorIs(t, m.Accept(first.ID, "p2"), ErrWrongOffer)

	// The counter is addressed to the original proposer.
	require.NoError(t, m.Accept(counter.ID, "p1"))
	p1, _ := gs.Player("p1")
	assert.Equal(t, 1250, p1.Balance)
	assert.True(t, p1.OwnsProperty("North Line"))
}

func TestCounterOnlyByRecipient(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	_, err := m.Propose("p1", "p2", Terms{OfferMoney: 100})
	require.NoError(t, err)

	_, err = m.Counter("p1", Terms{OfferMoney: 50})
	assert.ErrorIs(t, err, ErrNotRecipient)
}

func TestRejectTransfersNothing(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	offer, err := m.Propose("p1", "p2", Terms{OfferMoney: 100, RequestProperties: []string{"North Line"}})
	require.NoError(t, err)
	require.NoError(t, m.Reject(offer.ID, "p2"))

	p1, _ := gs.Player("p1")
	p2, _ := gs.Player("p2")
	assert.Equal(t, 1500, p1.Balance)
	assert.Equal(t, 1500, p2.Balance)
	assert.True(t, p2.OwnsProperty("North Line"))

	game, _ := gs.Snapshot()
	assert.Nil(t, game.TradeOffer)

	// A cleared offer cannot be accepted afterwards.
	assert.ErrorIs(t, m.Accept(offer.ID, "p2"), ErrNoTrade)
}

func TestAcceptOnlyByRecipient(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	offer, err := m.Propose("p1", "p2", Terms{OfferMoney: 100})
	require.NoError(t, err)
	assert.ErrorIs(t, m.Accept(offer.ID, "p1"), ErrNotRecipient)
}

// Network redelivery can land the same accept signal more than once, and a
// concurrent reject can race it. Settlement must apply exactly once.
func TestAcceptAppliesExactlyOnceUnderRace(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	offer, err := m.Propose("p1", "p2", Terms{
		OfferMoney:        100,
		RequestProperties: []string{"North Line"},
	})
	require.NoError(t, err)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func(i int) {
			defer wg.Done()
			errs[i] = m.Accept(offer.ID, "p2")
		}(i)
	}
	wg.Wait()

	// Duplicates are swallowed by the guard or see the cleared offer; none
	// fail any other way.
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrNoTrade)
		}
	}

	p1, _ := gs.Player("p1")
	p2, _ := gs.Player("p2")
	assert.Equal(t, 1400, p1.Balance)
	assert.Equal(t, 1600, p2.Balance)
	require.Len(t, p1.Properties, 1)
	assert.Equal(t, "North Line", p1.Properties[0].Name)
	assert.Empty(t, p2.Properties)
}

func TestClearDropsPendingOffer(t *testing.T) {
	gs := twoPlayers()
	m := New(applier(gs))

	offer, err := m.Propose("p1", "p2", Terms{OfferMoney: 100})
	require.NoError(t, err)
	require.NoError(t, m.Clear())

	assert.ErrorIs(t, m.Accept(offer.ID, "p2"), ErrNoTrade)
	p1, _ := gs.Player("p1")
	assert.Equal(t, 1500, p1.Balance)
	game, _ := gs.Snapshot()
	assert.Nil(t, game.TradeOffer)
}

func TestExecuteNetsMoneyBothWays(t *testing.T) {
	gs := twoPlayers()
	require.NoError(t, gs.Update(func(tb *state.Table) error {
		return Execute(tb, &models.TradeOffer{
			FromID:       "p1",
			ToID:         "p2",
			OfferMoney:   100,
			RequestMoney: 300,
		})
	}))

	p1, _ := gs.Player("p1")
	p2, _ := gs.Player("p2")
	assert.Equal(t, 1700, p1.Balance)
	assert.Equal(t, 1300, p2.Balance)
}

func TestExecuteJailCardNetFloorsAtZero(t *testing.T) {
	gs := newState(
		&models.Player{ID: "p1", Balance: 100, GetOutOfJailFree: 1},
		&models.Player{ID: "p2", Balance: 100},
	)
	require.NoError(t, gs.Update(func(tb *state.Table) error {
		return Execute(tb, &models.TradeOffer{
			FromID:         "p1",
			ToID:           "p2",
			OfferJailCards: 2,
		})
	}))

	p1, _ := gs.Player("p1")
	p2, _ := gs.Player("p2")
	assert.Equal(t, 0, p1.GetOutOfJailFree)
	assert.Equal(t, 2, p2.GetOutOfJailFree)
}

func TestExecuteToleratesStaleProperty(t *testing.T) {
	// The listed property already left the offerer's holdings between
	// proposal and acceptance. The move is skipped, not failed.
	gs := newState(
		&models.Player{ID: "p1", Balance: 100},
		&models.Player{ID: "p2", Balance: 100},
	)
	require.NoError(t, gs.Update(func(tb *state.Table) error {
		return Execute(tb, &models.TradeOffer{
			FromID:          "p1",
			ToID:            "p2",
			OfferProperties: []string{"Boardwalk"},
		})
	}))

	p2, _ := gs.Player("p2")
	assert.Empty(t, p2.Properties)
}
