package ledger

import (
	"testing"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(players ...*models.Player) *state.Table {
	t := &state.Table{
		Game:    &models.Game{ID: "g1", Config: models.DefaultConfig()},
		Players: make(map[string]*models.Player),
	}
	for _, p := range players {
		t.Players[p.ID] = p
		t.Order = append(t.Order, p.ID)
	}
	return t
}

func totalBalance(t *state.Table) int {
	sum := 0
	for _, p := range t.Players {
		sum += p.Balance
	}
	return sum
}

func TestTransfer(t *testing.T) {
	tbl := newTable(
		&models.Player{ID: "a", Name: "Ada", Balance: 1500},
		&models.Player{ID: "b", Name: "Ben", Balance: 1500},
	)
	before := totalBalance(tbl)

	require.NoError(t, Transfer(tbl, "a", "b", 300, false))

	assert.Equal(t, 1200, tbl.Players["a"].Balance)
	assert.Equal(t, 1800, tbl.Players["b"].Balance)
	assert.Equal(t, before, totalBalance(tbl))
	require.Len(t, tbl.Game.History, 1)
	assert.Equal(t, models.HistoryTransaction, tbl.Game.History[0].Type)
}

func TestTransferQuiet(t *testing.T) {
	tbl := newTable(
		&models.Player{ID: "a", Balance: 500},
		&models.Player{ID: "b", Balance: 500},
	)
	require.NoError(t, Transfer(tbl, "a", "b", 100, true))
	assert.Empty(t, tbl.Game.History)
}

func TestTransferRejections(t *testing.T) {
	tbl := newTable(
		&models.Player{ID: "a", Balance: 100},
		&models.Player{ID: "b", Balance: 100},
	)

	assert.ErrorIs(t, Transfer(tbl, "a", "b", 0, false), ErrInvalidAmount)
	assert.ErrorIs(t, Transfer(tbl, "a", "b", -5, false), ErrInvalidAmount)
	assert.ErrorIs(t, Transfer(tbl, "a", "a", 50, false), ErrSamePlayer)
	assert.ErrorIs(t, Transfer(tbl, "a", "ghost", 50, false), state.ErrUnknownPlayer)
	assert.ErrorIs(t, Transfer(tbl, "a", "b", 101, false), ErrInsufficientFunds)

	// Nothing moved.
	assert.Equal(t, 100, tbl.Players["a"].Balance)
	assert.Equal(t, 100, tbl.Players["b"].Balance)
	assert.Empty(t, tbl.Game.History)
}

func TestAdjustBalanceClampsAtZero(t *testing.T) {
	tbl := newTable(&models.Player{ID: "a", Balance: 80})

	require.NoError(t, AdjustBalance(tbl, "a", -200))
	assert.Equal(t, 0, tbl.Players["a"].Balance)

	require.NoError(t, AdjustBalance(tbl, "a", 50))
	assert.Equal(t, 50, tbl.Players["a"].Balance)
}

func TestAddProperty(t *testing.T) {
	tbl := newTable(&models.Player{ID: "a", Name: "Ada", Balance: 1500})

	require.NoError(t, AddProperty(tbl, "a", "North Line"))

	p := tbl.Players["a"]
	assert.Equal(t, 1300, p.Balance)
	require.Len(t, p.Properties, 1)
	rec := p.Properties[0]
	assert.Equal(t, "North Line", rec.Name)
	assert.Equal(t, 0, rec.Houses)
	assert.False(t, rec.Hotel)
	assert.False(t, rec.Mortgaged)
}

func TestAddPropertyAlreadyOwned(t *testing.T) {
	tbl := newTable(
		&models.Player{ID: "a", Balance: 1500},
		&models.Player{ID: "b", Balance: 1500, Properties: []models.PropertyRecord{{Name: "Boardwalk"}}},
	)
	assert.ErrorIs(t, AddProperty(tbl, "a", "Boardwalk"), ErrAlreadyOwned)
	assert.Equal(t, 1500, tbl.Players["a"].Balance)
}

func TestAddPropertyInsufficientFunds(t *testing.T) {
	tbl := newTable(&models.Player{ID: "a", Balance: 100})
	assert.ErrorIs(t, AddProperty(tbl, "a", "Boardwalk"), ErrInsufficientFunds)
	assert.Empty(t, tbl.Players["a"].Properties)
}

func TestRemovePropertyRefundsBuildings(t *testing.T) {
	tbl := newTable(&models.Player{ID: "a", Balance: 0, Properties: []models.PropertyRecord{
		{Name: "Boardwalk", Houses: 3},
	}})

	require.NoError(t, RemoveProperty(tbl, "a", "Boardwalk"))

	// 400 list price + 3 houses at 200.
	assert.Equal(t, 1000, tbl.Players["a"].Balance)
	assert.Empty(t, tbl.Players["a"].Properties)
}

func TestRemovePropertyNotOwnedIsNoOp(t *testing.T) {
	tbl := newTable(&models.Player{ID: "a", Balance: 100})
	require.NoError(t, RemoveProperty(tbl, "a", "Boardwalk"))
	assert.Equal(t, 100, tbl.Players["a"].Balance)
}

func TestMoveProperty(t *testing.T) {
	tbl := newTable(
		&models.Player{ID: "a", Properties: []models.PropertyRecord{{Name: "Boardwalk", Houses: 2, Mortgaged: true}}},
		&models.Player{ID: "b"},
	)

	require.NoError(t, MoveProperty(tbl, "a", "b", "Boardwalk"))

	assert.Empty(t, tbl.Players["a"].Properties)
	require.Len(t, tbl.Players["b"].Properties, 1)
	rec := tbl.Players["b"].Properties[0]
	assert.Equal(t, 2, rec.Houses)
	assert.True(t, rec.Mortgaged)

	// Source no longer holds it: silently tolerated.
	require.NoError(t, MoveProperty(tbl, "a", "b", "Boardwalk"))
	assert.Len(t, tbl.Players["b"].Properties, 1)
}

func TestPropertySingleOwnerInvariant(t *testing.T) {
	tbl := newTable(
		&models.Player{ID: "a", Balance: 1500},
		&models.Player{ID: "b", Balance: 1500},
	)
	require.NoError(t, AddProperty(tbl, "a", "Park Place"))
	require.ErrorIs(t, AddProperty(tbl, "b", "Park Place"), ErrAlreadyOwned)

	owners := 0
	for _, p := range tbl.Players {
		if p.OwnsProperty("Park Place") {
			owners++
		}
	}
	assert.Equal(t, 1, owners)
}
