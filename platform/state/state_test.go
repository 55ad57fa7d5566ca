package state

import (
	"testing"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateAndView(t *testing.T) {
	gs := New(&models.Game{ID: "g1"})
	gs.AddPlayer(&models.Player{ID: "p1", Balance: 1500})

	require.NoError(t, gs.Update(func(tb *Table) error {
		p, err := tb.Player("p1")
		if err != nil {
			return err
		}
		p.Balance -= 200
		return nil
	}))

	require.NoError(t, gs.View(func(tb *Table) error {
		p, err := tb.Player("p1")
		require.NoError(t, err)
		assert.Equal(t, 1300, p.Balance)
		return nil
	}))
}

func TestUnknownPlayer(t *testing.T) {
	gs := New(&models.Game{ID: "g1"})
	err := gs.Update(func(tb *Table) error {
		_, err := tb.Player("ghost")
		return err
	})
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestAddPlayerIsIdempotent(t *testing.T) {
	gs := New(&models.Game{ID: "g1"})
	gs.AddPlayer(&models.Player{ID: "p1", Balance: 100})
	gs.AddPlayer(&models.Player{ID: "p1", Balance: 999})

	p, ok := gs.Player("p1")
	require.True(t, ok)
	assert.Equal(t, 100, p.Balance)

	_, players := gs.Snapshot()
	assert.Len(t, players, 1)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	gs := New(&models.Game{ID: "g1"})
	gs.AddPlayer(&models.Player{ID: "p1", Balance: 100, Properties: []models.PropertyRecord{{Name: "Boardwalk"}}})

	game, players := gs.Snapshot()
	game.ID = "mangled"
	players[0].Balance = 0
	players[0].Properties[0].Houses = 5

	fresh, _ := gs.Snapshot()
	assert.Equal(t, "g1", fresh.ID)
	p, _ := gs.Player("p1")
	assert.Equal(t, 100, p.Balance)
	assert.Equal(t, 0, p.Properties[0].Houses)
}

func TestReplacePlayerSeatsNewcomers(t *testing.T) {
	gs := New(&models.Game{ID: "g1"})
	gs.AddPlayer(&models.Player{ID: "p1", Balance: 100})

	gs.ReplacePlayer(&models.Player{ID: "p1", Balance: 250})
	gs.ReplacePlayer(&models.Player{ID: "p2", Balance: 1500})

	p1, _ := gs.Player("p1")
	assert.Equal(t, 250, p1.Balance)

	require.NoError(t, gs.View(func(tb *Table) error {
		assert.Equal(t, []string{"p1", "p2"}, tb.Order)
		return nil
	}))
}

func TestFindOwner(t *testing.T) {
	gs := New(&models.Game{ID: "g1"})
	gs.AddPlayer(&models.Player{ID: "p1"})
	gs.AddPlayer(&models.Player{ID: "p2", Properties: []models.PropertyRecord{{Name: "Boardwalk", Houses: 2}}})

	require.NoError(t, gs.View(func(tb *Table) error {
		owner, rec := tb.FindOwner("Boardwalk")
		require.NotNil(t, owner)
		assert.Equal(t, "p2", owner.ID)
		assert.Equal(t, 2, rec.Houses)

		owner, _ = tb.FindOwner("Park Place")
		assert.Nil(t, owner)
		return nil
	}))
}
