package board

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByNameAndPosition(t *testing.T) {
	def, err := ByName("Boardwalk")
	require.NoError(t, err)
	assert.Equal(t, 39, def.Position)
	assert.Equal(t, 400, def.Price)
	assert.Equal(t, []int{50, 200, 600, 1400, 1700, 2000}, def.Rent)

	_, err = ByName("Atlantis Avenue")
	assert.ErrorIs(t, err, ErrNotFound)

	def, ok := ByPosition(5)
	require.True(t, ok)
	assert.Equal(t, "North Line", def.Name)

	// Chance, chest, tax and corner squares are not purchasable.
	_, ok = ByPosition(GoPosition)
	assert.False(t, ok)
	_, ok = ByPosition(GoToJailPosition)
	assert.False(t, ok)
}

func TestBuildable(t *testing.T) {
	street, _ := ByName("Boardwalk")
	railroad, _ := ByName("North Line")
	utility, _ := ByName("Electric Company")

	assert.True(t, street.Buildable())
	assert.False(t, railroad.Buildable())
	assert.False(t, utility.Buildable())
}

func TestGroupMembers(t *testing.T) {
	assert.Len(t, GroupMembers(GroupRailroad), 4)
	assert.Len(t, GroupMembers(GroupUtility), 2)
	assert.Len(t, GroupMembers("brown"), 2)
	assert.Len(t, GroupMembers("orange"), 3)
	assert.Empty(t, GroupMembers("chartreuse"))
}

func TestNearestInGroupWraps(t *testing.T) {
	def, ok := NearestInGroup(7, GroupRailroad)
	require.True(t, ok)
	assert.Equal(t, "East Line", def.Name)

	// Walking forward from the last railroad wraps past GO.
	def, ok = NearestInGroup(36, GroupRailroad)
	require.True(t, ok)
	assert.Equal(t, "North Line", def.Name)

	// The search is exclusive of the starting square.
	def, ok = NearestInGroup(12, GroupUtility)
	require.True(t, ok)
	assert.Equal(t, "Water Works", def.Name)

	_, ok = NearestInGroup(0, "chartreuse")
	assert.False(t, ok)
}

func TestHousePoolMatchesBuildableStreets(t *testing.T) {
	streets := 0
	for _, def := range Properties() {
		if def.Buildable() {
			streets++
		}
	}
	assert.Equal(t, 22, streets)
	assert.Equal(t, 32, HouseCap)
	assert.Equal(t, 12, HotelCap)
}

func TestDecksLoad(t *testing.T) {
	chance := Deck(DeckChance)
	chest := Deck(DeckChest)
	require.NotEmpty(t, chance)
	require.NotEmpty(t, chest)

	known := map[string]bool{
		EffectBankCredit: true, EffectBankDebit: true,
		EffectCollectEach: true, EffectPayEach: true,
		EffectMoveTo: true, EffectMoveNearest: true, EffectMoveBack: true,
		EffectGoToJail: true, EffectJailCard: true, EffectRepairs: true,
	}
	for _, card := range append(chance, chest...) {
		assert.NotEmpty(t, card.Text)
		assert.True(t, known[card.Effect.Kind], "unknown effect kind %q", card.Effect.Kind)
	}
}

func TestDraw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	card, ok := Draw(DeckChance, rng)
	require.True(t, ok)
	assert.NotEmpty(t, card.Text)

	_, ok = Draw("tarot", rng)
	assert.False(t, ok)
}
