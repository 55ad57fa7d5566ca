package board

import (
	_ "embed"
	"encoding/json"
	"math/rand"
	"sync"
)

const (
	DeckChance = "chance"
	DeckChest  = "chest"
)

// Card effect kinds. The set is closed; interpreters switch exhaustively
// over it instead of sniffing payload fields.
const (
	EffectBankCredit  = "bank-credit"
	EffectBankDebit   = "bank-debit"
	EffectCollectEach = "collect-each"
	EffectPayEach     = "pay-each"
	EffectMoveTo      = "move-to"
	EffectMoveNearest = "move-nearest"
	EffectMoveBack    = "move-back"
	EffectGoToJail    = "go-to-jail"
	EffectJailCard    = "jail-card"
	EffectRepairs     = "repairs"
)

// CardEffect carries only the fields its kind needs; the rest stay zero.
type CardEffect struct {
	Kind      string `json:"kind"`
	Amount    int    `json:"amount,omitempty"`
	Position  int    `json:"position,omitempty"`
	CollectGo bool   `json:"collectGo,omitempty"`
	Group     string `json:"group,omitempty"`
	Spaces    int    `json:"spaces,omitempty"`
	PerHouse  int    `json:"perHouse,omitempty"`
	PerHotel  int    `json:"perHotel,omitempty"`
}

type Card struct {
	Text   string     `json:"text"`
	Effect CardEffect `json:"effect"`
}

//go:embed cards.json
var cardsJSON []byte

var (
	decksOnce sync.Once
	decks     map[string][]Card
)

func loadDecks() {
	decksOnce.Do(func() {
		if err := json.Unmarshal(cardsJSON, &decks); err != nil {
			panic(err)
		}
	})
}

// Deck returns the full card pool for a deck type.
func Deck(deckType string) []Card {
	loadDecks()
	return decks[deckType]
}

// Draw picks uniformly at random from the deck's card pool.
func Draw(deckType string, rng *rand.Rand) (Card, bool) {
	loadDecks()
	pool := decks[deckType]
	if len(pool) == 0 {
		return Card{}, false
	}
	return pool[rng.Intn(len(pool))], true
}
