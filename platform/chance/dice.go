// Package chance covers dice rolling with the doubles-streak jail rule and
// the card effect interpreter. Turn order itself is not enforced anywhere;
// this is bookkeeping, not a rules engine.
package chance

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/board"
	"github.com/MedicD21/monopoly-banker/platform/ledger"
	"github.com/MedicD21/monopoly-banker/platform/state"
)

type Roll struct {
	Dice        []int
	Total       int
	IsDouble    bool
	WentToJail  bool
	PassedGo    bool
	NewPosition int
}

func rollValues(t *state.Table, rng *rand.Rand) []int {
	n := 2
	if t.Game.Config.AlternateDice {
		n = 3
	}
	dice := make([]int, n)
	for i := range dice {
		dice[i] = rng.Intn(6) + 1
	}
	return dice
}

// RollDice rolls for a player and applies the movement bookkeeping.
func RollDice(t *state.Table, playerID string, rng *rand.Rand) (Roll, error) {
	return ApplyRoll(t, playerID, rollValues(t, rng))
}

// ApplyRoll applies an already-thrown set of dice. A third consecutive
// double sends the roller to jail instead of moving, resets their streak,
// and zeroes every other player's streak as well (a streak is only
// meaningful within the roller's own turn sequence). A non-double roll
// resets the roller's own streak.
func ApplyRoll(t *state.Table, playerID string, dice []int) (Roll, error) {
	p, err := t.Player(playerID)
	if err != nil {
		return Roll{}, err
	}

	roll := Roll{Dice: dice}
	for _, d := range dice {
		roll.Total += d
	}
	// With the alternate third die, the streak still keys off the two
	// standard dice.
	roll.IsDouble = dice[0] == dice[1]

	if roll.IsDouble {
		p.DoublesCount++
	} else {
		p.DoublesCount = 0
	}

	if roll.IsDouble && p.DoublesCount >= 3 {
		p.Position = board.JailPosition
		p.InJail = true
		p.DoublesCount = 0
		for _, other := range t.Players {
			if other.ID != playerID {
				other.DoublesCount = 0
			}
		}
		roll.WentToJail = true
		roll.NewPosition = board.JailPosition
		ledger.AppendHistory(t, models.HistoryDice, p.Name,
			fmt.Sprintf("%s rolled three doubles in a row and went to jail", p.Name))
	} else {
		roll.PassedGo = advance(t, p, roll.Total)
		roll.NewPosition = p.Position
		ledger.AppendHistory(t, models.HistoryDice, p.Name,
			fmt.Sprintf("%s rolled %d", p.Name, roll.Total))
	}

	t.Game.LastDiceRoll = &models.DiceRoll{
		PlayerID: playerID,
		Dice:     dice,
		Total:    roll.Total,
		IsDouble: roll.IsDouble,
		RolledAt: time.Now(),
	}
	return roll, nil
}

// advance moves a player forward, crediting the pass-GO amount on wrap
// (doubled on an exact GO landing when configured).
func advance(t *state.Table, p *models.Player, spaces int) bool {
	raw := p.Position + spaces
	p.Position = raw % board.BoardSize
	if raw < board.BoardSize {
		return false
	}
	amount := t.Game.Config.PassGoAmount
	if t.Game.Config.DoubleOnExactGo && p.Position == board.GoPosition {
		amount *= 2
	}
	p.Balance += amount
	ledger.AppendHistory(t, models.HistoryPassGo, p.Name,
		fmt.Sprintf("%s passed GO and collected $%d", p.Name, amount))
	return true
}

// advanceTo moves a player to an absolute position, treating a non-forward
// index as a wrap past GO.
func advanceTo(t *state.Table, p *models.Player, position int, collectGo bool) {
	wrapped := position <= p.Position
	p.Position = position
	if wrapped && collectGo {
		amount := t.Game.Config.PassGoAmount
		if t.Game.Config.DoubleOnExactGo && position == board.GoPosition {
			amount *= 2
		}
		p.Balance += amount
		ledger.AppendHistory(t, models.HistoryPassGo, p.Name,
			fmt.Sprintf("%s passed GO and collected $%d", p.Name, amount))
	}
}
