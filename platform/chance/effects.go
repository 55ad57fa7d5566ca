package chance

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/board"
	"github.com/MedicD21/monopoly-banker/platform/ledger"
	"github.com/MedicD21/monopoly-banker/platform/rules"
	"github.com/MedicD21/monopoly-banker/platform/state"
)

// DrawCard picks uniformly from the deck's fixed pool.
func DrawCard(deckType string, rng *rand.Rand) (board.Card, error) {
	card, ok := board.Draw(deckType, rng)
	if !ok {
		return board.Card{}, fmt.Errorf("unknown deck %q", deckType)
	}
	return card, nil
}

// Landing reports where a movement effect left the player, for the caller
// to surface a purchase prompt when the space is unowned. ShouldAuction is
// set when the unowned-landing auction toggle is on; the session layer
// starts the auction, since the countdown lives there.
type Landing struct {
	PropertyName  string
	OwnerID       string
	RentPaid      int
	CanBuy        bool
	ShouldAuction bool
}

// ApplyCardEffect interprets a drawn card against the ledger. The effect
// kinds form a closed set; anything unknown is an error, not a no-op.
func ApplyCardEffect(t *state.Table, playerID string, card board.Card, rng *rand.Rand) (*Landing, error) {
	p, err := t.Player(playerID)
	if err != nil {
		return nil, err
	}
	e := card.Effect
	switch e.Kind {
	case board.EffectBankCredit:
		p.Balance += e.Amount
		ledger.AppendHistory(t, models.HistoryTransaction, p.Name,
			fmt.Sprintf("%s collected $%d: %s", p.Name, e.Amount, card.Text))
		return nil, nil

	case board.EffectBankDebit:
		debited := debitClamped(t, p, e.Amount)
		ledger.AppendHistory(t, models.HistoryTax, p.Name,
			fmt.Sprintf("%s paid $%d: %s", p.Name, debited, card.Text))
		return nil, nil

	case board.EffectCollectEach:
		total := 0
		for _, other := range t.PlayersInOrder() {
			if other.ID == playerID || other.IsBankrupt {
				continue
			}
			actual := e.Amount
			if actual > other.Balance {
				actual = other.Balance
			}
			other.Balance -= actual
			total += actual
		}
		p.Balance += total
		ledger.AppendHistory(t, models.HistoryTransaction, p.Name,
			fmt.Sprintf("%s collected $%d from the other players", p.Name, total))
		return nil, nil

	case board.EffectPayEach:
		for _, other := range t.PlayersInOrder() {
			if other.ID == playerID || other.IsBankrupt {
				continue
			}
			actual := e.Amount
			if actual > p.Balance {
				actual = p.Balance
			}
			p.Balance -= actual
			other.Balance += actual
		}
		ledger.AppendHistory(t, models.HistoryTransaction, p.Name,
			fmt.Sprintf("%s paid each player $%d", p.Name, e.Amount))
		return nil, nil

	case board.EffectMoveTo:
		advanceTo(t, p, e.Position, e.CollectGo)
		ledger.AppendHistory(t, models.HistoryDice, p.Name, card.Text)
		return landingAt(t, p), nil

	case board.EffectMoveNearest:
		def, ok := board.NearestInGroup(p.Position, e.Group)
		if !ok {
			return nil, fmt.Errorf("no %s property on the board", e.Group)
		}
		advanceTo(t, p, def.Position, true)
		ledger.AppendHistory(t, models.HistoryDice, p.Name, card.Text)
		landing := landingAt(t, p)
		if landing != nil && landing.OwnerID != "" && landing.OwnerID != playerID {
			// Rent resolves against a contemporaneous roll for utilities.
			rollTotal := rng.Intn(6) + rng.Intn(6) + 2
			if t.Game.LastDiceRoll != nil {
				rollTotal = t.Game.LastDiceRoll.Total
			}
			paid, err := settleForcedRent(t, playerID, landing.OwnerID, landing.PropertyName, rollTotal)
			if err != nil {
				return landing, err
			}
			landing.RentPaid = paid
		}
		return landing, nil

	case board.EffectMoveBack:
		p.Position = (p.Position - e.Spaces + board.BoardSize) % board.BoardSize
		ledger.AppendHistory(t, models.HistoryDice, p.Name, card.Text)
		// Moving backward never credits GO.
		return landingAt(t, p), nil

	case board.EffectGoToJail:
		p.Position = board.JailPosition
		p.InJail = true
		p.DoublesCount = 0
		ledger.AppendHistory(t, models.HistoryDice, p.Name,
			fmt.Sprintf("%s was sent to jail", p.Name))
		return nil, nil

	case board.EffectJailCard:
		p.GetOutOfJailFree++
		ledger.AppendHistory(t, models.HistoryTransaction, p.Name,
			fmt.Sprintf("%s received a get-out-of-jail-free card", p.Name))
		return nil, nil

	case board.EffectRepairs:
		cost := 0
		for _, rec := range p.Properties {
			cost += rec.Houses * e.PerHouse
			if rec.Hotel {
				cost += e.PerHotel
			}
		}
		debited := debitClamped(t, p, cost)
		ledger.AppendHistory(t, models.HistoryTax, p.Name,
			fmt.Sprintf("%s paid $%d for repairs", p.Name, debited))
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown card effect %q", e.Kind)
	}
}

// settleForcedRent charges rent for a landing the player did not choose.
// The amount clamps at the payer's balance like the other forced debits: the
// move already happened, so the settlement must not fail and leave the board
// state half applied. Returns what was actually paid.
func settleForcedRent(t *state.Table, payerID, ownerID, propertyName string, rollTotal int) (int, error) {
	rent, err := rules.CalculateRent(t, ownerID, propertyName)
	if errors.Is(err, rules.ErrNeedsDiceRoll) {
		rent, err = rules.UtilityRent(t, ownerID, rollTotal)
	}
	if err != nil {
		return 0, err
	}
	payer, err := t.Player(payerID)
	if err != nil {
		return 0, err
	}
	if rent > payer.Balance {
		rent = payer.Balance
	}
	if rent == 0 {
		return 0, nil
	}
	if err := ledger.Transfer(t, payerID, ownerID, rent, false); err != nil {
		return 0, err
	}
	return rent, nil
}

// debitClamped debits up to amount against the bank, feeding the free
// parking pool when the jackpot is enabled. Returns what was actually taken.
func debitClamped(t *state.Table, p *models.Player, amount int) int {
	actual := amount
	if actual > p.Balance {
		actual = p.Balance
	}
	p.Balance -= actual
	if t.Game.Config.FreeParkingJackpot {
		t.Game.FreeParkingBalance += actual
	}
	return actual
}

// landingAt describes the purchasable property under the player, if any.
func landingAt(t *state.Table, p *models.Player) *Landing {
	def, ok := board.ByPosition(p.Position)
	if !ok {
		return nil
	}
	landing := &Landing{PropertyName: def.Name}
	if owner, _ := t.FindOwner(def.Name); owner != nil {
		landing.OwnerID = owner.ID
	} else {
		landing.CanBuy = true
		landing.ShouldAuction = t.Game.Config.AuctionOnUnowned
	}
	return landing
}
