// Package ledger implements the atomic money and ownership primitives. The
// bank is an untracked sink/source: payments to it debit a player with no
// matching credit anywhere.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/board"
	"github.com/MedicD21/monopoly-banker/platform/state"
	uuid "github.com/satori/go.uuid"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSamePlayer        = errors.New("cannot transfer to yourself")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyOwned      = errors.New("property is already owned")
)

// AppendHistory appends an entry to the shared event log. The log is
// append-only; display order is the caller's concern.
func AppendHistory(t *state.Table, entryType, actor, message string) {
	t.Game.History = append(t.Game.History, models.HistoryEntry{
		ID:        uuid.NewV4().String(),
		Type:      entryType,
		Message:   message,
		Actor:     actor,
		CreatedAt: time.Now(),
	})
	t.Game.LastActivity = time.Now()
}

// AdjustBalance applies a delta against the bank. The balance floors at
// zero: overdraft is clamped, not rejected, so callers that want insolvency
// to block an action must pre-check affordability.
func AdjustBalance(t *state.Table, playerID string, delta int) error {
	p, err := t.Player(playerID)
	if err != nil {
		return err
	}
	p.Balance += delta
	if p.Balance < 0 {
		p.Balance = 0
	}
	return nil
}

// Transfer moves money between two players. Unlike AdjustBalance it never
// clamps: affordability is validated up front and the exact amount moves.
// quiet suppresses the history entry (trade settlement logs its own summary).
func Transfer(t *state.Table, fromID, toID string, amount int, quiet bool) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSamePlayer
	}
	from, err := t.Player(fromID)
	if err != nil {
		return err
	}
	to, err := t.Player(toID)
	if err != nil {
		return err
	}
	if from.Balance < amount {
		return ErrInsufficientFunds
	}
	from.Balance -= amount
	to.Balance += amount
	if !quiet {
		AppendHistory(t, models.HistoryTransaction, from.Name,
			fmt.Sprintf("%s paid %s $%d", from.Name, to.Name, amount))
	}
	return nil
}

// AddProperty sells an unowned property to the player at list price.
func AddProperty(t *state.Table, playerID, propertyName string) error {
	def, err := board.ByName(propertyName)
	if err != nil {
		return err
	}
	if owner, _ := t.FindOwner(propertyName); owner != nil {
		return ErrAlreadyOwned
	}
	p, err := t.Player(playerID)
	if err != nil {
		return err
	}
	if p.Balance < def.Price {
		return ErrInsufficientFunds
	}
	p.Balance -= def.Price
	p.Properties = append(p.Properties, models.PropertyRecord{Name: def.Name})
	AppendHistory(t, models.HistoryProperty, p.Name,
		fmt.Sprintf("%s bought %s for $%d", p.Name, def.Name, def.Price))
	return nil
}

// RemoveProperty sells a holding back to the bank, refunding list price plus
// buildings at cost. Silently a no-op when the player does not hold it, so
// stale intents racing a remote snapshot stay harmless.
func RemoveProperty(t *state.Table, playerID, propertyName string) error {
	p, err := t.Player(playerID)
	if err != nil {
		return err
	}
	rec := p.FindProperty(propertyName)
	if rec == nil {
		return nil
	}
	def, err := board.ByName(propertyName)
	if err != nil {
		return err
	}
	refund := def.Price + rec.Houses*def.HouseCost
	if rec.Hotel {
		refund += def.HouseCost
	}
	p.DropProperty(propertyName)
	p.Balance += refund
	AppendHistory(t, models.HistoryProperty, p.Name,
		fmt.Sprintf("%s returned %s to the bank for $%d", p.Name, def.Name, refund))
	return nil
}

// MoveProperty reassigns a holding between players, preserving its record
// state. No-op when the source no longer holds it.
func MoveProperty(t *state.Table, fromID, toID, propertyName string) error {
	from, err := t.Player(fromID)
	if err != nil {
		return err
	}
	to, err := t.Player(toID)
	if err != nil {
		return err
	}
	rec := from.FindProperty(propertyName)
	if rec == nil {
		return nil
	}
	moved := *rec
	from.DropProperty(propertyName)
	to.Properties = append(to.Properties, moved)
	return nil
}
