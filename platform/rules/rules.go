// Package rules covers monopoly detection, rent computation, buildings and
// mortgages on top of the ledger primitives.
package rules

import (
	"errors"
	"fmt"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/board"
	"github.com/MedicD21/monopoly-banker/platform/ledger"
	"github.com/MedicD21/monopoly-banker/platform/state"
)

var (
	ErrNoMonopoly       = errors.New("you need the full color group to build")
	ErrMortgaged        = errors.New("property is mortgaged")
	ErrNotMortgaged     = errors.New("property is not mortgaged")
	ErrSupplyExhausted  = errors.New("the bank is out of buildings")
	ErrMaxHouses        = errors.New("maximum of 4 houses per property")
	ErrHotelNeedsHouses = errors.New("a hotel requires exactly 4 houses")
	ErrHotelPresent     = errors.New("property already has a hotel")
	ErrHasBuildings     = errors.New("sell the buildings first")
	ErrNotOwned         = errors.New("you do not own this property")
	ErrNothingToSell    = errors.New("no buildings to sell")
	ErrNotBuildable     = errors.New("railroads and utilities cannot be built on")
	ErrNeedsDiceRoll    = errors.New("utility rent depends on a dice roll")
)

// HasMonopoly reports whether the player owns the full color group of the
// named property. Railroads and utilities never form a monopoly.
func HasMonopoly(t *state.Table, playerID, propertyName string) bool {
	def, err := board.ByName(propertyName)
	if err != nil {
		return false
	}
	if !def.Buildable() {
		return false
	}
	p, err := t.Player(playerID)
	if err != nil {
		return false
	}
	for _, member := range board.GroupMembers(def.Group) {
		if !p.OwnsProperty(member.Name) {
			return false
		}
	}
	return true
}

// HousesInUse sums houses currently standing across all players. The supply
// is computed, not tracked: a hotel's four converted houses return to the
// pool automatically.
func HousesInUse(t *state.Table) int {
	n := 0
	for _, p := range t.Players {
		for _, rec := range p.Properties {
			n += rec.Houses
		}
	}
	return n
}

func HotelsInUse(t *state.Table) int {
	n := 0
	for _, p := range t.Players {
		for _, rec := range p.Properties {
			if rec.Hotel {
				n++
			}
		}
	}
	return n
}

func ownedRecord(t *state.Table, playerID, propertyName string) (*models.Player, *models.PropertyRecord, board.PropertyDefinition, error) {
	def, err := board.ByName(propertyName)
	if err != nil {
		return nil, nil, def, err
	}
	p, err := t.Player(playerID)
	if err != nil {
		return nil, nil, def, err
	}
	rec := p.FindProperty(propertyName)
	if rec == nil {
		return nil, nil, def, ErrNotOwned
	}
	return p, rec, def, nil
}

// AddHouse checks, in order: monopoly, mortgage, per-property maximum,
// global supply, affordability.
func AddHouse(t *state.Table, playerID, propertyName string) error {
	p, rec, def, err := ownedRecord(t, playerID, propertyName)
	if err != nil {
		return err
	}
	if !def.Buildable() {
		return ErrNotBuildable
	}
	if !HasMonopoly(t, playerID, propertyName) {
		return ErrNoMonopoly
	}
	if rec.Mortgaged {
		return ErrMortgaged
	}
	if rec.Hotel {
		return ErrHotelPresent
	}
	if rec.Houses >= 4 {
		return ErrMaxHouses
	}
	if HousesInUse(t) >= board.HouseCap {
		return ErrSupplyExhausted
	}
	if p.Balance < def.HouseCost {
		return ledger.ErrInsufficientFunds
	}
	p.Balance -= def.HouseCost
	rec.Houses++
	ledger.AppendHistory(t, models.HistoryProperty, p.Name,
		fmt.Sprintf("%s built a house on %s", p.Name, def.Name))
	return nil
}

// AddHotel converts exactly 4 houses into a hotel; the houses go back to
// the shared pool.
func AddHotel(t *state.Table, playerID, propertyName string) error {
	p, rec, def, err := ownedRecord(t, playerID, propertyName)
	if err != nil {
		return err
	}
	if !def.Buildable() {
		return ErrNotBuildable
	}
	if !HasMonopoly(t, playerID, propertyName) {
		return ErrNoMonopoly
	}
	if rec.Mortgaged {
		return ErrMortgaged
	}
	if rec.Hotel {
		return ErrHotelPresent
	}
	if rec.Houses != 4 {
		return ErrHotelNeedsHouses
	}
	if HotelsInUse(t) >= board.HotelCap {
		return ErrSupplyExhausted
	}
	if p.Balance < def.HouseCost {
		return ledger.ErrInsufficientFunds
	}
	p.Balance -= def.HouseCost
	rec.Houses = 0
	rec.Hotel = true
	ledger.AppendHistory(t, models.HistoryProperty, p.Name,
		fmt.Sprintf("%s built a hotel on %s", p.Name, def.Name))
	return nil
}

// RemoveHouse sells one house back at half cost. Selling is always allowed;
// no monopoly or mortgage check.
func RemoveHouse(t *state.Table, playerID, propertyName string) error {
	p, rec, def, err := ownedRecord(t, playerID, propertyName)
	if err != nil {
		return err
	}
	if rec.Houses == 0 {
		return ErrNothingToSell
	}
	rec.Houses--
	p.Balance += def.HouseCost / 2
	ledger.AppendHistory(t, models.HistoryProperty, p.Name,
		fmt.Sprintf("%s sold a house on %s", p.Name, def.Name))
	return nil
}

// RemoveHotel sells a hotel back at half cost, leaving the property bare.
func RemoveHotel(t *state.Table, playerID, propertyName string) error {
	p, rec, def, err := ownedRecord(t, playerID, propertyName)
	if err != nil {
		return err
	}
	if !rec.Hotel {
		return ErrNothingToSell
	}
	rec.Hotel = false
	p.Balance += def.HouseCost / 2
	ledger.AppendHistory(t, models.HistoryProperty, p.Name,
		fmt.Sprintf("%s sold the hotel on %s", p.Name, def.Name))
	return nil
}

// MortgageValue is the immediate payout for mortgaging.
func MortgageValue(def board.PropertyDefinition) int {
	return def.Price / 2
}

// UnmortgageCost is the mortgage value plus 10% interest, rounded down.
func UnmortgageCost(def board.PropertyDefinition) int {
	half := def.Price / 2
	return half + half/10
}

func Mortgage(t *state.Table, playerID, propertyName string) error {
	p, rec, def, err := ownedRecord(t, playerID, propertyName)
	if err != nil {
		return err
	}
	if rec.Mortgaged {
		return ErrMortgaged
	}
	if rec.Houses > 0 || rec.Hotel {
		return ErrHasBuildings
	}
	rec.Mortgaged = true
	p.Balance += MortgageValue(def)
	ledger.AppendHistory(t, models.HistoryProperty, p.Name,
		fmt.Sprintf("%s mortgaged %s for $%d", p.Name, def.Name, MortgageValue(def)))
	return nil
}

func Unmortgage(t *state.Table, playerID, propertyName string) error {
	p, rec, def, err := ownedRecord(t, playerID, propertyName)
	if err != nil {
		return err
	}
	if !rec.Mortgaged {
		return ErrNotMortgaged
	}
	cost := UnmortgageCost(def)
	if p.Balance < cost {
		return ledger.ErrInsufficientFunds
	}
	p.Balance -= cost
	rec.Mortgaged = false
	ledger.AppendHistory(t, models.HistoryProperty, p.Name,
		fmt.Sprintf("%s unmortgaged %s for $%d", p.Name, def.Name, cost))
	return nil
}

func railroadsOwned(p *models.Player) int {
	n := 0
	for _, member := range board.GroupMembers(board.GroupRailroad) {
		if p.OwnsProperty(member.Name) {
			n++
		}
	}
	return n
}

func utilitiesOwned(p *models.Player) int {
	n := 0
	for _, member := range board.GroupMembers(board.GroupUtility) {
		if p.OwnsProperty(member.Name) {
			n++
		}
	}
	return n
}

// CalculateRent computes the rent the owner may charge for the named
// property. Utilities return ErrNeedsDiceRoll: their rent depends on a
// contemporaneous roll and is resolved with UtilityRent. Mortgaged
// properties collect nothing.
func CalculateRent(t *state.Table, ownerID, propertyName string) (int, error) {
	def, err := board.ByName(propertyName)
	if err != nil {
		return 0, err
	}
	owner, err := t.Player(ownerID)
	if err != nil {
		return 0, err
	}
	rec := owner.FindProperty(propertyName)
	if rec == nil {
		return 0, ErrNotOwned
	}
	if rec.Mortgaged {
		return 0, nil
	}
	switch def.Group {
	case board.GroupUtility:
		return 0, ErrNeedsDiceRoll
	case board.GroupRailroad:
		count := railroadsOwned(owner)
		if count > len(def.Rent) {
			count = len(def.Rent)
		}
		return def.Rent[count-1], nil
	default:
		if rec.Hotel {
			return def.Rent[5], nil
		}
		if rec.Houses > 0 {
			return def.Rent[rec.Houses], nil
		}
		if HasMonopoly(t, ownerID, propertyName) {
			return def.Rent[0] * 2, nil
		}
		return def.Rent[0], nil
	}
}

// UtilityRent resolves a utility's rent given the roll total: 4x with one
// utility owned, 10x with both.
func UtilityRent(t *state.Table, ownerID string, rollTotal int) (int, error) {
	owner, err := t.Player(ownerID)
	if err != nil {
		return 0, err
	}
	if utilitiesOwned(owner) >= 2 {
		return rollTotal * 10, nil
	}
	return rollTotal * 4, nil
}

// PayRent settles rent from payer to the property's current owner, using
// rollTotal to resolve utility rent. Paying rent to yourself, or on an
// unowned or mortgaged property, moves nothing. Returns the amount paid.
func PayRent(t *state.Table, payerID, propertyName string, rollTotal int) (int, error) {
	owner, _ := t.FindOwner(propertyName)
	if owner == nil || owner.ID == payerID {
		return 0, nil
	}
	rent, err := CalculateRent(t, owner.ID, propertyName)
	if errors.Is(err, ErrNeedsDiceRoll) {
		rent, err = UtilityRent(t, owner.ID, rollTotal)
	}
	if err != nil {
		return 0, err
	}
	if rent == 0 {
		return 0, nil
	}
	if err := ledger.Transfer(t, payerID, owner.ID, rent, false); err != nil {
		return 0, err
	}
	return rent, nil
}
