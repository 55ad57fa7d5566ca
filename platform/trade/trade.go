// Package trade implements the two-party offer protocol: propose, counter,
// accept, reject. One offer is in flight per game at a time.
package trade

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/ledger"
	"github.com/MedicD21/monopoly-banker/platform/state"
	uuid "github.com/satori/go.uuid"
)

var (
	ErrTradeInFlight = errors.New("another trade is already pending")
	ErrNoTrade       = errors.New("no pending trade")
	ErrWrongOffer    = errors.New("that offer is no longer current")
	ErrNotRecipient  = errors.New("this trade is not addressed to you")
	ErrSelfTrade     = errors.New("cannot trade with yourself")
	ErrCannotCover   = errors.New("offered money exceeds the offerer's balance")
	ErrTargetNoCover = errors.New("requested money exceeds the other player's balance")
)

// Apply runs a mutation against the session's table and pushes the named
// documents. Wired to session.Session.Mutate.
type Apply func(fn func(t *state.Table) error, touched ...string) error

// Terms are always expressed from the proposer's perspective: Offer* is
// what they give, Request* is what they want back.
type Terms struct {
	OfferMoney        int
	OfferProperties   []string
	OfferJailCards    int
	RequestMoney      int
	RequestProperties []string
	RequestJailCards  int
}

type Manager struct {
	apply Apply

	mu        sync.Mutex
	executing bool
}

func New(apply Apply) *Manager {
	return &Manager{apply: apply}
}

func buildOffer(fromID, toID string, terms Terms, counter bool) *models.TradeOffer {
	return &models.TradeOffer{
		ID:                uuid.NewV4().String(),
		FromID:            fromID,
		ToID:              toID,
		OfferMoney:        terms.OfferMoney,
		OfferProperties:   append([]string(nil), terms.OfferProperties...),
		OfferJailCards:    terms.OfferJailCards,
		RequestMoney:      terms.RequestMoney,
		RequestProperties: append([]string(nil), terms.RequestProperties...),
		RequestJailCards:  terms.RequestJailCards,
		IsCounterOffer:    counter,
		Status:            models.TradePending,
	}
}

func validateTerms(t *state.Table, fromID, toID string, terms Terms) error {
	if fromID == toID {
		return ErrSelfTrade
	}
	from, err := t.Player(fromID)
	if err != nil {
		return err
	}
	to, err := t.Player(toID)
	if err != nil {
		return err
	}
	// Affordability is checked against currently known balances; a remote
	// snapshot can still race this, which Execute tolerates.
	if from.Balance < terms.OfferMoney {
		return ErrCannotCover
	}
	if to.Balance < terms.RequestMoney {
		return ErrTargetNoCover
	}
	return nil
}

// Propose creates the game's single pending offer.
func (m *Manager) Propose(fromID, toID string, terms Terms) (*models.TradeOffer, error) {
	var offer *models.TradeOffer
	err := m.apply(func(t *state.Table) error {
		if t.Game.TradeOffer != nil && t.Game.TradeOffer.Status == models.TradePending {
			return ErrTradeInFlight
		}
		if err := validateTerms(t, fromID, toID, terms); err != nil {
			return err
		}
		offer = buildOffer(fromID, toID, terms, false)
		t.Game.TradeOffer = offer
		return nil
	}, "game")
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Counter replaces the pending offer with a brand-new one from the
// recipient's perspective: roles swap and the terms are whatever the
// counterer now offers and requests. The original offer value is discarded,
// never mutated in place.
func (m *Manager) Counter(byPlayerID string, terms Terms) (*models.TradeOffer, error) {
	var offer *models.TradeOffer
	err := m.apply(func(t *state.Table) error {
		current := t.Game.TradeOffer
		if current == nil || current.Status != models.TradePending {
			return ErrNoTrade
		}
		if current.ToID != byPlayerID {
			return ErrNotRecipient
		}
		if err := validateTerms(t, byPlayerID, current.FromID, terms); err != nil {
			return err
		}
		offer = buildOffer(byPlayerID, current.FromID, terms, true)
		t.Game.TradeOffer = offer
		return nil
	}, "game")
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Accept executes the pending offer and clears it. Duplicate accept signals
// (network redelivery racing a concurrent reject) are swallowed by the
// executing guard.
func (m *Manager) Accept(offerID, byPlayerID string) error {
	m.mu.Lock()
	if m.executing {
		m.mu.Unlock()
		return nil
	}
	m.executing = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.executing = false
		m.mu.Unlock()
	}()

	var fromID, toID string
	err := m.apply(func(t *state.Table) error {
		current := t.Game.TradeOffer
		if current == nil || current.Status != models.TradePending {
			return ErrNoTrade
		}
		if current.ID != offerID {
			return ErrWrongOffer
		}
		if current.ToID != byPlayerID {
			return ErrNotRecipient
		}
		fromID = current.FromID
		toID = current.ToID
		return nil
	})
	if err != nil {
		return err
	}

	return m.apply(func(t *state.Table) error {
		current := t.Game.TradeOffer
		if current == nil || current.ID != offerID {
			return ErrNoTrade
		}
		if err := Execute(t, current); err != nil {
			return err
		}
		current.Status = models.TradeAccepted
		t.Game.TradeOffer = nil
		return nil
	}, "game", fromID, toID)
}

// Reject discards the pending offer without transferring anything.
func (m *Manager) Reject(offerID, byPlayerID string) error {
	return m.apply(func(t *state.Table) error {
		current := t.Game.TradeOffer
		if current == nil || current.Status != models.TradePending {
			return ErrNoTrade
		}
		if current.ID != offerID {
			return ErrWrongOffer
		}
		if current.ToID != byPlayerID && current.FromID != byPlayerID {
			return ErrNotRecipient
		}
		current.Status = models.TradeRejected
		t.Game.TradeOffer = nil
		return nil
	}, "game")
}

// Clear drops whatever offer is pending, no questions asked.
func (m *Manager) Clear() error {
	return m.apply(func(t *state.Table) error {
		t.Game.TradeOffer = nil
		return nil
	}, "game")
}

// Execute settles an offer: one directional transfer of the net money, each
// listed property moved (tolerating names that already left the holdings),
// jail-card counts adjusted by the net and floored at zero, then a single
// summary history entry. Also used directly in single-device games, where
// the async offer object is skipped.
func Execute(t *state.Table, offer *models.TradeOffer) error {
	from, err := t.Player(offer.FromID)
	if err != nil {
		return err
	}
	to, err := t.Player(offer.ToID)
	if err != nil {
		return err
	}

	net := offer.OfferMoney - offer.RequestMoney
	switch {
	case net > 0:
		if err := ledger.Transfer(t, offer.FromID, offer.ToID, net, true); err != nil {
			return err
		}
	case net < 0:
		if err := ledger.Transfer(t, offer.ToID, offer.FromID, -net, true); err != nil {
			return err
		}
	}

	for _, name := range offer.OfferProperties {
		if err := ledger.MoveProperty(t, offer.FromID, offer.ToID, name); err != nil {
			return err
		}
	}
	for _, name := range offer.RequestProperties {
		if err := ledger.MoveProperty(t, offer.ToID, offer.FromID, name); err != nil {
			return err
		}
	}

	cardNet := offer.OfferJailCards - offer.RequestJailCards
	from.GetOutOfJailFree -= cardNet
	if from.GetOutOfJailFree < 0 {
		from.GetOutOfJailFree = 0
	}
	to.GetOutOfJailFree += cardNet
	if to.GetOutOfJailFree < 0 {
		to.GetOutOfJailFree = 0
	}

	ledger.AppendHistory(t, models.HistoryTransaction, from.Name,
		fmt.Sprintf("%s and %s completed a trade", from.Name, to.Name))
	return nil
}
