// Package auction runs the timed bidding process for one game session.
// The countdown starts at 30 and snaps back to 15 on every accepted bid,
// giving the "going once, going twice" extension dynamic.
package auction

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/board"
	"github.com/MedicD21/monopoly-banker/platform/ledger"
	"github.com/MedicD21/monopoly-banker/platform/state"
	"github.com/sirupsen/logrus"
)

const (
	InitialCountdown = 30
	BidCountdown     = 15
)

var (
	ErrAlreadyOwned  = errors.New("property is already owned")
	ErrAlreadyActive = errors.New("an auction is already running")
	ErrNotActive     = errors.New("no auction is running")
	ErrDroppedOut    = errors.New("you dropped out of this auction")
	ErrBidTooLow     = errors.New("bid must beat the current highest bid")
	ErrBidTooRich    = errors.New("bid exceeds your balance")
	ErrNoBids        = errors.New("cannot end an auction with no bids")
)

// Apply runs a mutation against the session's table and pushes the named
// documents ("game" or a player id) to the shared store. Wired to
// session.Session.Mutate.
type Apply func(fn func(t *state.Table) error, touched ...string) error

// Result describes how an auction ended. Sold is false when it expired with
// zero bids and the property stays unowned.
type Result struct {
	PropertyName string
	WinnerID     string
	Amount       int
	Sold         bool
}

type Manager struct {
	apply Apply

	// TickInterval defaults to one second; tests shrink it.
	TickInterval time.Duration
	OnTick       func(remaining int)
	OnResolved   func(Result)

	mu        sync.Mutex
	remaining int
	stop      chan struct{}
	running   bool
}

func New(apply Apply) *Manager {
	return &Manager{apply: apply, TickInterval: time.Second}
}

// Start opens bidding on an unowned property and begins the countdown. Any
// previous countdown is cancelled first.
func (m *Manager) Start(propertyName, initiatorID string) error {
	def, err := board.ByName(propertyName)
	if err != nil {
		return err
	}
	err = m.apply(func(t *state.Table) error {
		if t.Game.Auction != nil && t.Game.Auction.Active {
			return ErrAlreadyActive
		}
		if owner, _ := t.FindOwner(propertyName); owner != nil {
			return ErrAlreadyOwned
		}
		t.Game.Auction = &models.AuctionState{
			Active:       true,
			PropertyName: def.Name,
			ListPrice:    def.Price,
			StartedBy:    initiatorID,
		}
		ledger.AppendHistory(t, models.HistoryAuction, "",
			fmt.Sprintf("%s is up for auction", def.Name))
		return nil
	}, "game")
	if err != nil {
		return err
	}
	m.startCountdown(InitialCountdown)
	return nil
}

// PlaceBid accepts a bid strictly above the current highest (the list is
// append-only and monotonic) and resets the countdown.
func (m *Manager) PlaceBid(playerID string, amount int) error {
	err := m.apply(func(t *state.Table) error {
		a := t.Game.Auction
		if a == nil || !a.Active {
			return ErrNotActive
		}
		if a.HasDropped(playerID) {
			return ErrDroppedOut
		}
		p, err := t.Player(playerID)
		if err != nil {
			return err
		}
		if amount > p.Balance {
			return ErrBidTooRich
		}
		high := 0
		if b := a.HighestBid(); b != nil {
			high = b.Amount
		}
		if amount <= high {
			return ErrBidTooLow
		}
		a.Bids = append(a.Bids, models.Bid{PlayerID: playerID, Amount: amount, At: time.Now()})
		return nil
	}, "game")
	if err != nil {
		return err
	}
	m.resetCountdown(BidCountdown)
	return nil
}

// DropOut is idempotent; a dropped player cannot bid again this auction.
func (m *Manager) DropOut(playerID string) error {
	return m.apply(func(t *state.Table) error {
		a := t.Game.Auction
		if a == nil || !a.Active {
			return ErrNotActive
		}
		if !a.HasDropped(playerID) {
			a.DroppedOut = append(a.DroppedOut, playerID)
		}
		return nil
	}, "game")
}

// EndNow resolves immediately; only allowed once at least one bid exists.
func (m *Manager) EndNow() error {
	var hasBids bool
	err := m.apply(func(t *state.Table) error {
		a := t.Game.Auction
		if a == nil || !a.Active {
			return ErrNotActive
		}
		hasBids = len(a.Bids) > 0
		return nil
	})
	if err != nil {
		return err
	}
	if !hasBids {
		return ErrNoBids
	}
	m.stopCountdown()
	return m.Resolve()
}

// Stop cancels the countdown and clears the auction without resolving,
// mirroring the auction modal being dismissed.
func (m *Manager) Stop() {
	m.stopCountdown()
	_ = m.apply(func(t *state.Table) error {
		t.Game.Auction = nil
		return nil
	}, "game")
}

// Resolve awards the property to the highest bidder at their bid price, or
// leaves it unowned when nobody bid. The winner is charged through the
// clamping balance adjustment: a bid that outran the player's funds still
// succeeds, paying only down to zero. That matches observed behavior and is
// deliberately not "fixed" here.
func (m *Manager) Resolve() error {
	// Peek the winner first so their document is included in the push set.
	var winnerID string
	err := m.apply(func(t *state.Table) error {
		a := t.Game.Auction
		if a == nil || !a.Active {
			return ErrNotActive
		}
		if b := a.HighestBid(); b != nil {
			winnerID = b.PlayerID
		}
		return nil
	})
	if err != nil {
		return err
	}

	touched := []string{"game"}
	if winnerID != "" {
		touched = append(touched, winnerID)
	}
	var result Result
	err = m.apply(func(t *state.Table) error {
		a := t.Game.Auction
		if a == nil || !a.Active {
			return ErrNotActive
		}
		result.PropertyName = a.PropertyName
		if b := a.HighestBid(); b != nil {
			winner, err := t.Player(b.PlayerID)
			if err != nil {
				return err
			}
			if err := ledger.AdjustBalance(t, b.PlayerID, -b.Amount); err != nil {
				return err
			}
			winner.Properties = append(winner.Properties, models.PropertyRecord{Name: a.PropertyName})
			result.WinnerID = b.PlayerID
			result.Amount = b.Amount
			result.Sold = true
			ledger.AppendHistory(t, models.HistoryAuction, winner.Name,
				fmt.Sprintf("%s won the auction for %s at $%d", winner.Name, a.PropertyName, b.Amount))
		} else {
			ledger.AppendHistory(t, models.HistoryAuction, "",
				fmt.Sprintf("auction for %s ended with no bids", a.PropertyName))
		}
		t.Game.Auction = nil
		return nil
	}, touched...)
	if err != nil {
		return err
	}
	if m.OnResolved != nil {
		m.OnResolved(result)
	}
	return nil
}

func (m *Manager) startCountdown(seconds int) {
	m.stopCountdown()
	m.mu.Lock()
	m.remaining = seconds
	m.stop = make(chan struct{})
	m.running = true
	stop := m.stop
	m.mu.Unlock()
	go m.run(stop)
}

func (m *Manager) resetCountdown(seconds int) {
	m.mu.Lock()
	if m.running {
		m.remaining = seconds
	}
	m.mu.Unlock()
}

func (m *Manager) stopCountdown() {
	m.mu.Lock()
	if m.running {
		close(m.stop)
		m.running = false
	}
	m.mu.Unlock()
}

func (m *Manager) run(stop chan struct{}) {
	ticker := time.NewTicker(m.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			m.remaining--
			remaining := m.remaining
			m.mu.Unlock()
			if m.OnTick != nil {
				m.OnTick(remaining)
			}
			if remaining <= 0 {
				m.mu.Lock()
				m.running = false
				m.mu.Unlock()
				if err := m.Resolve(); err != nil && !errors.Is(err, ErrNotActive) {
					logrus.WithError(err).Warn("auction countdown resolve failed")
				}
				return
			}
		}
	}
}
