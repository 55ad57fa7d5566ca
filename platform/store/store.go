// Package store defines the shared remote store the synchronization layer
// writes through. Each game is one game document plus a player document per
// participant; writes to a single document are atomic and ordered, nothing
// more is guaranteed across documents.
package store

import (
	"context"
	"errors"

	"github.com/MedicD21/monopoly-banker/app/models"
)

var ErrNotFound = errors.New("document not found")

type EventKind string

const (
	EventGame   EventKind = "game"
	EventPlayer EventKind = "player"
)

// Event announces that a document changed. Subscribers reload the document
// and replace their local copy wholesale.
type Event struct {
	Kind     EventKind `json:"kind"`
	GameID   string    `json:"gameId"`
	PlayerID string    `json:"playerId,omitempty"`
}

type Store interface {
	SaveGame(ctx context.Context, g *models.Game) error
	LoadGame(ctx context.Context, gameID string) (*models.Game, error)
	SavePlayer(ctx context.Context, gameID string, p *models.Player) error
	LoadPlayer(ctx context.Context, gameID, playerID string) (*models.Player, error)
	LoadPlayers(ctx context.Context, gameID string) ([]*models.Player, error)
	DeleteGame(ctx context.Context, gameID string) error
	// Watch delivers change events for one game until ctx is done.
	Watch(ctx context.Context, gameID string) (<-chan Event, error)
	Close() error
}
