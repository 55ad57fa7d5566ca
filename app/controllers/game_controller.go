package controllers

import (
	"time"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/database"
	"github.com/MedicD21/monopoly-banker/platform/queries"
	"github.com/gofiber/fiber/v2"
	uuid "github.com/satori/go.uuid"
)

type createGameDto struct {
	HostId string             `json:"hostId"`
	Config *models.GameConfig `json:"config"`
}

// CreateGame registers the lobby in the registry, writes the initial game
// document to the shared store, and opens its session.
func CreateGame(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	dto := new(createGameDto)
	if err := c.BodyParser(dto); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	row, err := queries.CreateGameRow(dto.HostId, db)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	gameConfig := models.DefaultConfig()
	if dto.Config != nil {
		gameConfig = *dto.Config
	}
	game := &models.Game{
		ID:           row.Id,
		Code:         row.Code,
		HostID:       dto.HostId,
		Status:       models.StatusLobby,
		Config:       gameConfig,
		CreatedAt:    row.CreatedAt,
		LastActivity: row.CreatedAt,
	}
	if _, err := sessions.Create(c.Context(), game); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(fiber.Map{"id": game.ID, "code": game.Code})
}

func VerifyGame(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	dto := new(models.VerifyGameDto)
	if err := c.QueryParser(dto); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	row, err := queries.FindGameByCode(dto.Code, db)
	if err != nil {
		return c.JSON(fiber.Map{"status": false})
	}
	return c.JSON(fiber.Map{"status": true, "id": row.Id})
}

type joinGameDto struct {
	Code    string `json:"code"`
	UserId  string `json:"userId"`
	Name    string `json:"name"`
	PieceId string `json:"pieceId"`
	Color   string `json:"color"`
}

// JoinGame seats a player: registry row for the lobby, player document with
// the configured starting balance in the shared store.
func JoinGame(c *fiber.Ctx) error {
	db := database.PostgreSQLConnection()
	defer db.Close()

	dto := new(joinGameDto)
	if err := c.BodyParser(dto); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	row, err := queries.FindGameByCode(dto.Code, db)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "invalid join code"})
	}

	sess, err := sessions.Open(c.Context(), row.Id)
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	playerID := dto.UserId
	if playerID == "" {
		playerID = uuid.NewV4().String()
	}
	// Guests have no user row; premium stays off for them.
	isPro := false
	if user, err := queries.GetUserData(playerID, db); err == nil {
		isPro = user.IsPro
	}
	if err := queries.CreatePlayerRow(models.PlayerRow{
		Id:      uuid.NewV4().String(),
		GameId:  row.Id,
		UserId:  playerID,
		Name:    dto.Name,
		PieceId: dto.PieceId,
		Color:   dto.Color,
	}, db); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	game, players := sess.State.Snapshot()
	player := &models.Player{
		ID:          playerID,
		Name:        dto.Name,
		PieceID:     dto.PieceId,
		Color:       dto.Color,
		Balance:     game.Config.StartingBalance,
		IsConnected: true,
		LastSeen:    time.Now(),
		Order:       len(players),
		IsPro:       isPro,
	}
	if err := sess.JoinPlayer(player); err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.JSON(fiber.Map{"gameId": row.Id, "playerId": playerID})
}
