package queries

import (
	"errors"
	"time"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/pkg"
	"github.com/go-pg/pg/v10"
	uuid "github.com/satori/go.uuid"
)

const joinCodeLength = 5

var ErrNoCode = errors.New("could not allocate a join code")

// CreateGameRow registers a lobby and allocates its join code with a
// generate-and-check loop: a code maps to at most one live game at a time.
func CreateGameRow(hostID string, db *pg.DB) (*models.GameRow, error) {
	for attempts := 0; attempts < 50; attempts++ {
		code := pkg.RandCode(joinCodeLength)
		exists, err := db.Model((*models.GameRow)(nil)).
			Where("code = ? and status != ?", code, models.StatusEnded).
			Exists()
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		row := &models.GameRow{
			Id:        uuid.NewV4().String(),
			Code:      code,
			HostId:    hostID,
			Status:    models.StatusLobby,
			CreatedAt: time.Now(),
		}
		if _, err := db.Model(row).Insert(); err != nil {
			return nil, err
		}
		return row, nil
	}
	return nil, ErrNoCode
}

func FindGameByCode(code string, db *pg.DB) (*models.GameRow, error) {
	row := new(models.GameRow)
	err := db.Model(row).
		Where("code = ? and status != ?", code, models.StatusEnded).
		Select()
	if err != nil {
		return nil, err
	}
	return row, nil
}

func SetGameStatus(id, status string, db *pg.DB) error {
	row := &models.GameRow{Id: id}
	_, err := db.Model(row).WherePK().Set("status = ?", status).Update()
	return err
}

func CreatePlayerRow(row models.PlayerRow, db *pg.DB) error {
	_, err := db.Model(&row).Insert()
	return err
}

func DeletePlayerRow(userID, gameID string, db *pg.DB) error {
	row := new(models.PlayerRow)
	_, err := db.Model(row).Where("user_id = ? and game_id = ?", userID, gameID).Delete()
	return err
}

func GetUserData(userID string, db *pg.DB) (*models.User, error) {
	user := &models.User{Id: userID}
	if err := db.Model(user).WherePK().Select(); err != nil {
		return nil, err
	}
	return user, nil
}
