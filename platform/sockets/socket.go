package sockets

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/assistant"
	"github.com/MedicD21/monopoly-banker/platform/auction"
	"github.com/MedicD21/monopoly-banker/platform/chance"
	"github.com/MedicD21/monopoly-banker/platform/config"
	"github.com/MedicD21/monopoly-banker/platform/database"
	"github.com/MedicD21/monopoly-banker/platform/ledger"
	"github.com/MedicD21/monopoly-banker/platform/queries"
	"github.com/MedicD21/monopoly-banker/platform/rules"
	"github.com/MedicD21/monopoly-banker/platform/session"
	"github.com/MedicD21/monopoly-banker/platform/state"
	"github.com/MedicD21/monopoly-banker/platform/trade"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// JailFine is the flat payment to leave jail without a card.
const JailFine = 50

type snapshotPayload struct {
	Game    *models.Game     `json:"game"`
	Players []*models.Player `json:"players"`
}

type tradeDto struct {
	GameID            string   `json:"game_id"`
	PlayerID          string   `json:"player_id"`
	ToID              string   `json:"to_id"`
	OfferID           string   `json:"offer_id"`
	OfferMoney        int      `json:"offer_money"`
	OfferProperties   []string `json:"offer_properties"`
	OfferJailCards    int      `json:"offer_jail_cards"`
	RequestMoney      int      `json:"request_money"`
	RequestProperties []string `json:"request_properties"`
	RequestJailCards  int      `json:"request_jail_cards"`
}

func (d tradeDto) terms() trade.Terms {
	return trade.Terms{
		OfferMoney:        d.OfferMoney,
		OfferProperties:   d.OfferProperties,
		OfferJailCards:    d.OfferJailCards,
		RequestMoney:      d.RequestMoney,
		RequestProperties: d.RequestProperties,
		RequestJailCards:  d.RequestJailCards,
	}
}

func broadcastState(server *socketio.Server, sess *session.Session) {
	game, players := sess.State.Snapshot()
	payload, err := json.Marshal(snapshotPayload{Game: game, Players: players})
	if err != nil {
		logrus.WithError(err).Error("snapshot marshal failed")
		return
	}
	server.BroadcastToRoom("/", sess.GameID, "game-state", string(payload))
}

func emitErr(s socketio.Conn, err error) {
	s.Emit("error-message", err.Error())
}

// CreateSocketIOServer runs the realtime surface: client intents come in as
// events, mutate the session, and the authoritative snapshot goes back out
// to the whole room.
func CreateSocketIOServer(cfg config.Config, sessions *session.Manager) {
	server, err := socketio.NewServer(nil)
	if err != nil {
		panic(err)
	}
	db := database.PostgreSQLConnection()
	defer db.Close()

	// open loads (or reuses) the game session and wires the broadcast hooks.
	open := func(gameID string) (*session.Session, error) {
		sess, err := sessions.Open(context.Background(), gameID)
		if err != nil {
			return nil, err
		}
		if sess.OnChange == nil {
			sess.OnChange = func() { broadcastState(server, sess) }
			sess.Auction.OnTick = func(remaining int) {
				server.BroadcastToRoom("/", sess.GameID, "auction-tick", strconv.Itoa(remaining))
			}
			sess.Auction.OnResolved = func(result auction.Result) {
				payload, _ := json.Marshal(result)
				server.BroadcastToRoom("/", sess.GameID, "auction-resolved", string(payload))
			}
		}
		return sess, nil
	}

	current := func(s socketio.Conn, jsonStr string) (*session.Session, map[string]string, bool) {
		var result map[string]string
		if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
			emitErr(s, fmt.Errorf("bad payload"))
			return nil, nil, false
		}
		sess, err := open(result["game_id"])
		if err != nil {
			emitErr(s, fmt.Errorf("invalid game"))
			return nil, nil, false
		}
		return sess, result, true
	}

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		return nil
	})

	server.OnEvent("/", "join-game", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		err := sess.Mutate(func(t *state.Table) error {
			p, err := t.Player(playerID)
			if err != nil {
				return err
			}
			p.IsConnected = true
			p.LastSeen = time.Now()
			return nil
		}, playerID)
		if err != nil {
			emitErr(s, err)
			return
		}
		s.Join(sess.GameID)
		server.BroadcastToRoom("/", sess.GameID, "player-join", playerID)
		broadcastState(server, sess)
	})

	server.OnEvent("/", "leave-game", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		s.Leave(sess.GameID)
		_ = sess.Mutate(func(t *state.Table) error {
			p, err := t.Player(playerID)
			if err != nil {
				return err
			}
			p.IsConnected = false
			p.LastSeen = time.Now()
			return nil
		}, playerID)
		if err := queries.DeletePlayerRow(playerID, sess.GameID, db); err != nil {
			logrus.WithError(err).Warn("registry player delete failed")
		}
		server.BroadcastToRoom("/", sess.GameID, "player-left", playerID)
	})

	server.OnEvent("/", "start-game", func(s socketio.Conn, jsonStr string) {
		sess, _, ok := current(s, jsonStr)
		if !ok {
			return
		}
		err := sess.Mutate(func(t *state.Table) error {
			t.Game.Status = models.StatusPlaying
			return nil
		}, session.TouchGame)
		if err != nil {
			emitErr(s, err)
			return
		}
		if err := queries.SetGameStatus(sess.GameID, models.StatusPlaying, db); err != nil {
			logrus.WithError(err).Warn("registry status update failed")
		}
		server.BroadcastToRoom("/", sess.GameID, "game-start")
	})

	server.OnEvent("/", "roll-dice", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		var roll chance.Roll
		err := sess.Mutate(func(t *state.Table) error {
			var err error
			roll, err = chance.RollDice(t, playerID, rng)
			return err
		}, append([]string{session.TouchGame}, sess.PlayerIDs()...)...)
		if err != nil {
			emitErr(s, err)
			return
		}
		payload, _ := json.Marshal(roll)
		server.BroadcastToRoom("/", sess.GameID, "dice-rolled", string(payload))
	})

	server.OnEvent("/", "buy-property", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		err := sess.Mutate(func(t *state.Table) error {
			return ledger.AddProperty(t, result["player_id"], result["property"])
		}, session.TouchGame, result["player_id"])
		if err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "pay-rent", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		payerID := result["player_id"]
		// Owner has to be known up front so their document gets pushed.
		var ownerID string
		_ = sess.State.View(func(t *state.Table) error {
			if owner, _ := t.FindOwner(result["property"]); owner != nil {
				ownerID = owner.ID
			}
			return nil
		})
		touched := []string{session.TouchGame, payerID}
		if ownerID != "" {
			touched = append(touched, ownerID)
		}
		err := sess.Mutate(func(t *state.Table) error {
			rollTotal := 0
			if t.Game.LastDiceRoll != nil {
				rollTotal = t.Game.LastDiceRoll.Total
			}
			_, err := rules.PayRent(t, payerID, result["property"], rollTotal)
			return err
		}, touched...)
		if err != nil {
			emitErr(s, err)
		}
	})

	propertyOp := func(name string, op func(t *state.Table, playerID, property string) error) {
		server.OnEvent("/", name, func(s socketio.Conn, jsonStr string) {
			sess, result, ok := current(s, jsonStr)
			if !ok {
				return
			}
			err := sess.Mutate(func(t *state.Table) error {
				return op(t, result["player_id"], result["property"])
			}, session.TouchGame, result["player_id"])
			if err != nil {
				emitErr(s, err)
			}
		})
	}
	propertyOp("buy-house", rules.AddHouse)
	propertyOp("sell-house", rules.RemoveHouse)
	propertyOp("buy-hotel", rules.AddHotel)
	propertyOp("sell-hotel", rules.RemoveHotel)
	propertyOp("mortgage", rules.Mortgage)
	propertyOp("unmortgage", rules.Unmortgage)
	propertyOp("sell-property", ledger.RemoveProperty)

	server.OnEvent("/", "start-auction", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		if err := sess.Auction.Start(result["property"], result["player_id"]); err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "place-bid", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		amount, err := strconv.Atoi(result["amount"])
		if err != nil {
			emitErr(s, fmt.Errorf("invalid bid amount"))
			return
		}
		if err := sess.Auction.PlaceBid(result["player_id"], amount); err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "drop-out", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		if err := sess.Auction.DropOut(result["player_id"]); err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "end-auction", func(s socketio.Conn, jsonStr string) {
		sess, _, ok := current(s, jsonStr)
		if !ok {
			return
		}
		if err := sess.Auction.EndNow(); err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "propose-trade", func(s socketio.Conn, jsonStr string) {
		var dto tradeDto
		if err := json.Unmarshal([]byte(jsonStr), &dto); err != nil {
			emitErr(s, fmt.Errorf("bad payload"))
			return
		}
		sess, err := open(dto.GameID)
		if err != nil {
			emitErr(s, fmt.Errorf("invalid game"))
			return
		}
		offer, err := sess.Trades.Propose(dto.PlayerID, dto.ToID, dto.terms())
		if err != nil {
			emitErr(s, err)
			return
		}
		payload, _ := json.Marshal(offer)
		server.BroadcastToRoom("/", sess.GameID, "trade-offered", string(payload))
	})

	server.OnEvent("/", "counter-trade", func(s socketio.Conn, jsonStr string) {
		var dto tradeDto
		if err := json.Unmarshal([]byte(jsonStr), &dto); err != nil {
			emitErr(s, fmt.Errorf("bad payload"))
			return
		}
		sess, err := open(dto.GameID)
		if err != nil {
			emitErr(s, fmt.Errorf("invalid game"))
			return
		}
		offer, err := sess.Trades.Counter(dto.PlayerID, dto.terms())
		if err != nil {
			emitErr(s, err)
			return
		}
		payload, _ := json.Marshal(offer)
		server.BroadcastToRoom("/", sess.GameID, "trade-offered", string(payload))
	})

	server.OnEvent("/", "accept-trade", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		if err := sess.Trades.Accept(result["offer_id"], result["player_id"]); err != nil {
			emitErr(s, err)
			return
		}
		server.BroadcastToRoom("/", sess.GameID, "trade-accepted", result["offer_id"])
	})

	server.OnEvent("/", "cancel-trade", func(s socketio.Conn, jsonStr string) {
		sess, _, ok := current(s, jsonStr)
		if !ok {
			return
		}
		if err := sess.Trades.Clear(); err != nil {
			emitErr(s, err)
			return
		}
		server.BroadcastToRoom("/", sess.GameID, "trade-cancelled")
	})

	server.OnEvent("/", "reject-trade", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		if err := sess.Trades.Reject(result["offer_id"], result["player_id"]); err != nil {
			emitErr(s, err)
			return
		}
		server.BroadcastToRoom("/", sess.GameID, "trade-rejected", result["offer_id"])
	})

	server.OnEvent("/", "draw-card", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		card, err := chance.DrawCard(result["deck"], rng)
		if err != nil {
			emitErr(s, err)
			return
		}
		var landing *chance.Landing
		err = sess.Mutate(func(t *state.Table) error {
			var err error
			landing, err = chance.ApplyCardEffect(t, playerID, card, rng)
			return err
		}, append([]string{session.TouchGame}, sess.PlayerIDs()...)...)
		if err != nil {
			emitErr(s, err)
			return
		}
		if landing != nil && landing.ShouldAuction {
			if err := sess.Auction.Start(landing.PropertyName, playerID); err != nil {
				logrus.WithError(err).Debug("unowned-landing auction not started")
			}
		}
		payload, _ := json.Marshal(map[string]interface{}{"card": card, "landing": landing})
		server.BroadcastToRoom("/", sess.GameID, "card-drawn", string(payload))
	})

	server.OnEvent("/", "pay-out-jail", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		err := sess.Mutate(func(t *state.Table) error {
			p, err := t.Player(playerID)
			if err != nil {
				return err
			}
			if p.Balance < JailFine {
				return ledger.ErrInsufficientFunds
			}
			p.Balance -= JailFine
			p.InJail = false
			if t.Game.Config.FreeParkingJackpot {
				t.Game.FreeParkingBalance += JailFine
			}
			ledger.AppendHistory(t, models.HistoryTransaction, p.Name,
				fmt.Sprintf("%s paid $%d to leave jail", p.Name, JailFine))
			return nil
		}, session.TouchGame, playerID)
		if err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "use-jail-card", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		err := sess.Mutate(func(t *state.Table) error {
			p, err := t.Player(playerID)
			if err != nil {
				return err
			}
			if p.GetOutOfJailFree <= 0 {
				return fmt.Errorf("no get-out-of-jail-free card to use")
			}
			p.GetOutOfJailFree--
			p.InJail = false
			ledger.AppendHistory(t, models.HistoryTransaction, p.Name,
				fmt.Sprintf("%s used a get-out-of-jail-free card", p.Name))
			return nil
		}, session.TouchGame, playerID)
		if err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "claim-free-parking", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		err := sess.Mutate(func(t *state.Table) error {
			if !t.Game.Config.FreeParkingJackpot {
				return fmt.Errorf("free parking jackpot is disabled")
			}
			p, err := t.Player(playerID)
			if err != nil {
				return err
			}
			if t.Game.FreeParkingBalance == 0 {
				return nil
			}
			amount := t.Game.FreeParkingBalance
			p.Balance += amount
			t.Game.FreeParkingBalance = 0
			ledger.AppendHistory(t, models.HistoryFreeParking, p.Name,
				fmt.Sprintf("%s collected $%d from free parking", p.Name, amount))
			return nil
		}, session.TouchGame, playerID)
		if err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "declare-bankruptcy", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		err := sess.Mutate(func(t *state.Table) error {
			p, err := t.Player(playerID)
			if err != nil {
				return err
			}
			// Holdings go back to the bank unowned; bankruptcy is terminal.
			p.Properties = nil
			p.Balance = 0
			p.IsBankrupt = true
			ledger.AppendHistory(t, models.HistoryTransaction, p.Name,
				fmt.Sprintf("%s declared bankruptcy", p.Name))
			return nil
		}, session.TouchGame, playerID)
		if err != nil {
			emitErr(s, err)
		}
	})

	server.OnEvent("/", "ask-assistant", func(s socketio.Conn, jsonStr string) {
		sess, result, ok := current(s, jsonStr)
		if !ok {
			return
		}
		playerID := result["player_id"]
		_, players := sess.State.Snapshot()
		isPremium := false
		for _, p := range players {
			if p.ID == playerID {
				isPremium = p.IsPro
			}
		}
		resp, err := assistant.Ask(cfg.AssistantURL, assistant.Request{
			GameID:    sess.GameID,
			Message:   result["message"],
			UserID:    playerID,
			IsPremium: isPremium,
			Players:   assistant.BuildMetrics(players),
		})
		if err != nil {
			emitErr(s, err)
			return
		}
		payload, _ := json.Marshal(resp)
		s.Emit("assistant-reply", string(payload))
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logrus.WithError(e).Error("socket error")
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		rooms := s.Rooms()
		for _, room := range rooms {
			server.BroadcastToRoom("/", room, "player-left")
		}
		s.LeaveAll()
	})

	go server.Serve()
	defer server.Close()

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	if err := http.ListenAndServe(cfg.SocketAddr, c.Handler(mux)); err != nil {
		logrus.WithError(err).Fatal("socket server stopped")
	}
}
