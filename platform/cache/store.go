package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MedicD21/monopoly-banker/app/models"
	"github.com/MedicD21/monopoly-banker/platform/store"
	"github.com/gomodule/redigo/redis"
	"github.com/sirupsen/logrus"
)

// RedisStore is the multiplayer shared store: game and player documents as
// JSON strings, with a pub/sub channel per game acting as the change feed.
type RedisStore struct {
	pool *redis.Pool
	addr string
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{pool: CreateRedisPool(addr), addr: addr}
}

func gameKey(gameID string) string {
	return fmt.Sprintf("game:%s", gameID)
}

func playerKey(gameID, playerID string) string {
	return fmt.Sprintf("game:%s:player:%s", gameID, playerID)
}

func playersKey(gameID string) string {
	return fmt.Sprintf("game:%s:players", gameID)
}

func feedChannel(gameID string) string {
	return fmt.Sprintf("game:%s:feed", gameID)
}

func (s *RedisStore) notify(conn redis.Conn, ev store.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := Publish(feedChannel(ev.GameID), payload, conn); err != nil {
		logrus.WithError(err).WithField("game", ev.GameID).Warn("feed publish failed")
	}
}

func (s *RedisStore) SaveGame(ctx context.Context, g *models.Game) error {
	conn := s.pool.Get()
	defer conn.Close()

	doc, err := json.Marshal(g)
	if err != nil {
		return err
	}
	if err := Set(gameKey(g.ID), doc, conn); err != nil {
		return err
	}
	s.notify(conn, store.Event{Kind: store.EventGame, GameID: g.ID})
	return nil
}

func (s *RedisStore) LoadGame(ctx context.Context, gameID string) (*models.Game, error) {
	conn := s.pool.Get()
	defer conn.Close()

	doc, err := Get(gameKey(gameID), conn)
	if err == redis.ErrNil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var g models.Game
	if err := json.Unmarshal([]byte(doc), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *RedisStore) SavePlayer(ctx context.Context, gameID string, p *models.Player) error {
	conn := s.pool.Get()
	defer conn.Close()

	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := Set(playerKey(gameID, p.ID), doc, conn); err != nil {
		return err
	}
	if err := SAdd(playersKey(gameID), p.ID, conn); err != nil {
		return err
	}
	s.notify(conn, store.Event{Kind: store.EventPlayer, GameID: gameID, PlayerID: p.ID})
	return nil
}

func (s *RedisStore) LoadPlayer(ctx context.Context, gameID, playerID string) (*models.Player, error) {
	conn := s.pool.Get()
	defer conn.Close()

	doc, err := Get(playerKey(gameID, playerID), conn)
	if err == redis.ErrNil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p models.Player
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *RedisStore) LoadPlayers(ctx context.Context, gameID string) ([]*models.Player, error) {
	conn := s.pool.Get()
	defer conn.Close()

	ids, err := SMembers(playersKey(gameID), conn)
	if err != nil {
		return nil, err
	}
	players := make([]*models.Player, 0, len(ids))
	for _, id := range ids {
		doc, err := Get(playerKey(gameID, id), conn)
		if err == redis.ErrNil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var p models.Player
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	return players, nil
}

func (s *RedisStore) DeleteGame(ctx context.Context, gameID string) error {
	conn := s.pool.Get()
	defer conn.Close()

	ids, err := SMembers(playersKey(gameID), conn)
	if err != nil {
		return err
	}
	keys := []string{gameKey(gameID), playersKey(gameID)}
	for _, id := range ids {
		keys = append(keys, playerKey(gameID, id))
	}
	return Del(keys, conn)
}

// Watch subscribes to the game's feed channel on a dedicated connection and
// forwards decoded events until ctx is done.
func (s *RedisStore) Watch(ctx context.Context, gameID string) (<-chan store.Event, error) {
	conn, err := redis.Dial("tcp", s.addr)
	if err != nil {
		return nil, err
	}
	psc := redis.PubSubConn{Conn: conn}
	if err := psc.Subscribe(feedChannel(gameID)); err != nil {
		conn.Close()
		return nil, err
	}

	ch := make(chan store.Event, 16)
	go func() {
		<-ctx.Done()
		psc.Unsubscribe()
		conn.Close()
	}()
	go func() {
		defer close(ch)
		for {
			switch msg := psc.Receive().(type) {
			case redis.Message:
				var ev store.Event
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					logrus.WithError(err).Warn("bad feed event")
					continue
				}
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			case error:
				if ctx.Err() == nil {
					logrus.WithError(msg).WithField("game", gameID).Warn("feed subscription closed")
				}
				return
			}
		}
	}()
	return ch, nil
}

func (s *RedisStore) Close() error {
	return s.pool.Close()
}
