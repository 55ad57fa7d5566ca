package cache

import (
	"github.com/gomodule/redigo/redis"
)

func Get(key string, conn redis.Conn) (string, error) {
	return redis.String(conn.Do("GET", key))
}

func Set(key string, value interface{}, conn redis.Conn) error {
	_, err := conn.Do("SET", key, value)
	return err
}

func Del(keys []string, conn redis.Conn) error {
	_, err := conn.Do("DEL", redis.Args{}.AddFlat(keys)...)
	return err
}

func SAdd(key string, member string, conn redis.Conn) error {
	_, err := conn.Do("SADD", key, member)
	return err
}

func SMembers(key string, conn redis.Conn) ([]string, error) {
	return redis.Strings(conn.Do("SMEMBERS", key))
}

func Publish(channel string, payload []byte, conn redis.Conn) error {
	_, err := conn.Do("PUBLISH", channel, payload)
	return err
}
