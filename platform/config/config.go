package config

import (
	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":4101"`
	SocketAddr     string   `env:"SOCKET_ADDR" envDefault:":8000"`
	RedisURL       string   `env:"REDIS_URL" envDefault:"localhost:6379"`
	JWTSecret      string   `env:"JWT_SECRET" envDefault:"secret"`
	AssistantURL   string   `env:"ASSISTANT_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

func Load() (Config, error) {
	var c Config
	err := env.Parse(&c)
	return c, err
}
