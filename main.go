package main

import (
	"github.com/MedicD21/monopoly-banker/app/controllers"
	"github.com/MedicD21/monopoly-banker/pkg/routes"
	"github.com/MedicD21/monopoly-banker/platform/cache"
	"github.com/MedicD21/monopoly-banker/platform/config"
	"github.com/MedicD21/monopoly-banker/platform/logging"
	"github.com/MedicD21/monopoly-banker/platform/session"
	socket "github.com/MedicD21/monopoly-banker/platform/sockets"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("bad configuration")
	}

	store := cache.NewRedisStore(cfg.RedisURL)
	sessions := session.NewManager(store)
	defer sessions.CloseAll()
	controllers.Setup(cfg, sessions)

	app := fiber.New()

	app.Use(cors.New())
	routes.AuthRoutes(app)
	routes.GameRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	app.Get("/user/cur", controllers.Cur)
	go socket.CreateSocketIOServer(cfg, sessions)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		logrus.WithError(err).Fatal("http server stopped")
	}
}
