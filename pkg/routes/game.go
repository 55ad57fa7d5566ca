package routes

import (
	"github.com/MedicD21/monopoly-banker/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func GameRoutes(a *fiber.App) {
	route := a.Group("/game")

	route.Post("/create", controllers.CreateGame)
	route.Get("/verify", controllers.VerifyGame)
	route.Post("/join", controllers.JoinGame)
}
