package routes

import (
	"github.com/MedicD21/monopoly-banker/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(a *fiber.App) {
	route := a.Group("/user")

	route.Post("/create", controllers.CreateUser)
	route.Post("/login", controllers.Login)
}
