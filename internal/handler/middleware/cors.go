package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSMiddleware configures and returns CORS middleware. Credentials are only
// allowed when origins is an explicit list.
func CORSMiddleware(origins string) fiber.Handler {
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PATCH,DELETE",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: origins != "*",
	})
}
