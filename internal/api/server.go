package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

// ServerOptions configures NewApp.
type ServerOptions struct {
	BodyLimitMB int
}

// NewApp builds the fiber app with middleware and routes registered.
func NewApp(h *Handler, log zerolog.Logger, opts ServerOptions) *fiber.App {
	limit := opts.BodyLimitMB
	if limit <= 0 {
		limit = 32
	}
	app := fiber.New(fiber.Config{
		AppName:               "reconbot",
		BodyLimit:             limit << 20,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(RequestLogger(log))
	app.Use(fiberrecover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type," + HeaderRequestID,
	}))

	h.RegisterRoutes(app)
	return app
}
