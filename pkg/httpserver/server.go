// Package httpserver exposes the read API over the captured messages:
// mailbox listings grouped by sender and full message records.
package httpserver

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Akenaide/byemail/pkg/mailstore"
)

// Config holds the configuration for the HTTP server
type Config struct {
	Host    string
	Port    int
	WebRoot string
}

// DefaultConfig returns the default configuration for the HTTP server
func DefaultConfig() Config {
	return Config{
		Host: "0.0.0.0",
		Port: 8080,
	}
}

// ErrorResponse is the JSON error shape returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server wraps the Fiber app serving the read API and client assets.
type Server struct {
	app    *fiber.App
	config Config
}

// New creates the HTTP server over the given store handle.
func New(config Config, store mailstore.Store) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error: err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	queryHandler := NewQueryHandler(store)
	queryHandler.RegisterRoutes(app)

	if config.WebRoot != "" {
		app.Static("/", config.WebRoot)
	}

	return &Server{
		app:    app,
		config: config,
	}
}

// App returns the underlying Fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	log.Printf("Starting HTTP server on %s", addr)
	return s.app.Listen(addr)
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop() error {
	log.Printf("Stopping HTTP server")
	return s.app.Shutdown()
}
