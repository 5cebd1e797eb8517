// Package api serves assembled transcripts over a read-only JSON API.
package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Server struct {
	app  *fiber.App
	addr string
	log  *zap.Logger
}

func New(addr string, service Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler(log),
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestLogger(log))

	// Routes
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", nil))
	})
	NewSegmentController(service).RegisterRoutes(app.Group("/api"))

	return &Server{app: app, addr: addr, log: log}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Run listens until the server is shut down.
func (s *Server) Run() error {
	s.log.Info("server listening", zap.String("addr", s.addr))
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// requestLogger logs one line per request with the final status.
func requestLogger(log *zap.Logger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		if err := ctx.Next(); err != nil {
			// Render now so the logged status is the one sent.
			if herr := ctx.App().ErrorHandler(ctx, err); herr != nil {
				_ = ctx.SendStatus(fiber.StatusInternalServerError)
			}
		}
		log.Debug("request",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Int("status", ctx.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)))
		return nil
	}
}
