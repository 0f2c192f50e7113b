package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pichat/internal/chat"
	"pichat/internal/display"
	"pichat/internal/mqtt"
	"pichat/internal/service"
)

// StatusSource exposes the chat engine state to the HTTP layer.
type StatusSource interface {
	Snapshot() chat.Snapshot
}

// Deps carries everything the HTTP routes need. DB is nil when the
// conversation archive is disabled.
type Deps struct {
	Engine   StatusSource
	Broker   mqtt.Client
	DB       *sql.DB
	Archive  service.ArchiveService
	Frames   *display.FrameStore
	Registry *prometheus.Registry
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay minimal; business logic lives in the engine and services.
func RegisterRoutes(app *fiber.App, deps Deps) {
	// Liveness probe.
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Readiness: broker connectivity plus the archive database when wired.
	app.Get("/health", func(c *fiber.Ctx) error {
		checks := fiber.Map{"broker": "up"}
		healthy := true

		if !deps.Broker.Connected() {
			checks["broker"] = "down"
			healthy = false
		}

		if deps.DB != nil {
			checks["database"] = "up"
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := deps.DB.PingContext(ctx); err != nil {
				checks["database"] = "down"
				healthy = false
			}
		}

		if !healthy {
			checks["status"] = "unhealthy"
			return c.Status(fiber.StatusServiceUnavailable).JSON(checks)
		}
		checks["status"] = "healthy"
		return c.Status(fiber.StatusOK).JSON(checks)
	})

	// Current node state: mode, subject, peer presence, turn count.
	app.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(deps.Engine.Snapshot())
	})

	// Latest display frame as JSON.
	app.Get("/display", func(c *fiber.Ctx) error {
		return c.JSON(deps.Frames.Current())
	})

	// Browser view of the display, polling /display.
	app.Get("/display/view", func(c *fiber.Ctx) error {
		return c.Type("html").SendString(displayViewHTML)
	})

	// List archived conversations with limit & offset.
	app.Get("/conversations", func(c *fiber.Ctx) error {
		if !deps.Archive.Enabled() {
			return writeError(c, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED", "conversation archive is not configured")
		}

		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := deps.Archive.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	})

	// Get an archived conversation by ID.
	app.Get("/conversations/:id", func(c *fiber.Ctx) error {
		if !deps.Archive.Enabled() {
			return writeError(c, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED", "conversation archive is not configured")
		}

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		conv, err := deps.Archive.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "conversation not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(conv)
	})

	// Get the full transcript of an archived conversation.
	app.Get("/conversations/:id/transcript", func(c *fiber.Ctx) error {
		if !deps.Archive.Enabled() {
			return writeError(c, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED", "conversation archive is not configured")
		}

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		tr, err := deps.Archive.Transcript(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "conversation not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(tr)
	})

	// Prometheus scrape endpoint.
	if deps.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
		))
	}
}

const displayViewHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>pichat display</title>
  <style>
    body { background: #000; color: #0f0; font-family: monospace; margin: 2em; }
    pre { font-size: 1.2em; white-space: pre-wrap; }
  </style>
</head>
<body>
  <pre id="screen">loading...</pre>
  <script>
    async function refresh() {
      try {
        const res = await fetch('/display');
        const frame = await res.json();
        document.getElementById('screen').textContent = (frame.lines || []).join('\n');
      } catch (e) {
        document.getElementById('screen').textContent = 'display unavailable';
      }
    }
    refresh();
    setInterval(refresh, 2000);
  </script>
</body>
</html>`
