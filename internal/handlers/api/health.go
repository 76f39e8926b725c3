package api

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"tagratio/internal/store"
)

// Pinger is implemented by backends with a liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service readiness.
type HealthHandler struct {
	store  store.Store
	pinger Pinger // optional
}

// NewHealthHandler creates a new API health handler.
func NewHealthHandler(s store.Store, pinger Pinger) *HealthHandler {
	return &HealthHandler{store: s, pinger: pinger}
}

// Health returns the store state: "empty" until the first index run.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Context()); err != nil {
			return jsonError(c, fiber.StatusServiceUnavailable, "database unavailable")
		}
	}

	count, err := h.store.CountTagRecords(c.Context())
	if err != nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "store unavailable")
	}

	state := "populated"
	if count == 0 {
		state = "empty"
	}
	return jsonSuccess(c, fiber.Map{
		"store": state,
		"tags":  count,
	})
}
