package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"tagratio/internal/store"
)

// jsonSuccess returns a 200 response with data wrapped in the standard envelope.
func jsonSuccess(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"data":   data,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// errorResponse renders a *fiber.Error in the standard envelope.
func errorResponse(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return jsonError(c, fe.Code, fe.Message)
	}
	return jsonError(c, fiber.StatusInternalServerError, "internal server error")
}

// storeError maps store sentinels to HTTP errors; anything else is a 500
// described by action.
func storeError(c fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, store.ErrEmptyStore):
		return jsonError(c, fiber.StatusConflict, "store is empty: run an index first")
	case errors.Is(err, store.ErrInvalidTopN):
		return jsonError(c, fiber.StatusBadRequest, "n must be a positive integer")
	case errors.Is(err, store.ErrTagNotFound):
		return jsonError(c, fiber.StatusNotFound, "tag not found")
	default:
		return jsonError(c, fiber.StatusInternalServerError, "failed to "+action)
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(c fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
