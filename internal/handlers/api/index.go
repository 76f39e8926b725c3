package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"tagratio/internal/indexer"
	"tagratio/internal/jobs"
	"tagratio/internal/store"
)

// IndexHandler triggers reindex runs and lists past runs via JSON API.
type IndexHandler struct {
	reindexer *jobs.Reindexer
	recorder  store.RunRecorder // optional
	log       *zap.Logger
}

// NewIndexHandler creates a new API index handler.
func NewIndexHandler(r *jobs.Reindexer, recorder store.RunRecorder, log *zap.Logger) *IndexHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &IndexHandler{reindexer: r, recorder: recorder, log: log}
}

// Trigger runs a reindex synchronously and returns the run summary.
func (h *IndexHandler) Trigger(c fiber.Ctx) error {
	subject, _ := c.Locals("subject").(string)
	h.log.Info("reindex triggered", zap.String("subject", subject))

	run, err := h.reindexer.RunOnce(c.Context())
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrReindexInProgress):
			return jsonError(c, fiber.StatusConflict, "reindex already in progress")
		case errors.Is(err, indexer.ErrUnreadableRoot):
			h.log.Error("reindex misconfigured", zap.Error(err))
			return jsonError(c, fiber.StatusInternalServerError, "corpus root is unreadable")
		default:
			h.log.Error("reindex failed", zap.Error(err))
			return jsonError(c, fiber.StatusInternalServerError, "reindex failed")
		}
	}
	return jsonSuccess(c, run)
}

// Runs lists recent index runs.
func (h *IndexHandler) Runs(c fiber.Ctx) error {
	if h.recorder == nil {
		return jsonError(c, fiber.StatusNotFound, "index run history is not available")
	}

	limit, err := queryInt(c, "limit", 20)
	if err != nil || limit < 0 {
		return jsonError(c, fiber.StatusBadRequest, "limit must be a non-negative integer")
	}

	runs, err := h.recorder.ListIndexRuns(c.Context(), limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch index runs")
	}
	return jsonSuccess(c, runs)
}
