package api

import (
	"encoding/json"
	"os"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"tagratio/internal/extractor"
	"tagratio/internal/metrics"
	"tagratio/internal/models"
	"tagratio/internal/scorer"
	"tagratio/internal/validation"
)

// ScoreHandler scores tag sets and uploaded files via JSON API.
type ScoreHandler struct {
	scorer    *scorer.Scorer
	extractor extractor.Extractor
	flags     []string
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewScoreHandler creates a new API score handler.
func NewScoreHandler(s *scorer.Scorer, ext extractor.Extractor, flags []string, m *metrics.Metrics, log *zap.Logger) *ScoreHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScoreHandler{scorer: s, extractor: ext, flags: flags, metrics: m, log: log}
}

// Score scores the tag set in the request body.
func (h *ScoreHandler) Score(c fiber.Ctx) error {
	var body models.ScoreRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if body.TopN < 0 {
		return jsonError(c, fiber.StatusBadRequest, "top_n must be a positive integer")
	}
	if ok, msg := validation.ValidateTags(body.Tags); !ok {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	return h.score(c, body.Tags, body.TopN)
}

// ScoreFile extracts the tags of an uploaded file and scores them.
func (h *ScoreHandler) ScoreFile(c fiber.Ctx) error {
	topN, err := queryInt(c, "n", 0)
	if err != nil || topN < 0 {
		return jsonError(c, fiber.StatusBadRequest, "n must be a positive integer")
	}

	meta, err := h.extractUpload(c)
	if err != nil {
		return errorResponse(c, err)
	}

	return h.score(c, meta.Tags(), topN)
}

// Metadata returns the full metadata mapping of an uploaded file.
func (h *ScoreHandler) Metadata(c fiber.Ctx) error {
	meta, err := h.extractUpload(c)
	if err != nil {
		return errorResponse(c, err)
	}
	return jsonSuccess(c, meta)
}

func (h *ScoreHandler) score(c fiber.Ctx, tags []string, topN int) error {
	var (
		result models.ScoreResult
		err    error
	)
	if topN == 0 {
		result, err = h.scorer.Score(c.Context(), tags)
	} else {
		result, err = h.scorer.ScoreTopN(c.Context(), tags, topN)
	}
	if err != nil {
		return storeError(c, err, "score tags")
	}

	h.metrics.RecordScore(result.IsAI)
	return jsonSuccess(c, result)
}

// extractUpload saves the "file" form field to a temporary file, runs the
// extractor on it and removes it. Errors are *fiber.Error.
func (h *ScoreHandler) extractUpload(c fiber.Ctx) (extractor.Metadata, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "missing file upload")
	}

	tmp, err := os.CreateTemp("", "tagratio-upload-*"+validation.UploadExtension(fh.Filename))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to store upload")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(fh, tmpPath); err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to store upload")
	}

	meta, err := h.extractor.Extract(c.Context(), tmpPath, h.flags)
	if err != nil {
		h.metrics.RecordExtractFailure()
		h.log.Info("upload metadata extraction failed", zap.String("filename", fh.Filename), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity, "metadata extraction failed")
	}
	return meta, nil
}
