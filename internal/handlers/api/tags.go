package api

import (
	"github.com/gofiber/fiber/v3"

	"tagratio/internal/store"
	"tagratio/internal/validation"
)

// TagHandler serves the ranked tag frequency table via JSON API.
type TagHandler struct {
	store      store.Store
	defaultTop int
	listLimit  int
}

// NewTagHandler creates a new API tag handler.
func NewTagHandler(s store.Store, defaultTop, listLimit int) *TagHandler {
	return &TagHandler{store: s, defaultTop: defaultTop, listLimit: listLimit}
}

// Top returns the n highest-ranked tag names.
func (h *TagHandler) Top(c fiber.Ctx) error {
	n, err := queryInt(c, "n", h.defaultTop)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "n must be a positive integer")
	}

	tags, err := h.store.TopTags(c.Context(), n)
	if err != nil {
		return storeError(c, err, "fetch top tags")
	}
	return jsonSuccess(c, tags)
}

// List returns tag records in ranked order.
func (h *TagHandler) List(c fiber.Ctx) error {
	limit, err := queryInt(c, "limit", h.listLimit)
	if err != nil || limit < 0 {
		return jsonError(c, fiber.StatusBadRequest, "limit must be a non-negative integer")
	}

	records, err := h.store.ListTagRecords(c.Context(), limit)
	if err != nil {
		return storeError(c, err, "fetch tags")
	}
	return jsonSuccess(c, records)
}

// Get returns the record of a single tag.
func (h *TagHandler) Get(c fiber.Ctx) error {
	tag := c.Params("tag")
	if !validation.ValidateTag(tag) {
		return jsonError(c, fiber.StatusBadRequest, "invalid tag")
	}

	record, err := h.store.GetTagRecord(c.Context(), tag)
	if err != nil {
		return storeError(c, err, "fetch tag")
	}
	return jsonSuccess(c, record)
}
