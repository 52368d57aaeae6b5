package masters

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
)

// Handler exposes the master data endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: httpx.NewValidator()}
}

// MountRoutes registers master routes, expected under /it/masters.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/styles", h.listStyles)
	r.Post("/styles", h.createStyle)
	r.Get("/colours", h.listColours)
	r.Post("/colours", h.createColour)
	r.Get("/agelists", h.listAgeGroups)
	r.Post("/agelists", h.createAgeGroup)
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Get("/size-categories", h.listSizeCategories)
	r.Post("/size-categories", h.createSizeCategory)
	r.Put("/size-categories/{id}/sizes", h.appendSizes)
}

func (h *Handler) listStyles(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListStyles(r.Context())
	respondList(w, h, "list styles", items, err)
}

func (h *Handler) listColours(w http.ResponseWriter, r *http.Request) {
	styleID, err := strconv.ParseInt(r.URL.Query().Get("styleId"), 10, 64)
	if err != nil || styleID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: styleId query parameter is required", httpx.ErrValidation))
		return
	}
	items, err := h.service.ListColours(r.Context(), styleID)
	respondList(w, h, "list colours", items, err)
}

func (h *Handler) listAgeGroups(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListAgeGroups(r.Context())
	respondList(w, h, "list age groups", items, err)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListCategories(r.Context())
	respondList(w, h, "list categories", items, err)
}

func (h *Handler) listSizeCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListSizeCategories(r.Context())
	respondList(w, h, "list size categories", items, err)
}

func (h *Handler) createStyle(w http.ResponseWriter, r *http.Request) {
	var in StyleInput
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.service.CreateStyle(r.Context(), in)
	h.respondCreated(w, "create style", out, err)
}

func (h *Handler) createColour(w http.ResponseWriter, r *http.Request) {
	var in ColourInput
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.service.CreateColour(r.Context(), in)
	h.respondCreated(w, "create colour", out, err)
}

func (h *Handler) createAgeGroup(w http.ResponseWriter, r *http.Request) {
	var in AgeGroupInput
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.service.CreateAgeGroup(r.Context(), in)
	h.respondCreated(w, "create age group", out, err)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.service.CreateCategory(r.Context(), in)
	h.respondCreated(w, "create category", out, err)
}

func (h *Handler) createSizeCategory(w http.ResponseWriter, r *http.Request) {
	var in SizeCategoryInput
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.service.CreateSizeCategory(r.Context(), in)
	h.respondCreated(w, "create size category", out, err)
}

func (h *Handler) appendSizes(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in AppendSizesInput
	if !h.decode(w, r, &in) {
		return
	}
	out, err := h.service.AppendSizes(r.Context(), id, in)
	if err != nil {
		h.logger.Warn("append sizes", slog.Int64("size_category_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	return true
}

func (h *Handler) respondCreated(w http.ResponseWriter, op string, out any, err error) {
	if err != nil {
		h.logger.Warn(op, slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, out)
}

func respondList[T any](w http.ResponseWriter, h *Handler, op string, items []T, err error) {
	if err != nil {
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	httpx.JSON(w, http.StatusOK, items)
}
