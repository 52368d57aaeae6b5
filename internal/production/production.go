// Package production derives shop-floor views from stored orders.
package production

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/sizematrix"
	"github.com/stitchline/stitchline-erp/report"
)

// SheetSource assembles the size breakdown of an order.
type SheetSource interface {
	Sheet(ctx context.Context, orderID int64) (report.SizeSheet, error)
}

// CuttingPlan lists how many pieces of each size must be cut for an order.
type CuttingPlan struct {
	OrderID      int64            `json:"orderId"`
	PO           string           `json:"po"`
	Style        string           `json:"style"`
	Colour       string           `json:"colourCode"`
	SizeCategory string           `json:"sizeCategory"`
	Rows         []sizematrix.Row `json:"rows"`
	Total        int              `json:"total"`
}

// Handler exposes production endpoints.
type Handler struct {
	logger *slog.Logger
	orders SheetSource
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, orders SheetSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, orders: orders}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/cutting-plan/{orderId}", h.cuttingPlan)
}

func (h *Handler) cuttingPlan(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "orderId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sheet, err := h.orders.Sheet(r.Context(), id)
	if err != nil {
		h.logger.Warn("cutting plan", slog.Int64("order_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, PlanFromSheet(sheet))
}

// PlanFromSheet converts a size sheet into a cutting plan.
func PlanFromSheet(sheet report.SizeSheet) CuttingPlan {
	rows := sheet.Rows
	if rows == nil {
		rows = []sizematrix.Row{}
	}
	return CuttingPlan{
		OrderID:      sheet.OrderID,
		PO:           sheet.PO,
		Style:        sheet.Style,
		Colour:       sheet.Colour,
		SizeCategory: sheet.SizeCategory,
		Rows:         rows,
		Total:        sheet.Total,
	}
}
