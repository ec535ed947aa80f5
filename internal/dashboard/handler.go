package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/royals-sales/royals/internal/platform/httpx"
)

// Handler wires the dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes on the provided router. The
// SPA calls /overview; the bare path stays as an alias.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleOverview)
	r.Get("/overview", h.handleOverview)
	r.Get("/recent-sales", h.handleRecentSales)
	r.Get("/top-products", h.handleTopProducts)
	r.Get("/low-stock", h.handleLowStock)
}

// queryInt parses a query parameter, returning fallback when absent or
// malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	q := Query{
		RecentLimit:       queryInt(r, "limit", 0),
		TopLimit:          queryInt(r, "top", 0),
		LowStockThreshold: queryInt(r, "threshold", -1),
	}
	overview, err := h.service.Overview(r.Context(), q)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) handleRecentSales(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.RecentSales(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleTopProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.TopProducts(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LowStock(r.Context(), queryInt(r, "threshold", -1))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}
