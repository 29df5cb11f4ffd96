package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chuestock/chuestock/internal/platform/httpx"
	"github.com/chuestock/chuestock/internal/shared"
)

// Handler serves the reporting HTTP surface.
type Handler struct {
	service *Service
	logger  *slog.Logger
	loc     *time.Location
}

// NewHandler constructs Handler.
func NewHandler(service *Service, logger *slog.Logger, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{service: service, logger: logger, loc: loc}
}

// MountRoutes registers reporting routes. The dashboard is staff-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/daily", h.daily)
	r.Get("/products/{id}/daily", h.productDaily)

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireWarehouseStaff)
		r.Get("/dashboard", h.dashboard)
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	from, to := h.parseWindow(r)

	dashboard, err := h.service.Dashboard(r.Context(), from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	var filter DailyFilter
	filter.From, filter.To = h.parseWindow(r)
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.ProductID = id
		}
	}

	days, err := h.service.DailyActivity(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if days == nil {
		days = []DayActivity{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": days})
}

func (h *Handler) productDaily(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "product id must be a positive integer")
		return
	}

	days, err := h.service.ProductDaily(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if days == nil {
		days = []DayActivity{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"days": days})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrStorage):
		h.logger.Error("reports storage failure", "error", err)
		httpx.Problem(w, http.StatusBadGateway, "Storage Error", "storage failure")
	default:
		h.logger.Error("reports handler failure", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// parseWindow reads the start/end dates. A reversed pair is swapped before
// the inclusive end date is widened, so both submitted days stay inside the
// window.
func (h *Handler) parseWindow(r *http.Request) (time.Time, time.Time) {
	from := h.queryDate(r, "start")
	to := h.queryDate(r, "end")
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		from, to = to, from
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	return from, to
}

func (h *Handler) queryDate(r *http.Request, key string) time.Time {
	raw := r.URL.Query().Get(key)
	if raw == "" || raw == "none" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", raw, h.loc)
	if err != nil {
		return time.Time{}
	}
	return t
}
