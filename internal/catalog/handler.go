package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chuestock/chuestock/internal/platform/httpx"
)

// Handler serves the catalog HTTP surface.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers catalog routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/{sku}", h.bySKU)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), parseFilter(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) bySKU(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.BySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrStorage):
		h.logger.Error("catalog storage failure", "error", err)
		httpx.Problem(w, http.StatusBadGateway, "Storage Error", "storage failure")
	default:
		h.logger.Error("catalog handler failure", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// parseFilter reads listing filters from the query string. Unparseable or
// placeholder values ("none") are ignored.
func parseFilter(r *http.Request) Filter {
	q := r.URL.Query()
	filter := Filter{
		Keyword: strings.TrimSpace(q.Get("q")),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}

	if raw := cleanParam(q.Get("category_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.CategoryID = id
		}
	}
	switch StockState(cleanParam(q.Get("stock"))) {
	case StockIn:
		filter.Stock = StockIn
	case StockOut:
		filter.Stock = StockOut
	}
	if raw := cleanParam(q.Get("min_price")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.MinPrice = n
			filter.HasMin = true
		}
	}
	if raw := cleanParam(q.Get("max_price")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.MaxPrice = n
			filter.HasMax = true
		}
	}

	return filter
}

func cleanParam(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "none" {
		return ""
	}
	return v
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
