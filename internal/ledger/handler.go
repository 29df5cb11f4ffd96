package ledger

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/chuestock/chuestock/internal/platform/httpx"
	"github.com/chuestock/chuestock/internal/shared"
)

// Handler serves the ledger HTTP surface.
type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// MountRoutes registers ledger routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/movements", h.list)
	r.Get("/products/{sku}/history", h.history)

	r.Group(func(r chi.Router) {
		r.Use(shared.RequireWarehouseStaff)
		r.Post("/movements", h.post)
	})
}

// flexInt accepts a JSON number or numeric string; anything else decodes to
// zero so the domain rules produce the rejection.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

type postMovementRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Action    string  `json:"action" validate:"required"`
	Quantity  flexInt `json:"quantity"`
	RefType   string  `json:"ref_type"`
	RefNo     string  `json:"ref_no" validate:"max=64"`
	Remark    string  `json:"remark" validate:"max=500"`
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
		return
	}

	var actorID *int64
	if op := shared.OperatorFromContext(r.Context()); op != nil {
		actorID = &op.ID
	}

	result, err := h.service.Post(r.Context(), PostInput{
		ProductID: req.ProductID,
		Action:    MovementType(strings.ToUpper(req.Action)),
		Quantity:  int(req.Quantity),
		RefType:   RefType(req.RefType),
		RefNo:     req.RefNo,
		Remark:    req.Remark,
		ActorID:   actorID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), parseFilter(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	page := queryInt(r, "page")
	perPage := queryInt(r, "per_page")

	result, err := h.service.ProductHistory(r.Context(), sku, page, perPage)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var insufficient *InsufficientStockError
	switch {
	case errors.As(err, &insufficient),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrInvalidRefType),
		errors.Is(err, ErrRefTypeNotAllowed):
		httpx.Problem(w, http.StatusBadRequest, "Movement Rejected", err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrConcurrencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrStorage):
		h.logger.Error("ledger storage failure", "error", err)
		httpx.Problem(w, http.StatusBadGateway, "Storage Error", "storage failure")
	default:
		h.logger.Error("ledger handler failure", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// parseFilter reads listing filters from the query string. Unparseable or
// placeholder values ("none") are ignored rather than rejected.
func parseFilter(r *http.Request) Filter {
	q := r.URL.Query()
	filter := Filter{
		Search:  strings.TrimSpace(q.Get("q")),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}

	if raw := cleanParam(q.Get("product_id")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.ProductID = id
		}
	}
	if raw := cleanParam(q.Get("category")); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filter.CategoryID = id
		}
	}
	if raw := cleanParam(q.Get("type")); raw != "" {
		if t := MovementType(strings.ToUpper(raw)); t.Valid() {
			filter.Type = t
		}
	}
	if raw := cleanParam(q.Get("ref_type")); raw != "" {
		if rt := RefType(strings.ToUpper(raw)); rt.Valid() {
			filter.RefType = rt
		}
	}
	var fromDate, toDate time.Time
	if raw := cleanParam(q.Get("from")); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			fromDate = t
		}
	}
	if raw := cleanParam(q.Get("to")); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			toDate = t
		}
	}
	// Swap a reversed pair while both bounds are still raw dates, then widen
	// the end: both submitted days stay inside the window.
	if !fromDate.IsZero() && !toDate.IsZero() && fromDate.After(toDate) {
		fromDate, toDate = toDate, fromDate
	}
	filter.From = fromDate
	if !toDate.IsZero() {
		filter.To = toDate.AddDate(0, 0, 1)
	}

	switch cleanParam(q.Get("preset")) {
	case "daily", "today":
		filter.Preset = PresetDaily
	case "weekly":
		filter.Preset = PresetWeekly
	case "monthly":
		filter.Preset = PresetMonthly
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
