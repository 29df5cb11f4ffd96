package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/chuestock/chuestock/internal/reports"
)

// WarmupHandler precomputes the default dashboard window into the report
// cache so the first request after a version bump does not pay for it.
type WarmupHandler struct {
	service *reports.Service
	logger  *slog.Logger
}

// NewWarmupHandler constructs WarmupHandler.
func NewWarmupHandler(service *reports.Service, logger *slog.Logger) *WarmupHandler {
	return &WarmupHandler{service: service, logger: logger}
}

// HandleTask processes TaskReportsWarmup tasks.
func (h *WarmupHandler) HandleTask(ctx context.Context, t *asynq.Task) error {
	if err := h.service.Warmup(ctx); err != nil {
		h.logger.Warn("dashboard warmup failed", "error", err)
		return err
	}
	h.logger.Info("dashboard warmup complete")
	return nil
}
