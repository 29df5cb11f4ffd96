// Package jobs hosts the background worker: the stock integrity sweep and
// the dashboard cache warmup.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockIntegrity recounts every product's ledger against its counter.
	TaskStockIntegrity = "stock:integrity"
	// TaskReportsWarmup precomputes the default dashboard window.
	TaskReportsWarmup = "reports:warmup"
)

// StockIntegrityPayload parameterises an integrity sweep. A zero ProductID
// sweeps every product.
type StockIntegrityPayload struct {
	ProductID int64 `json:"product_id,omitempty"`
}

// NewStockIntegrityTask constructs an Asynq task.
func NewStockIntegrityTask(payload StockIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockIntegrity, data), nil
}

// NewReportsWarmupTask constructs an Asynq task.
func NewReportsWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskReportsWarmup, nil)
}
