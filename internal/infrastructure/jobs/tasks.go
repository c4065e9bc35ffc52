// Package jobs tareas en segundo plano sobre asynq (Redis): servidor, programador cron
// y cliente para encolar.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola por defecto.
	QueueDefault = "default"
	// TaskExpireBatches marca como vencidos los lotes con fecha de vencimiento pasada.
	TaskExpireBatches = "batches:expire"
)

// ExpireBatchesPayload AsOf vacío significa "al momento de ejecutar".
type ExpireBatchesPayload struct {
	AsOf *time.Time `json:"as_of,omitempty"`
}

// NewExpireBatchesTask construye la tarea de vencimiento.
func NewExpireBatchesTask(asOf *time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ExpireBatchesPayload{AsOf: asOf})
	if err != nil {
		return nil, fmt.Errorf("payload %s: %w", TaskExpireBatches, err)
	}
	return asynq.NewTask(TaskExpireBatches, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
