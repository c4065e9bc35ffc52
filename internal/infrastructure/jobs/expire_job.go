package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
)

// Expirer caso de uso que vence lotes.
type Expirer interface {
	ExpireDue(ctx context.Context, asOf time.Time) (*dto.ExpireBatchesResponse, error)
}

// Observer recibe la duración y el resultado de cada ejecución.
type Observer interface {
	ObserveJob(job string, elapsed time.Duration, err error)
}

// ExpireJob handler de TaskExpireBatches.
type ExpireJob struct {
	expirer  Expirer
	observer Observer
	log      zerolog.Logger
	now      func() time.Time
}

// NewExpireJob construye el handler. observer puede ser nil.
func NewExpireJob(expirer Expirer, observer Observer, log zerolog.Logger) *ExpireJob {
	return &ExpireJob{expirer: expirer, observer: observer, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Handle procesa la tarea. Un payload ilegible no se reintenta.
func (j *ExpireJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ExpireBatchesPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			j.log.Error().Err(err).Str("task", t.Type()).Msg("payload inválido")
			return fmt.Errorf("payload %s: %v: %w", TaskExpireBatches, err, asynq.SkipRetry)
		}
	}
	asOf := j.now()
	if payload.AsOf != nil {
		asOf = payload.AsOf.UTC()
	}

	start := time.Now()
	res, err := j.expirer.ExpireDue(ctx, asOf)
	if j.observer != nil {
		j.observer.ObserveJob(TaskExpireBatches, time.Since(start), err)
	}
	if err != nil {
		j.log.Error().Err(err).Str("task", t.Type()).Msg("vencimiento de lotes")
		return err
	}
	j.log.Info().Int("expired", res.Expired).Str("as_of", res.AsOf).Msg("tarea de vencimiento completada")
	return nil
}
