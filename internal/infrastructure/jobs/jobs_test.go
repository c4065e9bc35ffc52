package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
)

type fakeExpirer struct {
	asOf []time.Time
	err  error
}

func (f *fakeExpirer) ExpireDue(_ context.Context, asOf time.Time) (*dto.ExpireBatchesResponse, error) {
	f.asOf = append(f.asOf, asOf)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ExpireBatchesResponse{AsOf: asOf.Format(dto.DateLayout), Expired: 2}, nil
}

type fakeObserver struct {
	jobs []string
	errs []error
}

func (o *fakeObserver) ObserveJob(job string, _ time.Duration, err error) {
	o.jobs = append(o.jobs, job)
	o.errs = append(o.errs, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tarea de vencimiento
// ─────────────────────────────────────────────────────────────────────────────

func TestNewExpireBatchesTask_SerializaFecha(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	task, err := NewExpireBatchesTask(&at)
	require.NoError(t, err)
	assert.Equal(t, TaskExpireBatches, task.Type())

	var p ExpireBatchesPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	require.NotNil(t, p.AsOf)
	assert.True(t, p.AsOf.Equal(at))
}

func TestExpireJob_UsaFechaDelPayload(t *testing.T) {
	exp := &fakeExpirer{}
	obs := &fakeObserver{}
	job := NewExpireJob(exp, obs, zerolog.Nop())
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	task, err := NewExpireBatchesTask(&at)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, exp.asOf, 1)
	assert.True(t, exp.asOf[0].Equal(at))
	assert.Equal(t, []string{TaskExpireBatches}, obs.jobs)
	assert.Nil(t, obs.errs[0])
}

func TestExpireJob_SinFechaUsaReloj(t *testing.T) {
	exp := &fakeExpirer{}
	job := NewExpireJob(exp, nil, zerolog.Nop())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }
	task, err := NewExpireBatchesTask(nil)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []time.Time{now}, exp.asOf)
}

func TestExpireJob_PayloadInvalidoNoSeReintenta(t *testing.T) {
	job := NewExpireJob(&fakeExpirer{}, nil, zerolog.Nop())

	err := job.Handle(context.Background(), asynq.NewTask(TaskExpireBatches, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestExpireJob_PropagaError(t *testing.T) {
	boom := errors.New("db caída")
	obs := &fakeObserver{}
	job := NewExpireJob(&fakeExpirer{err: boom}, obs, zerolog.Nop())
	task, err := NewExpireBatchesTask(nil)
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)
	assert.ErrorIs(t, obs.errs[0], boom)
}

// ─────────────────────────────────────────────────────────────────────────────
// Worker y cliente
// ─────────────────────────────────────────────────────────────────────────────

func TestNewWorker_CronInvalido(t *testing.T) {
	mr := miniredis.RunT(t)
	task, err := NewExpireBatchesTask(nil)
	require.NoError(t, err)

	_, err = NewWorker(WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: mr.Addr()},
		Logger:    zerolog.Nop(),
		Cron:      []CronRegistration{{Spec: "no es cron", Task: task}},
	})
	assert.Error(t, err)
}

func TestClient_EncolaVencimiento(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer func() { _ = c.Close() }()

	info, err := c.EnqueueExpireBatches(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, TaskExpireBatches, info.Type)
	assert.Equal(t, QueueDefault, info.Queue)
}
