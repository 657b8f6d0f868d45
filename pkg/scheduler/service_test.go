package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaersinsight/vaersinsight/pkg/mlmodel"
)

type fakeTrainer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeTrainer) Train(ctx context.Context) (*mlmodel.Artifact, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &mlmodel.Artifact{ID: "model-1", CreatedAt: time.Now()}, nil
}

func TestRunNowInvalidatesOnSuccess(t *testing.T) {
	trainer := &fakeTrainer{}
	invalidated := 0
	svc := NewService(trainer, func() { invalidated++ }, zap.NewNop())

	require.NoError(t, svc.RunNow(context.Background()))
	assert.Equal(t, int32(1), trainer.calls.Load())
	assert.Equal(t, 1, invalidated)

	last := svc.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, "model-1", last.ModelID)
	assert.NoError(t, last.Err)
	assert.NotEmpty(t, last.ID)
}

func TestRunNowKeepsCacheOnFailure(t *testing.T) {
	boom := errors.New("no rows")
	trainer := &fakeTrainer{err: boom}
	invalidated := 0
	svc := NewService(trainer, func() { invalidated++ }, nil)

	err := svc.RunNow(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, invalidated)
	require.NotNil(t, svc.LastRun())
	assert.ErrorIs(t, svc.LastRun().Err, boom)
}

func TestSchedule(t *testing.T) {
	svc := NewService(&fakeTrainer{}, nil, zap.NewNop())

	_, err := svc.NextRun()
	assert.ErrorIs(t, err, ErrNotScheduled)
	assert.Nil(t, svc.LastRun())

	assert.Error(t, svc.Schedule("every tuesday"))

	require.NoError(t, svc.Schedule("0 3 * * *"))
	next, err := svc.NextRun()
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 0, next.Minute())

	require.NoError(t, svc.Schedule("@hourly"))
	assert.Len(t, svc.cron.Entries(), 1)
}

func TestStatus(t *testing.T) {
	trainer := &fakeTrainer{}
	svc := NewService(trainer, nil, zap.NewNop())

	status := svc.Status()
	assert.False(t, status.Scheduled)
	assert.Nil(t, status.NextRun)
	assert.Nil(t, status.LastRun)

	require.NoError(t, svc.Schedule("30 2 * * *"))
	require.NoError(t, svc.RunNow(context.Background()))

	status = svc.Status()
	assert.True(t, status.Scheduled)
	assert.Equal(t, "30 2 * * *", status.Schedule)
	require.NotNil(t, status.NextRun)
	assert.Equal(t, 2, status.NextRun.Hour())
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "model-1", status.LastRun.ModelID)
	assert.Empty(t, status.LastRun.Error)

	trainer.err = errors.New("no rows")
	require.Error(t, svc.RunNow(context.Background()))
	status = svc.Status()
	require.NotNil(t, status.LastRun)
	assert.Empty(t, status.LastRun.ModelID)
	assert.Equal(t, "no rows", status.LastRun.Error)
}

func TestStartStop(t *testing.T) {
	svc := NewService(&fakeTrainer{}, nil, zap.NewNop())
	require.NoError(t, svc.Schedule("@daily"))
	svc.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	svc.Stop(ctx)
}
