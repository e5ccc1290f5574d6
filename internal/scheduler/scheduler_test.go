package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

func TestRunOnceContinuesAfterFailure(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	failing := &countingJob{err: errors.New("boom")}
	ok := &countingJob{}
	s.AddJob(failing)
	s.AddJob(ok)

	assert.Equal(t, 1, s.RunOnce(context.Background()))
	assert.Equal(t, int32(1), failing.runs.Load())
	assert.Equal(t, int32(1), ok.runs.Load())
}

func TestStartDisabledReturnsImmediately(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	job := &countingJob{}
	s.AddJob(job)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background(), 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("планировщик с нулевым интервалом не вернулся")
	}
	assert.Equal(t, int32(0), job.runs.Load())
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	job := &countingJob{}
	s.AddJob(job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	assert.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("планировщик не остановился")
	}
}
