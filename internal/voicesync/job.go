package voicesync

import "context"

// Job запускает синхронизацию из планировщика
type Job struct {
	coordinator *Coordinator
}

// NewJob создает задачу периодической синхронизации
func NewJob(c *Coordinator) *Job {
	return &Job{coordinator: c}
}

func (j *Job) Run(ctx context.Context) error {
	_, err := j.coordinator.Sync(ctx)
	return err
}

func (j *Job) Name() string {
	return "voice_sync"
}
