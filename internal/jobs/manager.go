package jobs

import (
	"go.uber.org/zap"
)

// Job is a startable scheduled task.
type Job interface {
	Start() error
	Stop()
}

// JobManager starts and stops the background jobs as a unit. A failed start
// stops any jobs already running.
type JobManager struct {
	jobs   []Job
	logger *zap.Logger
}

func NewJobManager(logger *zap.Logger, jobs ...Job) *JobManager {
	return &JobManager{jobs: jobs, logger: logger}
}

func (m *JobManager) StartAll() error {
	for i, job := range m.jobs {
		if err := job.Start(); err != nil {
			for _, started := range m.jobs[:i] {
				started.Stop()
			}
			return err
		}
	}
	m.logger.Info("background jobs started", zap.Int("count", len(m.jobs)))
	return nil
}

func (m *JobManager) StopAll() {
	for _, job := range m.jobs {
		job.Stop()
	}
	m.logger.Info("background jobs stopped")
}
