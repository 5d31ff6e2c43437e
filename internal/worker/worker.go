package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/nebari-dev/wabastudio/internal/models"
	"github.com/nebari-dev/wabastudio/internal/queue"
	"gorm.io/gorm"
)

// Handler runs one job. Anything written to logs is stored on the job row.
type Handler func(ctx context.Context, job *models.Job, logs io.Writer) error

// Worker processes jobs from the queue
type Worker struct {
	db         *gorm.DB
	queue      queue.Queue
	logger     *slog.Logger
	handlers   map[models.JobType]Handler
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

// New creates a worker running at most maxWorkers jobs at once.
func New(db *gorm.DB, q queue.Queue, logger *slog.Logger, maxWorkers int) *Worker {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &Worker{
		db:         db,
		queue:      q,
		logger:     logger,
		handlers:   make(map[models.JobType]Handler),
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Handle registers the handler for a job type. Call before Start.
func (w *Worker) Handle(t models.JobType, h Handler) {
	w.handlers[t] = h
}

// Start processes jobs until ctx is cancelled, then waits for running jobs.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started", "max_concurrent_jobs", w.maxWorkers)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker shutting down, waiting for jobs to complete")
			w.wg.Wait()
			w.logger.Info("All jobs completed, worker stopped")
			return ctx.Err()
		default:
		}

		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				continue
			}
			w.logger.Error("Failed to dequeue job", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		select {
		case w.semaphore <- struct{}{}:
			w.wg.Add(1)
			go func(j *models.Job) {
				defer w.wg.Done()
				defer func() { <-w.semaphore }()
				w.processJob(ctx, j)
			}(job)
		case <-ctx.Done():
			w.logger.Info("Context cancelled while waiting for worker slot", "job_id", job.ID)
			w.wg.Wait()
			return ctx.Err()
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job *models.Job) {
	var logBuf bytes.Buffer

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic recovered in processJob", "job_id", job.ID, "panic", r)
			w.finish(job, logBuf.String(), fmt.Errorf("job panicked: %v", r))
		}
	}()

	handler, ok := w.handlers[job.Type]
	if !ok {
		w.finish(job, "", fmt.Errorf("no handler for job type %q", job.Type))
		return
	}

	w.logger.Info("Processing job", "job_id", job.ID, "type", job.Type)
	now := time.Now()
	job.Status = models.JobStatusRunning
	job.StartedAt = &now
	if err := w.db.Save(job).Error; err != nil {
		w.logger.Error("Failed to mark job running", "job_id", job.ID, "error", err)
	}

	err := handler(ctx, job, &logBuf)
	w.finish(job, logBuf.String(), err)
}

// finish stores the final status. Failed jobs are not retried.
func (w *Worker) finish(job *models.Job, logs string, err error) {
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	job.Logs = logs

	if err != nil {
		w.logger.Error("Job failed", "job_id", job.ID, "type", job.Type, "error", err)
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
	} else {
		w.logger.Info("Job completed", "job_id", job.ID, "type", job.Type)
		job.Status = models.JobStatusCompleted
	}

	if err := w.db.Save(job).Error; err != nil {
		w.logger.Error("Failed to save job result", "job_id", job.ID, "error", err)
	}
}
