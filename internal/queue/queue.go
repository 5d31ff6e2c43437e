package queue

import (
	"context"
	"fmt"

	"github.com/nebari-dev/wabastudio/internal/models"
	"gorm.io/gorm"
)

// Queue carries submission jobs from the API to the worker. Job status
// lives on the database row; the queue only transports jobs.
type Queue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, job *models.Job) error

	// Dequeue blocks for the next job. context.DeadlineExceeded means no
	// job arrived in time and the caller should poll again.
	Dequeue(ctx context.Context) (*models.Job, error)

	// Close closes the queue and releases resources
	Close() error
}

// New builds the queue named by kind ("memory" or "valkey").
func New(kind, valkeyAddr string, db *gorm.DB) (Queue, error) {
	switch kind {
	case "", "memory":
		return NewMemoryQueue(100), nil
	case "valkey":
		return NewValkeyQueue(valkeyAddr, db)
	default:
		return nil, fmt.Errorf("unsupported queue type: %s", kind)
	}
}
