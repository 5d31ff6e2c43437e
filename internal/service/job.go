package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nebari-dev/wabastudio/internal/models"
	"gorm.io/gorm"
)

// JobService reads background jobs.
type JobService struct {
	db *gorm.DB
}

// NewJobService creates a new JobService.
func NewJobService(db *gorm.DB) *JobService {
	return &JobService{db: db}
}

// Get returns a job by ID.
func (s *JobService) Get(id string) (*models.Job, error) {
	jobID, err := uuid.Parse(id)
	if err != nil {
		return nil, &ValidationError{Message: "invalid job ID"}
	}
	var job models.Job
	if err := s.db.Where("id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ListForDraft returns the jobs of a draft, newest first.
func (s *JobService) ListForDraft(draftID string) ([]models.Job, error) {
	var jobs []models.Job
	if err := s.db.Where("draft_id = ?", draftID).Order("created_at DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
