package inmemdb

import (
	"context"

	"github.com/campusgate/outpass/core/feedback"
)

type feedbackRepository struct {
	db *feedbackTable
}

func NewFeedbackRepository(db *DB) feedback.Repository {
	return &feedbackRepository{db: db.feedback}
}

func (repo *feedbackRepository) Create(_ context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.rows = append(repo.db.rows, fb)
	return fb, nil
}

func (repo *feedbackRepository) Query(_ context.Context, filter feedback.QueryFilter) ([]feedback.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]feedback.Feedback, 0)
	for i := len(repo.db.rows) - 1; i >= 0; i-- {
		fb := repo.db.rows[i]
		if filter.OutpassID != "" && fb.OutpassID != filter.OutpassID {
			continue
		}
		if filter.StudentID != "" && fb.StudentID != filter.StudentID {
			continue
		}
		res = append(res, fb)
	}
	return res, nil
}
