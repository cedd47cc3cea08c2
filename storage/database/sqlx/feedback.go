package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core/feedback"
)

type feedbackRepository struct {
	db *sqlx.DB
}

func NewFeedbackRepository(db *sqlx.DB) feedback.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) Create(ctx context.Context, fb feedback.Feedback) (feedback.Feedback, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO feedback (id, outpass_id, student_id, feedback, created_at)
		VALUES (:id, :outpass_id, :student_id, :feedback, :created_at)`,
		fb,
	)
	if err != nil {
		return feedback.Feedback{}, errors.Wrap(err, "inserting feedback")
	}
	return fb, nil
}

func (repo *feedbackRepository) Query(ctx context.Context, filter feedback.QueryFilter) ([]feedback.Feedback, error) {
	var w where
	if filter.OutpassID != "" {
		w.add("outpass_id = ?", filter.OutpassID)
	}
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}

	res := make([]feedback.Feedback, 0)
	q := repo.db.Rebind(`SELECT id, outpass_id, student_id, feedback, created_at FROM feedback` + w.String() + ` ORDER BY created_at DESC`)
	err := repo.db.SelectContext(ctx, &res, q, w.args...)
	return res, errors.Wrap(err, "selecting feedback")
}
