package feedback

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campusgate/outpass/core"
)

// Feedback is a student's comment on one of their outpasses, usually a rejected one.
type Feedback struct {
	ID        string    `json:"id" db:"id"`
	OutpassID string    `json:"outpass_id" db:"outpass_id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Feedback  string    `json:"feedback" db:"feedback"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type NewFeedback struct {
	OutpassID string `json:"outpass_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Feedback  string `json:"feedback" validate:"required,max=2000"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.OutpassID = core.CleanString(nf.OutpassID)
	nf.StudentID = core.CleanString(nf.StudentID)
	nf.Feedback = core.CleanString(nf.Feedback)
	return validate.Struct(nf)
}

type QueryFilter struct {
	OutpassID string `query:"outpass_id"`
	StudentID string `query:"student_id"`
}

func (qf *QueryFilter) Clean() {
	qf.OutpassID = core.CleanString(qf.OutpassID)
	qf.StudentID = core.CleanString(qf.StudentID)
}
