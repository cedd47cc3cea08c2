package feedback

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/outpass"
)

type (
	Repository interface {
		Create(ctx context.Context, fb Feedback) (Feedback, error)
		// Query returns matching feedback, newest first.
		Query(ctx context.Context, filter QueryFilter) ([]Feedback, error)
	}

	OutpassFinder interface {
		Get(ctx context.Context, id string) (outpass.Outpass, error)
	}

	Notifier interface {
		FeedbackSubmitted(ctx context.Context, fb Feedback) error
	}

	Service struct {
		repo     Repository
		outpass  OutpassFinder
		notifier Notifier
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, outpasses OutpassFinder, notifier Notifier, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		outpass:  outpasses,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

// Submit stores the feedback and lets the hostel office know about it.
func (svc *Service) Submit(ctx context.Context, nf NewFeedback) (Feedback, error) {
	if err := nf.Validate(svc.validate); err != nil {
		return Feedback{}, err
	}
	if _, err := svc.outpass.Get(ctx, nf.OutpassID); err != nil {
		return Feedback{}, err
	}

	fb, err := svc.repo.Create(ctx, Feedback{
		ID:        "FB-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8]),
		OutpassID: nf.OutpassID,
		StudentID: nf.StudentID,
		Feedback:  nf.Feedback,
		CreatedAt: core.NowFunc().UTC(),
	})
	if err != nil {
		return Feedback{}, pkgerrors.Wrap(err, "storing feedback")
	}

	if svc.notifier != nil {
		if err := svc.notifier.FeedbackSubmitted(ctx, fb); err != nil {
			svc.logger.Error("feedback notification failed", err, map[string]interface{}{"feedback_id": fb.ID})
		}
	}
	return fb, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Feedback, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter)
}
