package outpass

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/student"
)

var (
	// errors
	ErrNotFound = errors.New("outpass not found")
)

type (
	Repository interface {
		// Create stores a new current record. A terminal record already stored under the same id is archived first.
		Create(ctx context.Context, op Outpass) (Outpass, error)
		// Get returns the current (non-archived) record with this id.
		Get(ctx context.Context, id string) (Outpass, error)
		Update(ctx context.Context, op Outpass) (Outpass, error)
		// Query applies AND operation on available QueryFilter fields, newest first.
		Query(ctx context.Context, filter QueryFilter) ([]Outpass, error)
		ListByStatus(ctx context.Context, statuses ...Status) ([]Outpass, error)
	}

	// Notifier fans a transition out to its recipients.
	Notifier interface {
		StatusChanged(ctx context.Context, op Outpass, prev Status) error
		Reminder(ctx context.Context, op Outpass) error
	}

	StudentFinder interface {
		Get(ctx context.Context, id string) (student.Student, error)
	}

	Options struct {
		DefaultAdminID  string
		DispatchTimeout time.Duration
		Location        *time.Location
	}

	Service struct {
		repo     Repository
		students StudentFinder
		notifier Notifier
		validate *validator.Validate
		logger   core.Logger
		metrics  core.Metrics
		opts     Options
		locks    *keyedMutex
	}
)

func NewService(
	repo Repository,
	students StudentFinder,
	notifier Notifier,
	validate *validator.Validate,
	logger core.Logger,
	metrics core.Metrics,
	opts Options,
) *Service {
	if metrics == nil {
		metrics = core.NopMetrics{}
	}
	if opts.DefaultAdminID == "" {
		opts.DefaultAdminID = "AD-001"
	}
	if opts.DispatchTimeout <= 0 {
		opts.DispatchTimeout = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		repo:     repo,
		students: students,
		notifier: notifier,
		validate: validate,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
		locks:    newKeyedMutex(),
	}
}

func (svc *Service) Location() *time.Location {
	return svc.opts.Location
}

// Create requests a new outpass for a student who has none active.
func (svc *Service) Create(ctx context.Context, no NewOutpass) (Outpass, error) {
	if err := no.Validate(svc.validate); err != nil {
		return Outpass{}, err
	}

	std, err := svc.students.Get(ctx, no.StudentID)
	if err != nil {
		return Outpass{}, err
	}
	if missing := std.MissingProfileFields(); len(missing) > 0 {
		flds := make([]core.FieldError, 0, len(missing))
		for _, f := range missing {
			flds = append(flds, core.FieldError{Field: f, Error: "complete your profile before requesting an outpass"})
		}
		return Outpass{}, core.NewValidationError(nil, flds...)
	}

	id := IDForRollNo(std.RollNo)
	unlock := svc.locks.Lock(id)
	defer unlock()

	existing, err := svc.repo.Query(ctx, QueryFilter{RollNo: std.RollNo})
	if err != nil {
		return Outpass{}, pkgerrors.Wrap(err, "checking active outpasses")
	}
	for _, ex := range existing {
		if ex.Status.Active() {
			return Outpass{}, core.NewConflictError("outpass", ex.ID, "student already has an active outpass ("+string(ex.Status)+")")
		}
	}

	now := core.NowFunc().UTC()
	op := Outpass{
		ID:        id,
		StudentID: std.ID,
		Student: StudentSnapshot{
			Name:          std.Name,
			RollNo:        std.RollNo,
			RoomNo:        std.RoomNo,
			Hostel:        std.Hostel,
			Contact:       std.Contact,
			ParentContact: std.ParentContact,
		},
		Type:               no.Type,
		Purpose:            no.Purpose,
		Place:              no.Place,
		Date:               no.Date,
		ExpectedReturnTime: no.ExpectedReturnTime,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if op, err = svc.repo.Create(ctx, op); err != nil {
		return Outpass{}, pkgerrors.Wrap(err, "creating outpass")
	}
	svc.metrics.ObserveTransition("", string(StatusPending))
	return svc.notify(ctx, op, "")
}

func (svc *Service) Get(ctx context.Context, id string) (Outpass, error) {
	id = core.CleanString(id)
	op, err := svc.repo.Get(ctx, id)
	return op, notFound(err, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Outpass, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter)
}

// UpdateStatus moves the outpass to upd.Status, applying the side effects of the target status
// and notifying recipients once per actual change.
func (svc *Service) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (Outpass, error) {
	return svc.UpdateStatusFrom(ctx, id, upd)
}

// UpdateStatusFrom is UpdateStatus guarded by a precondition:
// when from is not empty, the current status must be one of them.
func (svc *Service) UpdateStatusFrom(ctx context.Context, id string, upd StatusUpdate, from ...Status) (Outpass, error) {
	upd.Clean()
	if err := svc.validate.Struct(upd); err != nil {
		return Outpass{}, err
	}
	if !upd.Status.Valid() {
		return Outpass{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status " + string(upd.Status)})
	}

	id = core.CleanString(id)
	unlock := svc.locks.Lock(id)
	defer unlock()

	op, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Outpass{}, notFound(err, id)
	}
	prev := op.Status

	if len(from) > 0 && !statusIn(prev, from) {
		return Outpass{}, core.NewInvalidStateError(op.ID, string(prev), actionName(upd.Status))
	}
	if prev == upd.Status {
		return op, nil
	}
	if !CanTransition(prev, upd.Status) {
		return Outpass{}, core.NewInvalidStateError(op.ID, string(prev), actionName(upd.Status))
	}
	if missing := upd.requiredFields(); len(missing) > 0 {
		return Outpass{}, core.NewValidationError(nil, missing...)
	}

	svc.apply(&op, upd)
	if op, err = svc.repo.Update(ctx, op); err != nil {
		return Outpass{}, pkgerrors.Wrap(err, "updating outpass")
	}
	svc.metrics.ObserveTransition(string(prev), string(op.Status))
	return svc.notify(ctx, op, prev)
}

func (svc *Service) apply(op *Outpass, upd StatusUpdate) {
	now := core.NowFunc().UTC()
	op.Status = upd.Status
	op.UpdatedAt = now
	op.NotificationSent = false

	switch upd.Status {
	case StatusApproved:
		op.BarcodeToken = op.Student.RollNo
		op.ApprovedAt = &now
		op.ApprovedBy = upd.ApprovedBy
		if op.ApprovedBy == "" {
			op.ApprovedBy = svc.opts.DefaultAdminID
		}
	case StatusRejected:
		op.RejectReason = upd.RejectReason
		if upd.ApprovedBy != "" {
			op.ApprovedBy = upd.ApprovedBy
		}
	case StatusExited:
		t := upd.ExitTime.UTC()
		op.ExitTime = &t
		op.ExitGate = upd.ExitGate
	case StatusReturned:
		t := upd.ReturnTime.UTC()
		op.ActualReturnAt = &t
		op.ReturnGate = upd.ReturnGate
		op.BarcodeToken = ""
	case StatusCancelled:
		op.CancelledAt = &now
		op.BarcodeToken = ""
	case StatusLate:
		op.LateAt = &now
	}
}

// notify runs the fan-out for op's current status and records that it happened.
// Delivery failures are logged and never undo the transition.
func (svc *Service) notify(ctx context.Context, op Outpass, prev Status) (Outpass, error) {
	if svc.notifier != nil {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), svc.opts.DispatchTimeout)
		err := svc.notifier.StatusChanged(dctx, op, prev)
		cancel()
		if err != nil {
			svc.logger.Error("outpass notification fan-out failed", err, map[string]interface{}{
				"outpass_id": op.ID,
				"from":       string(prev),
				"to":         string(op.Status),
			})
		}
	}

	op.NotificationSent = true
	saved, err := svc.repo.Update(ctx, op)
	if err != nil {
		return op, pkgerrors.Wrap(err, "marking notification sent")
	}
	return saved, nil
}

func statusIn(s Status, list []Status) bool {
	for _, st := range list {
		if s == st {
			return true
		}
	}
	return false
}

func actionName(target Status) string {
	switch target {
	case StatusApproved:
		return "approve"
	case StatusRejected:
		return "reject"
	case StatusExited:
		return "record exit for"
	case StatusReturned:
		return "record return for"
	case StatusCancelled:
		return "cancel"
	case StatusLate:
		return "mark late"
	case StatusPending:
		return "reopen"
	}
	return "update"
}

func notFound(err error, id string) error {
	if err == ErrNotFound {
		return core.NewNotFoundError("outpass", id)
	}
	return err
}
