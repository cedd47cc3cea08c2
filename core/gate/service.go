package gate

import (
	"context"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/outpass"
)

type (
	Repository interface {
		// Create assigns the next GL-nnn id and stores the log.
		Create(ctx context.Context, log GateLog) (GateLog, error)
		// Query returns matching logs, newest first.
		Query(ctx context.Context, filter QueryFilter) ([]GateLog, error)
	}

	Outpasses interface {
		UpdateStatusFrom(ctx context.Context, id string, upd outpass.StatusUpdate, from ...outpass.Status) (outpass.Outpass, error)
		FindByToken(ctx context.Context, token string) (outpass.Outpass, error)
	}

	Service struct {
		repo      Repository
		outpasses Outpasses
		validate  *validator.Validate
	}
)

func NewService(repo Repository, outpasses Outpasses, validate *validator.Validate) *Service {
	return &Service{repo: repo, outpasses: outpasses, validate: validate}
}

// Scan resolves a barcode or roll number to the outpass a guard should act on.
func (svc *Service) Scan(ctx context.Context, token string) (outpass.Outpass, error) {
	return svc.outpasses.FindByToken(ctx, token)
}

// RecordAction moves the outpass through the gate and writes the audit log.
// An exit needs an Approved outpass; a return needs an Exited or Late one.
func (svc *Service) RecordAction(ctx context.Context, na NewGateAction) (GateLog, outpass.Outpass, error) {
	na.Clean()
	if err := svc.validate.Struct(na); err != nil {
		return GateLog{}, outpass.Outpass{}, err
	}

	now := core.NowFunc().UTC()
	var (
		op  outpass.Outpass
		err error
	)
	switch na.Action {
	case ActionExit:
		op, err = svc.outpasses.UpdateStatusFrom(ctx, na.OutpassID, outpass.StatusUpdate{
			Status:   outpass.StatusExited,
			ExitTime: &now,
			ExitGate: na.Gate,
		}, outpass.StatusApproved)
	case ActionReturn:
		op, err = svc.outpasses.UpdateStatusFrom(ctx, na.OutpassID, outpass.StatusUpdate{
			Status:     outpass.StatusReturned,
			ReturnTime: &now,
			ReturnGate: na.Gate,
		}, outpass.StatusExited, outpass.StatusLate)
	}
	if err != nil {
		return GateLog{}, outpass.Outpass{}, err
	}

	log, err := svc.repo.Create(ctx, GateLog{
		OutpassID:  op.ID,
		StudentID:  op.StudentID,
		Action:     na.Action,
		Gate:       na.Gate,
		SecurityID: na.SecurityID,
		Timestamp:  now,
	})
	if err != nil {
		return GateLog{}, op, pkgerrors.Wrap(err, "storing gate log")
	}
	return log, op, nil
}

func (svc *Service) RecordExit(ctx context.Context, outpassID, gate, securityID string) (GateLog, outpass.Outpass, error) {
	return svc.RecordAction(ctx, NewGateAction{OutpassID: outpassID, Action: ActionExit, Gate: gate, SecurityID: securityID})
}

func (svc *Service) RecordReturn(ctx context.Context, outpassID, gate, securityID string) (GateLog, outpass.Outpass, error) {
	return svc.RecordAction(ctx, NewGateAction{OutpassID: outpassID, Action: ActionReturn, Gate: gate, SecurityID: securityID})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]GateLog, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter)
}
