package outpass

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
)

// LateSweeper marks Exited outpasses whose expected return has passed as Late.
type LateSweeper struct {
	svc      *Service
	logger   core.Logger
	metrics  core.Metrics
	Interval time.Duration
	Timeout  time.Duration
	Now      func() time.Time
}

func NewLateSweeper(svc *Service, interval, timeout time.Duration) *LateSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LateSweeper{
		svc:      svc,
		logger:   svc.logger,
		metrics:  svc.metrics,
		Interval: interval,
		Timeout:  timeout,
		Now:      core.NowFunc,
	}
}

// Tick runs one sweep and returns how many outpasses were marked Late.
// Outpasses already Late are not Exited anymore, so repeated ticks never mark them twice.
func (ls *LateSweeper) Tick(ctx context.Context) (int, error) {
	exited, err := ls.svc.repo.ListByStatus(ctx, StatusExited)
	if err != nil {
		err = pkgerrors.Wrap(err, "listing exited outpasses")
		ls.metrics.ObserveLateSweep(0, err)
		return 0, err
	}

	now := ls.Now()
	var marked int
	for _, op := range exited {
		deadline, err := op.ReturnDeadline(ls.svc.opts.Location)
		if err != nil {
			ls.logger.Warn("skipping outpass with unparsable return deadline", err, map[string]interface{}{"outpass_id": op.ID})
			continue
		}
		if !deadline.Before(now) {
			continue
		}
		_, err = ls.svc.UpdateStatusFrom(ctx, op.ID, StatusUpdate{Status: StatusLate}, StatusExited)
		switch {
		case err == nil:
			marked++
		case core.IsInvalidState(err), core.IsNotFound(err):
			// returned or re-created while we were sweeping
		default:
			ls.metrics.ObserveLateSweep(marked, err)
			return marked, pkgerrors.Wrapf(err, "marking %s late", op.ID)
		}
	}
	ls.metrics.ObserveLateSweep(marked, nil)
	return marked, nil
}
