package outpass

import (
	"context"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
)

// Reminder notifies parents, students and the hostel office about Approved outpasses dated today.
type Reminder struct {
	svc *Service
	Now func() time.Time

	mu      sync.Mutex
	lastRun string // date of the last completed pass
}

func NewReminder(svc *Service) *Reminder {
	return &Reminder{svc: svc, Now: core.NowFunc}
}

// Tick sends today's reminders and returns how many outpasses were covered.
// A second call on the same day is a no-op.
func (r *Reminder) Tick(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := r.Now().In(r.svc.opts.Location).Format(DateLayout)
	if r.lastRun == today {
		return 0, nil
	}

	ops, err := r.svc.repo.Query(ctx, QueryFilter{Status: StatusApproved, Date: today})
	if err != nil {
		return 0, pkgerrors.Wrap(err, "listing approved outpasses")
	}
	for _, op := range ops {
		if r.svc.notifier == nil {
			break
		}
		dctx, cancel := context.WithTimeout(ctx, r.svc.opts.DispatchTimeout)
		err := r.svc.notifier.Reminder(dctx, op)
		cancel()
		if err != nil {
			r.svc.logger.Error("outpass reminder failed", err, map[string]interface{}{"outpass_id": op.ID})
		}
	}
	r.lastRun = today
	return len(ops), nil
}
