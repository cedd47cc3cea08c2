package notification

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/feedback"
	"github.com/campusgate/outpass/core/outpass"
)

const (
	defaultRejectReason = "No reason provided"
	feedbackRecipient   = "all"
)

type (
	Options struct {
		AdminEmail      mail.Address
		DefaultAdminID  string
		DispatchTimeout time.Duration
		Location        *time.Location
	}

	// Service delivers notifications through the configured channels and keeps an audit record of each one.
	Service struct {
		repo    Repository
		sms     core.SMSService
		email   core.EmailService
		logger  core.Logger
		metrics core.Metrics
		opts    Options
		fmt     Formatter
	}

	recipient struct {
		typ         Type
		recipientID string
		channel     Channel
		to          string
		subject     string
		message     string
		priority    Priority
	}
)

var (
	_ outpass.Notifier  = (*Service)(nil)
	_ feedback.Notifier = (*Service)(nil)
)

func NewService(
	repo Repository,
	sms core.SMSService,
	email core.EmailService,
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
		repo:    repo,
		sms:     sms,
		email:   email,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
		fmt:     Formatter{Location: opts.Location, Now: core.NowFunc},
	}
}

func (svc *Service) Formatter() Formatter {
	return svc.fmt
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Notification, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter)
}

// Dispatch hands req to its channel. Any failure, a timeout included, is a *core.DispatchError.
func (svc *Service) Dispatch(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.opts.DispatchTimeout)
	defer cancel()

	type outcome struct {
		id  string
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		id, err := svc.send(ctx, req)
		done <- outcome{id, err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	svc.metrics.ObserveDispatch(string(req.Channel), res.err)
	if res.err != nil {
		return Result{}, core.NewDispatchError(string(req.Channel), req.To, res.err)
	}
	return Result{Success: true, MessageID: res.id}, nil
}

func (svc *Service) send(ctx context.Context, req Request) (string, error) {
	switch req.Channel {
	case ChannelSMS:
		if !core.ValidIndianPhoneNumber(req.To) {
			return "", fmt.Errorf("invalid phone number %q", req.To)
		}
		if svc.sms == nil {
			return "", errors.New("sms service not configured")
		}
		return svc.sms.Send(ctx, core.SMSMessage{To: core.FormatIndianPhoneNumber(req.To), Body: req.Message})
	case ChannelEmail:
		if req.To == "" {
			return "", errors.New("no email address")
		}
		if svc.email == nil {
			return "", errors.New("email service not configured")
		}
		return svc.email.SendMessage(ctx, &core.EmailMessage{
			To:           []mail.Address{{Address: req.To}},
			Subject:      req.Subject,
			BodyStr:      req.Message,
			TemplateName: "notification",
			TemplateData: map[string]interface{}{
				"Message":   req.Message,
				"OutpassID": req.OutpassID,
				"Urgent":    req.Priority == PriorityHigh,
			},
		})
	case ChannelApp, ChannelSystem:
		return "push_" + uuid.New().String(), nil
	}
	return "", fmt.Errorf("unknown channel %q", req.Channel)
}

// fanOut dispatches to every recipient in parallel and stores one audit record each,
// whatever the delivery outcome.
func (svc *Service) fanOut(ctx context.Context, outpassID string, recipients []recipient) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, rcpt := range recipients {
		wg.Add(1)
		go func(rcpt recipient) {
			defer wg.Done()

			n := Notification{
				Type:        rcpt.typ,
				RecipientID: rcpt.recipientID,
				OutpassID:   outpassID,
				Subject:     rcpt.subject,
				Message:     rcpt.message,
				Channel:     rcpt.channel,
				Priority:    rcpt.priority,
				Status:      StatusSent,
			}
			res, err := svc.Dispatch(ctx, Request{
				Channel:   rcpt.channel,
				To:        rcpt.to,
				Subject:   rcpt.subject,
				Message:   rcpt.message,
				OutpassID: outpassID,
				Priority:  rcpt.priority,
			})
			if err != nil {
				n.Status = StatusFailed
				n.Error = err.Error()
			} else {
				n.MessageID = res.MessageID
			}
			n.SentAt = core.NowFunc().UTC()

			// the audit write must survive an expired dispatch context
			if _, cerr := svc.repo.Create(context.WithoutCancel(ctx), n); cerr != nil {
				svc.logger.Error("storing notification", cerr, map[string]interface{}{"outpass_id": outpassID})
				if err == nil {
					err = cerr
				}
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(rcpt)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (svc *Service) adminID(op outpass.Outpass) string {
	if op.ApprovedBy != "" {
		return op.ApprovedBy
	}
	return svc.opts.DefaultAdminID
}

func (svc *Service) parentSMS(op outpass.Outpass, msg string, prio Priority) recipient {
	return recipient{
		typ:         TypeParent,
		recipientID: op.StudentID,
		channel:     ChannelSMS,
		to:          op.Student.ParentContact,
		message:     msg,
		priority:    prio,
	}
}

func (svc *Service) adminEmail(op outpass.Outpass, subject, msg string, prio Priority) recipient {
	return recipient{
		typ:         TypeAdmin,
		recipientID: svc.adminID(op),
		channel:     ChannelEmail,
		to:          svc.opts.AdminEmail.Address,
		subject:     subject,
		message:     msg,
		priority:    prio,
	}
}

// StatusChanged notifies the recipients of op entering its current status.
// prev is empty for a newly requested outpass.
func (svc *Service) StatusChanged(ctx context.Context, op outpass.Outpass, prev outpass.Status) error {
	name, roll := op.Student.Name, op.Student.RollNo
	var recipients []recipient

	switch op.Status {
	case outpass.StatusPending:
		recipients = append(recipients, svc.adminEmail(op, newRequestSubject(name), newRequestMessage(op), PriorityNormal))

	case outpass.StatusApproved:
		recipients = append(recipients,
			svc.parentSMS(op, svc.fmt.StatusMessage(op.Status, name, roll, op.ID, Details{}), PriorityNormal),
			recipient{
				typ:         TypeStudent,
				recipientID: op.StudentID,
				channel:     ChannelApp,
				to:          op.StudentID,
				message:     approvedStudentMessage(op.ID),
				priority:    PriorityNormal,
			},
		)

	case outpass.StatusRejected:
		reason := op.RejectReason
		if reason == "" {
			reason = defaultRejectReason
		}
		recipients = append(recipients,
			svc.parentSMS(op, svc.fmt.StatusMessage(op.Status, name, roll, op.ID, Details{Reason: reason}), PriorityNormal),
			recipient{
				typ:         TypeStudent,
				recipientID: op.StudentID,
				channel:     ChannelApp,
				to:          op.StudentID,
				message:     rejectedStudentMessage(op.ID, reason),
				priority:    PriorityHigh,
			},
		)

	case outpass.StatusExited:
		msg := svc.fmt.StatusMessage(op.Status, name, roll, op.ID, Details{Time: timeOrZero(op.ExitTime)})
		recipients = append(recipients,
			svc.adminEmail(op, fmt.Sprintf("Student Exit: %s (%s)", name, roll), msg, PriorityNormal),
			svc.parentSMS(op, msg, PriorityNormal),
		)

	case outpass.StatusReturned:
		msg := svc.fmt.StatusMessage(op.Status, name, roll, op.ID, Details{Time: timeOrZero(op.ActualReturnAt)})
		recipients = append(recipients,
			svc.adminEmail(op, fmt.Sprintf("Student Return: %s (%s)", name, roll), msg, PriorityNormal),
			svc.parentSMS(op, msg, PriorityNormal),
		)

	case outpass.StatusLate:
		msg := svc.fmt.StatusMessage(op.Status, name, roll, op.ID, Details{})
		recipients = append(recipients,
			svc.parentSMS(op, msg, PriorityHigh),
			svc.adminEmail(op, fmt.Sprintf("URGENT: Student Late Return - %s (%s)", name, roll), msg, PriorityHigh),
		)
	}

	if len(recipients) == 0 {
		return nil
	}
	return svc.fanOut(ctx, op.ID, recipients)
}

// Reminder sends the day-of reminders for an Approved outpass.
func (svc *Service) Reminder(ctx context.Context, op outpass.Outpass) error {
	return svc.fanOut(ctx, op.ID, []recipient{
		svc.parentSMS(op, reminderParentMessage(op), PriorityNormal),
		{
			typ:         TypeStudent,
			recipientID: op.StudentID,
			channel:     ChannelSMS,
			to:          op.Student.Contact,
			message:     reminderStudentMessage(op),
			priority:    PriorityNormal,
		},
		svc.adminEmail(op, "Daily Outpass Reminder", reminderAdminMessage(op), PriorityNormal),
	})
}

// FeedbackSubmitted tells every admin that a student commented on a rejected outpass.
func (svc *Service) FeedbackSubmitted(ctx context.Context, fb feedback.Feedback) error {
	return svc.fanOut(ctx, fb.OutpassID, []recipient{{
		typ:         TypeAdmin,
		recipientID: feedbackRecipient,
		channel:     ChannelSystem,
		to:          feedbackRecipient,
		subject:     "New Feedback Submission",
		message:     feedbackMessage(fb.OutpassID),
		priority:    PriorityNormal,
	}})
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
