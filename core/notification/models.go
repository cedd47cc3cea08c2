package notification

import (
	"context"
	"errors"
	"time"

	"github.com/campusgate/outpass/core"
)

var (
	// errors
	ErrNotFound = errors.New("notification not found")
)

type (
	Type     string
	Channel  string
	Status   string
	Priority string
)

const (
	TypeParent  Type = "parent"
	TypeAdmin   Type = "admin"
	TypeStudent Type = "student"

	ChannelSMS    Channel = "sms"
	ChannelEmail  Channel = "email"
	ChannelApp    Channel = "app"
	ChannelSystem Channel = "system"

	StatusSent   Status = "sent"
	StatusFailed Status = "failed"

	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is the audit record of one message sent (or attempted) to one recipient.
type Notification struct {
	ID          string    `json:"id" db:"id"`
	Type        Type      `json:"type" db:"type"`
	RecipientID string    `json:"recipient_id" db:"recipient_id"`
	OutpassID   string    `json:"outpass_id,omitempty" db:"outpass_id"`
	Subject     string    `json:"subject,omitempty" db:"subject"`
	Message     string    `json:"message" db:"message"`
	Channel     Channel   `json:"channel" db:"channel"`
	Status      Status    `json:"status" db:"status"`
	MessageID   string    `json:"message_id,omitempty" db:"message_id"`
	Error       string    `json:"error,omitempty" db:"error"`
	Priority    Priority  `json:"priority" db:"priority"`
	SentAt      time.Time `json:"sent_at" db:"sent_at"` // UTC
}

type QueryFilter struct {
	RecipientID string `query:"recipient_id"`
	Type        Type   `query:"type"`
	Types       []Type `query:"types"`
	OutpassID   string `query:"outpass_id"`
	Limit       int    `query:"limit"`
}

func (qf *QueryFilter) Clean() {
	qf.RecipientID = core.CleanString(qf.RecipientID)
	qf.Type = Type(core.CleanString(string(qf.Type), true /* lower */))
	qf.OutpassID = core.CleanString(qf.OutpassID)
	if qf.Limit < 0 {
		qf.Limit = 0
	}
}

// Matches reports whether n satisfies every set field of the filter (Limit aside).
func (qf QueryFilter) Matches(n Notification) bool {
	if qf.RecipientID != "" && n.RecipientID != qf.RecipientID {
		return false
	}
	if qf.Type != "" && n.Type != qf.Type {
		return false
	}
	if len(qf.Types) > 0 {
		var ok bool
		for _, t := range qf.Types {
			if n.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if qf.OutpassID != "" && n.OutpassID != qf.OutpassID {
		return false
	}
	return true
}

type Repository interface {
	// Create assigns the next NOT-nnn id and stores n.
	Create(ctx context.Context, n Notification) (Notification, error)
	// Query returns matching notifications, newest first.
	Query(ctx context.Context, filter QueryFilter) ([]Notification, error)
}

// Request is one message handed to a delivery channel.
type Request struct {
	Channel   Channel
	To        string // phone number, email address or recipient id for in-app channels
	Subject   string
	Message   string
	OutpassID string
	Priority  Priority
}

// Result is what a channel reports back for a successful delivery.
type Result struct {
	Success   bool
	MessageID string
}
