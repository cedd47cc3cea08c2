package gate

import (
	"time"

	"github.com/campusgate/outpass/core"
)

type Action string

const (
	ActionExit   Action = "exit"
	ActionReturn Action = "return"

	DefaultGate = "Unknown Gate"
)

func (a Action) Valid() bool {
	return a == ActionExit || a == ActionReturn
}

// GateLog is the audit entry written for every successful scan at a gate.
type GateLog struct {
	ID         string    `json:"id" db:"id"`
	OutpassID  string    `json:"outpass_id" db:"outpass_id"`
	StudentID  string    `json:"student_id" db:"student_id"`
	Action     Action    `json:"action" db:"action"`
	Gate       string    `json:"gate" db:"gate"`
	SecurityID string    `json:"security_id" db:"security_id"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"` // UTC
}

// NewGateAction is a gate scan to record against an outpass.
type NewGateAction struct {
	OutpassID  string `json:"outpass_id" validate:"required"`
	Action     Action `json:"action" validate:"required,oneof=exit return"`
	Gate       string `json:"gate"`
	SecurityID string `json:"security_id" validate:"required"`
}

func (na *NewGateAction) Clean() {
	na.OutpassID = core.CleanString(na.OutpassID)
	na.Action = Action(core.CleanString(string(na.Action), true /* lower */))
	na.Gate = core.CleanString(na.Gate)
	na.SecurityID = core.CleanString(na.SecurityID)
	if na.Gate == "" {
		na.Gate = DefaultGate
	}
}

type QueryFilter struct {
	OutpassID string `query:"outpass_id"`
	StudentID string `query:"student_id"`
	Action    Action `query:"action"`
}

func (qf *QueryFilter) Clean() {
	qf.OutpassID = core.CleanString(qf.OutpassID)
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Action = Action(core.CleanString(string(qf.Action), true /* lower */))
}
