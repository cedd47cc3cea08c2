package outpass

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/campusgate/outpass/core"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusExited    Status = "Exited"
	StatusReturned  Status = "Returned"
	StatusLate      Status = "Late"
	StatusCancelled Status = "Cancelled"
)

var AllStatuses = []Status{
	StatusPending, StatusApproved, StatusRejected, StatusExited, StatusReturned, StatusLate, StatusCancelled,
}

// Active reports whether an outpass in this status still blocks the student from requesting another one.
func (s Status) Active() bool {
	switch s {
	case StatusReturned, StatusRejected, StatusCancelled:
		return false
	}
	return true
}

func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Type string

const (
	TypeMarket   Type = "Market"
	TypeHome     Type = "Home"
	TypeMedical  Type = "Medical"
	TypeAcademic Type = "Academic"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// StudentSnapshot is the copy of the student's profile taken when the outpass was requested.
type StudentSnapshot struct {
	Name          string `json:"name"`
	RollNo        string `json:"roll_no"`
	RoomNo        string `json:"room_no"`
	Hostel        string `json:"hostel"`
	Contact       string `json:"contact"`
	ParentContact string `json:"parent_contact"`
}

type Outpass struct {
	ID                 string          `json:"id"`
	StudentID          string          `json:"student_id"`
	Student            StudentSnapshot `json:"student"`
	Type               Type            `json:"type"`
	Purpose            string          `json:"purpose"`
	Place              string          `json:"place"`
	Date               string          `json:"date"`                 // YYYY-MM-DD
	ExpectedReturnTime string          `json:"expected_return_time"` // HH:MM
	Status             Status          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"` // UTC
	UpdatedAt          time.Time       `json:"updated_at"` // UTC
	ApprovedBy         string          `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time      `json:"approved_at,omitempty"`
	RejectReason       string          `json:"reject_reason,omitempty"`
	ExitTime           *time.Time      `json:"exit_time,omitempty"`
	ExitGate           string          `json:"exit_gate,omitempty"`
	ActualReturnAt     *time.Time      `json:"actual_return_at,omitempty"`
	ReturnGate         string          `json:"return_gate,omitempty"`
	LateAt             *time.Time      `json:"late_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	BarcodeToken       string          `json:"barcode_token,omitempty"`
	NotificationSent   bool            `json:"notification_sent"`
}

// ReturnDeadline is the moment the student is expected back on campus, in loc.
func (op Outpass) ReturnDeadline(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, op.Date+" "+op.ExpectedReturnTime, loc)
}

// IDForRollNo derives the outpass id from a student's roll number.
func IDForRollNo(rollNo string) string {
	return "OP-" + rollNo
}

// NewOutpass contains information needed to request an Outpass.
type NewOutpass struct {
	StudentID          string `json:"student_id" validate:"required"`
	Type               Type   `json:"type" validate:"required,oneof=Market Home Medical Academic"`
	Purpose            string `json:"purpose" validate:"required"`
	Place              string `json:"place" validate:"required"`
	Date               string `json:"date" validate:"required,datetime=2006-01-02"`
	ExpectedReturnTime string `json:"expected_return_time" validate:"required,hhmm"`
}

func (no *NewOutpass) Validate(validate *validator.Validate) error {
	no.StudentID = core.CleanString(no.StudentID)
	no.Type = Type(core.CleanString(string(no.Type)))
	no.Purpose = core.CleanString(no.Purpose)
	no.Place = core.CleanString(no.Place)
	no.Date = core.CleanString(no.Date)
	no.ExpectedReturnTime = core.CleanString(no.ExpectedReturnTime)
	return validate.Struct(no)
}

// StatusUpdate is a request to move an outpass to Status.
// Which of the optional fields are required depends on the target status.
type StatusUpdate struct {
	Status       Status     `json:"status" validate:"required"`
	ApprovedBy   string     `json:"approved_by"`
	RejectReason string     `json:"reject_reason"`
	ExitTime     *time.Time `json:"exit_time"`
	ExitGate     string     `json:"exit_gate"`
	ReturnTime   *time.Time `json:"return_time"`
	ReturnGate   string     `json:"return_gate"`
}

func (su *StatusUpdate) Clean() {
	su.Status = Status(core.CleanString(string(su.Status)))
	su.ApprovedBy = core.CleanString(su.ApprovedBy)
	su.RejectReason = core.CleanString(su.RejectReason)
	su.ExitGate = core.CleanString(su.ExitGate)
	su.ReturnGate = core.CleanString(su.ReturnGate)
}

// requiredFields checks the fields the target status needs before any side effect happens.
func (su StatusUpdate) requiredFields() []core.FieldError {
	var missing []core.FieldError
	req := func(field string, ok bool) {
		if !ok {
			missing = append(missing, core.FieldError{Field: field, Error: "this field is required"})
		}
	}
	switch su.Status {
	case StatusRejected:
		req("reject_reason", su.RejectReason != "")
	case StatusExited:
		req("exit_time", su.ExitTime != nil && !su.ExitTime.IsZero())
		req("exit_gate", su.ExitGate != "")
	case StatusReturned:
		req("return_time", su.ReturnTime != nil && !su.ReturnTime.IsZero())
		req("return_gate", su.ReturnGate != "")
	}
	return missing
}

type QueryFilter struct {
	ID              string `query:"id"`
	StudentID       string `query:"student_id"`
	Status          Status `query:"status"`
	Hostel          string `query:"hostel"`
	Date            string `query:"date"`
	Token           string `query:"token"`
	RollNo          string `query:"roll_no"`
	IncludeArchived bool   `query:"include_archived"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ID == "" && qf.StudentID == "" && qf.Status == "" && qf.Hostel == "" && qf.Date == "" && qf.Token == "" && qf.RollNo == ""
}

func (qf *QueryFilter) Clean() {
	qf.ID = core.CleanString(qf.ID)
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Status = Status(core.CleanString(string(qf.Status)))
	qf.Hostel = core.CleanString(qf.Hostel)
	qf.Date = core.CleanString(qf.Date)
	qf.Token = core.CleanString(qf.Token)
	qf.RollNo = core.CleanString(qf.RollNo)
}

func (op Outpass) String() string {
	return fmt.Sprintf("%s[%s]", op.ID, op.Status)
}
