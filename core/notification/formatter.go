package notification

import (
	"fmt"
	"time"

	"github.com/campusgate/outpass/core/outpass"
)

// ClockLayout is how times appear in messages sent to parents and the hostel office.
const ClockLayout = "03:04 PM"

// Formatter renders the message texts. It has no side effects.
type Formatter struct {
	Location *time.Location
	Now      func() time.Time
}

// Details carries the optional context of a message. A zero Time means now.
type Details struct {
	Time   time.Time
	Reason string
}

func (f Formatter) clock(t time.Time) string {
	if t.IsZero() {
		if f.Now != nil {
			t = f.Now()
		} else {
			t = time.Now()
		}
	}
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(ClockLayout)
}

// StatusMessage is the parent-facing message for an outpass entering status.
func (f Formatter) StatusMessage(status outpass.Status, name, rollNo, outpassID string, d Details) string {
	switch status {
	case outpass.StatusApproved:
		return fmt.Sprintf(
			"HOSTEL OUTPASS: Your ward %s (%s) has been APPROVED for outpass #%s. They are permitted to leave campus as per the requested time.",
			name, rollNo, outpassID,
		)
	case outpass.StatusExited:
		return fmt.Sprintf(
			"HOSTEL OUTPASS: Your ward %s (%s) has EXITED the campus at %s using outpass #%s.",
			name, rollNo, f.clock(d.Time), outpassID,
		)
	case outpass.StatusReturned:
		return fmt.Sprintf(
			"HOSTEL OUTPASS: Your ward %s (%s) has safely RETURNED to campus at %s with outpass #%s.",
			name, rollNo, f.clock(d.Time), outpassID,
		)
	case outpass.StatusRejected:
		msg := fmt.Sprintf("HOSTEL OUTPASS: Your ward %s (%s)'s outpass #%s has been REJECTED.", name, rollNo, outpassID)
		if d.Reason != "" {
			msg += " Reason: " + d.Reason
		}
		return msg
	case outpass.StatusLate:
		return fmt.Sprintf(
			"URGENT - HOSTEL OUTPASS: Your ward %s (%s) is LATE to return to campus. Their outpass #%s return time has passed. Please contact them immediately.",
			name, rollNo, outpassID,
		)
	default:
		return fmt.Sprintf("HOSTEL OUTPASS: Update on your ward %s (%s)'s outpass #%s status: %s.", name, rollNo, outpassID, status)
	}
}

func approvedStudentMessage(outpassID string) string {
	return fmt.Sprintf("Your outpass request #%s has been approved. You can now exit the campus using this outpass.", outpassID)
}

func rejectedStudentMessage(outpassID, reason string) string {
	return fmt.Sprintf("Your outpass request #%s has been rejected. Reason: %s.", outpassID, reason)
}

func newRequestSubject(name string) string {
	return fmt.Sprintf("New Outpass Request: %s", name)
}

func newRequestMessage(op outpass.Outpass) string {
	return fmt.Sprintf("New outpass request from %s (%s) for %s outpass on %s.", op.Student.Name, op.Student.RollNo, op.Type, op.Date)
}

func reminderParentMessage(op outpass.Outpass) string {
	return fmt.Sprintf(
		"HOSTEL OUTPASS REMINDER: Your ward %s (%s) has an approved %s outpass for today. Return time: %s.",
		op.Student.Name, op.Student.RollNo, op.Type, op.ExpectedReturnTime,
	)
}

func reminderStudentMessage(op outpass.Outpass) string {
	return fmt.Sprintf(
		"HOSTEL OUTPASS REMINDER: You have an approved %s outpass for today. Return time: %s.",
		op.Type, op.ExpectedReturnTime,
	)
}

func reminderAdminMessage(op outpass.Outpass) string {
	return fmt.Sprintf(
		"%s (%s) has an approved %s outpass for today. Return time: %s.",
		op.Student.Name, op.Student.RollNo, op.Type, op.ExpectedReturnTime,
	)
}

func feedbackMessage(outpassID string) string {
	return fmt.Sprintf("Student has submitted feedback regarding rejected outpass %s.", outpassID)
}
