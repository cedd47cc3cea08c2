package inmemdb

import (
	"sync"

	"github.com/campusgate/outpass/core/feedback"
	"github.com/campusgate/outpass/core/gate"
	"github.com/campusgate/outpass/core/notification"
	"github.com/campusgate/outpass/core/outpass"
	"github.com/campusgate/outpass/core/student"
)

type (
	// DB keeps every table in process memory. Data is lost on restart.
	DB struct {
		student      *studentTable
		outpass      *outpassTable
		notification *notificationTable
		gateLog      *gateLogTable
		feedback     *feedbackTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	outpassTable struct {
		sync.RWMutex
		table    map[string]*outpass.Outpass // current records
		archived []outpass.Outpass
	}

	notificationTable struct {
		sync.RWMutex
		rows []notification.Notification
		seq  int
	}

	gateLogTable struct {
		sync.RWMutex
		rows []gate.GateLog
		seq  int
	}

	feedbackTable struct {
		sync.RWMutex
		rows []feedback.Feedback
	}
)

func Open() (*DB, error) {
	db := &DB{
		student:      &studentTable{table: make(map[string]*student.Student)},
		outpass:      &outpassTable{table: make(map[string]*outpass.Outpass)},
		notification: &notificationTable{},
		gateLog:      &gateLogTable{},
		feedback:     &feedbackTable{},
	}
	return db, nil
}
