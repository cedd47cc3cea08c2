package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/feedback"
	"github.com/campusgate/outpass/core/gate"
	"github.com/campusgate/outpass/core/notification"
	"github.com/campusgate/outpass/core/outpass"
	"github.com/campusgate/outpass/core/student"
	emailsvc "github.com/campusgate/outpass/services/email"
	logsvc "github.com/campusgate/outpass/services/logger"
	smssvc "github.com/campusgate/outpass/services/sms"
	inmemdb "github.com/campusgate/outpass/storage/database/inmem"
)

// IST is a fixed +05:30 zone so tests do not depend on the host's tz database.
var IST = time.FixedZone("IST", 5*60*60+30*60)

const AdminEmail = "hostel-office@campus.test"

func NewConfig() *core.Config {
	return &core.Config{
		Debug:     false,
		TestMode:  true,
		Env:       "TEST",
		Build:     "test",
		AppName:   "Hostel Outpass",
		SecretKey: "test-secret",
		Timezone:  "Asia/Kolkata",
		Location:  IST,
		WorkDir:   core.Getwd(),
		Server: core.ServerConfig{
			Address:            ":0",
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database: core.DatabaseConfig{Engine: "memory"},
		Mail: core.MailConfig{
			DefaultFromEmail: "noreply@campus.test",
			AdminEmail:       AdminEmail,
		},
		SMS: core.SMSConfig{Provider: "console"},
		Notification: core.NotificationConfig{
			DefaultAdminID:  "AD-001",
			DispatchTimeout: 2 * time.Second,
		},
		Jobs: core.JobsConfig{
			LateSweepInterval: time.Minute,
			LateSweepTimeout:  time.Second,
			ReminderSchedule:  "0 8 * * *",
		},
	}
}

func NewValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	return validate, translator
}

// NewLogger returns a logger that reports nowhere.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// Env is a fully wired in-memory application.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	DB         *inmemdb.DB

	SMS   *smssvc.ConsoleService
	Email *emailsvc.ConsoleService

	Students      *student.Service
	Outpasses     *outpass.Service
	Notifications *notification.Service
	Gate          *gate.Service
	Feedback      *feedback.Service

	StudentRepo      student.Repository
	OutpassRepo      outpass.Repository
	NotificationRepo notification.Repository
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := NewConfig()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	validate, translator := NewValidator()
	logger := NewLogger(conf)

	env := &Env{
		Conf:             conf,
		Logger:           logger,
		Validate:         validate,
		Translator:       translator,
		DB:               db,
		SMS:              smssvc.NewConsoleServiceMock(),
		Email:            emailsvc.NewConsoleServiceMock(conf),
		StudentRepo:      inmemdb.NewStudentRepository(db),
		OutpassRepo:      inmemdb.NewOutpassRepository(db),
		NotificationRepo: inmemdb.NewNotificationRepository(db),
	}

	env.Students = student.NewService(env.StudentRepo, validate)
	env.Notifications = notification.NewService(env.NotificationRepo, env.SMS, env.Email, logger, nil, notification.Options{
		AdminEmail:      conf.Mail.Admin(),
		DefaultAdminID:  conf.Notification.DefaultAdminID,
		DispatchTimeout: conf.Notification.DispatchTimeout,
		Location:        conf.Location,
	})
	env.Outpasses = outpass.NewService(env.OutpassRepo, env.Students, env.Notifications, validate, logger, nil, outpass.Options{
		DefaultAdminID:  conf.Notification.DefaultAdminID,
		DispatchTimeout: conf.Notification.DispatchTimeout,
		Location:        conf.Location,
	})
	env.Gate = gate.NewService(inmemdb.NewGateLogRepository(db), env.Outpasses, validate)
	env.Feedback = feedback.NewService(inmemdb.NewFeedbackRepository(db), env.Outpasses, env.Notifications, validate, logger)
	return env
}

// CreateStudent stores a student with a complete profile, bypassing validation.
func CreateStudent(t *testing.T, repo student.Repository, name, rollNo, pwd string, createdAt ...time.Time) student.Student {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	std := student.Student{
		ID:            "ST-" + rollNo,
		Name:          name,
		Email:         rollNo + "@campus.test",
		RollNo:        rollNo,
		RoomNo:        "A-101",
		Hostel:        "Boys Hostel 1",
		Contact:       "9876543210",
		ParentContact: "9123456780",
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	if pwd != "" {
		if err := std.SetPassword(pwd); err != nil {
			t.Fatalf("CreateStudent() failed: %v", err)
		}
	}
	std, err := repo.Create(context.Background(), std)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// NewOutpassRequest is a valid request for today's date in IST.
func NewOutpassRequest(studentID string) outpass.NewOutpass {
	return outpass.NewOutpass{
		StudentID:          studentID,
		Type:               outpass.TypeMarket,
		Purpose:            "Groceries",
		Place:              "City Market",
		Date:               time.Now().In(IST).Format(outpass.DateLayout),
		ExpectedReturnTime: "23:59",
	}
}
