// Package shared wires the application services for every entrypoint under apps/.
package shared

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/feedback"
	"github.com/campusgate/outpass/core/gate"
	"github.com/campusgate/outpass/core/notification"
	"github.com/campusgate/outpass/core/outpass"
	"github.com/campusgate/outpass/core/student"
	emailsvc "github.com/campusgate/outpass/services/email"
	logsvc "github.com/campusgate/outpass/services/logger"
	metricsvc "github.com/campusgate/outpass/services/metrics"
	"github.com/campusgate/outpass/services/queue"
	smssvc "github.com/campusgate/outpass/services/sms"
	"github.com/campusgate/outpass/storage/database"
	inmemdb "github.com/campusgate/outpass/storage/database/inmem"
	sqlxrepos "github.com/campusgate/outpass/storage/database/sqlx"
)

const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"

	SMSConsole = "console"
	SMSTwilio  = "twilio"
	SMSQueue   = "queue"
)

type repositories struct {
	students      student.Repository
	outpasses     outpass.Repository
	notifications notification.Repository
	gateLogs      gate.Repository
	feedback      feedback.Repository
}

// Deps holds everything an entrypoint needs. Close releases the connections it opened.
type Deps struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Metrics    *metricsvc.Prometheus

	DB    *sqlx.DB      // nil with the memory engine
	Redis *redis.Client // nil unless a component needs it

	SMS   core.SMSService
	Email core.EmailService

	Students      *student.Service
	Outpasses     *outpass.Service
	Notifications *notification.Service
	Gate          *gate.Service
	Feedback      *feedback.Service
}

// NewLogger returns a Rollbar-backed logger writing to stdout with prefix.
func NewLogger(prefix string, conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)
	return validate, translator
}

func NewRedis(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.Redis.Address)
	}
	return client, nil
}

// NewDeps builds the storage engine, the delivery providers and the workflow services.
// Migrations are left to the caller, see MigrateUp.
func NewDeps(ctx context.Context, conf *core.Config, logger core.Logger) (_ *Deps, err error) {
	validate, translator := NewValidator()
	deps := &Deps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Metrics:    metricsvc.NewPrometheus(),
	}
	defer func() {
		if err != nil {
			_ = deps.Close()
		}
	}()

	repos, err := deps.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	if deps.SMS, err = deps.newSMSService(ctx); err != nil {
		return nil, err
	}
	if conf.Debug {
		deps.Email = emailsvc.NewConsoleService(conf)
	} else {
		deps.Email = emailsvc.NewSendgridService(conf)
	}
	core.ParseEmailTemplates(conf, logger)

	deps.Students = student.NewService(repos.students, validate)
	deps.Notifications = notification.NewService(repos.notifications, deps.SMS, deps.Email, logger, deps.Metrics, notification.Options{
		AdminEmail:      conf.Mail.Admin(),
		DefaultAdminID:  conf.Notification.DefaultAdminID,
		DispatchTimeout: conf.Notification.DispatchTimeout,
		Location:        conf.Location,
	})
	deps.Outpasses = outpass.NewService(repos.outpasses, deps.Students, deps.Notifications, validate, logger, deps.Metrics, outpass.Options{
		DefaultAdminID:  conf.Notification.DefaultAdminID,
		DispatchTimeout: conf.Notification.DispatchTimeout,
		Location:        conf.Location,
	})
	deps.Gate = gate.NewService(repos.gateLogs, deps.Outpasses, validate)
	deps.Feedback = feedback.NewService(repos.feedback, deps.Outpasses, deps.Notifications, validate, logger)
	return deps, nil
}

func (d *Deps) openStorage(ctx context.Context) (repositories, error) {
	switch d.Conf.Database.Engine {
	case EngineMemory:
		db, err := inmemdb.Open()
		if err != nil {
			return repositories{}, err
		}
		d.Logger.Warn("using the in-memory database: data is lost on restart")
		return repositories{
			students:      inmemdb.NewStudentRepository(db),
			outpasses:     inmemdb.NewOutpassRepository(db),
			notifications: inmemdb.NewNotificationRepository(db),
			gateLogs:      inmemdb.NewGateLogRepository(db),
			feedback:      inmemdb.NewFeedbackRepository(db),
		}, nil

	case EnginePostgres:
		db, err := OpenPostgres(ctx, d.Conf)
		if err != nil {
			return repositories{}, err
		}
		d.DB = db
		return repositories{
			students:      sqlxrepos.NewStudentRepository(db),
			outpasses:     sqlxrepos.NewOutpassRepository(db),
			notifications: sqlxrepos.NewNotificationRepository(db),
			gateLogs:      sqlxrepos.NewGateLogRepository(db),
			feedback:      sqlxrepos.NewFeedbackRepository(db),
		}, nil
	}
	return repositories{}, fmt.Errorf("unknown database engine %q", d.Conf.Database.Engine)
}

// OpenPostgres creates the role and database when an admin user is configured, then connects.
func OpenPostgres(ctx context.Context, conf *core.Config) (*sqlx.DB, error) {
	if conf.Database.AdminUser != "" {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
	}
	return database.Open(ctx, conf)
}

func (d *Deps) newSMSService(ctx context.Context) (core.SMSService, error) {
	switch d.Conf.SMS.Provider {
	case SMSConsole, "":
		return smssvc.NewConsoleService(), nil
	case SMSTwilio:
		return smssvc.NewTwilioService(d.Conf.SMS)
	case SMSQueue:
		client, err := NewRedis(ctx, d.Conf)
		if err != nil {
			return nil, err
		}
		d.Redis = client
		return smssvc.NewOutboxService(queue.NewRedis(client, d.Conf.Redis.SMSQueueKey)), nil
	}
	return nil, fmt.Errorf("unknown sms provider %q", d.Conf.SMS.Provider)
}

// MigrateUp applies pending migrations. It is a no-op with the memory engine.
func (d *Deps) MigrateUp() error {
	if d.DB == nil {
		return nil
	}
	return database.Migrate(d.DB.DB, "up")
}

func (d *Deps) Close() error {
	var err error
	if d.Redis != nil {
		if cerr := d.Redis.Close(); cerr != nil {
			err = errors.Wrap(cerr, "closing redis")
		}
	}
	if d.DB != nil {
		if cerr := d.DB.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "closing database")
		}
	}
	return err
}
