package shared

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/outpass"
)

// cronLogger reports scheduler events through core.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvMap(keysAndValues))
}

func kvMap(kv []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return m
}

// NewScheduler registers the late sweep and the daily reminders. Schedules are read in conf.Location.
// The caller starts the scheduler and stops it on shutdown.
func NewScheduler(conf *core.Config, logger core.Logger, outpasses *outpass.Service) (*cron.Cron, error) {
	clog := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLocation(conf.Location),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	sweeper := outpass.NewLateSweeper(outpasses, conf.Jobs.LateSweepInterval, conf.Jobs.LateSweepTimeout)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", sweeper.Interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweeper.Timeout)
		defer cancel()
		marked, err := sweeper.Tick(ctx)
		if err != nil {
			logger.Error("late sweep error", err)
			return
		}
		if marked > 0 {
			logger.Info("late sweep marked outpasses late", map[string]interface{}{"count": marked})
		}
	}); err != nil {
		return nil, errors.Wrap(err, "scheduling late sweep")
	}

	reminder := outpass.NewReminder(outpasses)
	if _, err := c.AddFunc(conf.Jobs.ReminderSchedule, func() {
		n, err := reminder.Tick(context.Background())
		if err != nil {
			logger.Error("reminder job error", err)
			return
		}
		if n > 0 {
			logger.Info("reminders sent", map[string]interface{}{"count": n})
		}
	}); err != nil {
		return nil, errors.Wrapf(err, "scheduling reminders %q", conf.Jobs.ReminderSchedule)
	}
	return c, nil
}
