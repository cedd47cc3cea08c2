package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusgate/outpass/apps/shared"
	"github.com/campusgate/outpass/core"
	metricsvc "github.com/campusgate/outpass/services/metrics"
	"github.com/campusgate/outpass/services/queue"
	smssvc "github.com/campusgate/outpass/services/sms"
)

// The worker drains the SMS outbox filled by the API when SMS_PROVIDER=queue.
func main() {
	conf := core.NewConfig()
	logger := shared.NewLogger("WORKER", conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := shared.NewRedis(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
	}
	defer func() { _ = client.Close() }()

	var sms core.SMSService = smssvc.NewConsoleService()
	if !conf.Debug {
		if sms, err = smssvc.NewTwilioService(conf.SMS); err != nil {
			logger.Fatal(fmt.Sprintf("setting up twilio: %v", err), err)
		}
	}

	msgs, err := queue.NewRedis(client, conf.Redis.SMSQueueKey).Consume(ctx)
	if err != nil {
		logger.Fatal(fmt.Sprintf("consuming %s: %v", conf.Redis.SMSQueueKey, err), err)
	}

	logger.Info(fmt.Sprintf("Worker started : version %q", conf.Build), map[string]interface{}{"queue": conf.Redis.SMSQueueKey})
	r := relay{sms: sms, logger: logger, metrics: metricsvc.NewPrometheus()}
	sent, failed := r.run(ctx, msgs)
	logger.Info("Worker stopped", map[string]interface{}{"sent": sent, "failed": failed})
}
