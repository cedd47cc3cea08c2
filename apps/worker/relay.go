package main

import (
	"context"
	"fmt"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/services/queue"
	smssvc "github.com/campusgate/outpass/services/sms"
)

// relay hands queued text messages to the SMS provider until msgs is closed.
// Undecodable or undeliverable messages are logged and dropped.
type relay struct {
	sms     core.SMSService
	logger  core.Logger
	metrics core.Metrics
}

func (r relay) run(ctx context.Context, msgs <-chan queue.Message) (sent, failed int) {
	for m := range msgs {
		msg, err := smssvc.Decode(m)
		if err != nil {
			r.logger.Error("dropping queued message", err, map[string]interface{}{"type": m.Type})
			failed++
			continue
		}

		id, err := r.sms.Send(ctx, msg)
		r.metrics.ObserveDispatch("sms", err)
		if err != nil {
			r.logger.Error(fmt.Sprintf("sending sms %s", msg.ID), err, map[string]interface{}{"to": msg.To})
			failed++
			continue
		}
		r.logger.Debug("sms sent", map[string]interface{}{"id": msg.ID, "provider_id": id})
		sent++
	}
	return sent, failed
}
