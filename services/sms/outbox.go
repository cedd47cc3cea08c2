package smssvc

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/services/queue"
)

// MessageType tags SMS messages on the queue.
const MessageType = "sms"

// outboxService queues text messages for apps/worker to deliver.
type outboxService struct {
	q queue.Queue
}

var _ core.SMSService = (*outboxService)(nil)

func NewOutboxService(q queue.Queue) core.SMSService {
	return &outboxService{q: q}
}

func (svc *outboxService) Send(ctx context.Context, msg core.SMSMessage) (string, error) {
	msg.ID = uuid.New().String()
	body, err := json.Marshal(msg)
	if err != nil {
		return "", errors.Wrap(err, "encoding sms")
	}
	if err := svc.q.Publish(ctx, queue.Message{Type: MessageType, Body: body}); err != nil {
		return "", errors.Wrap(err, "queueing sms")
	}
	return msg.ID, nil
}

// Decode reads an SMS back from a queue message.
func Decode(m queue.Message) (core.SMSMessage, error) {
	var msg core.SMSMessage
	if m.Type != MessageType {
		return msg, errors.Errorf("unexpected message type %q", m.Type)
	}
	err := json.Unmarshal(m.Body, &msg)
	return msg, errors.Wrap(err, "decoding sms")
}
