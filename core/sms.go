package core

import "context"

type (
	SMSMessage struct {
		ID   string `json:"id,omitempty"`
		To   string `json:"to"`
		Body string `json:"body"`
	}

	// SMSService is any service that can deliver text messages.
	SMSService interface {
		// Send delivers msg and returns the provider's message id.
		Send(ctx context.Context, msg SMSMessage) (string, error)
	}
)
