package smssvc

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/campusgate/outpass/core"
)

// ConsoleService logs text messages instead of sending them and keeps what it "sent".
type ConsoleService struct {
	std           *log.Logger
	disableOutput bool

	mu   sync.Mutex
	sent []core.SMSMessage
}

var _ core.SMSService = (*ConsoleService)(nil)

func NewConsoleService() *ConsoleService {
	return &ConsoleService{std: log.New(os.Stdout, "SMS : ", log.LstdFlags)}
}

// NewConsoleServiceMock records messages without printing them.
func NewConsoleServiceMock() *ConsoleService {
	svc := NewConsoleService()
	svc.disableOutput = true
	return svc
}

func (svc *ConsoleService) Send(ctx context.Context, msg core.SMSMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg.ID = "mock_" + uuid.New().String()
	if !svc.disableOutput {
		svc.std.Printf("To: %s, Message: %s", msg.To, msg.Body)
	}
	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()
	return msg.ID, nil
}

// SentMessages returns a copy of every message sent so far.
func (svc *ConsoleService) SentMessages() []core.SMSMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.SMSMessage(nil), svc.sent...)
}

func (svc *ConsoleService) Reset() {
	svc.mu.Lock()
	svc.sent = nil
	svc.mu.Unlock()
}
