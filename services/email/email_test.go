package emailsvc

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/outpass/core"
)

var testConf = &core.Config{
	AppName: "Hostel Outpass",
	Mail: core.MailConfig{
		DefaultFromEmail: "noreply@hostel.test",
		AdminEmail:       "office@hostel.test",
		SendgridAPIKey:   "SG.test",
	},
}

func TestConsoleService_SendMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     core.EmailMessage
		wantErr bool
	}{
		{
			name: "plain body",
			msg: core.EmailMessage{
				To:      []mail.Address{{Address: "office@hostel.test"}},
				Subject: "Student Exit: Asha (CS1)",
				BodyStr: "Asha exited",
			},
		},
		{
			name:    "no recipients",
			msg:     core.EmailMessage{Subject: "x", BodyStr: "x"},
			wantErr: true,
		},
		{
			name:    "no content",
			msg:     core.EmailMessage{To: []mail.Address{{Address: "office@hostel.test"}}, Subject: "x"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewConsoleServiceMock(testConf)
			msg := tc.msg
			id, err := svc.SendMessage(context.Background(), &msg)
			if tc.wantErr {
				assert.Error(t, err)
				assert.Empty(t, svc.SentMessages())
				return
			}
			require.NoError(t, err)
			assert.Contains(t, id, "console_")
			if assert.Len(t, svc.SentMessages(), 1) {
				assert.Equal(t, tc.msg.BodyStr, svc.SentMessages()[0].TextContent)
			}
		})
	}
}

func TestConsoleService_SendMessage_cancelled(t *testing.T) {
	svc := NewConsoleServiceMock(testConf)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SendMessage(ctx, &core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}, BodyStr: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf).(*sendgridService)
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Office", Address: "office@hostel.test"}},
		Subject:     "Daily Outpass Reminder",
		TextContent: "text",
	})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Hostel Outpass] Daily Outpass Reminder", m.Personalizations[0].Subject)
	assert.Equal(t, "office@hostel.test", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "noreply@hostel.test", m.From.Address)
	require.Len(t, m.Content, 1, "no html part without html content")
	assert.Equal(t, "text/plain", m.Content[0].Type)
}
