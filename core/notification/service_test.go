package notification_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/feedback"
	"github.com/campusgate/outpass/core/notification"
	"github.com/campusgate/outpass/core/outpass"
	testutil "github.com/campusgate/outpass/tests"
)

var ctx = context.Background()

type slowSMS struct{ delay time.Duration }

func (s slowSMS) Send(ctx context.Context, _ core.SMSMessage) (string, error) {
	select {
	case <-time.After(s.delay):
		return "late", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type brokenSMS struct{}

func (brokenSMS) Send(context.Context, core.SMSMessage) (string, error) {
	return "", errors.New("provider down")
}

func newService(env *testutil.Env, sms core.SMSService, timeout time.Duration) *notification.Service {
	return notification.NewService(env.NotificationRepo, sms, env.Email, env.Logger, nil, notification.Options{
		AdminEmail:      env.Conf.Mail.Admin(),
		DispatchTimeout: timeout,
		Location:        testutil.IST,
	})
}

func TestService_Dispatch(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		name    string
		svc     *notification.Service
		req     notification.Request
		wantErr bool
		wantID  string
	}{
		{
			name:   "sms",
			svc:    env.Notifications,
			req:    notification.Request{Channel: notification.ChannelSMS, To: "98765 43210", Message: "hi"},
			wantID: "mock_",
		},
		{
			name:    "sms to an invalid number",
			svc:     env.Notifications,
			req:     notification.Request{Channel: notification.ChannelSMS, To: "12345", Message: "hi"},
			wantErr: true,
		},
		{
			name:   "email",
			svc:    env.Notifications,
			req:    notification.Request{Channel: notification.ChannelEmail, To: testutil.AdminEmail, Subject: "s", Message: "hi"},
			wantID: "console_",
		},
		{
			name:    "email without address",
			svc:     env.Notifications,
			req:     notification.Request{Channel: notification.ChannelEmail, Subject: "s", Message: "hi"},
			wantErr: true,
		},
		{
			name:   "in-app",
			svc:    env.Notifications,
			req:    notification.Request{Channel: notification.ChannelApp, To: "ST-1", Message: "hi"},
			wantID: "push_",
		},
		{
			name:    "unknown channel",
			svc:     env.Notifications,
			req:     notification.Request{Channel: "pigeon", To: "x", Message: "hi"},
			wantErr: true,
		},
		{
			name:    "provider failure",
			svc:     newService(env, brokenSMS{}, time.Second),
			req:     notification.Request{Channel: notification.ChannelSMS, To: "9876543210", Message: "hi"},
			wantErr: true,
		},
		{
			name:    "timeout",
			svc:     newService(env, slowSMS{delay: time.Second}, 20*time.Millisecond),
			req:     notification.Request{Channel: notification.ChannelSMS, To: "9876543210", Message: "hi"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.svc.Dispatch(ctx, tc.req)
			if tc.wantErr {
				require.Error(t, err)
				var derr *core.DispatchError
				assert.True(t, errors.As(err, &derr))
				assert.False(t, res.Success)
				return
			}
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.True(t, strings.HasPrefix(res.MessageID, tc.wantID), res.MessageID)
		})
	}
}

func TestService_StatusChanged(t *testing.T) {
	exitTime := time.Date(2024, 3, 10, 4, 0, 0, 0, time.UTC) // 09:30 AM IST
	base := outpass.Outpass{
		ID:        "OP-CS12345",
		StudentID: "ST-CS12345",
		Student: outpass.StudentSnapshot{
			Name:          "Asha Rao",
			RollNo:        "CS12345",
			Contact:       "9876543210",
			ParentContact: "9123456780",
		},
		Type:               outpass.TypeHome,
		Date:               "2024-03-10",
		ExpectedReturnTime: "18:00",
		ExitTime:           &exitTime,
	}

	type want struct {
		typ      notification.Type
		channel  notification.Channel
		priority notification.Priority
		subject  string
		contains string
	}
	tests := []struct {
		name   string
		status outpass.Status
		reason string
		want   []want
	}{
		{"pending", outpass.StatusPending, "", []want{
			{notification.TypeAdmin, notification.ChannelEmail, notification.PriorityNormal, "New Outpass Request: Asha Rao", "New outpass request from Asha Rao (CS12345) for Home outpass on 2024-03-10."},
		}},
		{"approved", outpass.StatusApproved, "", []want{
			{notification.TypeParent, notification.ChannelSMS, notification.PriorityNormal, "", "APPROVED"},
			{notification.TypeStudent, notification.ChannelApp, notification.PriorityNormal, "", "Your outpass request #OP-CS12345 has been approved."},
		}},
		{"rejected without reason", outpass.StatusRejected, "", []want{
			{notification.TypeParent, notification.ChannelSMS, notification.PriorityNormal, "", "Reason: No reason provided"},
			{notification.TypeStudent, notification.ChannelApp, notification.PriorityHigh, "", "Reason: No reason provided."},
		}},
		{"exited", outpass.StatusExited, "", []want{
			{notification.TypeAdmin, notification.ChannelEmail, notification.PriorityNormal, "Student Exit: Asha Rao (CS12345)", "EXITED the campus at 09:30 AM"},
			{notification.TypeParent, notification.ChannelSMS, notification.PriorityNormal, "", "EXITED the campus at 09:30 AM"},
		}},
		{"late", outpass.StatusLate, "", []want{
			{notification.TypeParent, notification.ChannelSMS, notification.PriorityHigh, "", "is LATE"},
			{notification.TypeAdmin, notification.ChannelEmail, notification.PriorityHigh, "URGENT: Student Late Return - Asha Rao (CS12345)", "is LATE"},
		}},
		{"cancelled", outpass.StatusCancelled, "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			op := base
			op.Status = tc.status
			op.RejectReason = tc.reason

			require.NoError(t, env.Notifications.StatusChanged(ctx, op, ""))

			got, err := env.Notifications.Query(ctx, notification.QueryFilter{OutpassID: op.ID})
			require.NoError(t, err)
			require.Len(t, got, len(tc.want))
			for _, w := range tc.want {
				var found bool
				for _, n := range got {
					if n.Type != w.typ || n.Channel != w.channel {
						continue
					}
					found = true
					assert.Equal(t, w.priority, n.Priority)
					assert.Equal(t, w.subject, n.Subject)
					assert.Contains(t, n.Message, w.contains)
					assert.Equal(t, notification.StatusSent, n.Status)
					assert.NotEmpty(t, n.MessageID)
					if n.Type == notification.TypeAdmin {
						assert.Equal(t, "AD-001", n.RecipientID)
					} else {
						assert.Equal(t, op.StudentID, n.RecipientID)
					}
				}
				assert.True(t, found, "no %s %s notification", w.typ, w.channel)
			}
		})
	}
}

func TestService_StatusChanged_failuresAreRecorded(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env, brokenSMS{}, time.Second)
	op := outpass.Outpass{
		ID:         "OP-CS1",
		StudentID:  "ST-CS1",
		Status:     outpass.StatusApproved,
		ApprovedBy: "AD-007",
		Student:    outpass.StudentSnapshot{Name: "Asha", RollNo: "CS1", ParentContact: "9123456780"},
	}

	err := svc.StatusChanged(ctx, op, outpass.StatusPending)
	require.Error(t, err)

	got, err := env.Notifications.Query(ctx, notification.QueryFilter{OutpassID: op.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	statuses := map[notification.Channel]notification.Status{}
	for _, n := range got {
		statuses[n.Channel] = n.Status
	}
	assert.Equal(t, notification.StatusFailed, statuses[notification.ChannelSMS])
	assert.Equal(t, notification.StatusSent, statuses[notification.ChannelApp])
}

func TestService_FeedbackSubmitted(t *testing.T) {
	env := testutil.NewEnv(t)

	err := env.Notifications.FeedbackSubmitted(ctx, feedback.Feedback{ID: "FB-1", OutpassID: "OP-CS1", StudentID: "ST-1"})
	require.NoError(t, err)

	got, err := env.Notifications.Query(ctx, notification.QueryFilter{RecipientID: "all"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, notification.ChannelSystem, got[0].Channel)
	assert.Equal(t, notification.TypeAdmin, got[0].Type)
	assert.Equal(t, "New Feedback Submission", got[0].Subject)
	assert.Equal(t, "Student has submitted feedback regarding rejected outpass OP-CS1.", got[0].Message)
}

func TestService_Query(t *testing.T) {
	env := testutil.NewEnv(t)
	for i := 0; i < 3; i++ {
		_, err := env.NotificationRepo.Create(ctx, notification.Notification{Type: notification.TypeParent, RecipientID: "ST-1", Message: "m"})
		require.NoError(t, err)
	}
	_, err := env.NotificationRepo.Create(ctx, notification.Notification{Type: notification.TypeAdmin, RecipientID: "AD-001", Message: "m"})
	require.NoError(t, err)

	got, err := env.Notifications.Query(ctx, notification.QueryFilter{RecipientID: "ST-1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "NOT-003", got[0].ID, "newest first")
	assert.Equal(t, "NOT-002", got[1].ID)

	got, err = env.Notifications.Query(ctx, notification.QueryFilter{Type: "ADMIN"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NOT-004", got[0].ID)
}
