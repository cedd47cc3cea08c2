package outpass_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/notification"
	"github.com/campusgate/outpass/core/outpass"
	testutil "github.com/campusgate/outpass/tests"
)

var ctx = context.Background()

func createPending(t *testing.T, env *testutil.Env, rollNo string) outpass.Outpass {
	t.Helper()
	std := testutil.CreateStudent(t, env.StudentRepo, "Student "+rollNo, rollNo, "")
	op, err := env.Outpasses.Create(ctx, testutil.NewOutpassRequest(std.ID))
	require.NoError(t, err)
	return op
}

func approve(t *testing.T, env *testutil.Env, id string) outpass.Outpass {
	t.Helper()
	op, err := env.Outpasses.UpdateStatus(ctx, id, outpass.StatusUpdate{Status: outpass.StatusApproved, ApprovedBy: "AD-001"})
	require.NoError(t, err)
	return op
}

func exit(t *testing.T, env *testutil.Env, id string) outpass.Outpass {
	t.Helper()
	now := time.Now()
	op, err := env.Outpasses.UpdateStatus(ctx, id, outpass.StatusUpdate{Status: outpass.StatusExited, ExitTime: &now, ExitGate: "Gate 1"})
	require.NoError(t, err)
	return op
}

func notificationsFor(t *testing.T, env *testutil.Env, outpassID string, types ...notification.Type) []notification.Notification {
	t.Helper()
	ns, err := env.Notifications.Query(ctx, notification.QueryFilter{OutpassID: outpassID, Types: types})
	require.NoError(t, err)
	return ns
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.StudentRepo, "Asha Rao", "CS99999", "")

	op, err := env.Outpasses.Create(ctx, testutil.NewOutpassRequest(std.ID))
	require.NoError(t, err)

	assert.Equal(t, "OP-CS99999", op.ID)
	assert.Equal(t, outpass.StatusPending, op.Status)
	assert.Equal(t, std.ID, op.StudentID)
	assert.Equal(t, "Asha Rao", op.Student.Name)
	assert.Equal(t, std.ParentContact, op.Student.ParentContact)
	assert.Equal(t, "23:59", op.ExpectedReturnTime)
	assert.Empty(t, op.BarcodeToken)
	assert.True(t, op.NotificationSent)

	// the hostel office hears about the request
	admin := notificationsFor(t, env, op.ID, notification.TypeAdmin)
	require.Len(t, admin, 1)
	assert.Equal(t, notification.ChannelEmail, admin[0].Channel)
	assert.Equal(t, "New Outpass Request: Asha Rao", admin[0].Subject)
	require.Len(t, env.Email.SentMessages(), 1)
	assert.Equal(t, testutil.AdminEmail, env.Email.SentMessages()[0].To[0].Address)
}

func TestService_Create_errors(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.StudentRepo, "Asha Rao", "CS10001", "")
	incomplete := testutil.CreateStudent(t, env.StudentRepo, "Ravi", "CS10002", "")
	incomplete.ParentContact = ""
	_, err := env.StudentRepo.Update(ctx, incomplete)
	require.NoError(t, err)

	tests := []struct {
		name  string
		req   outpass.NewOutpass
		check func(error) bool
	}{
		{
			name:  "missing type",
			req:   func() outpass.NewOutpass { r := testutil.NewOutpassRequest(std.ID); r.Type = ""; return r }(),
			check: func(err error) bool { return isValidationErrors(err) },
		},
		{
			name:  "bad return time",
			req:   func() outpass.NewOutpass { r := testutil.NewOutpassRequest(std.ID); r.ExpectedReturnTime = "25:00"; return r }(),
			check: func(err error) bool { return isValidationErrors(err) },
		},
		{
			name:  "unknown student",
			req:   testutil.NewOutpassRequest("ST-NOPE"),
			check: core.IsNotFound,
		},
		{
			name:  "incomplete profile",
			req:   testutil.NewOutpassRequest(incomplete.ID),
			check: core.IsValidation,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Outpasses.Create(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error: %v", err)
		})
	}
}

func TestService_Create_conflict(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS20001")

	for _, status := range []outpass.Status{outpass.StatusPending, outpass.StatusApproved, outpass.StatusExited, outpass.StatusLate} {
		t.Run(string(status), func(t *testing.T) {
			stored, err := env.OutpassRepo.Get(ctx, op.ID)
			require.NoError(t, err)
			stored.Status = status
			_, err = env.OutpassRepo.Update(ctx, stored)
			require.NoError(t, err)

			_, err = env.Outpasses.Create(ctx, testutil.NewOutpassRequest(op.StudentID))
			assert.True(t, core.IsConflict(err), "expected conflict, got %v", err)
		})
	}

	for _, status := range []outpass.Status{outpass.StatusRejected, outpass.StatusCancelled, outpass.StatusReturned} {
		t.Run(string(status), func(t *testing.T) {
			stored, err := env.OutpassRepo.Get(ctx, op.ID)
			require.NoError(t, err)
			stored.Status = status
			_, err = env.OutpassRepo.Update(ctx, stored)
			require.NoError(t, err)

			created, err := env.Outpasses.Create(ctx, testutil.NewOutpassRequest(op.StudentID))
			require.NoError(t, err)
			assert.Equal(t, outpass.StatusPending, created.Status)
		})
	}

	// every replaced record is kept in the archive
	all, err := env.Outpasses.Query(ctx, outpass.QueryFilter{RollNo: "CS20001", IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	current, err := env.Outpasses.Query(ctx, outpass.QueryFilter{RollNo: "CS20001"})
	require.NoError(t, err)
	assert.Len(t, current, 1)
}

func TestService_Create_concurrent(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.StudentRepo, "Asha", "CS20002", "")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Outpasses.Create(ctx, testutil.NewOutpassRequest(std.ID))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if core.IsConflict(err) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Equal(t, 9, conflicts)
}

func TestService_UpdateStatus_approve(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS99999")
	env.SMS.Reset()

	op = approve(t, env, op.ID)

	assert.Equal(t, outpass.StatusApproved, op.Status)
	assert.Equal(t, "CS99999", op.BarcodeToken)
	assert.Equal(t, "AD-001", op.ApprovedBy)
	assert.NotNil(t, op.ApprovedAt)
	assert.True(t, op.NotificationSent)

	parent := notificationsFor(t, env, op.ID, notification.TypeParent)
	studentNs := notificationsFor(t, env, op.ID, notification.TypeStudent)
	require.Len(t, parent, 1)
	require.Len(t, studentNs, 1)
	assert.Equal(t, notification.ChannelSMS, parent[0].Channel)
	assert.Equal(t, notification.StatusSent, parent[0].Status)
	assert.Equal(t, notification.ChannelApp, studentNs[0].Channel)
	assert.Contains(t, studentNs[0].Message, "has been approved")

	sms := env.SMS.SentMessages()
	require.Len(t, sms, 1)
	assert.Equal(t, "+919123456780", sms[0].To)
	assert.Contains(t, sms[0].Body, "APPROVED for outpass #OP-CS99999")

	stored, err := env.Outpasses.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.True(t, stored.NotificationSent)
}

func TestService_UpdateStatus_defaultApprover(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS30001")

	op, err := env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, "AD-001", op.ApprovedBy)
}

func TestService_UpdateStatus_idempotent(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS30002")
	env.SMS.Reset()

	first := approve(t, env, op.ID)
	second := approve(t, env, op.ID)

	assert.Equal(t, first, second)
	assert.Len(t, env.SMS.SentMessages(), 1)
	assert.Len(t, notificationsFor(t, env, op.ID, notification.TypeParent, notification.TypeStudent), 2)
}

func TestService_UpdateStatus_reject(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS30003")
	env.SMS.Reset()

	_, err := env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusRejected})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	stored, err := env.Outpasses.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.Equal(t, outpass.StatusPending, stored.Status, "a failed transition changes nothing")
	assert.Empty(t, env.SMS.SentMessages())

	op, err = env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusRejected, RejectReason: "Past curfew"})
	require.NoError(t, err)
	assert.Equal(t, outpass.StatusRejected, op.Status)
	assert.Equal(t, "Past curfew", op.RejectReason)

	sms := env.SMS.SentMessages()
	require.Len(t, sms, 1)
	assert.Contains(t, sms[0].Body, "Past curfew")

	studentNs := notificationsFor(t, env, op.ID, notification.TypeStudent)
	require.Len(t, studentNs, 1)
	assert.Equal(t, notification.PriorityHigh, studentNs[0].Priority)
	assert.Contains(t, studentNs[0].Message, "Reason: Past curfew.")
}

func TestService_UpdateStatus_lifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS30004")
	op = approve(t, env, op.ID)

	op = exit(t, env, op.ID)
	assert.Equal(t, outpass.StatusExited, op.Status)
	assert.Equal(t, "Gate 1", op.ExitGate)
	assert.NotNil(t, op.ExitTime)
	assert.Equal(t, "CS30004", op.BarcodeToken)

	admin := notificationsFor(t, env, op.ID, notification.TypeAdmin)
	require.Len(t, admin, 2) // request + exit
	assert.Equal(t, "Student Exit: Student CS30004 (CS30004)", admin[0].Subject)

	now := time.Now()
	op, err := env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusReturned, ReturnTime: &now, ReturnGate: "Gate 2"})
	require.NoError(t, err)
	assert.Equal(t, outpass.StatusReturned, op.Status)
	assert.Empty(t, op.BarcodeToken)
	assert.Equal(t, "23:59", op.ExpectedReturnTime, "the actual return does not overwrite the expected one")
	require.NotNil(t, op.ActualReturnAt)
	assert.Equal(t, "Gate 2", op.ReturnGate)
}

func TestService_UpdateStatus_cancel(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS30005")
	op = approve(t, env, op.ID)
	before := len(env.SMS.SentMessages())

	op, err := env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, outpass.StatusCancelled, op.Status)
	assert.NotNil(t, op.CancelledAt)
	assert.Empty(t, op.BarcodeToken)
	assert.True(t, op.NotificationSent)
	assert.Len(t, env.SMS.SentMessages(), before)
}

func TestService_UpdateStatus_errors(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS30006")
	now := time.Now()

	tests := []struct {
		name  string
		id    string
		upd   outpass.StatusUpdate
		check func(error) bool
	}{
		{"unknown outpass", "OP-NOPE", outpass.StatusUpdate{Status: outpass.StatusApproved}, core.IsNotFound},
		{"unknown status", op.ID, outpass.StatusUpdate{Status: "Lost"}, core.IsValidation},
		{"missing status", op.ID, outpass.StatusUpdate{}, isValidationErrors},
		{"pending to exited", op.ID, outpass.StatusUpdate{Status: outpass.StatusExited, ExitTime: &now, ExitGate: "Gate 1"}, core.IsInvalidState},
		{"pending to cancelled", op.ID, outpass.StatusUpdate{Status: outpass.StatusCancelled}, core.IsInvalidState},
		{"pending to late", op.ID, outpass.StatusUpdate{Status: outpass.StatusLate}, core.IsInvalidState},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Outpasses.UpdateStatus(ctx, tc.id, tc.upd)
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error: %v", err)
		})
	}

	op = approve(t, env, op.ID)
	_, err := env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusExited, ExitGate: "Gate 1"})
	assert.True(t, core.IsValidation(err), "exit needs a time")
	_, err = env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusExited, ExitTime: &now})
	assert.True(t, core.IsValidation(err), "exit needs a gate")
}

func TestService_UpdateStatusFrom(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS30007")
	op = approve(t, env, op.ID)
	now := time.Now()

	_, err := env.Outpasses.UpdateStatusFrom(ctx, op.ID,
		outpass.StatusUpdate{Status: outpass.StatusReturned, ReturnTime: &now, ReturnGate: "Gate 1"},
		outpass.StatusExited, outpass.StatusLate,
	)
	require.Error(t, err)
	var invalid *core.InvalidStateError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Approved", invalid.Current)

	// same target status is still refused when the precondition fails
	op = exit(t, env, op.ID)
	_, err = env.Outpasses.UpdateStatusFrom(ctx, op.ID,
		outpass.StatusUpdate{Status: outpass.StatusExited, ExitTime: &now, ExitGate: "Gate 1"},
		outpass.StatusApproved,
	)
	assert.True(t, core.IsInvalidState(err))
}

type failingNotifier struct{ calls int }

func (n *failingNotifier) StatusChanged(context.Context, outpass.Outpass, outpass.Status) error {
	n.calls++
	return core.NewDispatchError("sms", "+910000000000", errors.New("provider down"))
}

func (n *failingNotifier) Reminder(context.Context, outpass.Outpass) error { return nil }

func TestService_UpdateStatus_dispatchFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	notifier := &failingNotifier{}
	svc := outpass.NewService(env.OutpassRepo, env.Students, notifier, env.Validate, env.Logger, nil, outpass.Options{Location: testutil.IST})

	std := testutil.CreateStudent(t, env.StudentRepo, "Asha", "CS30008", "")
	op, err := svc.Create(ctx, testutil.NewOutpassRequest(std.ID))
	require.NoError(t, err)

	op, err = svc.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusApproved})
	require.NoError(t, err, "notification failures never fail the transition")
	assert.Equal(t, outpass.StatusApproved, op.Status)
	assert.True(t, op.NotificationSent)
	assert.Equal(t, 2, notifier.calls)
}

func TestService_UpdateStatus_concurrent(t *testing.T) {
	env := testutil.NewEnv(t)
	op := createPending(t, env, "CS30009")
	env.SMS.Reset()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusApproved})
		}()
	}
	wg.Wait()

	assert.Len(t, env.SMS.SentMessages(), 1)
	assert.Len(t, notificationsFor(t, env, op.ID, notification.TypeParent), 1)
}

func TestService_Query(t *testing.T) {
	env := testutil.NewEnv(t)
	a := createPending(t, env, "CS40001")
	b := createPending(t, env, "CS40002")
	approve(t, env, b.ID)

	tests := []struct {
		name   string
		filter outpass.QueryFilter
		want   []string
	}{
		{"all", outpass.QueryFilter{}, []string{a.ID, b.ID}},
		{"by status", outpass.QueryFilter{Status: outpass.StatusApproved}, []string{b.ID}},
		{"by student", outpass.QueryFilter{StudentID: a.StudentID}, []string{a.ID}},
		{"by roll no, any case", outpass.QueryFilter{RollNo: " cs40001 "}, []string{a.ID}},
		{"by token", outpass.QueryFilter{Token: "CS40002"}, []string{b.ID}},
		{"by hostel", outpass.QueryFilter{Hostel: "Girls Hostel"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ops, err := env.Outpasses.Query(ctx, tc.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(ops))
			for _, op := range ops {
				ids = append(ids, op.ID)
			}
			assert.ElementsMatch(t, tc.want, ids)
		})
	}
}

func isValidationErrors(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
