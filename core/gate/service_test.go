package gate_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/gate"
	"github.com/campusgate/outpass/core/outpass"
	testutil "github.com/campusgate/outpass/tests"
)

var ctx = context.Background()

func approvedOutpass(t *testing.T, env *testutil.Env, rollNo string) outpass.Outpass {
	t.Helper()
	std := testutil.CreateStudent(t, env.StudentRepo, "Student "+rollNo, rollNo, "")
	op, err := env.Outpasses.Create(ctx, testutil.NewOutpassRequest(std.ID))
	require.NoError(t, err)
	op, err = env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusApproved, ApprovedBy: "AD-001"})
	require.NoError(t, err)
	return op
}

func TestService_exitAndReturn(t *testing.T) {
	env := testutil.NewEnv(t)
	op := approvedOutpass(t, env, "CS12345")
	env.SMS.Reset()
	env.Email.Reset()

	// returning before leaving is refused and leaves no trace
	_, _, err := env.Gate.RecordReturn(ctx, op.ID, "Gate 1", "SEC-01")
	require.Error(t, err)
	assert.True(t, core.IsInvalidState(err), err)
	logs, err := env.Gate.Query(ctx, gate.QueryFilter{OutpassID: op.ID})
	require.NoError(t, err)
	assert.Empty(t, logs)

	log, exited, err := env.Gate.RecordExit(ctx, op.ID, "Gate 1", "SEC-01")
	require.NoError(t, err)
	assert.Equal(t, "GL-001", log.ID)
	assert.Equal(t, gate.ActionExit, log.Action)
	assert.Equal(t, "Gate 1", log.Gate)
	assert.Equal(t, "SEC-01", log.SecurityID)
	assert.Equal(t, op.StudentID, log.StudentID)
	assert.Equal(t, outpass.StatusExited, exited.Status)
	assert.Equal(t, "Gate 1", exited.ExitGate)
	require.NotNil(t, exited.ExitTime)
	assert.True(t, exited.ExitTime.Equal(log.Timestamp))

	sms := env.SMS.SentMessages()
	require.Len(t, sms, 1)
	assert.Equal(t, "+919123456780", sms[0].To)
	assert.Contains(t, sms[0].Body, "has EXITED the campus")
	emails := env.Email.SentMessages()
	require.Len(t, emails, 1)
	assert.Equal(t, "Student Exit: Student CS12345 (CS12345)", emails[0].Subject)

	// a second exit scan is refused
	_, _, err = env.Gate.RecordExit(ctx, op.ID, "Gate 2", "SEC-02")
	assert.True(t, core.IsInvalidState(err), err)

	log, returned, err := env.Gate.RecordReturn(ctx, op.ID, "", "SEC-02")
	require.NoError(t, err)
	assert.Equal(t, "GL-002", log.ID)
	assert.Equal(t, gate.DefaultGate, log.Gate)
	assert.Equal(t, outpass.StatusReturned, returned.Status)
	assert.Equal(t, gate.DefaultGate, returned.ReturnGate)
	assert.Empty(t, returned.BarcodeToken)

	logs, err = env.Gate.Query(ctx, gate.QueryFilter{OutpassID: op.ID})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "GL-002", logs[0].ID, "newest first")

	logs, err = env.Gate.Query(ctx, gate.QueryFilter{Action: "EXIT"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "GL-001", logs[0].ID)
}

func TestService_returnWhenLate(t *testing.T) {
	env := testutil.NewEnv(t)
	op := approvedOutpass(t, env, "EE54321")

	_, _, err := env.Gate.RecordExit(ctx, op.ID, "Gate 1", "SEC-01")
	require.NoError(t, err)
	_, err = env.Outpasses.UpdateStatus(ctx, op.ID, outpass.StatusUpdate{Status: outpass.StatusLate})
	require.NoError(t, err)

	_, returned, err := env.Gate.RecordReturn(ctx, op.ID, "Gate 3", "SEC-03")
	require.NoError(t, err)
	assert.Equal(t, outpass.StatusReturned, returned.Status)
	assert.Equal(t, "Gate 3", returned.ReturnGate)
}

func TestService_RecordAction_errors(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.StudentRepo, "Pending Student", "ME11111", "")
	pending, err := env.Outpasses.Create(ctx, testutil.NewOutpassRequest(std.ID))
	require.NoError(t, err)

	tests := []struct {
		name  string
		na    gate.NewGateAction
		check func(error) bool
	}{
		{
			name:  "missing fields",
			na:    gate.NewGateAction{},
			check: func(err error) bool { _, ok := err.(validator.ValidationErrors); return ok },
		},
		{
			name:  "unknown action",
			na:    gate.NewGateAction{OutpassID: pending.ID, Action: "wander", SecurityID: "SEC-01"},
			check: func(err error) bool { _, ok := err.(validator.ValidationErrors); return ok },
		},
		{
			name:  "unknown outpass",
			na:    gate.NewGateAction{OutpassID: "OP-NOPE", Action: gate.ActionExit, SecurityID: "SEC-01"},
			check: core.IsNotFound,
		},
		{
			name:  "exit before approval",
			na:    gate.NewGateAction{OutpassID: pending.ID, Action: gate.ActionExit, SecurityID: "SEC-01"},
			check: core.IsInvalidState,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := env.Gate.RecordAction(ctx, tc.na)
			require.Error(t, err)
			assert.True(t, tc.check(err), err)
		})
	}

	got, err := env.Outpasses.Get(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, outpass.StatusPending, got.Status)
}

func TestService_Scan(t *testing.T) {
	env := testutil.NewEnv(t)
	op := approvedOutpass(t, env, "CS12345")

	got, err := env.Gate.Scan(ctx, "OP-CS12345-1699999999999")
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)

	_, err = env.Gate.Scan(ctx, "  ")
	assert.True(t, core.IsValidation(err), err)
}
