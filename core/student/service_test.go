package student_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/outpass/core"
	"github.com/campusgate/outpass/core/student"
	testutil "github.com/campusgate/outpass/tests"
)

var ctx = context.Background()

func newStudent() student.NewStudent {
	return student.NewStudent{
		Name:            " Asha Rao ",
		Email:           "Asha@Campus.test",
		RollNo:          "cs12345",
		RoomNo:          "A-101",
		Hostel:          "Girls Hostel 2",
		Contact:         "98765 43210",
		ParentContact:   "+919123456780",
		Password:        "blue-Kettle-42",
		PasswordConfirm: "blue-Kettle-42",
	}
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv(t)

	std, err := env.Students.Create(ctx, newStudent())
	require.NoError(t, err)
	assert.Regexp(t, `^ST-[0-9A-F]{8}$`, std.ID)
	assert.Equal(t, "Asha Rao", std.Name)
	assert.Equal(t, "asha@campus.test", std.Email)
	assert.Equal(t, "CS12345", std.RollNo)
	assert.True(t, std.ProfileComplete())
	assert.NoError(t, std.CheckPassword("blue-Kettle-42"))

	got, err := env.Students.GetByRollNo(ctx, "Cs12345")
	require.NoError(t, err)
	assert.Equal(t, std.ID, got.ID)
}

func TestService_Create_validation(t *testing.T) {
	env := testutil.NewEnv(t)
	_, err := env.Students.Create(ctx, newStudent())
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*student.NewStudent)
		wantTag string
		wantFld string
	}{
		{"short password", func(ns *student.NewStudent) {
			ns.Password, ns.PasswordConfirm = "abc12", "abc12"
		}, "pwdminlen", ""},
		{"numeric password", func(ns *student.NewStudent) {
			ns.Password, ns.PasswordConfirm = "1234567890", "1234567890"
		}, "pwdnotallnum", ""},
		{"password like the name", func(ns *student.NewStudent) {
			ns.Password, ns.PasswordConfirm = "asharao1", "asharao1"
		}, "pwdtoosim", ""},
		{"password mismatch", func(ns *student.NewStudent) {
			ns.PasswordConfirm = "something-else"
		}, "eqfield", ""},
		{"bad phone", func(ns *student.NewStudent) {
			ns.Contact = "12345"
		}, "in_phone", ""},
		{"duplicate roll number", func(ns *student.NewStudent) {
			ns.Email = "other@campus.test"
		}, "", "roll_no"},
		{"duplicate email", func(ns *student.NewStudent) {
			ns.RollNo = "EE54321"
		}, "", "email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ns := newStudent()
			if tc.wantTag != "" {
				ns.RollNo, ns.Email = "ZZ99999", "zz@campus.test"
			}
			tc.mutate(&ns)

			_, err := env.Students.Create(ctx, ns)
			require.Error(t, err)
			if tc.wantTag != "" {
				verrs, ok := err.(validator.ValidationErrors)
				require.True(t, ok, err)
				assert.Equal(t, tc.wantTag, verrs[0].Tag())
				return
			}
			require.True(t, core.IsValidation(err), err)
			assert.Equal(t, tc.wantFld, err.(*core.ValidationError).Fields[0].Field)
		})
	}
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.StudentRepo, "Asha Rao", "CS12345", "")

	got, err := env.Students.Update(ctx, std.ID, student.UpdateStudent{RoomNo: " B-202 ", Contact: "9000000001"})
	require.NoError(t, err)
	assert.Equal(t, "B-202", got.RoomNo)
	assert.Equal(t, "9000000001", got.Contact)
	assert.Equal(t, std.Hostel, got.Hostel, "empty fields are left untouched")

	_, err = env.Students.Update(ctx, std.ID, student.UpdateStudent{ParentContact: "42"})
	_, ok := err.(validator.ValidationErrors)
	assert.True(t, ok, err)

	_, err = env.Students.Update(ctx, "ST-NOPE", student.UpdateStudent{Name: "x"})
	assert.True(t, core.IsNotFound(err), err)
}

func TestService_Authenticate(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.StudentRepo, "Asha Rao", "CS12345", "blue-Kettle-42")
	testutil.CreateStudent(t, env.StudentRepo, "No Password", "EE54321", "")

	tests := []struct {
		name    string
		login   string
		pwd     string
		wantErr bool
	}{
		{"roll number", "cs12345", "blue-Kettle-42", false},
		{"email", " CS12345@campus.test ", "blue-Kettle-42", false},
		{"wrong password", "CS12345", "blue-kettle-42", true},
		{"unknown student", "ZZ00000", "blue-Kettle-42", true},
		{"no password set", "EE54321", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := env.Students.Authenticate(ctx, tc.login, tc.pwd)
			if tc.wantErr {
				assert.Equal(t, student.ErrInvalidCredentials, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, std.ID, got.ID)
		})
	}
}

func TestService_SetPassword(t *testing.T) {
	env := testutil.NewEnv(t)
	std := testutil.CreateStudent(t, env.StudentRepo, "Asha Rao", "CS12345", "")

	err := env.Students.SetPassword(ctx, std.ID, student.SetPassword{Password: "asharao1", PasswordConfirm: "asharao1"})
	require.True(t, core.IsValidation(err), err)

	err = env.Students.SetPassword(ctx, std.ID, student.SetPassword{Password: "blue-Kettle-42", PasswordConfirm: "blue-Kettle-42"})
	require.NoError(t, err)

	_, err = env.Students.Authenticate(ctx, "CS12345", "blue-Kettle-42")
	assert.NoError(t, err)
}
