package student

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusgate/outpass/core"
)

type Student struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	RollNo        string    `json:"roll_no" db:"roll_no"`
	RoomNo        string    `json:"room_no" db:"room_no"`
	Hostel        string    `json:"hostel" db:"hostel"`
	Contact       string    `json:"contact" db:"contact"`
	ParentContact string    `json:"parent_contact" db:"parent_contact"`
	PasswordHash  []byte    `json:"-" db:"password_hash"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (s *Student) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Student) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

// MissingProfileFields lists the json names of the profile fields an outpass snapshot needs but are still empty.
func (s Student) MissingProfileFields() []string {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"roll_no", s.RollNo},
		{"room_no", s.RoomNo},
		{"hostel", s.Hostel},
		{"contact", s.Contact},
		{"parent_contact", s.ParentContact},
	} {
		if core.CleanString(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (s Student) ProfileComplete() bool {
	return len(s.MissingProfileFields()) == 0
}

// NewStudent contains information needed to register a Student.
type NewStudent struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	RollNo          string `json:"roll_no" validate:"required,alphanum"`
	RoomNo          string `json:"room_no"`
	Hostel          string `json:"hostel"`
	Contact         string `json:"contact" validate:"omitempty,in_phone"`
	ParentContact   string `json:"parent_contact" validate:"omitempty,in_phone"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.RollNo = normalizeRollNo(ns.RollNo)
	ns.RoomNo = core.CleanString(ns.RoomNo)
	ns.Hostel = core.CleanString(ns.Hostel)
	ns.Contact = core.CleanString(ns.Contact)
	ns.ParentContact = core.CleanString(ns.ParentContact)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, ns.RollNo, ns.Email)
}

// UpdateStudent defines the profile fields a Student may change. Empty fields are left untouched.
type UpdateStudent struct {
	Name          string `json:"name"`
	RoomNo        string `json:"room_no"`
	Hostel        string `json:"hostel"`
	Contact       string `json:"contact" validate:"omitempty,in_phone"`
	ParentContact string `json:"parent_contact" validate:"omitempty,in_phone"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.RoomNo = core.CleanString(us.RoomNo)
	us.Hostel = core.CleanString(us.Hostel)
	us.Contact = core.CleanString(us.Contact)
	us.ParentContact = core.CleanString(us.ParentContact)
	return validate.Struct(us)
}

type SetPassword struct {
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type QueryFilter struct {
	ID     string `query:"id"`
	RollNo string `query:"roll_no"`
	Hostel string `query:"hostel"`
	Email  string `query:"email"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ID == "" && qf.RollNo == "" && qf.Hostel == "" && qf.Email == ""
}

func (qf *QueryFilter) Clean() {
	qf.ID = core.CleanString(qf.ID)
	qf.RollNo = normalizeRollNo(qf.RollNo)
	qf.Hostel = core.CleanString(qf.Hostel)
	qf.Email = core.CleanString(qf.Email, true /* lower */)
}

// roll numbers are stored upper-cased so OP-<ROLLNO> ids and barcode lookups stay stable.
func normalizeRollNo(rollNo string) string {
	return strings.ToUpper(core.CleanString(rollNo))
}
