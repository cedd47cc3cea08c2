package student

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/campusgate/outpass/core"
)

var (
	// errors
	ErrNotFound           = errors.New("student not found")
	ErrEmailExists        = errors.New("a student with this email already exists")
	ErrRollNoExists       = errors.New("a student with this roll number already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrRollNoExists or ErrEmailExists when another student already uses them.
		CheckUniqueness(ctx context.Context, rollNo, email string) error
		Create(ctx context.Context, std Student) (Student, error)
		Get(ctx context.Context, id string) (Student, error)
		GetByRollNo(ctx context.Context, rollNo string) (Student, error)
		GetByEmail(ctx context.Context, email string) (Student, error)
		// Query applies AND operation on available QueryFilter fields.
		Query(ctx context.Context, filter QueryFilter) ([]Student, error)
		Update(ctx context.Context, std Student) (Student, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, rollNo, email string) error {
	if err := svc.repo.CheckUniqueness(ctx, rollNo, email); err != nil {
		var field string
		switch err {
		case ErrRollNoExists:
			field = "roll_no"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := ns.Validate(ctx, svc.validate, svc); err != nil {
		return Student{}, err
	}

	now := core.NowFunc().UTC()
	std := Student{
		ID:            newID(),
		Name:          ns.Name,
		Email:         ns.Email,
		RollNo:        ns.RollNo,
		RoomNo:        ns.RoomNo,
		Hostel:        ns.Hostel,
		Contact:       ns.Contact,
		ParentContact: ns.ParentContact,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := std.SetPassword(ns.Password); err != nil {
		return Student{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.Create(ctx, std)
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	std, err := svc.repo.Get(ctx, core.CleanString(id))
	return std, notFound(err, id)
}

func (svc *Service) GetByRollNo(ctx context.Context, rollNo string) (Student, error) {
	std, err := svc.repo.GetByRollNo(ctx, normalizeRollNo(rollNo))
	return std, notFound(err, rollNo)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.Query(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, error) {
	if err := us.Validate(svc.validate); err != nil {
		return Student{}, err
	}
	std, err := svc.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}

	if us.Name != "" {
		std.Name = us.Name
	}
	if us.RoomNo != "" {
		std.RoomNo = us.RoomNo
	}
	if us.Hostel != "" {
		std.Hostel = us.Hostel
	}
	if us.Contact != "" {
		std.Contact = us.Contact
	}
	if us.ParentContact != "" {
		std.ParentContact = us.ParentContact
	}
	std.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.Update(ctx, std)
}

func (svc *Service) SetPassword(ctx context.Context, id string, sp SetPassword) error {
	if err := svc.validate.Struct(sp); err != nil {
		return err
	}
	std, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := passwordPolicyError(sp.Password, std); err != nil {
		return err
	}
	if err := std.SetPassword(sp.Password); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	std.UpdatedAt = core.NowFunc().UTC()
	_, err = svc.repo.Update(ctx, std)
	return err
}

// Authenticate looks the student up by email or roll number and checks the password.
func (svc *Service) Authenticate(ctx context.Context, login, pwd string) (Student, error) {
	login = core.CleanString(login)
	var std Student
	var err error
	if strings.Contains(login, "@") {
		std, err = svc.repo.GetByEmail(ctx, strings.ToLower(login))
	} else {
		std, err = svc.repo.GetByRollNo(ctx, normalizeRollNo(login))
	}
	if err != nil {
		if err == ErrNotFound {
			return Student{}, ErrInvalidCredentials
		}
		return Student{}, pkgerrors.Wrap(err, "finding student")
	}
	if len(std.PasswordHash) == 0 || std.CheckPassword(pwd) != nil {
		return Student{}, ErrInvalidCredentials
	}
	return std, nil
}

func notFound(err error, id string) error {
	if err == ErrNotFound {
		return core.NewNotFoundError("student", id)
	}
	return err
}

func newID() string {
	return "ST-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
