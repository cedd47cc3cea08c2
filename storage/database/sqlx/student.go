package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core/student"
)

const studentColumns = `id, name, email, roll_no, room_no, hostel, contact, parent_contact, password_hash, created_at, updated_at`

type studentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckUniqueness(ctx context.Context, rollNo, email string) error {
	var rows []struct {
		RollNo string `db:"roll_no"`
		Email  string `db:"email"`
	}
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT roll_no, email FROM students WHERE UPPER(roll_no) = UPPER($1) OR ($2 <> '' AND LOWER(email) = LOWER($2))`,
		rollNo, email,
	)
	if err != nil {
		return errors.Wrap(err, "checking student uniqueness")
	}
	for _, r := range rows {
		if strings.EqualFold(r.RollNo, rollNo) {
			return student.ErrRollNoExists
		}
	}
	if len(rows) > 0 {
		return student.ErrEmailExists
	}
	return nil
}

func (repo *studentRepository) Create(ctx context.Context, std student.Student) (student.Student, error) {
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO students (`+studentColumns+`)
		VALUES (:id, :name, :email, :roll_no, :room_no, :hostel, :contact, :parent_contact, :password_hash, :created_at, :updated_at)`,
		std,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) getOne(ctx context.Context, cond string, arg interface{}) (student.Student, error) {
	var std student.Student
	err := repo.db.GetContext(ctx, &std, `SELECT `+studentColumns+` FROM students WHERE `+cond, arg)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	return std, errors.Wrap(err, "selecting student")
}

func (repo *studentRepository) Get(ctx context.Context, id string) (student.Student, error) {
	return repo.getOne(ctx, "id = $1", id)
}

func (repo *studentRepository) GetByRollNo(ctx context.Context, rollNo string) (student.Student, error) {
	return repo.getOne(ctx, "UPPER(roll_no) = UPPER($1)", rollNo)
}

func (repo *studentRepository) GetByEmail(ctx context.Context, email string) (student.Student, error) {
	return repo.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (repo *studentRepository) Query(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	var w where
	if filter.ID != "" {
		w.add("id = ?", filter.ID)
	}
	if filter.RollNo != "" {
		w.add("UPPER(roll_no) = UPPER(?)", filter.RollNo)
	}
	if filter.Hostel != "" {
		w.add("LOWER(hostel) = LOWER(?)", filter.Hostel)
	}
	if filter.Email != "" {
		w.add("LOWER(email) = LOWER(?)", filter.Email)
	}

	students := make([]student.Student, 0)
	q := repo.db.Rebind(`SELECT ` + studentColumns + ` FROM students` + w.String() + ` ORDER BY roll_no`)
	err := repo.db.SelectContext(ctx, &students, q, w.args...)
	return students, errors.Wrap(err, "selecting students")
}

func (repo *studentRepository) Update(ctx context.Context, std student.Student) (student.Student, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE students SET
			name = :name, room_no = :room_no, hostel = :hostel, contact = :contact,
			parent_contact = :parent_contact, password_hash = :password_hash, updated_at = :updated_at
		WHERE id = :id`,
		std,
	)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}
