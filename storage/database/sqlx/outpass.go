package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core/outpass"
)

const outpassColumns = `id, student_id, student_name, student_roll_no, student_room_no, student_hostel,
	student_contact, student_parent_contact, type, purpose, place, date, expected_return_time, status,
	created_at, updated_at, approved_by, approved_at, reject_reason, exit_time, exit_gate,
	actual_return_at, return_gate, late_at, cancelled_at, barcode_token, notification_sent`

// outpassRow flattens the student snapshot into columns.
type outpassRow struct {
	ID                   string     `db:"id"`
	StudentID            string     `db:"student_id"`
	StudentName          string     `db:"student_name"`
	StudentRollNo        string     `db:"student_roll_no"`
	StudentRoomNo        string     `db:"student_room_no"`
	StudentHostel        string     `db:"student_hostel"`
	StudentContact       string     `db:"student_contact"`
	StudentParentContact string     `db:"student_parent_contact"`
	Type                 string     `db:"type"`
	Purpose              string     `db:"purpose"`
	Place                string     `db:"place"`
	Date                 string     `db:"date"`
	ExpectedReturnTime   string     `db:"expected_return_time"`
	Status               string     `db:"status"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
	ApprovedBy           string     `db:"approved_by"`
	ApprovedAt           *time.Time `db:"approved_at"`
	RejectReason         string     `db:"reject_reason"`
	ExitTime             *time.Time `db:"exit_time"`
	ExitGate             string     `db:"exit_gate"`
	ActualReturnAt       *time.Time `db:"actual_return_at"`
	ReturnGate           string     `db:"return_gate"`
	LateAt               *time.Time `db:"late_at"`
	CancelledAt          *time.Time `db:"cancelled_at"`
	BarcodeToken         string     `db:"barcode_token"`
	NotificationSent     bool       `db:"notification_sent"`
}

func newOutpassRow(op outpass.Outpass) outpassRow {
	return outpassRow{
		ID:                   op.ID,
		StudentID:            op.StudentID,
		StudentName:          op.Student.Name,
		StudentRollNo:        op.Student.RollNo,
		StudentRoomNo:        op.Student.RoomNo,
		StudentHostel:        op.Student.Hostel,
		StudentContact:       op.Student.Contact,
		StudentParentContact: op.Student.ParentContact,
		Type:                 string(op.Type),
		Purpose:              op.Purpose,
		Place:                op.Place,
		Date:                 op.Date,
		ExpectedReturnTime:   op.ExpectedReturnTime,
		Status:               string(op.Status),
		CreatedAt:            op.CreatedAt,
		UpdatedAt:            op.UpdatedAt,
		ApprovedBy:           op.ApprovedBy,
		ApprovedAt:           op.ApprovedAt,
		RejectReason:         op.RejectReason,
		ExitTime:             op.ExitTime,
		ExitGate:             op.ExitGate,
		ActualReturnAt:       op.ActualReturnAt,
		ReturnGate:           op.ReturnGate,
		LateAt:               op.LateAt,
		CancelledAt:          op.CancelledAt,
		BarcodeToken:         op.BarcodeToken,
		NotificationSent:     op.NotificationSent,
	}
}

func (r outpassRow) outpass() outpass.Outpass {
	return outpass.Outpass{
		ID:        r.ID,
		StudentID: r.StudentID,
		Student: outpass.StudentSnapshot{
			Name:          r.StudentName,
			RollNo:        r.StudentRollNo,
			RoomNo:        r.StudentRoomNo,
			Hostel:        r.StudentHostel,
			Contact:       r.StudentContact,
			ParentContact: r.StudentParentContact,
		},
		Type:               outpass.Type(r.Type),
		Purpose:            r.Purpose,
		Place:              r.Place,
		Date:               r.Date,
		ExpectedReturnTime: r.ExpectedReturnTime,
		Status:             outpass.Status(r.Status),
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
		ApprovedBy:         r.ApprovedBy,
		ApprovedAt:         utcPtr(r.ApprovedAt),
		RejectReason:       r.RejectReason,
		ExitTime:           utcPtr(r.ExitTime),
		ExitGate:           r.ExitGate,
		ActualReturnAt:     utcPtr(r.ActualReturnAt),
		ReturnGate:         r.ReturnGate,
		LateAt:             utcPtr(r.LateAt),
		CancelledAt:        utcPtr(r.CancelledAt),
		BarcodeToken:       r.BarcodeToken,
		NotificationSent:   r.NotificationSent,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func toOutpasses(rows []outpassRow) []outpass.Outpass {
	ops := make([]outpass.Outpass, 0, len(rows))
	for _, r := range rows {
		ops = append(ops, r.outpass())
	}
	return ops
}

type outpassRepository struct {
	db *sqlx.DB
}

func NewOutpassRepository(db *sqlx.DB) outpass.Repository {
	return &outpassRepository{db: db}
}

func (repo *outpassRepository) Create(ctx context.Context, op outpass.Outpass) (outpass.Outpass, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return outpass.Outpass{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	err = tx.GetContext(ctx, &current, `SELECT status FROM outpasses WHERE id = $1 FOR UPDATE`, op.ID)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return outpass.Outpass{}, errors.Wrap(err, "locking outpass")
	case !outpass.Status(current).Terminal():
		return outpass.Outpass{}, errors.Errorf("outpass %s is still %s", op.ID, current)
	default:
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO outpass_archive (`+outpassColumns+`) SELECT `+outpassColumns+` FROM outpasses WHERE id = $1`, op.ID,
		); err != nil {
			return outpass.Outpass{}, errors.Wrap(err, "archiving outpass")
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM outpasses WHERE id = $1`, op.ID); err != nil {
			return outpass.Outpass{}, errors.Wrap(err, "archiving outpass")
		}
	}

	if _, err = tx.NamedExecContext(ctx,
		`INSERT INTO outpasses (`+outpassColumns+`) VALUES (
			:id, :student_id, :student_name, :student_roll_no, :student_room_no, :student_hostel,
			:student_contact, :student_parent_contact, :type, :purpose, :place, :date, :expected_return_time, :status,
			:created_at, :updated_at, :approved_by, :approved_at, :reject_reason, :exit_time, :exit_gate,
			:actual_return_at, :return_gate, :late_at, :cancelled_at, :barcode_token, :notification_sent)`,
		newOutpassRow(op),
	); err != nil {
		return outpass.Outpass{}, errors.Wrap(err, "inserting outpass")
	}
	if err = tx.Commit(); err != nil {
		return outpass.Outpass{}, errors.Wrap(err, "committing outpass")
	}
	return op, nil
}

func (repo *outpassRepository) Get(ctx context.Context, id string) (outpass.Outpass, error) {
	var row outpassRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+outpassColumns+` FROM outpasses WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return outpass.Outpass{}, outpass.ErrNotFound
	}
	if err != nil {
		return outpass.Outpass{}, errors.Wrap(err, "selecting outpass")
	}
	return row.outpass(), nil
}

func (repo *outpassRepository) Update(ctx context.Context, op outpass.Outpass) (outpass.Outpass, error) {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE outpasses SET
			status = :status, updated_at = :updated_at, approved_by = :approved_by, approved_at = :approved_at,
			reject_reason = :reject_reason, exit_time = :exit_time, exit_gate = :exit_gate,
			actual_return_at = :actual_return_at, return_gate = :return_gate, late_at = :late_at,
			cancelled_at = :cancelled_at, barcode_token = :barcode_token, notification_sent = :notification_sent
		WHERE id = :id`,
		newOutpassRow(op),
	)
	if err != nil {
		return outpass.Outpass{}, errors.Wrap(err, "updating outpass")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return outpass.Outpass{}, outpass.ErrNotFound
	}
	return op, nil
}

func (repo *outpassRepository) Query(ctx context.Context, filter outpass.QueryFilter) ([]outpass.Outpass, error) {
	var w where
	if filter.ID != "" {
		w.add("id = ?", filter.ID)
	}
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	if filter.Hostel != "" {
		w.add("LOWER(student_hostel) = LOWER(?)", filter.Hostel)
	}
	if filter.Date != "" {
		w.add("date = ?", filter.Date)
	}
	if filter.Token != "" {
		w.add("barcode_token = ?", filter.Token)
	}
	if filter.RollNo != "" {
		w.add("UPPER(student_roll_no) = UPPER(?)", filter.RollNo)
	}

	from := "outpasses"
	if filter.IncludeArchived {
		from = `(SELECT ` + outpassColumns + ` FROM outpasses UNION ALL SELECT ` + outpassColumns + ` FROM outpass_archive) AS o`
	}
	var rows []outpassRow
	q := repo.db.Rebind(`SELECT ` + outpassColumns + ` FROM ` + from + w.String() + ` ORDER BY created_at DESC, id`)
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting outpasses")
	}
	return toOutpasses(rows), nil
}

func (repo *outpassRepository) ListByStatus(ctx context.Context, statuses ...outpass.Status) ([]outpass.Outpass, error) {
	if len(statuses) == 0 {
		return []outpass.Outpass{}, nil
	}
	names := make([]string, 0, len(statuses))
	for _, st := range statuses {
		names = append(names, string(st))
	}
	var w where
	if err := w.addIn("status IN (?)", names); err != nil {
		return nil, errors.Wrap(err, "building status query")
	}
	q := repo.db.Rebind(`SELECT ` + outpassColumns + ` FROM outpasses` + w.String() + ` ORDER BY created_at DESC, id`)
	var rows []outpassRow
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting outpasses")
	}
	return toOutpasses(rows), nil
}
