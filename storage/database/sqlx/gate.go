package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core/gate"
)

const gateLogColumns = `id, outpass_id, student_id, action, gate, security_id, timestamp`

type gateLogRepository struct {
	db *sqlx.DB
}

func NewGateLogRepository(db *sqlx.DB) gate.Repository {
	return &gateLogRepository{db: db}
}

func (repo *gateLogRepository) Create(ctx context.Context, log gate.GateLog) (gate.GateLog, error) {
	var seq int64
	if err := repo.db.GetContext(ctx, &seq, `SELECT nextval('gate_log_seq')`); err != nil {
		return gate.GateLog{}, errors.Wrap(err, "allocating gate log id")
	}
	log.ID = fmt.Sprintf("GL-%03d", seq)

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO gate_logs (`+gateLogColumns+`, seq) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.OutpassID, log.StudentID, string(log.Action), log.Gate, log.SecurityID, log.Timestamp, seq,
	)
	if err != nil {
		return gate.GateLog{}, errors.Wrap(err, "inserting gate log")
	}
	return log, nil
}

func (repo *gateLogRepository) Query(ctx context.Context, filter gate.QueryFilter) ([]gate.GateLog, error) {
	var w where
	if filter.OutpassID != "" {
		w.add("outpass_id = ?", filter.OutpassID)
	}
	if filter.StudentID != "" {
		w.add("student_id = ?", filter.StudentID)
	}
	if filter.Action != "" {
		w.add("action = ?", string(filter.Action))
	}

	res := make([]gate.GateLog, 0)
	q := repo.db.Rebind(`SELECT ` + gateLogColumns + ` FROM gate_logs` + w.String() + ` ORDER BY seq DESC`)
	err := repo.db.SelectContext(ctx, &res, q, w.args...)
	return res, errors.Wrap(err, "selecting gate logs")
}
