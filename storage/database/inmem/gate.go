package inmemdb

import (
	"context"
	"fmt"

	"github.com/campusgate/outpass/core/gate"
)

type gateLogRepository struct {
	db *gateLogTable
}

func NewGateLogRepository(db *DB) gate.Repository {
	return &gateLogRepository{db: db.gateLog}
}

func (repo *gateLogRepository) Create(_ context.Context, log gate.GateLog) (gate.GateLog, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	log.ID = fmt.Sprintf("GL-%03d", repo.db.seq)
	repo.db.rows = append(repo.db.rows, log)
	return log, nil
}

func (repo *gateLogRepository) Query(_ context.Context, filter gate.QueryFilter) ([]gate.GateLog, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]gate.GateLog, 0)
	for i := len(repo.db.rows) - 1; i >= 0; i-- {
		log := repo.db.rows[i]
		if filter.OutpassID != "" && log.OutpassID != filter.OutpassID {
			continue
		}
		if filter.StudentID != "" && log.StudentID != filter.StudentID {
			continue
		}
		if filter.Action != "" && log.Action != filter.Action {
			continue
		}
		res = append(res, log)
	}
	return res, nil
}
