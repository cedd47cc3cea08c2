package inmemdb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/campusgate/outpass/core/outpass"
)

type outpassRepository struct {
	db *outpassTable
}

func NewOutpassRepository(db *DB) outpass.Repository {
	return &outpassRepository{db: db.outpass}
}

func (repo *outpassRepository) Create(_ context.Context, op outpass.Outpass) (outpass.Outpass, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.table[op.ID]; ok {
		if !existing.Status.Terminal() {
			return outpass.Outpass{}, fmt.Errorf("outpass %s is still %s", op.ID, existing.Status)
		}
		repo.db.archived = append(repo.db.archived, *existing)
	}
	repo.db.table[op.ID] = &op
	return op, nil
}

func (repo *outpassRepository) Get(_ context.Context, id string) (outpass.Outpass, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if op, ok := repo.db.table[id]; ok {
		return *op, nil
	}
	return outpass.Outpass{}, outpass.ErrNotFound
}

func (repo *outpassRepository) Update(_ context.Context, op outpass.Outpass) (outpass.Outpass, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[op.ID]; !ok {
		return outpass.Outpass{}, outpass.ErrNotFound
	}
	repo.db.table[op.ID] = &op
	return op, nil
}

func (repo *outpassRepository) Query(_ context.Context, filter outpass.QueryFilter) ([]outpass.Outpass, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rows := make([]outpass.Outpass, 0, len(repo.db.table))
	for _, op := range repo.db.table {
		rows = append(rows, *op)
	}
	if filter.IncludeArchived {
		rows = append(rows, repo.db.archived...)
	}

	res := make([]outpass.Outpass, 0)
	for _, op := range rows {
		if matchOutpass(op, filter) {
			res = append(res, op)
		}
	}
	sortOutpasses(res)
	return res, nil
}

func (repo *outpassRepository) ListByStatus(_ context.Context, statuses ...outpass.Status) ([]outpass.Outpass, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]outpass.Outpass, 0)
	for _, op := range repo.db.table {
		for _, st := range statuses {
			if op.Status == st {
				res = append(res, *op)
				break
			}
		}
	}
	sortOutpasses(res)
	return res, nil
}

func matchOutpass(op outpass.Outpass, filter outpass.QueryFilter) bool {
	switch {
	case filter.ID != "" && op.ID != filter.ID,
		filter.StudentID != "" && op.StudentID != filter.StudentID,
		filter.Status != "" && op.Status != filter.Status,
		filter.Hostel != "" && !strings.EqualFold(op.Student.Hostel, filter.Hostel),
		filter.Date != "" && op.Date != filter.Date,
		filter.Token != "" && op.BarcodeToken != filter.Token,
		filter.RollNo != "" && !strings.EqualFold(op.Student.RollNo, filter.RollNo):
		return false
	}
	return true
}

// newest first
func sortOutpasses(ops []outpass.Outpass) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].CreatedAt.Equal(ops[j].CreatedAt) {
			return ops[i].ID < ops[j].ID
		}
		return ops[i].CreatedAt.After(ops[j].CreatedAt)
	})
}
