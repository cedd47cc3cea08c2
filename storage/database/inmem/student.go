package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/campusgate/outpass/core/student"
)

type studentRepository struct {
	db *studentTable
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].RollNo < students[j].RollNo })
	return students
}

func (repo *studentRepository) CheckUniqueness(_ context.Context, rollNo, email string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, std := range repo.db.table {
		if strings.EqualFold(std.RollNo, rollNo) {
			return student.ErrRollNoExists
		}
		if email != "" && strings.EqualFold(std.Email, email) {
			return student.ErrEmailExists
		}
	}
	return nil
}

func (repo *studentRepository) Create(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) Get(_ context.Context, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetByRollNo(_ context.Context, rollNo string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, std := range repo.db.table {
		if strings.EqualFold(std.RollNo, rollNo) {
			return *std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetByEmail(_ context.Context, email string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, std := range repo.db.table {
		if strings.EqualFold(std.Email, email) {
			return *std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) Query(_ context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]student.Student, 0)
	for _, std := range repo.query() {
		if filter.ID != "" && std.ID != filter.ID {
			continue
		}
		if filter.RollNo != "" && !strings.EqualFold(std.RollNo, filter.RollNo) {
			continue
		}
		if filter.Hostel != "" && !strings.EqualFold(std.Hostel, filter.Hostel) {
			continue
		}
		if filter.Email != "" && !strings.EqualFold(std.Email, filter.Email) {
			continue
		}
		res = append(res, std)
	}
	return res, nil
}

func (repo *studentRepository) Update(_ context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.table[std.ID] = &std
	return std, nil
}
