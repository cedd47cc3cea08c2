package inmemdb

import (
	"context"
	"fmt"

	"github.com/campusgate/outpass/core/notification"
)

type notificationRepository struct {
	db *notificationTable
}

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) Create(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	n.ID = fmt.Sprintf("NOT-%03d", repo.db.seq)
	repo.db.rows = append(repo.db.rows, n)
	return n, nil
}

func (repo *notificationRepository) Query(_ context.Context, filter notification.QueryFilter) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	res := make([]notification.Notification, 0)
	for i := len(repo.db.rows) - 1; i >= 0; i-- {
		n := repo.db.rows[i]
		if !filter.Matches(n) {
			continue
		}
		res = append(res, n)
		if filter.Limit > 0 && len(res) == filter.Limit {
			break
		}
	}
	return res, nil
}
