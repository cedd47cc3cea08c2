package sqlxrepos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/campusgate/outpass/core/notification"
)

const notificationColumns = `id, type, recipient_id, outpass_id, subject, message, channel, status, message_id, error, priority, sent_at`

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

// Create draws the id from notification_seq so ids stay sequential across processes.
func (repo *notificationRepository) Create(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	var seq int64
	if err := repo.db.GetContext(ctx, &seq, `SELECT nextval('notification_seq')`); err != nil {
		return notification.Notification{}, errors.Wrap(err, "allocating notification id")
	}
	n.ID = fmt.Sprintf("NOT-%03d", seq)

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`, seq) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		n.ID, string(n.Type), n.RecipientID, n.OutpassID, n.Subject, n.Message, string(n.Channel),
		string(n.Status), n.MessageID, n.Error, string(n.Priority), n.SentAt, seq,
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) Query(ctx context.Context, filter notification.QueryFilter) ([]notification.Notification, error) {
	var w where
	if filter.RecipientID != "" {
		w.add("recipient_id = ?", filter.RecipientID)
	}
	if filter.Type != "" {
		w.add("type = ?", string(filter.Type))
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		if err := w.addIn("type IN (?)", types); err != nil {
			return nil, errors.Wrap(err, "building notification query")
		}
	}
	if filter.OutpassID != "" {
		w.add("outpass_id = ?", filter.OutpassID)
	}

	q := `SELECT ` + notificationColumns + ` FROM notifications` + w.String() + ` ORDER BY seq DESC`
	if filter.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	res := make([]notification.Notification, 0)
	err := repo.db.SelectContext(ctx, &res, repo.db.Rebind(q), w.args...)
	return res, errors.Wrap(err, "selecting notifications")
}
