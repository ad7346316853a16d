package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"hearthcoin/internal/model"
)

func InsertNotification(q sqlx.Ext, n *model.Notification) error {
	_, err := q.Exec(`insert into notifications (notif_id, user_key, message, is_read, timestamp)
		values (?, ?, ?, ?, ?)`,
		n.ID, n.UserKey, n.Message, n.IsRead, n.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func NotificationsFor(q sqlx.Ext, userKey string, limit int) ([]model.Notification, error) {
	rows := []model.Notification{}
	err := sqlx.Select(q, &rows,
		`select * from notifications where user_key = ?
		 order by timestamp desc limit ?`, userKey, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return rows, nil
}

func UnreadNotificationCount(q sqlx.Ext, userKey string) (int, error) {
	var count int
	err := sqlx.Get(q, &count,
		"select count(*) from notifications where user_key = ? and is_read = 0", userKey)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead flips a single unread notification owned by userKey.
func MarkNotificationRead(q sqlx.Ext, id string, userKey string) error {
	res, err := q.Exec(
		"update notifications set is_read = 1 where notif_id = ? and user_key = ? and is_read = 0",
		id, userKey)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrorNotificationNotFound
	}
	return nil
}
