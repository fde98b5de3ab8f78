package store

import (
	"database/sql"
	"time"

	"github.com/pavelanni/rpsplanner/internal/model"
)

// CreateNotification stores an inbox entry.
func (s *Store) CreateNotification(n model.Notification) (int64, error) {
	var rpsID sql.NullInt64
	if n.RPSID != nil {
		rpsID = nullID(*n.RPSID)
	}
	res, err := s.db.Exec(
		`INSERT INTO notifications (user_id, kind, title, body, rps_id, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.UserID, n.Kind, n.Title, n.Body, rpsID, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListNotifications returns the newest notifications of a user first.
// limit <= 0 means no limit.
func (s *Store) ListNotifications(userID int64, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, user_id, kind, title, body, rps_id, is_read, created_at
		 FROM notifications WHERE user_id = ? ORDER BY id DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		var rpsID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &rpsID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		if rpsID.Valid {
			n.RPSID = &rpsID.Int64
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// UnreadCount returns the number of unread notifications of a user.
func (s *Store) UnreadCount(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&count)
	return count, err
}

// MarkNotificationRead marks one notification of a user as read. It reports
// whether the notification was unread before.
func (s *Store) MarkNotificationRead(userID, id int64) (bool, error) {
	var wasRead bool
	err := s.db.QueryRow(`SELECT is_read FROM notifications WHERE id = ? AND user_id = ?`, id, userID).Scan(&wasRead)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	if wasRead {
		return false, nil
	}
	_, err = s.db.Exec(`UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	return err == nil, err
}

// MarkAllNotificationsRead marks every notification of a user as read.
func (s *Store) MarkAllNotificationsRead(userID int64) (int64, error) {
	res, err := s.db.Exec(`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
