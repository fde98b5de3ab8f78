// Package notify delivers inbox notifications about the RPS review workflow
// and keeps unread counts cached.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pavelanni/rpsplanner/internal/i18n"
	"github.com/pavelanni/rpsplanner/internal/model"
)

// Store is the persistence the service needs.
type Store interface {
	CreateNotification(n model.Notification) (int64, error)
	ListNotifications(userID int64, limit int) ([]model.Notification, error)
	UnreadCount(userID int64) (int, error)
	MarkNotificationRead(userID, id int64) (bool, error)
	MarkAllNotificationsRead(userID int64) (int64, error)
	ListActiveUsersByRole(role model.UserRole) ([]model.User, error)
}

// Service creates and reads notifications.
type Service struct {
	store   Store
	counter Counter

	// gen counts invalidations per user. Unread only caches a count when
	// no invalidation happened while it was reading the store.
	mu  sync.Mutex
	gen map[int64]uint64
}

// New returns a Service. A nil counter caches in memory.
func New(s Store, c Counter) *Service {
	if c == nil {
		c = NewMemoryCounter()
	}
	return &Service{store: s, counter: c, gen: map[int64]uint64{}}
}

// Send stores n and drops the recipient's cached count.
func (s *Service) Send(ctx context.Context, n model.Notification) error {
	if _, err := s.store.CreateNotification(n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	s.invalidate(ctx, n.UserID)
	return nil
}

// Submitted tells every active kaprodi that an RPS waits for review.
func (s *Service) Submitted(ctx context.Context, rpsID int64, course, preparer string) error {
	chairs, err := s.store.ListActiveUsersByRole(model.UserRoleKaprodi)
	if err != nil {
		return fmt.Errorf("list kaprodi: %w", err)
	}
	data := map[string]any{"Course": course, "Preparer": preparer}
	for _, u := range chairs {
		err := s.Send(ctx, model.Notification{
			UserID: u.ID,
			Kind:   model.NotifyRPSSubmitted,
			Title:  i18n.T(ctx, "RPSSubmittedTitle"),
			Body:   i18n.Td(ctx, "RPSSubmittedBody", data),
			RPSID:  &rpsID,
		})
		if err != nil {
			return err
		}
	}
	slog.Info("notified reviewers", "rps_id", rpsID, "count", len(chairs))
	return nil
}

// Reviewed tells the owner of an RPS how the review ended.
func (s *Service) Reviewed(ctx context.Context, ownerID, rpsID int64, status model.RPSStatus, course, note string) error {
	n := model.Notification{UserID: ownerID, RPSID: &rpsID}
	data := map[string]any{"Course": course, "Note": note}
	switch status {
	case model.RPSApproved:
		n.Kind = model.NotifyRPSApproved
		n.Title = i18n.T(ctx, "RPSApprovedTitle")
		n.Body = i18n.Td(ctx, "RPSApprovedBody", data)
	case model.RPSRejected:
		n.Kind = model.NotifyRPSRejected
		n.Title = i18n.T(ctx, "RPSRejectedTitle")
		n.Body = i18n.Td(ctx, "RPSRejectedBody", data)
	default:
		return fmt.Errorf("no review notification for status %q", status)
	}
	return s.Send(ctx, n)
}

// List returns the newest notifications of a user.
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]model.Notification, error) {
	return s.store.ListNotifications(userID, limit)
}

// Unread returns the unread count, from the cache when possible.
func (s *Service) Unread(ctx context.Context, userID int64) (int, error) {
	n, ok, err := s.counter.Get(ctx, userID)
	if err != nil {
		slog.Warn("unread cache read failed", "user_id", userID, "error", err)
	}
	if ok {
		return n, nil
	}

	s.mu.Lock()
	gen := s.gen[userID]
	s.mu.Unlock()

	n, err = s.store.UnreadCount(userID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[userID] != gen {
		return n, nil
	}
	if err := s.counter.Set(ctx, userID, n); err != nil {
		slog.Warn("unread cache write failed", "user_id", userID, "error", err)
	}
	return n, nil
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	changed, err := s.store.MarkNotificationRead(userID, id)
	if err != nil {
		return err
	}
	if changed {
		s.invalidate(ctx, userID)
	}
	return nil
}

// MarkAllRead marks every notification of a user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	if _, err := s.store.MarkAllNotificationsRead(userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, userID int64) {
	s.mu.Lock()
	s.gen[userID]++
	s.mu.Unlock()
	if err := s.counter.Invalidate(ctx, userID); err != nil {
		slog.Warn("unread cache invalidate failed", "user_id", userID, "error", err)
	}
}
