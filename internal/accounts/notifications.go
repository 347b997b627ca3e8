package accounts

import (
	"context"
	"errors"

	"healthcare-booking-server/internal/access"
	"healthcare-booking-server/internal/apperr"
	"healthcare-booking-server/internal/models"
	"healthcare-booking-server/internal/store"
)

// ListNotifications returns the actor's notifications, newest first, and
// how many are unread.
func (s *Service) ListNotifications(ctx context.Context, actor access.Actor) ([]models.Notification, int64, error) {
	if err := s.policy.CheckStatus(actor); err != nil {
		return nil, 0, err
	}
	list, err := s.store.Notifications.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	unread, err := s.store.Notifications.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return list, unread, nil
}

// MarkNotificationRead marks one of the actor's notifications as read.
func (s *Service) MarkNotificationRead(ctx context.Context, actor access.Actor, id string) error {
	if _, err := s.ownNotification(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Notifications.MarkRead(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// MarkAllNotificationsRead marks every notification of the actor as read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor access.Actor) error {
	if err := s.policy.CheckStatus(actor); err != nil {
		return err
	}
	if err := s.store.Notifications.MarkAllRead(ctx, actor.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// DeleteNotification removes one of the actor's notifications.
func (s *Service) DeleteNotification(ctx context.Context, actor access.Actor, id string) error {
	if _, err := s.ownNotification(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.Notifications.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) ownNotification(ctx context.Context, actor access.Actor, id string) (*models.Notification, error) {
	if err := s.policy.CheckStatus(actor); err != nil {
		return nil, err
	}
	n, err := s.store.Notifications.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Notification not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if n.UserID != actor.ID {
		return nil, apperr.Forbidden("Not authorized to access this notification")
	}
	return n, nil
}
