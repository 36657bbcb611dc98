package notification

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNotRecipient         = errors.New("not the recipient of this notification")
)

// Service handles notification business logic. It also implements the
// notification sink consumed by the booking core.
type Service struct {
	repo *Repository
}

// NewService creates a new notification service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Notify delivers a fire-and-forget notification addressed to a user. Kinds
// that prompt for an accept/decline start in the PENDING action state.
func (s *Service) Notify(ctx context.Context, recipientID int64, title, message, kind, entityType string, entityID int64) error {
	actionState := ActionStateNone
	if Kind(kind) == KindBookingInvite {
		actionState = ActionStatePending
	}

	var et *string
	var ei *int64
	if entityType != "" {
		et = &entityType
		ei = &entityID
	}

	_, err := s.repo.Create(ctx, recipientID, title, message, Kind(kind), actionState, et, ei)
	return err
}

// MarkProcessed suppresses the action buttons on pending actionable
// notifications for the given recipient and entity.
func (s *Service) MarkProcessed(ctx context.Context, recipientID int64, entityType string, entityID int64) error {
	return s.repo.MarkProcessedByEntity(ctx, recipientID, entityType, entityID)
}

// GetByID retrieves a notification by its ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

// ListByRecipientID retrieves all notifications for a user
func (s *Service) ListByRecipientID(ctx context.Context, recipientID int64, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if notification == nil {
		return ErrNotificationNotFound
	}
	if notification.RecipientID != userID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// GetUnreadCount returns the count of unread notifications
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}
