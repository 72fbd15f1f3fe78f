package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"journeyhub/internal/microservices/http-api/models"
	"journeyhub/internal/microservices/http-api/repository"
	"journeyhub/internal/microservices/pubsub"

	"github.com/google/uuid"
)

// ErrNotFound mirrors the repository sentinel for callers that only import the service
var ErrNotFound = repository.ErrNotFound

// ValidationError rejects malformed notification input before anything is
// persisted or published
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid notification input: " + e.Reason
}

// NotificationInput is what domain collaborators hand the publisher after a
// social action commits
type NotificationInput struct {
	RecipientID string                  `json:"recipient_id"`
	SenderID    string                  `json:"sender_id"`
	Type        models.NotificationType `json:"type"`
	Target      models.Target           `json:"target"`
	Message     string                  `json:"message"`
}

// ListResult is the reconciliation page shape
type ListResult struct {
	Notifications      []models.Notification
	UnreadCount        int64
	TotalNotifications int64
	CurrentPage        int
	TotalPages         int
	HasMore            bool
}

type NotificationService interface {
	Publish(ctx context.Context, input NotificationInput) (*models.Notification, error)
	List(ctx context.Context, recipientID string, filter repository.ReadFilter, page, limit int) (*ListResult, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, recipientID, notificationID string) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID string) error
	Delete(ctx context.Context, recipientID, notificationID string) error
	ClearAll(ctx context.Context, recipientID string) error
	RunRetentionSweep(ctx context.Context, interval, maxAge time.Duration)
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher pubsub.Publisher
	logger    *slog.Logger
	published atomic.Int64
}

func NewNotificationService(repo repository.NotificationRepository, publisher pubsub.Publisher, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func validateInput(input NotificationInput) error {
	switch {
	case input.RecipientID == "":
		return &ValidationError{Reason: "recipient_id is required"}
	case input.SenderID == "":
		return &ValidationError{Reason: "sender_id is required"}
	case input.Message == "":
		return &ValidationError{Reason: "message is required"}
	case input.Target.ID == "":
		return &ValidationError{Reason: "target id is required"}
	case !input.Type.Valid():
		return &ValidationError{Reason: fmt.Sprintf("unknown notification type %q", input.Type)}
	case !input.Type.AllowsTarget(input.Target.Kind):
		return &ValidationError{Reason: fmt.Sprintf("target kind %q is not valid for type %q", input.Target.Kind, input.Type)}
	}
	return nil
}

// Publish persists a notification record and then pushes a fanout message
// onto the broker channel. The record is inserted first; a pushed
// notification always corresponds to a persisted one. A broker failure is
// logged and swallowed - the record stays discoverable through the
// reconciliation endpoints.
func (s *notificationService) Publish(ctx context.Context, input NotificationInput) (*models.Notification, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		ID:          uuid.New().String(),
		RecipientID: input.RecipientID,
		SenderID:    input.SenderID,
		Type:        input.Type,
		Target:      input.Target,
		Message:     input.Message,
		IsRead:      false,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	msg := &pubsub.FanoutMessage{
		RecipientID:  notification.RecipientID,
		Notification: *notification,
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		// Live push lost, record kept. The recipient catches up on the
		// next reconciliation fetch.
		s.logger.Warn("Live push skipped, broker unavailable",
			"notification_id", notification.ID,
			"recipient_id", notification.RecipientID,
			"error", err)
		return notification, nil
	}

	total := s.published.Add(1)
	s.logger.Debug("Notification published",
		"notification_id", notification.ID,
		"recipient_id", notification.RecipientID,
		"type", notification.Type,
		"total_published", total)

	return notification, nil
}

func (s *notificationService) List(ctx context.Context, recipientID string, filter repository.ReadFilter, page, limit int) (*ListResult, error) {
	if !filter.Valid() {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown filter %q", filter)}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	notifications, err := s.repo.ListByRecipient(ctx, recipientID, filter, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	total, err := s.repo.Count(ctx, recipientID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &ListResult{
		Notifications:      notifications,
		UnreadCount:        unread,
		TotalNotifications: total,
		CurrentPage:        page,
		TotalPages:         totalPages,
		HasMore:            page < totalPages,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, recipientID, notificationID string) (*models.Notification, error) {
	return s.repo.MarkAsRead(ctx, recipientID, notificationID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, recipientID string) error {
	return s.repo.MarkAllAsRead(ctx, recipientID)
}

func (s *notificationService) Delete(ctx context.Context, recipientID, notificationID string) error {
	return s.repo.Delete(ctx, recipientID, notificationID)
}

func (s *notificationService) ClearAll(ctx context.Context, recipientID string) error {
	return s.repo.ClearAll(ctx, recipientID)
}

// RunRetentionSweep periodically deletes notifications older than maxAge.
// Blocks until ctx is cancelled.
func (s *notificationService) RunRetentionSweep(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-maxAge)
			deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				s.logger.Error("Retention sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				s.logger.Info("Retention sweep removed expired notifications", "deleted", deleted)
			}
		}
	}
}
