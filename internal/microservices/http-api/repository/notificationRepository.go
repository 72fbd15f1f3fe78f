package repository

import (
	"context"
	"errors"
	"time"

	"journeyhub/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a notification does not exist or belongs to another user
var ErrNotFound = errors.New("notification not found")

// ReadFilter selects notifications by read state
type ReadFilter string

const (
	FilterAll    ReadFilter = "all"
	FilterUnread ReadFilter = "unread"
	FilterRead   ReadFilter = "read"
)

// Valid reports whether f is a known filter value
func (f ReadFilter) Valid() bool {
	return f == FilterAll || f == FilterUnread || f == FilterRead
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, filter ReadFilter, page, limit int) ([]models.Notification, error)
	Count(ctx context.Context, recipientID string, filter ReadFilter) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, recipientID, notificationID string) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID string) error
	Delete(ctx context.Context, recipientID, notificationID string) error
	ClearAll(ctx context.Context, recipientID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// scoped applies the recipient and read-state filter to a query
func (r *notificationRepository) scoped(ctx context.Context, recipientID string, filter ReadFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	switch filter {
	case FilterUnread:
		q = q.Where("is_read = false")
	case FilterRead:
		q = q.Where("is_read = true")
	}
	return q
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter ReadFilter, page, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	offset := (page - 1) * limit
	err := r.scoped(ctx, recipientID, filter).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) Count(ctx context.Context, recipientID string, filter ReadFilter) (int64, error) {
	var count int64
	err := r.scoped(ctx, recipientID, filter).Count(&count).Error
	return count, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return r.Count(ctx, recipientID, FilterUnread)
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, recipientID, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if !notification.IsRead {
		if err := r.db.WithContext(ctx).
			Model(&models.Notification{}).
			Where("id = ?", notificationID).
			Update("is_read", true).Error; err != nil {
			return nil, err
		}
		notification.IsRead = true
	}
	return &notification, nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, recipientID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).Error
}

func (r *notificationRepository) Delete(ctx context.Context, recipientID, notificationID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) ClearAll(ctx context.Context, recipientID string) error {
	return r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Delete(&models.Notification{}).Error
}

// DeleteOlderThan removes notifications past the retention horizon,
// standing in for a store-level TTL
func (r *notificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}
