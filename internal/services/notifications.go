package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/corkboard-dev/corkboard/internal/apperrors"
	"github.com/corkboard-dev/corkboard/internal/models"
	"github.com/corkboard-dev/corkboard/internal/types"
)

// NotificationsService lists and acknowledges a user's stored notifications.
type NotificationsService struct {
	db *gorm.DB
}

func NewNotificationsService(db *gorm.DB) *NotificationsService {
	return &NotificationsService{db: db}
}

func notificationResponse(n models.Notification) types.NotificationResponse {
	var payload any
	if len(n.Payload) > 0 {
		if err := json.Unmarshal(n.Payload, &payload); err != nil {
			payload = nil
		}
	}

	return types.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Payload:   payload,
		Read:      n.ReadAt != nil,
		CreatedAt: n.CreatedAt,
	}
}

// List returns the user's notifications, newest first.
func (s *NotificationsService) List(userID uint) ([]types.NotificationResponse, error) {
	var notifications []models.Notification

	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	out := make([]types.NotificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = notificationResponse(n)
	}

	return out, nil
}

// MarkRead stamps the notification as read. Idempotent: marking an already
// read notification keeps its original read time.
func (s *NotificationsService) MarkRead(id uint, userID uint) (*types.NotificationResponse, error) {
	var notification models.Notification

	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Notification not found")
	}
	if err != nil {
		return nil, err
	}

	if notification.ReadAt == nil {
		now := time.Now()
		if err := s.db.Model(&notification).Update("read_at", &now).Error; err != nil {
			return nil, err
		}
		notification.ReadAt = &now
	}

	resp := notificationResponse(notification)
	return &resp, nil
}
