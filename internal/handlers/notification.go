package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corkboard-dev/corkboard/internal/services"
	"github.com/corkboard-dev/corkboard/internal/utils"
)

type NotificationHandler struct {
	notifications *services.NotificationsService
}

func NewNotificationHandler(notifications *services.NotificationsService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notifications, err := h.notifications.List(userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	notificationID, ok := parseID(ctx, "notification_id")
	if !ok {
		return
	}

	notification, err := h.notifications.MarkRead(notificationID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, notification)
}
