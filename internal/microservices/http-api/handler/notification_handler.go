package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"journeyhub/internal/microservices/http-api/middleware"
	"journeyhub/internal/microservices/http-api/models"
	"journeyhub/internal/microservices/http-api/repository"
	"journeyhub/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const requestTimeout = 5 * time.Second

type NotificationHandler struct {
	svc    service.NotificationService
	logger *slog.Logger

	// limiter guards the diagnostic trigger endpoint only
	testLimiter *rate.Limiter
}

func NewNotificationHandler(svc service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		svc:         svc,
		logger:      logger,
		testLimiter: rate.NewLimiter(rate.Limit(1), 5),
	}
}

// RegisterRoutes wires the reconciliation endpoints onto an authenticated group
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.PUT("/:id/read", h.MarkAsRead)
	rg.PUT("/read-all", h.MarkAllAsRead)
	rg.DELETE("/clear-all", h.ClearAll)
	rg.DELETE("/:id", h.Delete)
}

// RegisterTestRoute wires the diagnostic trigger endpoint (latency testing).
// It goes through the same publish path as real events.
func (h *NotificationHandler) RegisterTestRoute(rg *gin.RouterGroup) {
	rg.POST("/test", h.SendTest)
}

// List returns a page of the caller's notifications with unread/total counts
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter := repository.ReadFilter(c.DefaultQuery("filter", "all"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	result, err := h.svc.List(ctx, userID, filter, page, limit)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		h.logger.Error("List notifications failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications":      result.Notifications,
		"unreadCount":        result.UnreadCount,
		"totalNotifications": result.TotalNotifications,
		"currentPage":        result.CurrentPage,
		"totalPages":         result.TotalPages,
		"hasMore":            result.HasMore,
	})
}

// UnreadCount returns the badge count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	count, err := h.svc.UnreadCount(ctx, userID)
	if err != nil {
		h.logger.Error("Unread count failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get unread count"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	notification, err := h.svc.MarkAsRead(ctx, userID, c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	if err != nil {
		h.logger.Error("Mark as read failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "notification marked as read",
		"notification": notification,
	})
}

// MarkAllAsRead bulk-marks all the caller's unread notifications
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.MarkAllAsRead(ctx, userID); err != nil {
		h.logger.Error("Mark all as read failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

// Delete removes one of the caller's notifications
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	err := h.svc.Delete(ctx, userID, c.Param("id"))
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	if err != nil {
		h.logger.Error("Delete notification failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification deleted successfully"})
}

// ClearAll removes all the caller's notifications
func (h *NotificationHandler) ClearAll(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.ClearAll(ctx, userID); err != nil {
		h.logger.Error("Clear all notifications failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "all notifications cleared"})
}

type sendTestRequest struct {
	RecipientID string `json:"recipient_id"`
	SenderID    string `json:"sender_id"`
}

// SendTest synthesizes a notification for latency measurement. Rate limited;
// otherwise identical to the production publish path.
func (h *NotificationHandler) SendTest(c *gin.Context) {
	if !h.testLimiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many test notifications"})
		return
	}

	var req sendTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.RecipientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient_id is required"})
		return
	}

	// Fall back to a self-notification when no sender is given
	senderID := req.SenderID
	if senderID == "" {
		senderID = req.RecipientID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	notification, err := h.svc.Publish(ctx, service.NotificationInput{
		RecipientID: req.RecipientID,
		SenderID:    senderID,
		Type:        models.TypeNewFollower,
		Target:      models.UserTarget(senderID),
		Message:     "Real Interaction Test",
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		h.logger.Error("Test notification failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send test notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "notification sent",
		"notification": notification,
	})
}
