package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roomfinder/roomfinder_backend/models"
	"github.com/roomfinder/roomfinder_backend/repositories"
	"github.com/roomfinder/roomfinder_backend/services"
)

// NotificationController handles notification-related API endpoints
type NotificationController struct {
	notifications *services.NotificationService
	users         *repositories.UserRepository
}

// NewNotificationController creates a new notification controller
func NewNotificationController(notifications *services.NotificationService, users *repositories.UserRepository) *NotificationController {
	return &NotificationController{notifications: notifications, users: users}
}

// GetNotifications retrieves the notifications addressed to the caller,
// newest first. Pass ?unread=true to fetch only unread ones.
func (c *NotificationController) GetNotifications(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	unreadOnly := ctx.QueryParam("unread") == "true"
	notifications, err := c.notifications.List(ctx.Request().Context(), actor, unreadOnly)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.NotificationsResponse{
		Status:  http.StatusOK,
		Message: "Notifications retrieved successfully",
		Data:    notifications,
	})
}

// GetNotification retrieves a single notification by ID
func (c *NotificationController) GetNotification(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	notification, err := c.notifications.Get(ctx.Request().Context(), id, actor)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.NotificationResponse{
		Status:  http.StatusOK,
		Message: "Notification retrieved successfully",
		Data:    notification,
	})
}

// MarkNotificationRead marks a notification as read. Marking an already
// read notification succeeds without change.
func (c *NotificationController) MarkNotificationRead(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	notification, err := c.notifications.MarkRead(ctx.Request().Context(), id, actor)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.NotificationResponse{
		Status:  http.StatusOK,
		Message: "Notification marked as read",
		Data:    notification,
	})
}

// DeleteNotification deletes a single notification
func (c *NotificationController) DeleteNotification(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
	}

	if err := c.notifications.Delete(ctx.Request().Context(), id, actor); err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification deleted successfully",
	})
}

// ClearNotifications deletes every notification addressed to the caller
func (c *NotificationController) ClearNotifications(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	deleted, err := c.notifications.ClearAll(ctx.Request().Context(), actor)
	if err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notifications cleared successfully",
		Data:    map[string]int64{"deleted": deleted},
	})
}

// UpdateFCMToken stores the caller's device token for push notifications
func (c *NotificationController) UpdateFCMToken(ctx echo.Context) error {
	actor, ok := identityFromToken(ctx)
	if !ok {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var request models.FCMTokenUpdateRequest
	if err := ctx.Bind(&request); err != nil || request.FCMToken == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "FCM token is required",
		})
	}

	if err := c.users.UpdateFCMToken(ctx.Request().Context(), actor.ID, request.FCMToken); err != nil {
		return respondServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "FCM token updated successfully",
	})
}
