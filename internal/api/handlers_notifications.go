package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/tandem/internal/realtime"
	"github.com/terraincognita07/tandem/internal/services"
	"go.uber.org/zap"
)

func (handler *Handler) ListNotifications(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	includeRead := true
	if raw := strings.TrimSpace(c.Query("show_read")); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			includeRead = parsed
		}
	}

	ctx := c.UserContext()
	page, err := handler.notificationService.List(ctx, user.ID, services.NotificationFilter{
		Type:        c.Query("type"),
		IncludeRead: includeRead,
		Page:        queryInt(c, "page"),
		PerPage:     queryInt(c, "per_page"),
	})
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	unread, err := handler.notificationService.UnreadCount(ctx, user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}

	items := make([]map[string]any, 0, len(page.Items))
	for _, notification := range page.Items {
		items = append(items, realtime.NotificationPayload(notification))
	}
	return c.JSON(fiber.Map{
		"notifications": items,
		"total":         page.Total,
		"page":          page.Page,
		"per_page":      page.PerPage,
		"pages":         page.Pages(),
		"unread_count":  unread,
	})
}

func (handler *Handler) UnreadCount(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	count, err := handler.notificationService.UnreadCount(c.UserContext(), user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (handler *Handler) NotificationTypes(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	types, err := handler.notificationService.Types(c.UserContext(), user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	if types == nil {
		types = []string{}
	}
	return c.JSON(fiber.Map{"types": types})
}

func (handler *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	notificationID, ok := parseIDParam(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid notification id")
	}
	user, _ := currentUser(c)
	if err := handler.notificationService.MarkRead(c.UserContext(), notificationID, user.ID); err != nil {
		return handler.serviceAPIError(c, err)
	}
	handler.resyncUnreadCount(c, user.ID)
	return c.JSON(fiber.Map{"id": notificationID, "success": true})
}

func (handler *Handler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	updated, err := handler.notificationService.MarkAllRead(c.UserContext(), user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	handler.resyncUnreadCount(c, user.ID)
	return c.JSON(fiber.Map{"updated": updated})
}

func (handler *Handler) ClearReadNotifications(c *fiber.Ctx) error {
	user, _ := currentUser(c)
	deleted, err := handler.notificationService.ClearRead(c.UserContext(), user.ID)
	if err != nil {
		return handler.serviceAPIError(c, err)
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

func (handler *Handler) DeleteNotification(c *fiber.Ctx) error {
	notificationID, ok := parseIDParam(c)
	if !ok {
		return apiError(c, fiber.StatusBadRequest, "invalid notification id")
	}
	user, _ := currentUser(c)
	if err := handler.notificationService.Delete(c.UserContext(), notificationID, user.ID); err != nil {
		return handler.serviceAPIError(c, err)
	}
	handler.resyncUnreadCount(c, user.ID)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) resyncUnreadCount(c *fiber.Ctx, userID uint) {
	count, err := handler.notificationService.UnreadCount(c.UserContext(), userID)
	if err != nil {
		handler.logger.Warn("unread count resync failed", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	handler.hub.PublishUnreadCount(userID, count)
}
