package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	notifModel "tilawa_backend/internals/features/notifications/model"
	helper "tilawa_backend/internals/helpers"
	authHelper "tilawa_backend/internals/helpers/auth"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// 🟢 GET /api/notifications?unread=true — inbox user yang login.
func (ctrl *NotificationController) ListMyNotifications(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	userID, err := authHelper.GetUserID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	page, limit, offset := helper.ParsePagination(c)

	q := ctrl.DB.WithContext(c.UserContext()).
		Model(&notifModel.NotificationModel{}).
		Where("notification_academy_id = ? AND notification_user_id = ?", academyID, userID)

	if c.QueryBool("unread", false) {
		q = q.Where("notification_read_at IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to count notifications")
	}

	var rows []notifModel.NotificationModel
	if err := q.Order("notification_created_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list notifications")
	}

	return helper.JsonList(c, "OK", rows, helper.BuildPagination(page, limit, total))
}

// 🟢 POST /api/notifications/:id/read
func (ctrl *NotificationController) MarkRead(c *fiber.Ctx) error {
	userID, err := authHelper.GetUserID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid notification ID")
	}

	res := ctrl.DB.WithContext(c.UserContext()).
		Model(&notifModel.NotificationModel{}).
		Where("notification_id = ? AND notification_user_id = ? AND notification_read_at IS NULL", notifID, userID).
		Update("notification_read_at", time.Now())
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to mark notification read")
	}

	return helper.JsonOK(c, "Notification marked read", fiber.Map{
		"notification_id": notifID,
		"updated":         res.RowsAffected > 0,
	})
}
