package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	circleModel "tilawa_backend/internals/features/circles/model"
	subModel "tilawa_backend/internals/features/subscriptions/model"
	helper "tilawa_backend/internals/helpers"
	authHelper "tilawa_backend/internals/helpers/auth"
)

type CircleController struct {
	DB       *gorm.DB
	Validate *validator.Validate
}

func NewCircleController(db *gorm.DB) *CircleController {
	return &CircleController{DB: db, Validate: validator.New()}
}

type CreateCircleRequest struct {
	CircleTeacherID uuid.UUID  `json:"circle_teacher_id" validate:"required"`
	CircleStudentID *uuid.UUID `json:"circle_student_id,omitempty"`
	CircleName      string     `json:"circle_name" validate:"required,max=200"`
	CircleType      string     `json:"circle_type" validate:"required,oneof=individual group"`
}

type SetActiveSubscriptionRequest struct {
	SubscriptionID uuid.UUID `json:"subscription_id" validate:"required"`
}

// 🟢 POST /api/circles
func (ctrl *CircleController) CreateCircle(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	var req CreateCircleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	if req.CircleType == circleModel.CircleTypeIndividual && req.CircleStudentID == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "circle_student_id is required for individual circles")
	}

	circle := circleModel.QuranCircleModel{
		CircleAcademyID: academyID,
		CircleTeacherID: req.CircleTeacherID,
		CircleStudentID: req.CircleStudentID,
		CircleName:      req.CircleName,
		CircleType:      req.CircleType,
		CircleIsActive:  true,
	}
	if err := ctrl.DB.WithContext(c.UserContext()).Create(&circle).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to create circle")
	}

	return helper.JsonCreated(c, "Circle created", circle)
}

// 🟢 GET /api/circles
func (ctrl *CircleController) ListCircles(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	page, limit, offset := helper.ParsePagination(c)

	q := ctrl.DB.WithContext(c.UserContext()).
		Model(&circleModel.QuranCircleModel{}).
		Where("circle_academy_id = ?", academyID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to count circles")
	}

	var circles []circleModel.QuranCircleModel
	if err := q.Order("circle_created_at DESC").
		Limit(limit).Offset(offset).
		Find(&circles).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list circles")
	}

	return helper.JsonList(c, "OK", circles, helper.BuildPagination(page, limit, total))
}

// 🟢 PUT /api/circles/:id/active-subscription — pasang pointer subscription
// yang membayar circle ini (dipakai usage counter saat resolve).
func (ctrl *CircleController) SetActiveSubscription(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	circleID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid circle ID")
	}

	var req SetActiveSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	// Subscription harus milik academy yang sama dan bisa dipakai.
	var sub subModel.SubscriptionModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("subscription_id = ? AND subscription_academy_id = ?", req.SubscriptionID, academyID).
		First(&sub).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "Subscription not found")
	}
	if !sub.SubscriptionStatus.CanAccess() {
		return helper.JsonError(c, fiber.StatusConflict, "Subscription is not usable")
	}

	res := ctrl.DB.WithContext(c.UserContext()).
		Model(&circleModel.QuranCircleModel{}).
		Where("circle_id = ? AND circle_academy_id = ?", circleID, academyID).
		Update("circle_active_subscription_id", req.SubscriptionID)
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to link subscription")
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, "Circle not found")
	}

	return helper.JsonOK(c, "Active subscription linked", fiber.Map{
		"circle_id":       circleID,
		"subscription_id": req.SubscriptionID,
	})
}
