package controller

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	academyModel "tilawa_backend/internals/features/academies/model"
	paymentModel "tilawa_backend/internals/features/payments/model"
	paymentService "tilawa_backend/internals/features/payments/service"
	subDTO "tilawa_backend/internals/features/subscriptions/dto"
	subModel "tilawa_backend/internals/features/subscriptions/model"
	subService "tilawa_backend/internals/features/subscriptions/service"
	userModel "tilawa_backend/internals/features/users/model"
	helper "tilawa_backend/internals/helpers"
	authHelper "tilawa_backend/internals/helpers/auth"
)

type SubscriptionController struct {
	DB       *gorm.DB
	Service  *subService.SubscriptionService
	Renewal  *subService.RenewalService
	Validate *validator.Validate
}

func NewSubscriptionController(db *gorm.DB, service *subService.SubscriptionService, renewal *subService.RenewalService) *SubscriptionController {
	return &SubscriptionController{
		DB:       db,
		Service:  service,
		Renewal:  renewal,
		Validate: validator.New(),
	}
}

// 🟢 POST /api/subscriptions — checkout: buat pending + Snap token.
func (ctrl *SubscriptionController) Checkout(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	studentID, err := authHelper.GetUserID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	var req subDTO.CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}
	// Offering key harus terisi sesuai type.
	if req.SubscriptionType == subModel.SubscriptionTypeCourse {
		if req.SubscriptionCourseID == nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "subscription_course_id is required for course subscriptions")
		}
	} else if req.SubscriptionCircleID == nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "subscription_circle_id is required for session-based subscriptions")
	}

	// Academy harus aktif; currency default ikut setting academy.
	var academy academyModel.AcademyModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("academy_id = ?", academyID).
		First(&academy).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "Academy not found")
	}
	if !academy.AcademyIsActive {
		return helper.JsonError(c, fiber.StatusForbidden, "Academy is not active")
	}

	currency := strings.ToUpper(req.SubscriptionCurrency)
	if currency == "" {
		currency = academy.AcademyCurrency
	}
	autoRenew := req.SubscriptionAutoRenew
	if !req.SubscriptionBillingCycle.SupportsAutoRenewal() {
		autoRenew = false
	}

	sub := subModel.SubscriptionModel{
		SubscriptionAcademyID:        academyID,
		SubscriptionStudentID:        studentID,
		SubscriptionType:             req.SubscriptionType,
		SubscriptionCircleID:         req.SubscriptionCircleID,
		SubscriptionCourseID:         req.SubscriptionCourseID,
		SubscriptionBillingCycle:     req.SubscriptionBillingCycle,
		SubscriptionAutoRenew:        autoRenew,
		SubscriptionPrice:            req.SubscriptionPrice,
		SubscriptionCurrency:         currency,
		SubscriptionSessionsPerCycle: req.SubscriptionSessionsPerCycle,
	}

	if err := ctrl.Service.Create(c.UserContext(), &sub); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}

	// Payment row checkout + Snap token. Gagal generate token tidak
	// membatalkan subscription — student bisa retry, pending expiry sweep
	// yang membersihkan kalau ditinggalkan.
	orderID := fmt.Sprintf("CHK-%s-%d", strings.ToUpper(sub.SubscriptionCode), time.Now().Unix())
	payment := paymentModel.PaymentModel{
		PaymentAcademyID:      academyID,
		PaymentStudentID:      studentID,
		PaymentSubscriptionID: sub.SubscriptionID,
		PaymentOrderID:        orderID,
		PaymentPurpose:        paymentModel.PaymentPurposeCheckout,
		PaymentAmount:         sub.SubscriptionPrice,
		PaymentCurrency:       currency,
		PaymentStatus:         paymentModel.PaymentStatusPending,
	}
	if err := ctrl.DB.WithContext(c.UserContext()).Create(&payment).Error; err != nil {
		log.Printf("[SUBSCRIPTION] failed to record checkout payment: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to start checkout payment")
	}

	var student userModel.UserModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("user_id = ?", studentID).
		First(&student).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to load student profile")
	}

	snapToken, redirectURL, err := paymentService.GenerateSnapToken(orderID, sub.SubscriptionPrice, student.UserName, student.UserEmail)
	if err != nil {
		log.Printf("[SUBSCRIPTION] snap token generation failed: order_id=%s err=%v", orderID, err)
	}

	return helper.JsonCreated(c, "Subscription checkout started", subDTO.CheckoutResponse{
		Subscription: subDTO.FromModel(&sub),
		OrderID:      orderID,
		SnapToken:    snapToken,
		RedirectURL:  redirectURL,
	})
}

// 🟢 GET /api/subscriptions/:id
func (ctrl *SubscriptionController) GetSubscription(c *fiber.Ctx) error {
	academyID, subscriptionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var sub subModel.SubscriptionModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("subscription_id = ? AND subscription_academy_id = ?", subscriptionID, academyID).
		First(&sub).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "Subscription not found")
	}

	return helper.JsonOK(c, "OK", subDTO.FromModel(&sub))
}

// 🟢 GET /api/subscriptions?status=&student_id=&page=&limit=
func (ctrl *SubscriptionController) ListSubscriptions(c *fiber.Ctx) error {
	academyID, err := authHelper.GetAcademyID(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}
	page, limit, offset := helper.ParsePagination(c)

	q := ctrl.DB.WithContext(c.UserContext()).
		Model(&subModel.SubscriptionModel{}).
		Where("subscription_academy_id = ?", academyID)

	if status := c.Query("status"); status != "" {
		q = q.Where("subscription_status = ?", status)
	}
	if studentID := c.Query("student_id"); studentID != "" {
		id, err := uuid.Parse(studentID)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "Invalid student_id")
		}
		q = q.Where("subscription_student_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to count subscriptions")
	}

	var subs []subModel.SubscriptionModel
	if err := q.Order("subscription_created_at DESC").
		Limit(limit).Offset(offset).
		Find(&subs).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "Failed to list subscriptions")
	}

	return helper.JsonList(c, "OK", subDTO.FromModels(subs), helper.BuildPagination(page, limit, total))
}

// 🟢 POST /api/subscriptions/:id/cancel
func (ctrl *SubscriptionController) CancelSubscription(c *fiber.Ctx) error {
	academyID, subscriptionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req subDTO.CancelSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := ctrl.ensureOwned(c, academyID, subscriptionID); err != nil {
		return err
	}
	if err := ctrl.Service.Cancel(c.UserContext(), subscriptionID, req.Reason); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSubscription(c, academyID, subscriptionID, "Subscription cancelled")
}

// 🟢 POST /api/subscriptions/:id/pause
func (ctrl *SubscriptionController) PauseSubscription(c *fiber.Ctx) error {
	academyID, subscriptionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req subDTO.PauseSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := ctrl.ensureOwned(c, academyID, subscriptionID); err != nil {
		return err
	}
	if err := ctrl.Service.Pause(c.UserContext(), subscriptionID, req.Reason); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSubscription(c, academyID, subscriptionID, "Subscription paused")
}

// 🟢 POST /api/subscriptions/:id/resume
func (ctrl *SubscriptionController) ResumeSubscription(c *fiber.Ctx) error {
	academyID, subscriptionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	if err := ctrl.ensureOwned(c, academyID, subscriptionID); err != nil {
		return err
	}
	if err := ctrl.Service.Resume(c.UserContext(), subscriptionID); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSubscription(c, academyID, subscriptionID, "Subscription resumed")
}

// 🟢 POST /api/subscriptions/:id/auto-renew
func (ctrl *SubscriptionController) ToggleAutoRenew(c *fiber.Ctx) error {
	academyID, subscriptionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req subDTO.ToggleAutoRenewRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := ctrl.ensureOwned(c, academyID, subscriptionID); err != nil {
		return err
	}
	if err := ctrl.Service.ToggleAutoRenew(c.UserContext(), subscriptionID, req.Enabled); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSubscription(c, academyID, subscriptionID, "Auto-renew updated")
}

// 🟢 POST /api/subscriptions/:id/billing-cycle
func (ctrl *SubscriptionController) ChangeBillingCycle(c *fiber.Ctx) error {
	academyID, subscriptionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req subDTO.ChangeBillingCycleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctrl.ensureOwned(c, academyID, subscriptionID); err != nil {
		return err
	}
	if err := ctrl.Service.ChangeBillingCycle(c.UserContext(), subscriptionID, req.BillingCycle); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSubscription(c, academyID, subscriptionID, "Billing cycle updated")
}

// 🟢 POST /api/subscriptions/:id/renew-now — admin memicu renewal sekarang.
func (ctrl *SubscriptionController) AttemptRenewalNow(c *fiber.Ctx) error {
	academyID, subscriptionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	if err := ctrl.ensureOwned(c, academyID, subscriptionID); err != nil {
		return err
	}

	renewed, err := ctrl.Renewal.AttemptAutoRenewal(c.UserContext(), subscriptionID)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.JsonOK(c, "Renewal attempted", fiber.Map{
		"subscription_id": subscriptionID,
		"renewed":         renewed,
	})
}

// 🟢 POST /api/subscriptions/:id/manual-renew — admin extend setelah
// pembayaran manual terverifikasi (transfer bank dsb.).
func (ctrl *SubscriptionController) ManualRenewal(c *fiber.Ctx) error {
	academyID, subscriptionID, err := ctrl.scopedIDs(c)
	if err != nil {
		return err
	}

	var req subDTO.ManualRenewalRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := ctrl.ensureOwned(c, academyID, subscriptionID); err != nil {
		return err
	}
	if err := ctrl.Renewal.ManualRenewal(c.UserContext(), subscriptionID, req.Amount, req.BillingCycle); err != nil {
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	}
	return ctrl.respondWithSubscription(c, academyID, subscriptionID, "Subscription renewed")
}

func (ctrl *SubscriptionController) scopedIDs(c *fiber.Ctx) (academyID, subscriptionID uuid.UUID, err error) {
	academyID, err = authHelper.GetAcademyID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	subscriptionID, err = uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid subscription ID")
	}
	return academyID, subscriptionID, nil
}

// ensureOwned memastikan subscription milik academy pemanggil sebelum mutasi.
func (ctrl *SubscriptionController) ensureOwned(c *fiber.Ctx, academyID, subscriptionID uuid.UUID) error {
	var count int64
	if err := ctrl.DB.WithContext(c.UserContext()).
		Model(&subModel.SubscriptionModel{}).
		Where("subscription_id = ? AND subscription_academy_id = ?", subscriptionID, academyID).
		Count(&count).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to verify subscription ownership")
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Subscription not found")
	}
	return nil
}

func (ctrl *SubscriptionController) respondWithSubscription(c *fiber.Ctx, academyID, subscriptionID uuid.UUID, message string) error {
	var sub subModel.SubscriptionModel
	if err := ctrl.DB.WithContext(c.UserContext()).
		Where("subscription_id = ? AND subscription_academy_id = ?", subscriptionID, academyID).
		First(&sub).Error; err != nil {
		return helper.JsonError(c, fiber.StatusNotFound, "Subscription not found")
	}
	return helper.JsonOK(c, message, subDTO.FromModel(&sub))
}
