package service

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	subModel "tilawa_backend/internals/features/subscriptions/model"
)

func TestGenerateSubscriptionCode(t *testing.T) {
	code := GenerateSubscriptionCode(subModel.SubscriptionTypeQuran)

	assert.True(t, strings.HasPrefix(code, "SUB-QUR-"), "got %s", code)
	assert.Len(t, strings.Split(code, "-"), 4)

	// Dua kali generate tidak boleh sama.
	assert.NotEqual(t, code, GenerateSubscriptionCode(subModel.SubscriptionTypeQuran))
}

func TestOfferingKeyFor(t *testing.T) {
	academyID := uuid.New()
	studentID := uuid.New()
	circleID := uuid.New()

	sub := &subModel.SubscriptionModel{
		SubscriptionAcademyID: academyID,
		SubscriptionStudentID: studentID,
		SubscriptionCircleID:  &circleID,
	}

	key := OfferingKeyFor(sub)
	assert.Equal(t, academyID, key.AcademyID)
	assert.Equal(t, studentID, key.StudentID)
	assert.Equal(t, &circleID, key.CircleID)
	assert.Nil(t, key.CourseID)
}

func TestSnapshotPricingUsesStoredPrice(t *testing.T) {
	sub := &subModel.SubscriptionModel{SubscriptionPrice: 350.50}
	assert.Equal(t, 350.50, SnapshotPricing{}.CalculateRenewalPrice(sub))
}

func TestExpiryWindowFromEnv(t *testing.T) {
	t.Setenv("SUBSCRIPTION_PENDING_EXPIRY_HOURS", "")
	assert.Equal(t, DefaultPendingExpiryWindow, ExpiryWindowFromEnv())

	t.Setenv("SUBSCRIPTION_PENDING_EXPIRY_HOURS", "24")
	assert.Equal(t, DefaultPendingExpiryWindow/2, ExpiryWindowFromEnv())

	t.Setenv("SUBSCRIPTION_PENDING_EXPIRY_HOURS", "banyak")
	assert.Equal(t, DefaultPendingExpiryWindow, ExpiryWindowFromEnv())
}
