package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subModel "tilawa_backend/internals/features/subscriptions/model"
)

func pendingDupRows(subID uuid.UUID, code string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"subscription_id", "subscription_code", "subscription_status", "subscription_payment_status",
	}).AddRow(subID.String(), code, "pending", "pending")
}

// Query duplicate-pending harus di-key per (academy, student, circle) plus
// filter pending + belum dibayar, urut created_at (yang paling tua duluan).
func TestFindDuplicatePendingMatchesOfferingKey(t *testing.T) {
	db, mock := newMockGorm(t)

	academyID := uuid.New()
	studentID := uuid.New()
	circleID := uuid.New()
	dupID := uuid.New()

	guard := NewDuplicateGuard(db, 0)
	key := OfferingKey{AcademyID: academyID, StudentID: studentID, CircleID: &circleID}

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE subscription_academy_id = \$1 AND subscription_student_id = \$2 AND subscription_circle_id = \$3 AND subscription_status = \$4 AND subscription_payment_status = \$5 .* ORDER BY subscription_created_at ASC`).
		WithArgs(academyID, studentID, circleID, subModel.SubscriptionStatusPending, subModel.PaymentStatusPending, sqlmock.AnyArg()).
		WillReturnRows(pendingDupRows(dupID, "SUB-QUR-OLD"))

	dup, err := guard.FindDuplicatePending(context.Background(), key, uuid.Nil)
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, "SUB-QUR-OLD", dup.SubscriptionCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// excludeID mengeluarkan row milik sendiri dari pencarian (dipakai sweep
// saat membandingkan kandidat dengan dirinya).
func TestFindDuplicatePendingExcludesSelf(t *testing.T) {
	db, mock := newMockGorm(t)

	academyID := uuid.New()
	studentID := uuid.New()
	circleID := uuid.New()
	selfID := uuid.New()

	guard := NewDuplicateGuard(db, 0)
	key := OfferingKey{AcademyID: academyID, StudentID: studentID, CircleID: &circleID}

	mock.ExpectQuery(`subscription_circle_id = \$3 AND subscription_id <> \$4 AND subscription_status = \$5`).
		WithArgs(academyID, studentID, circleID, selfID, subModel.SubscriptionStatusPending, subModel.PaymentStatusPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"subscription_id"}))

	dup, err := guard.FindDuplicatePending(context.Background(), key, selfID)
	require.NoError(t, err)
	assert.Nil(t, dup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Duplicate-active: key sama, hanya status active (payment_status tidak
// relevan karena active berarti sudah dibayar).
func TestFindDuplicateActiveMatchesOfferingKey(t *testing.T) {
	db, mock := newMockGorm(t)

	academyID := uuid.New()
	studentID := uuid.New()
	courseID := uuid.New()
	dupID := uuid.New()

	guard := NewDuplicateGuard(db, 0)
	key := OfferingKey{AcademyID: academyID, StudentID: studentID, CourseID: &courseID}

	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE subscription_academy_id = \$1 AND subscription_student_id = \$2 AND subscription_course_id = \$3 AND subscription_status = \$4`).
		WithArgs(academyID, studentID, courseID, subModel.SubscriptionStatusActive, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"subscription_id", "subscription_code", "subscription_status",
		}).AddRow(dupID.String(), "SUB-CRS-1", "active"))

	dup, err := guard.FindDuplicateActive(context.Background(), key, uuid.Nil)
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, "SUB-CRS-1", dup.SubscriptionCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDuplicateActiveNilWhenNoMatch(t *testing.T) {
	db, mock := newMockGorm(t)

	guard := NewDuplicateGuard(db, 0)
	key := OfferingKey{AcademyID: uuid.New(), StudentID: uuid.New()}

	mock.ExpectQuery(`SELECT \* FROM "subscriptions"`).
		WillReturnRows(sqlmock.NewRows([]string{"subscription_id"}))

	dup, err := guard.FindDuplicateActive(context.Background(), key, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, dup)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Sweep hanya mengambil pending yang melewati window DAN tidak punya grace
// marker dari admin (filter JSONB langsung di SQL).
func TestFindExpiredPendingFiltersGraceMarker(t *testing.T) {
	db, mock := newMockGorm(t)

	guard := NewDuplicateGuard(db, 24*time.Hour)

	staleID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE subscription_status = \$1 AND subscription_created_at < \$2 AND \(+subscription_metadata IS NULL OR subscription_metadata->>\$3 IS NULL\)+`).
		WithArgs(subModel.SubscriptionStatusPending, sqlmock.AnyArg(), subModel.MetaGracePeriodEndsAt, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"subscription_id", "subscription_code", "subscription_status",
		}).AddRow(staleID.String(), "SUB-QUR-STALE", "pending"))

	rows, err := guard.FindExpiredPending(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SUB-QUR-STALE", rows[0].SubscriptionCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
