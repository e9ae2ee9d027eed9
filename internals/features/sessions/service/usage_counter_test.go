package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func sessionRows(sessionID, academyID, circleID uuid.UUID, status string, counted bool, subID *uuid.UUID) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"session_id", "session_academy_id", "session_circle_id",
		"session_status", "session_subscription_counted", "session_subscription_id",
	})
	var sub interface{}
	if subID != nil {
		sub = subID.String()
	}
	rows.AddRow(sessionID.String(), academyID.String(), circleID.String(), status, counted, sub)
	return rows
}

func subscriptionRows(subID uuid.UUID, code, subType, status string, used, remaining int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"subscription_id", "subscription_code", "subscription_type", "subscription_status",
		"subscription_sessions_used", "subscription_sessions_remaining",
	}).AddRow(subID.String(), code, subType, status, used, remaining)
}

// Satu session completed dikonsumsi tepat sekali: invocation pertama
// memotong kuota, invocation kedua berhenti di re-read flag di bawah lock
// tanpa menyentuh row subscription sama sekali.
func TestConsumeSessionCountsExactlyOnce(t *testing.T) {
	db, mock := newMockGorm(t)

	sessionID := uuid.New()
	academyID := uuid.New()
	circleID := uuid.New()
	subID := uuid.New()

	counter := NewUsageCounter(db, nil)

	// Invocation pertama: path lengkap. Circle tidak punya pointer aktif,
	// resolver fallback ke link di session.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "quran_sessions" WHERE session_id = \$1 .* FOR UPDATE`).
		WithArgs(sessionID, sqlmock.AnyArg()).
		WillReturnRows(sessionRows(sessionID, academyID, circleID, "completed", false, &subID))
	mock.ExpectQuery(`SELECT \* FROM "quran_circles" WHERE circle_id = \$1`).
		WithArgs(circleID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"circle_id"}))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE subscription_id = \$1 .* FOR UPDATE`).
		WithArgs(subID, sqlmock.AnyArg()).
		WillReturnRows(subscriptionRows(subID, "SUB-QUR-1", "quran", "active", 0, 10))
	mock.ExpectExec(`UPDATE "subscriptions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "quran_sessions" SET`).
		WithArgs(true, subID, sqlmock.AnyArg(), sessionID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	consumed, err := counter.ConsumeSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.True(t, consumed)

	// Invocation kedua: flag sudah true → short-circuit. Tidak boleh ada
	// query subscription maupun UPDATE (mock ordered, akses ekstra = fail).
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "quran_sessions" WHERE session_id = \$1 .* FOR UPDATE`).
		WithArgs(sessionID, sqlmock.AnyArg()).
		WillReturnRows(sessionRows(sessionID, academyID, circleID, "completed", true, &subID))
	mock.ExpectCommit()

	consumed, err = counter.ConsumeSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.False(t, consumed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// Kuota habis → seluruh transaksi rollback: kuota tidak berubah dan session
// tetap uncounted supaya bisa direkonsiliasi setelah renewal.
func TestConsumeSessionExhaustedQuotaRollsBack(t *testing.T) {
	db, mock := newMockGorm(t)

	sessionID := uuid.New()
	academyID := uuid.New()
	circleID := uuid.New()
	subID := uuid.New()

	counter := NewUsageCounter(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "quran_sessions" WHERE session_id = \$1 .* FOR UPDATE`).
		WithArgs(sessionID, sqlmock.AnyArg()).
		WillReturnRows(sessionRows(sessionID, academyID, circleID, "completed", false, &subID))
	mock.ExpectQuery(`SELECT \* FROM "quran_circles" WHERE circle_id = \$1`).
		WithArgs(circleID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"circle_id"}))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE subscription_id = \$1 .* FOR UPDATE`).
		WithArgs(subID, sqlmock.AnyArg()).
		WillReturnRows(subscriptionRows(subID, "SUB-QUR-1", "quran", "active", 10, 0))
	mock.ExpectRollback()

	consumed, err := counter.ConsumeSession(context.Background(), sessionID)
	assert.Error(t, err)
	assert.False(t, consumed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Session cancelled oleh teacher tidak eligible: transaksi selesai tanpa
// menyentuh subscription.
func TestConsumeSessionTeacherCancellationNotCounted(t *testing.T) {
	db, mock := newMockGorm(t)

	sessionID := uuid.New()
	academyID := uuid.New()
	circleID := uuid.New()

	counter := NewUsageCounter(db, nil)

	rows := sqlmock.NewRows([]string{
		"session_id", "session_academy_id", "session_circle_id",
		"session_status", "session_cancellation_type", "session_subscription_counted",
	}).AddRow(sessionID.String(), academyID.String(), circleID.String(), "cancelled", "teacher", false)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "quran_sessions" WHERE session_id = \$1 .* FOR UPDATE`).
		WithArgs(sessionID, sqlmock.AnyArg()).
		WillReturnRows(rows)
	mock.ExpectCommit()

	consumed, err := counter.ConsumeSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.False(t, consumed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Pengembalian kuota menarget subscription yang TERCATAT di session saat
// konsumsi. Pointer aktif circle yang sudah di-relink ke subscription lain
// tidak boleh dilirik (tidak ada query ke quran_circles sama sekali).
func TestReturnSessionUsesRecordedSubscription(t *testing.T) {
	db, mock := newMockGorm(t)

	sessionID := uuid.New()
	academyID := uuid.New()
	circleID := uuid.New()
	recordedSubID := uuid.New()

	counter := NewUsageCounter(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "quran_sessions" WHERE session_id = \$1 .* FOR UPDATE`).
		WithArgs(sessionID, sqlmock.AnyArg()).
		WillReturnRows(sessionRows(sessionID, academyID, circleID, "completed", true, &recordedSubID))
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE subscription_id = \$1 .* FOR UPDATE`).
		WithArgs(recordedSubID, sqlmock.AnyArg()).
		WillReturnRows(subscriptionRows(recordedSubID, "SUB-QUR-1", "quran", "active", 1, 9))
	mock.ExpectExec(`UPDATE "subscriptions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "quran_sessions" SET`).
		WithArgs(false, sqlmock.AnyArg(), sessionID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	returned, err := counter.ReturnSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.True(t, returned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Session yang belum pernah dihitung tidak punya apa-apa untuk dikembalikan.
func TestReturnSessionNoopWhenNotCounted(t *testing.T) {
	db, mock := newMockGorm(t)

	sessionID := uuid.New()
	academyID := uuid.New()
	circleID := uuid.New()

	counter := NewUsageCounter(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "quran_sessions" WHERE session_id = \$1 .* FOR UPDATE`).
		WithArgs(sessionID, sqlmock.AnyArg()).
		WillReturnRows(sessionRows(sessionID, academyID, circleID, "completed", false, nil))
	mock.ExpectCommit()

	returned, err := counter.ReturnSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.False(t, returned)
	assert.NoError(t, mock.ExpectationsWereMet())
}
