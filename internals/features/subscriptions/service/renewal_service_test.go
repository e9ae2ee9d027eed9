package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	subModel "tilawa_backend/internals/features/subscriptions/model"
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

type stubCollector struct {
	calls  int
	result PaymentResult
	err    error
}

func (s *stubCollector) ProcessRenewal(_ context.Context, _ *subModel.SubscriptionModel, _ float64) (PaymentResult, error) {
	s.calls++
	return s.result, s.err
}

type stubNotifier struct {
	renewalSuccess int
	paymentFailed  int
	reminders      int
	lastData       map[string]interface{}
}

func (s *stubNotifier) SendRenewalSuccess(_, _ uuid.UUID, data map[string]interface{}) {
	s.renewalSuccess++
	s.lastData = data
}

func (s *stubNotifier) SendPaymentFailed(_, _ uuid.UUID, data map[string]interface{}) {
	s.paymentFailed++
	s.lastData = data
}

func (s *stubNotifier) SendRenewalReminder(_, _ uuid.UUID, data map[string]interface{}) {
	s.reminders++
	s.lastData = data
}

func renewableSubRows(subID uuid.UUID, autoRenew bool, endsAt *time.Time) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"subscription_id", "subscription_academy_id", "subscription_student_id",
		"subscription_code", "subscription_type", "subscription_status",
		"subscription_billing_cycle", "subscription_auto_renew",
		"subscription_price", "subscription_currency",
		"subscription_sessions_per_cycle", "subscription_sessions_remaining",
		"subscription_ends_at",
	})
	var ends interface{}
	if endsAt != nil {
		ends = *endsAt
	}
	rows.AddRow(
		subID.String(), uuid.New().String(), uuid.New().String(),
		"SUB-QUR-100", "quran", "active",
		"monthly", autoRenew,
		200.0, "SAR",
		8, 2,
		ends,
	)
	return rows
}

func expectLockedSubSelect(mock sqlmock.Sqlmock, subID uuid.UUID, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE subscription_id = \$1 .* FOR UPDATE`).
		WithArgs(subID, sqlmock.AnyArg()).
		WillReturnRows(rows)
}

// Pembayaran ditolak gateway → cancel permanen lewat tx persist sendiri,
// lalu notifikasi gagal-bayar dikirim setelah commit. Tidak ada retry.
func TestAttemptAutoRenewalDeclinedCancelsPermanently(t *testing.T) {
	db, mock := newMockGorm(t)
	subID := uuid.New()

	collector := &stubCollector{result: PaymentResult{Success: false, Error: "card declined"}}
	notifier := &stubNotifier{}
	rs := NewRenewalService(db, collector, notifier, nil)

	// Fase 1: lock + validasi.
	mock.ExpectBegin()
	expectLockedSubSelect(mock, subID, renewableSubRows(subID, true, nil))
	mock.ExpectCommit()

	// Fase 3: persist kegagalan (re-lock + save).
	mock.ExpectBegin()
	expectLockedSubSelect(mock, subID, renewableSubRows(subID, true, nil))
	mock.ExpectExec(`UPDATE "subscriptions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	renewed, err := rs.AttemptAutoRenewal(context.Background(), subID)
	require.NoError(t, err)
	assert.False(t, renewed)

	assert.Equal(t, 1, collector.calls)
	assert.Equal(t, 1, notifier.paymentFailed)
	assert.Zero(t, notifier.renewalSuccess)
	assert.Equal(t, "card declined", notifier.lastData["reason"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Exception gateway (bukan sekadar declined) diperlakukan sama: cancel.
func TestAttemptAutoRenewalGatewayErrorAlsoCancels(t *testing.T) {
	db, mock := newMockGorm(t)
	subID := uuid.New()

	collector := &stubCollector{err: errors.New("gateway timeout")}
	notifier := &stubNotifier{}
	rs := NewRenewalService(db, collector, notifier, nil)

	mock.ExpectBegin()
	expectLockedSubSelect(mock, subID, renewableSubRows(subID, true, nil))
	mock.ExpectCommit()

	mock.ExpectBegin()
	expectLockedSubSelect(mock, subID, renewableSubRows(subID, true, nil))
	mock.ExpectExec(`UPDATE "subscriptions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	renewed, err := rs.AttemptAutoRenewal(context.Background(), subID)
	require.NoError(t, err)
	assert.False(t, renewed)

	assert.Equal(t, 1, notifier.paymentFailed)
	assert.Equal(t, "gateway timeout", notifier.lastData["reason"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Renewal sukses: billing anchor dipertahankan — next_billing_date di
// notifikasi adalah ends_at LAMA + satu periode, bukan tanggal hari ini.
func TestAttemptAutoRenewalSuccessKeepsBillingAnchor(t *testing.T) {
	db, mock := newMockGorm(t)
	subID := uuid.New()
	endsAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	collector := &stubCollector{result: PaymentResult{Success: true, Reference: "PAY-1"}}
	notifier := &stubNotifier{}
	rs := NewRenewalService(db, collector, notifier, nil)

	mock.ExpectBegin()
	expectLockedSubSelect(mock, subID, renewableSubRows(subID, true, &endsAt))
	mock.ExpectCommit()

	mock.ExpectBegin()
	expectLockedSubSelect(mock, subID, renewableSubRows(subID, true, &endsAt))
	mock.ExpectExec(`UPDATE "subscriptions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	renewed, err := rs.AttemptAutoRenewal(context.Background(), subID)
	require.NoError(t, err)
	assert.True(t, renewed)

	assert.Equal(t, 1, collector.calls)
	assert.Equal(t, 1, notifier.renewalSuccess)
	assert.Zero(t, notifier.paymentFailed)
	assert.Equal(t, "2026-04-10", notifier.lastData["next_billing_date"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// auto_renew off → berhenti di fase 1, gateway tidak pernah ditagih.
func TestAttemptAutoRenewalSkipsWhenAutoRenewOff(t *testing.T) {
	db, mock := newMockGorm(t)
	subID := uuid.New()

	collector := &stubCollector{result: PaymentResult{Success: true}}
	notifier := &stubNotifier{}
	rs := NewRenewalService(db, collector, notifier, nil)

	mock.ExpectBegin()
	expectLockedSubSelect(mock, subID, renewableSubRows(subID, false, nil))
	mock.ExpectCommit()

	renewed, err := rs.AttemptAutoRenewal(context.Background(), subID)
	require.NoError(t, err)
	assert.False(t, renewed)

	assert.Zero(t, collector.calls)
	assert.Zero(t, notifier.paymentFailed)
	assert.Zero(t, notifier.renewalSuccess)
	assert.NoError(t, mock.ExpectationsWereMet())
}
