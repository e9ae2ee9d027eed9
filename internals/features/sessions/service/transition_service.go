package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	circleModel "tilawa_backend/internals/features/circles/model"
	sessionModel "tilawa_backend/internals/features/sessions/model"
)

// TransitionService menjalankan lifecycle session lewat adjacency table di
// SessionStatus. Transisi terminal yang eligible (completed/absent/cancelled
// oleh student) diikuti konsumsi kuota lewat UsageCounter — di TX TERPISAH
// setelah commit: kegagalan konsumsi (mis. kuota habis) tidak membatalkan
// transisi, session tinggal uncounted untuk retry/rekonsiliasi.
type TransitionService struct {
	DB      *gorm.DB
	Counter *UsageCounter
}

func NewTransitionService(db *gorm.DB, counter *UsageCounter) *TransitionService {
	return &TransitionService{DB: db, Counter: counter}
}

func (ts *TransitionService) lockSession(tx *gorm.DB, academyID, sessionID uuid.UUID) (*sessionModel.SessionModel, error) {
	var session sessionModel.SessionModel
	if err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_id = ?", sessionID).
		Where("session_academy_id = ?", academyID).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("session %s not found in academy %s", sessionID, academyID)
		}
		return nil, err
	}
	return &session, nil
}

// Schedule menjadwalkan session (unscheduled/rescheduled → scheduled).
func (ts *TransitionService) Schedule(ctx context.Context, academyID, sessionID uuid.UUID, at time.Time, durationMinutes int) error {
	return ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := ts.lockSession(tx, academyID, sessionID)
		if err != nil {
			return err
		}

		if !session.SessionStatus.CanTransitionTo(sessionModel.SessionStatusScheduled) {
			return fmt.Errorf("session %s cannot be scheduled from status %s", session.SessionCode, session.SessionStatus)
		}

		session.SessionStatus = sessionModel.SessionStatusScheduled
		session.SessionScheduledAt = &at
		if durationMinutes > 0 {
			session.SessionDurationMinutes = durationMinutes
		}
		return tx.Save(session).Error
	})
}

// MarkReady: dipanggil sweep menjelang jam mulai (scheduled → ready).
func (ts *TransitionService) MarkReady(ctx context.Context, academyID, sessionID uuid.UUID) error {
	return ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := ts.lockSession(tx, academyID, sessionID)
		if err != nil {
			return err
		}

		if !session.SessionStatus.CanTransitionTo(sessionModel.SessionStatusReady) {
			return fmt.Errorf("session %s cannot be marked ready from status %s", session.SessionCode, session.SessionStatus)
		}

		session.SessionStatus = sessionModel.SessionStatusReady
		return tx.Save(session).Error
	})
}

// Start memulai session (scheduled/ready → ongoing).
func (ts *TransitionService) Start(ctx context.Context, academyID, sessionID uuid.UUID) error {
	return ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := ts.lockSession(tx, academyID, sessionID)
		if err != nil {
			return err
		}

		if !session.SessionStatus.CanStart() {
			return fmt.Errorf("session %s cannot start from status %s", session.SessionCode, session.SessionStatus)
		}

		now := time.Now()
		session.SessionStatus = sessionModel.SessionStatusOngoing
		session.SessionStartedAt = &now
		return tx.Save(session).Error
	})
}

// Complete menyelesaikan session lalu memicu konsumsi kuota.
func (ts *TransitionService) Complete(ctx context.Context, academyID, sessionID uuid.UUID) error {
	err := ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := ts.lockSession(tx, academyID, sessionID)
		if err != nil {
			return err
		}

		if !session.SessionStatus.CanComplete() {
			return fmt.Errorf("session %s cannot complete from status %s", session.SessionCode, session.SessionStatus)
		}

		now := time.Now()
		// Tidak boleh complete sebelum jam mulai tercatat.
		if session.SessionStartedAt != nil && now.Before(*session.SessionStartedAt) {
			return fmt.Errorf("session %s cannot complete before its start time", session.SessionCode)
		}

		session.SessionStatus = sessionModel.SessionStatusCompleted
		session.SessionEndedAt = &now
		if err := tx.Save(session).Error; err != nil {
			return err
		}

		// Counter progress circle ikut naik.
		return tx.Model(&circleModel.QuranCircleModel{}).
			Where("circle_id = ?", session.SessionCircleID).
			Update("circle_sessions_completed", gorm.Expr("circle_sessions_completed + 1")).Error
	})
	if err != nil {
		return err
	}

	ts.consumeAfterTerminal(ctx, sessionID)
	return nil
}

// Cancel membatalkan session dengan atribusi (teacher/student/system).
// Hanya pembatalan oleh student yang memakan kuota.
func (ts *TransitionService) Cancel(ctx context.Context, academyID, sessionID uuid.UUID, reason string, cancelledBy *uuid.UUID, attribution sessionModel.CancellationType) error {
	if !attribution.Valid() {
		return fmt.Errorf("invalid cancellation type %q", attribution)
	}

	err := ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := ts.lockSession(tx, academyID, sessionID)
		if err != nil {
			return err
		}

		if !session.SessionStatus.CanCancel() {
			log.Printf("[SESSION] cancellation blocked: session=%s status=%s", session.SessionCode, session.SessionStatus)
			return fmt.Errorf("session %s cannot be cancelled from status %s", session.SessionCode, session.SessionStatus)
		}

		now := time.Now()
		session.SessionStatus = sessionModel.SessionStatusCancelled
		session.SessionCancellationType = attribution
		session.SessionCancelledAt = &now
		session.SessionCancelledBy = cancelledBy
		if reason != "" {
			session.SessionCancellationReason = &reason
		}
		return tx.Save(session).Error
	})
	if err != nil {
		return err
	}

	log.Printf("[SESSION] session %s cancelled (attribution=%s)", sessionID, attribution)
	ts.consumeAfterTerminal(ctx, sessionID)
	return nil
}

// MarkAbsent: student tidak hadir — terminal dan memakan kuota.
func (ts *TransitionService) MarkAbsent(ctx context.Context, academyID, sessionID uuid.UUID, note string) error {
	err := ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := ts.lockSession(tx, academyID, sessionID)
		if err != nil {
			return err
		}

		if !session.SessionStatus.CanTransitionTo(sessionModel.SessionStatusAbsent) {
			return fmt.Errorf("session %s cannot be marked absent from status %s", session.SessionCode, session.SessionStatus)
		}
		// Session di masa depan tidak boleh ditandai absent.
		if session.SessionScheduledAt != nil && session.SessionScheduledAt.After(time.Now()) {
			return fmt.Errorf("session %s has not started yet", session.SessionCode)
		}

		now := time.Now()
		session.SessionStatus = sessionModel.SessionStatusAbsent
		session.SessionEndedAt = &now
		if note != "" {
			session.SessionCancellationReason = &note
		}
		return tx.Save(session).Error
	})
	if err != nil {
		return err
	}

	ts.consumeAfterTerminal(ctx, sessionID)
	return nil
}

// MarkMissed: session terjadwal yang lewat tanpa pernah dimulai (sweep).
// Missed TIDAK memakan kuota.
func (ts *TransitionService) MarkMissed(ctx context.Context, academyID, sessionID uuid.UUID) error {
	return ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := ts.lockSession(tx, academyID, sessionID)
		if err != nil {
			return err
		}

		if !session.SessionStatus.CanTransitionTo(sessionModel.SessionStatusMissed) {
			return fmt.Errorf("session %s cannot be marked missed from status %s", session.SessionCode, session.SessionStatus)
		}

		now := time.Now()
		session.SessionStatus = sessionModel.SessionStatusMissed
		session.SessionEndedAt = &now
		return tx.Save(session).Error
	})
}

// Reschedule mencatat jadwal lama lalu kembali ke scheduled dengan jadwal baru.
func (ts *TransitionService) Reschedule(ctx context.Context, academyID, sessionID uuid.UUID, newAt time.Time, reason string) error {
	return ts.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := ts.lockSession(tx, academyID, sessionID)
		if err != nil {
			return err
		}

		if !session.SessionStatus.CanReschedule() {
			return fmt.Errorf("session %s cannot be rescheduled from status %s", session.SessionCode, session.SessionStatus)
		}

		session.SessionRescheduledFrom = session.SessionScheduledAt
		session.SessionScheduledAt = &newAt
		session.SessionStatus = sessionModel.SessionStatusScheduled
		if reason != "" {
			session.SessionRescheduleReason = &reason
		}
		return tx.Save(session).Error
	})
}

// consumeAfterTerminal menjalankan usage counter setelah transisi terminal
// commit. Error hanya dicatat — session tetap uncounted dan retriable
// (endpoint recount / rekonsiliasi manual).
func (ts *TransitionService) consumeAfterTerminal(ctx context.Context, sessionID uuid.UUID) {
	if ts.Counter == nil {
		return
	}
	if _, err := ts.Counter.ConsumeSession(ctx, sessionID); err != nil {
		log.Printf("[SESSION] usage counting deferred for session %s: %v", sessionID, err)
	}
}
