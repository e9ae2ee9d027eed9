package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStatusTransitions(t *testing.T) {
	cases := []struct {
		from    SessionStatus
		to      SessionStatus
		allowed bool
	}{
		{SessionStatusUnscheduled, SessionStatusScheduled, true},
		{SessionStatusUnscheduled, SessionStatusOngoing, false},
		{SessionStatusScheduled, SessionStatusReady, true},
		{SessionStatusScheduled, SessionStatusOngoing, true},
		{SessionStatusScheduled, SessionStatusCancelled, true},
		{SessionStatusScheduled, SessionStatusMissed, true},
		{SessionStatusReady, SessionStatusCompleted, true},
		{SessionStatusReady, SessionStatusMissed, false},
		{SessionStatusOngoing, SessionStatusCompleted, true},
		{SessionStatusOngoing, SessionStatusRescheduled, false},
		{SessionStatusRescheduled, SessionStatusScheduled, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestSessionStatusTerminalHasNoExits(t *testing.T) {
	terminals := []SessionStatus{
		SessionStatusCompleted,
		SessionStatusCancelled,
		SessionStatusAbsent,
		SessionStatusMissed,
	}
	all := []SessionStatus{
		SessionStatusUnscheduled, SessionStatusScheduled, SessionStatusReady,
		SessionStatusOngoing, SessionStatusCompleted, SessionStatusCancelled,
		SessionStatusAbsent, SessionStatusMissed, SessionStatusRescheduled,
	}

	for _, terminal := range terminals {
		assert.True(t, terminal.IsTerminal())
		for _, target := range all {
			assert.False(t, terminal.CanTransitionTo(target),
				"terminal %s must not transition to %s", terminal, target)
		}
	}
}

func TestSessionStatusCountsTowardsSubscription(t *testing.T) {
	assert.True(t, SessionStatusCompleted.CountsTowardsSubscription())
	assert.True(t, SessionStatusAbsent.CountsTowardsSubscription())

	assert.False(t, SessionStatusMissed.CountsTowardsSubscription())
	assert.False(t, SessionStatusScheduled.CountsTowardsSubscription())
	// cancelled dijawab lewat atribusi, bukan status.
	assert.False(t, SessionStatusCancelled.CountsTowardsSubscription())
}

func TestCancellationTypeAttribution(t *testing.T) {
	assert.True(t, CancellationTypeStudent.CountsTowardsSubscription())

	assert.False(t, CancellationTypeTeacher.CountsTowardsSubscription())
	assert.False(t, CancellationTypeSystem.CountsTowardsSubscription())
	// atribusi kosong tidak boleh memakan kuota student.
	assert.False(t, CancellationTypeUnknown.CountsTowardsSubscription())
}

func TestCancellationTypeValid(t *testing.T) {
	assert.True(t, CancellationTypeStudent.Valid())
	assert.True(t, CancellationTypeUnknown.Valid())
	assert.False(t, CancellationType("parent").Valid())
}
