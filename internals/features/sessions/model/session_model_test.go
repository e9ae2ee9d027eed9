package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldCountTowardsSubscription(t *testing.T) {
	cases := []struct {
		name     string
		status   SessionStatus
		cancType CancellationType
		want     bool
	}{
		{"completed counts", SessionStatusCompleted, CancellationTypeUnknown, true},
		{"absent counts", SessionStatusAbsent, CancellationTypeUnknown, true},
		{"missed does not count", SessionStatusMissed, CancellationTypeUnknown, false},
		{"ongoing does not count", SessionStatusOngoing, CancellationTypeUnknown, false},
		{"student cancellation counts", SessionStatusCancelled, CancellationTypeStudent, true},
		{"teacher cancellation does not count", SessionStatusCancelled, CancellationTypeTeacher, false},
		{"system cancellation does not count", SessionStatusCancelled, CancellationTypeSystem, false},
		{"unattributed cancellation does not count", SessionStatusCancelled, CancellationTypeUnknown, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := SessionModel{
				SessionStatus:           tc.status,
				SessionCancellationType: tc.cancType,
			}
			assert.Equal(t, tc.want, s.ShouldCountTowardsSubscription())
		})
	}
}
