package model

/* ===============================
   SessionStatus
=================================*/

type SessionStatus string

const (
	SessionStatusUnscheduled SessionStatus = "unscheduled"
	SessionStatusScheduled   SessionStatus = "scheduled"
	SessionStatusReady       SessionStatus = "ready"
	SessionStatusOngoing     SessionStatus = "ongoing"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusCancelled   SessionStatus = "cancelled"
	SessionStatusAbsent      SessionStatus = "absent"
	SessionStatusMissed      SessionStatus = "missed"
	SessionStatusRescheduled SessionStatus = "rescheduled"
)

func (s SessionStatus) String() string { return string(s) }

// sessionTransitions adalah adjacency table lifecycle session.
// Terminal (completed/cancelled/absent/missed) tidak punya edge keluar.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusUnscheduled: {SessionStatusScheduled},
	SessionStatusScheduled:   {SessionStatusReady, SessionStatusOngoing, SessionStatusCancelled, SessionStatusAbsent, SessionStatusMissed, SessionStatusRescheduled},
	SessionStatusReady:       {SessionStatusOngoing, SessionStatusCompleted, SessionStatusCancelled, SessionStatusAbsent, SessionStatusRescheduled},
	SessionStatusOngoing:     {SessionStatusCompleted, SessionStatusCancelled, SessionStatusAbsent},
	SessionStatusRescheduled: {SessionStatusScheduled},
	SessionStatusCompleted:   {},
	SessionStatusCancelled:   {},
	SessionStatusAbsent:      {},
	SessionStatusMissed:      {},
}

func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusCancelled, SessionStatusAbsent, SessionStatusMissed:
		return true
	}
	return false
}

func (s SessionStatus) CanStart() bool {
	return s == SessionStatusScheduled || s == SessionStatusReady
}

func (s SessionStatus) CanComplete() bool {
	return s == SessionStatusScheduled || s == SessionStatusReady || s == SessionStatusOngoing
}

func (s SessionStatus) CanCancel() bool {
	return s == SessionStatusScheduled || s == SessionStatusReady || s == SessionStatusOngoing
}

func (s SessionStatus) CanReschedule() bool {
	return s == SessionStatusScheduled || s == SessionStatusReady
}

// CountsTowardsSubscription menjawab untuk status completed/absent saja.
// Status cancelled TIDAK diputuskan di sini — lihat CancellationType:
// atribusi pembatalanlah yang menentukan (student menanggung, teacher/system tidak).
func (s SessionStatus) CountsTowardsSubscription() bool {
	return s == SessionStatusCompleted || s == SessionStatusAbsent
}

/* ===============================
   CancellationType (atribusi pembatalan)
=================================*/

type CancellationType string

const (
	CancellationTypeTeacher CancellationType = "teacher"
	CancellationTypeStudent CancellationType = "student"
	CancellationTypeSystem  CancellationType = "system"
	CancellationTypeUnknown CancellationType = "" // tidak terisi
)

// CountsTowardsSubscription: hanya pembatalan oleh student yang memakan kuota.
// Atribusi kosong dianggap bukan tanggungan student (fail-safe ke arah student).
func (t CancellationType) CountsTowardsSubscription() bool {
	return t == CancellationTypeStudent
}

func (t CancellationType) Valid() bool {
	switch t {
	case CancellationTypeTeacher, CancellationTypeStudent, CancellationTypeSystem, CancellationTypeUnknown:
		return true
	}
	return false
}
