package agentstatus

import (
	"github.com/veltahq/backoffice-backend/internal/domain/presence"
)

// BreakOvertimeSeconds computes the seconds spent beyond the allotted pause.
//
// ONLINE time never has overtime. INACTIVE intervals count in full: there is
// no "allowed" portion of automatic inactivity. BREAK intervals count only
// the excess over the duration snapshotted when the break started.
func BreakOvertimeSeconds(typ presence.RecordType, durationSeconds int64, contextDurationSeconds *int64) int64 {
	if durationSeconds <= 0 {
		return 0
	}
	switch typ {
	case presence.RecordInactive:
		return durationSeconds
	case presence.RecordBreak:
		if contextDurationSeconds == nil {
			return durationSeconds
		}
		overtime := durationSeconds - *contextDurationSeconds
		if overtime < 0 {
			return 0
		}
		return overtime
	default:
		return 0
	}
}
