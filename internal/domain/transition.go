package domain

// TransitionTable maps a current status to the statuses it may move to.
// Keeping the rules in data means tightening them later (say, forbidding
// verified -> pending) is a configuration change, not a rewrite.
type TransitionTable map[Status][]Status

// DefaultTransitions returns the production table: any status may move to any
// of the three legal statuses, including re-confirming the current one.
func DefaultTransitions() TransitionTable {
	all := []Status{StatusPending, StatusVerified, StatusFalseAlarm}
	return TransitionTable{
		StatusPending:    all,
		StatusVerified:   all,
		StatusFalseAlarm: all,
	}
}

// Allowed reports whether the table permits moving from one status to another.
func (t TransitionTable) Allowed(from, to Status) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyTransition moves a report to the next status and applies the
// transition's side effects. Entering (or re-confirming) a terminal status
// stamps VerifiedAt with the current time and overwrites VerifiedBy when an
// actor is supplied. Returning to pending retains the previous
// VerifiedAt/VerifiedBy as the record of the last decision.
//
// The report is returned unchanged alongside the error when the status is
// unknown (ErrInvalidStatus) or the table forbids the move
// (ErrTransitionNotAllowed).
func ApplyTransition(r Report, next Status, verifiedBy string, table TransitionTable) (Report, error) {
	if !next.Valid() {
		return r, ErrInvalidStatus
	}
	if !table.Allowed(r.Status, next) {
		return r, ErrTransitionNotAllowed
	}

	r.Status = next
	if next.Terminal() {
		now := clock.Now().UTC()
		r.VerifiedAt = &now
		if verifiedBy != "" {
			r.VerifiedBy = verifiedBy
		}
	}
	return r, nil
}
