// Package domain models citizen ocean-hazard reports and the rules that
// govern their lifecycle.
//
// # Report Lifecycle
//
// A report enters the system in the "pending" status. An administrator later
// moves it to "verified" (the hazard was confirmed) or "false-alarm" (it was
// not). The legal moves are captured in an explicit transition table
// ([DefaultTransitions]); the default table permits any transition among the
// three statuses, which matches how moderators actually work: a verified
// report can be reopened, a false alarm can be reversed. Entering a terminal
// status stamps VerifiedAt/VerifiedBy; returning a report to pending
// deliberately leaves those fields in place so the audit trail of the last
// decision survives.
//
// # Duplicate/Proximity Guard
//
// Before a submission is accepted it is compared against existing reports of
// the same hazard type. A match is a report whose coordinates lie within
// 1.0 km (haversine) of the candidate and which was filed within the last
// 24 hours. A verified match blocks the submission outright; a pending or
// false-alarm match only flags it so the client can warn the reporter. The
// check is read-only and synchronous. See [CheckDuplicate].
//
// # Alert Gate
//
// Only verified reports may trigger a hazard broadcast. [NewAlert] authorizes
// the broadcast and produces an immutable [AlertRecord]; actual fan-out is
// the delivery collaborator's job and never feeds back into the report.
//
// # Gamification Ledger
//
// Reporter profiles accumulate points from lifecycle events:
//
//	reportSubmitted   +25
//	reportVerified    +75
//	reportFalseAlarm  -10  (total is floored at zero)
//	consecutiveDay    +15  per maintained streak day
//
// Levels derive from points through a monotonic threshold table and are never
// stored, only computed ([LevelFor], [ProgressFor]). Badges are typed
// predicates over the profile ([Criteria]); each badge is granted exactly
// once and carries a fixed point bonus applied in the same update. The
// per-event sequence is fixed: base delta, then counters and streak, then
// badge evaluation against the updated totals, then badge bonuses. Callers
// must serialize events per user; [ApplyEvent] itself is pure.
package domain
