package schedule

import (
	"time"

	"alcyxob/strength-academy/internal/domain"
)

// RevisionWindow is how long a check-in stays editable after submission,
// or after a coach asks for a revision.
const RevisionWindow = 24 * time.Hour

// Editability is the evaluated edit state of a check-in.
type Editability struct {
	CanEdit          bool
	RevisionDeadline *time.Time
}

// EvaluateCheckInEditability applies the revision window to c at now.
// A revision request reopens an expired window until 24h after the request.
func EvaluateCheckInEditability(c *domain.CheckIn, now time.Time) Editability {
	if c == nil || c.SubmittedAt.IsZero() {
		return Editability{}
	}

	e := Editability{CanEdit: now.Sub(c.SubmittedAt) <= RevisionWindow}

	if c.Status == domain.CheckInNeedsRevision && c.RevisionRequestedAt != nil {
		deadline := c.RevisionRequestedAt.Add(RevisionWindow)
		e.RevisionDeadline = &deadline
		if !e.CanEdit {
			e.CanEdit = !now.After(deadline)
		}
	}
	return e
}

// SelectCurrentCheckIn picks the check-in an athlete edits for a workout:
// the most recent editable one, or the most recent overall when none is
// editable. Ties on SubmittedAt go to the earlier element.
func SelectCurrentCheckIn(checkIns []domain.CheckIn, now time.Time) *domain.CheckIn {
	var latest, latestEditable *domain.CheckIn
	for i := range checkIns {
		c := &checkIns[i]
		if latest == nil || c.SubmittedAt.After(latest.SubmittedAt) {
			latest = c
		}
		if !EvaluateCheckInEditability(c, now).CanEdit {
			continue
		}
		if latestEditable == nil || c.SubmittedAt.After(latestEditable.SubmittedAt) {
			latestEditable = c
		}
	}
	if latestEditable != nil {
		return latestEditable
	}
	return latest
}
