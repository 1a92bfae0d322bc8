package leave

import "strings"

// IsDuplicate reports whether the candidate collides with any of the
// student's existing pending requests: inclusive date ranges overlap and the
// reasons are equal ignoring case and surrounding whitespace.
//
// The overlap test compares whole-day ranges, with the candidate's start at
// start-of-day and each existing end at end-of-day, so requests on adjacent
// days do not collide but ranges sharing a single day do.
func IsDuplicate(c Candidate, existingPending []Request) bool {
	newStart := dayStart(c.StartDate)
	newEnd := dayEnd(c.EndDate)
	reason := normalizeReason(c.Reason)

	for _, existing := range existingPending {
		if existing.StudentID != c.StudentID || existing.Status != StatusPending {
			continue
		}
		overlap := !newStart.After(dayEnd(existing.EndDate)) &&
			!dayStart(existing.StartDate).After(newEnd)
		if overlap && normalizeReason(existing.Reason) == reason {
			return true
		}
	}
	return false
}

func normalizeReason(reason string) string {
	return strings.ToLower(strings.TrimSpace(reason))
}
