package leave

import (
	"strconv"
	"strings"

	"leavegate/internal/domain/catalog"
)

// Violation codes returned by Validate.
const (
	ViolationNameRequired     = "student_name_required"
	ViolationIDRequired       = "student_id_required"
	ViolationEmailRequired    = "email_required"
	ViolationReasonRequired   = "reason_required"
	ViolationYearInvalid      = "year_invalid"
	ViolationAttendanceRange  = "attendance_out_of_range"
	ViolationUnknownBranch    = "unknown_branch"
	ViolationBatchNotInBranch = "batch_not_in_branch"
	ViolationLeaveTypeFlags   = "leave_type_exactly_one"
	ViolationDateOrder        = "end_before_start"
	ViolationMentorMismatch   = "mentor_mismatch"
)

// Validate checks a candidate against the submission rules and the static
// reference data. It is pure: no side effects, no store access. A nil result
// means the candidate is acceptable.
func Validate(c Candidate) *ValidationError {
	var violations []string
	add := func(code string) { violations = append(violations, code) }

	if strings.TrimSpace(c.StudentName) == "" {
		add(ViolationNameRequired)
	}
	if strings.TrimSpace(c.StudentID) == "" {
		add(ViolationIDRequired)
	}
	if strings.TrimSpace(c.Email) == "" {
		add(ViolationEmailRequired)
	}
	if strings.TrimSpace(c.Reason) == "" {
		add(ViolationReasonRequired)
	}

	year, err := strconv.Atoi(strings.TrimSpace(c.Year))
	if err != nil || year < 1 || year > 4 {
		add(ViolationYearInvalid)
	}

	attendance, err := strconv.ParseFloat(strings.TrimSpace(c.Attendance), 64)
	if err != nil || attendance < 0 || attendance > 100 {
		add(ViolationAttendanceRange)
	}

	if !catalog.KnownBranch(c.Branch) {
		add(ViolationUnknownBranch)
	} else if !catalog.BatchInBranch(c.Branch, c.Batch) {
		add(ViolationBatchNotInBranch)
	}

	// Exactly one of the two leave types, not at-most-one.
	if c.AuthorizedLeave == c.SpecialLeave {
		add(ViolationLeaveTypeFlags)
	}

	if dayStart(c.EndDate).Before(dayStart(c.StartDate)) {
		add(ViolationDateOrder)
	}

	// The mentor mapping is a hard gate: the submitted teacher must equal
	// the batch's mentor exactly, case included.
	if mentor, ok := catalog.MentorFor(c.Batch); !ok || c.Teacher != mentor {
		add(ViolationMentorMismatch)
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
