package leave

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Service enforces the request state machine over a Store. Submissions are
// validated, checked for duplicates, and persisted as Pending; a teacher
// decision moves the record to Granted or Rejected exactly once.
type Service struct {
	store  Store
	passes PassIssuer
	now    func() time.Time

	// mu serializes submit's duplicate-check+append so two racing
	// submissions cannot both pass the check. Updates are atomic inside
	// the store.
	mu sync.Mutex
}

func NewService(store Store, passes PassIssuer) *Service {
	return &Service{store: store, passes: passes, now: time.Now}
}

// WithClock overrides the approval clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit validates the candidate, rejects duplicates against the student's
// pending requests, and appends a Pending record. The returned id is
// store-defined. Submit never reports success when the persist failed.
func (s *Service) Submit(ctx context.Context, c Candidate) (string, error) {
	if verr := Validate(c); verr != nil {
		return "", verr
	}

	days, err := CalculateDays(c.StartDate, c.EndDate)
	if err != nil {
		return "", &ValidationError{Violations: []string{ViolationDateOrder}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return "", &StoreError{Op: "load", Err: err}
	}
	if IsDuplicate(c, pendingForStudent(all, c.StudentID)) {
		return "", ErrDuplicateRequest
	}

	req := newRequest(c, days)
	id, err := s.store.Append(ctx, req)
	if err != nil {
		return "", &StoreError{Op: "append", Err: err}
	}
	return id, nil
}

// Approve grants a pending request: it builds the gate-pass payload at the
// current instant, sets status and payload in one atomic update, and returns
// the rendered pass. A non-pending record is left unchanged.
func (s *Service) Approve(ctx context.Context, id string) (GatePass, error) {
	var pass GatePass
	now := s.now()

	err := s.store.Update(ctx, id, func(req *Request) error {
		if req.Status != StatusPending {
			return ErrAlreadyDecided
		}
		issued, err := s.passes.Issue(*req, now)
		if err != nil {
			return &EncodingError{Err: err}
		}
		req.Status = StatusGranted
		payload := issued.Payload
		req.QRCodeData = &payload
		issued.RequestID = req.ID
		pass = issued
		return nil
	})
	if err != nil {
		return GatePass{}, s.wrapUpdateErr(err)
	}
	return pass, nil
}

// Reject marks a pending request Rejected and clears any payload.
func (s *Service) Reject(ctx context.Context, id string) error {
	err := s.store.Update(ctx, id, func(req *Request) error {
		if req.Status != StatusPending {
			return ErrAlreadyDecided
		}
		req.Status = StatusRejected
		req.QRCodeData = nil
		return nil
	})
	return s.wrapUpdateErr(err)
}

// QueryGranted returns the student's latest granted request, latest by
// append order. ErrNotFound when the student has none.
func (s *Service) QueryGranted(ctx context.Context, studentID string) (Request, error) {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return Request{}, &StoreError{Op: "load", Err: err}
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].StudentID == studentID && all[i].Status == StatusGranted {
			return all[i], nil
		}
	}
	return Request{}, ErrNotFound
}

// Get returns a single request by id.
func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return Request{}, &StoreError{Op: "load", Err: err}
	}
	for _, req := range all {
		if req.ID == id {
			return req, nil
		}
	}
	return Request{}, ErrNotFound
}

// Pending lists all requests awaiting review, in append order.
func (s *Service) Pending(ctx context.Context) ([]Request, error) {
	return s.list(ctx, func(r Request) bool { return r.Status == StatusPending })
}

// History lists every request, optionally filtered by status or student.
func (s *Service) History(ctx context.Context, status, studentID string) ([]Request, error) {
	return s.list(ctx, func(r Request) bool {
		if status != "" && r.Status != status {
			return false
		}
		if studentID != "" && r.StudentID != studentID {
			return false
		}
		return true
	})
}

func (s *Service) list(ctx context.Context, keep func(Request) bool) ([]Request, error) {
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}
	out := make([]Request, 0, len(all))
	for _, req := range all {
		if keep(req) {
			out = append(out, req)
		}
	}
	return out, nil
}

func (s *Service) wrapUpdateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyDecided):
		return err
	default:
		var encErr *EncodingError
		if errors.As(err, &encErr) {
			return err
		}
		return &StoreError{Op: "update", Err: err}
	}
}

func newRequest(c Candidate, days int) Request {
	attendance := parseAttendance(c.Attendance)
	return Request{
		StudentName: c.StudentName,
		Attendance:  attendance,
		Year:        trimmed(c.Year),
		StudentID:   c.StudentID,
		Branch:      c.Branch,
		Batch:       c.Batch,
		Email:       c.Email,
		LeaveDays:   days,
		StartDate:   dayStart(c.StartDate),
		EndDate:     dayStart(c.EndDate),
		Reason:      c.Reason,
		Teacher:     c.Teacher,
		Status:      StatusPending,
		QRCodeData:  nil,
	}
}

// parseAttendance runs after Validate, which guarantees the text parses.
func parseAttendance(raw string) float64 {
	value, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return value
}

func trimmed(raw string) string {
	return strings.TrimSpace(raw)
}

func pendingForStudent(all []Request, studentID string) []Request {
	var out []Request
	for _, req := range all {
		if req.StudentID == studentID && req.Status == StatusPending {
			out = append(out, req)
		}
	}
	return out
}
