// Package notifications sends decision emails to students. Delivery is best
// effort: a failed send is logged and never fails the decision that
// triggered it.
package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"leavegate/internal/domain/leave"
)

const (
	TypeLeaveApproved = "leave_approved"
	TypeLeaveRejected = "leave_rejected"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	Mailer Mailer
	From   string
}

func New(mailer Mailer, from string) *Service {
	return &Service{Mailer: mailer, From: from}
}

// NotifyDecision emails the student about an approve/reject outcome.
func (s *Service) NotifyDecision(ctx context.Context, req leave.Request, ntype string) {
	if s == nil || s.Mailer == nil || req.Email == "" {
		return
	}

	var subject, body string
	switch ntype {
	case TypeLeaveApproved:
		subject = "Leave request granted"
		body = fmt.Sprintf("Hi %s,\n\nYour leave from %s to %s has been granted. Your gate pass is ready to download.\n",
			req.StudentName, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))
	case TypeLeaveRejected:
		subject = "Leave request rejected"
		body = fmt.Sprintf("Hi %s,\n\nYour leave from %s to %s has been rejected. Please contact %s for details.\n",
			req.StudentName, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.Teacher)
	default:
		return
	}

	if err := s.Mailer.Send(ctx, s.From, req.Email, subject, body); err != nil {
		slog.Warn("decision email send failed", "type", ntype, "err", err)
	}
}
