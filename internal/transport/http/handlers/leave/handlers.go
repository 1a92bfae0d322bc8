package leavehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"leavegate/internal/auth"
	"leavegate/internal/domain/catalog"
	"leavegate/internal/domain/gatepass"
	"leavegate/internal/domain/leave"
	"leavegate/internal/domain/notifications"
	"leavegate/internal/platform/metrics"
	"leavegate/internal/transport/http/api"
	"leavegate/internal/transport/http/middleware"
	"leavegate/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Notify  *notifications.Service
	Metrics *metrics.Collector

	// DecisionLimit, when set, wraps the approve/reject routes with a
	// tighter rate limit than the router-wide one.
	DecisionLimit func(http.Handler) http.Handler
}

func NewHandler(service *leave.Service, notify *notifications.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Notify: notify, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	decision := []func(http.Handler) http.Handler{middleware.RequireRole(auth.RoleTeacher)}
	if h.DecisionLimit != nil {
		decision = append(decision, h.DecisionLimit)
	}

	r.Route("/leave", func(r chi.Router) {
		r.Get("/catalog", h.handleCatalog)
		r.With(middleware.RequireRole(auth.RoleStudent)).Post("/requests", h.handleSubmit)
		r.Get("/requests", h.handleListRequests)
		r.With(middleware.RequireRole(auth.RoleTeacher)).Get("/requests/pending", h.handleListPending)
		r.With(decision...).Post("/requests/{requestID}/approve", h.handleApprove)
		r.With(decision...).Post("/requests/{requestID}/reject", h.handleReject)
		r.With(middleware.RequireRole(auth.RoleStudent)).Get("/gatepass", h.handleGatePass)
		r.With(middleware.RequireRole(auth.RoleStudent)).Get("/gatepass/image", h.handleGatePassImage)
		r.With(middleware.RequireRole(auth.RoleStudent)).Get("/gatepass/pdf", h.handleGatePassPDF)
	})
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	branches := make([]map[string]any, 0, len(catalog.Branches))
	for _, branch := range catalog.Branches {
		batches := catalog.BatchesFor(branch)
		mentors := map[string]string{}
		for _, batch := range batches {
			if mentor, ok := catalog.MentorFor(batch); ok {
				mentors[batch] = mentor
			}
		}
		branches = append(branches, map[string]any{
			"branch":  branch,
			"batches": batches,
			"mentors": mentors,
		})
	}
	api.Success(w, map[string]any{
		"branches": branches,
		"mentors":  catalog.Mentors,
	}, middleware.GetRequestID(r.Context()))
}

type submitPayload struct {
	StudentName     string `json:"studentName"`
	Year            string `json:"year"`
	Attendance      string `json:"attendance"`
	Branch          string `json:"branch"`
	Batch           string `json:"batch"`
	Email           string `json:"email"`
	Reason          string `json:"reason"`
	Teacher         string `json:"teacher"`
	AuthorizedLeave bool   `json:"authorizedLeave"`
	SpecialLeave    bool   `json:"specialLeave"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	if payload.StartDate == "" || payload.EndDate == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "startDate and endDate are required", middleware.GetRequestID(r.Context()))
		return
	}
	startDate, err := shared.ParseDate(payload.StartDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "startDate must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}
	endDate, err := shared.ParseDate(payload.EndDate)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "endDate must be a valid date", middleware.GetRequestID(r.Context()))
		return
	}

	candidate := leave.Candidate{
		StudentName:     payload.StudentName,
		StudentID:       identity.StudentID,
		Year:            payload.Year,
		Attendance:      payload.Attendance,
		Branch:          payload.Branch,
		Batch:           payload.Batch,
		Email:           payload.Email,
		Reason:          payload.Reason,
		Teacher:         payload.Teacher,
		AuthorizedLeave: payload.AuthorizedLeave,
		SpecialLeave:    payload.SpecialLeave,
		StartDate:       startDate,
		EndDate:         endDate,
	}

	id, err := h.Service.Submit(r.Context(), candidate)
	if err != nil {
		h.failSubmit(w, r, err)
		return
	}
	api.Created(w, map[string]string{"id": id, "status": leave.StatusPending}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failSubmit(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var verr *leave.ValidationError
	switch {
	case errors.As(err, &verr):
		api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "leave request failed validation",
			map[string]any{"violations": verr.Violations}, reqID)
	case errors.Is(err, leave.ErrDuplicateRequest):
		api.Fail(w, http.StatusConflict, "duplicate_request", "a similar pending request already exists for these dates and reason", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "store_error", "failed to save leave request", reqID)
	}
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	status := r.URL.Query().Get("status")
	studentID := ""
	if identity.Role == auth.RoleStudent {
		studentID = identity.StudentID
	}

	requests, err := h.Service.History(r.Context(), status, studentID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", "failed to list leave requests", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	start, end := page.Slice(len(requests))

	api.Success(w, map[string]any{
		"requests": requests[start:end],
		"total":    len(requests),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Service.Pending(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", "failed to list pending requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"requests": requests, "total": len(requests)}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	pass, err := h.Service.Approve(r.Context(), requestID)
	if err != nil {
		h.failDecision(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordDecision(true)
	}
	if req, err := h.Service.Get(r.Context(), requestID); err == nil {
		h.Notify.NotifyDecision(r.Context(), req, notifications.TypeLeaveApproved)
	}

	api.Success(w, map[string]any{
		"requestId": pass.RequestID,
		"status":    leave.StatusGranted,
		"payload":   pass.Payload,
		"filename":  pass.Filename,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	if err := h.Service.Reject(r.Context(), requestID); err != nil {
		h.failDecision(w, r, err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordDecision(false)
	}
	if req, err := h.Service.Get(r.Context(), requestID); err == nil {
		h.Notify.NotifyDecision(r.Context(), req, notifications.TypeLeaveRejected)
	}

	api.Success(w, map[string]string{"requestId": requestID, "status": leave.StatusRejected}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) failDecision(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var encErr *leave.EncodingError
	switch {
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", reqID)
	case errors.Is(err, leave.ErrAlreadyDecided):
		api.Fail(w, http.StatusConflict, "already_decided", "leave request has already been decided", reqID)
	case errors.As(err, &encErr):
		api.Fail(w, http.StatusInternalServerError, "encoding_error", "failed to render gate pass", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "store_error", "failed to update leave request", reqID)
	}
}

func (h *Handler) handleGatePass(w http.ResponseWriter, r *http.Request) {
	req, ok := h.latestGranted(w, r)
	if !ok {
		return
	}
	api.Success(w, map[string]any{
		"requestId": req.ID,
		"startDate": req.StartDate.Format("2006-01-02"),
		"endDate":   req.EndDate.Format("2006-01-02"),
		"payload":   *req.QRCodeData,
		"filename":  gatepass.Filename(req),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGatePassImage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.latestGranted(w, r)
	if !ok {
		return
	}
	png, err := gatepass.RenderPNG(*req.QRCodeData)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "encoding_error", "failed to render gate pass", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", gatepass.Filename(req)))
	_, _ = w.Write(png)
}

func (h *Handler) handleGatePassPDF(w http.ResponseWriter, r *http.Request) {
	req, ok := h.latestGranted(w, r)
	if !ok {
		return
	}
	png, err := gatepass.RenderPNG(*req.QRCodeData)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "encoding_error", "failed to render gate pass", middleware.GetRequestID(r.Context()))
		return
	}
	pdf, err := gatepass.RenderPDF(req, png)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "encoding_error", "failed to render gate pass pdf", middleware.GetRequestID(r.Context()))
		return
	}
	filename := fmt.Sprintf("gatepass_%s_%s.pdf", req.StudentID, req.StartDate.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(pdf)
}

// latestGranted loads the caller's most recent granted request and writes
// the error response itself when there is none.
func (h *Handler) latestGranted(w http.ResponseWriter, r *http.Request) (leave.Request, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return leave.Request{}, false
	}

	req, err := h.Service.QueryGranted(r.Context(), identity.StudentID)
	if errors.Is(err, leave.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "no granted leave request found", middleware.GetRequestID(r.Context()))
		return leave.Request{}, false
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "store_error", "failed to look up gate pass", middleware.GetRequestID(r.Context()))
		return leave.Request{}, false
	}
	if req.QRCodeData == nil {
		api.Fail(w, http.StatusNotFound, "not_found", "granted request has no gate pass payload", middleware.GetRequestID(r.Context()))
		return leave.Request{}, false
	}
	return req, true
}
