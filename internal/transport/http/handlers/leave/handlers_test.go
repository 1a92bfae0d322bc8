package leavehandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"leavegate/internal/auth"
	"leavegate/internal/domain/gatepass"
	"leavegate/internal/domain/leave"
	"leavegate/internal/domain/notifications"
	"leavegate/internal/platform/metrics"
	"leavegate/internal/store/memory"
	leavehandler "leavegate/internal/transport/http/handlers/leave"
	"leavegate/internal/transport/http/middleware"
)

const testSecret = "test-secret"

type noopMailer struct{}

func (noopMailer) Send(_ context.Context, from, to, subject, body string) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *leave.Service) {
	t.Helper()
	service := leave.NewService(memory.New(), gatepass.NewGenerator())
	handler := leavehandler.NewHandler(service, notifications.New(noopMailer{}, "no-reply@example.edu"), metrics.New())

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret))
	router.Route("/api/v1", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return router, service
}

func token(t *testing.T, role, studentID string) string {
	t.Helper()
	signed, err := auth.GenerateToken(testSecret, auth.Claims{
		Subject:   "Test Caller",
		StudentID: studentID,
		Role:      role,
	}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, router http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func submitBody() map[string]any {
	return map[string]any{
		"studentName":     "Asha Verma",
		"year":            "2",
		"attendance":      "87.5",
		"branch":          "BTECH CS",
		"batch":           "A1",
		"email":           "asha@example.edu",
		"reason":          "family function",
		"teacher":         "Sugam Shivare",
		"authorizedLeave": true,
		"specialLeave":    false,
		"startDate":       "2024-01-10",
		"endDate":         "2024-01-12",
	}
}

func submitRequest(t *testing.T, router http.Handler, studentToken string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/leave/requests", studentToken, submitBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	env := decode(t, rec)
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Status != leave.StatusPending {
		t.Fatalf("status = %q, want Pending", data.Status)
	}
	return data.ID
}

func TestSubmitRequiresStudentRole(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/leave/requests", "", submitBody())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/leave/requests", token(t, auth.RoleTeacher, ""), submitBody())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("teacher status = %d, want 403", rec.Code)
	}
}

func TestSubmitValidationError(t *testing.T) {
	router, _ := newTestRouter(t)
	studentToken := token(t, auth.RoleStudent, "STU-1042")

	body := submitBody()
	body["reason"] = ""
	rec := doJSON(t, router, http.MethodPost, "/api/v1/leave/requests", studentToken, body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decode(t, rec)
	if env.Error == nil || env.Error.Code != "validation_error" {
		t.Fatalf("error = %+v, want validation_error", env.Error)
	}
}

func TestSubmitDuplicateConflict(t *testing.T) {
	router, _ := newTestRouter(t)
	studentToken := token(t, auth.RoleStudent, "STU-1042")

	submitRequest(t, router, studentToken)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/leave/requests", studentToken, submitBody())
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	env := decode(t, rec)
	if env.Error == nil || env.Error.Code != "duplicate_request" {
		t.Fatalf("error = %+v, want duplicate_request", env.Error)
	}
}

func TestApprovalJourney(t *testing.T) {
	router, _ := newTestRouter(t)
	studentToken := token(t, auth.RoleStudent, "STU-1042")
	teacherToken := token(t, auth.RoleTeacher, "")

	id := submitRequest(t, router, studentToken)

	// The request shows up on the teacher's pending queue.
	rec := doJSON(t, router, http.MethodGet, "/api/v1/leave/requests/pending", teacherToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending status = %d", rec.Code)
	}
	var pending struct {
		Requests []leave.Request `json:"requests"`
		Total    int             `json:"total"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if pending.Total != 1 || pending.Requests[0].ID != id {
		t.Fatalf("pending = %+v, want only %q", pending, id)
	}

	// Approve issues the pass.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/leave/requests/%s/approve", id), teacherToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body.String())
	}
	var decision struct {
		RequestID string `json:"requestId"`
		Status    string `json:"status"`
		Payload   string `json:"payload"`
		Filename  string `json:"filename"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &decision); err != nil {
		t.Fatalf("decode approve: %v", err)
	}
	if decision.Status != leave.StatusGranted {
		t.Fatalf("status = %q", decision.Status)
	}
	if !strings.HasPrefix(decision.Payload, "LEAVE_GRANTED_ID:STU-1042 NAME:Asha Verma FROM:2024-01-10 TO:2024-01-12 TS:") {
		t.Fatalf("payload = %q", decision.Payload)
	}
	if decision.Filename != "gatepass_STU-1042_2024-01-10.png" {
		t.Fatalf("filename = %q", decision.Filename)
	}

	// A second approval is a conflict and keeps the record granted.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/leave/requests/%s/approve", id), teacherToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second approve status = %d", rec.Code)
	}
	if env := decode(t, rec); env.Error == nil || env.Error.Code != "already_decided" {
		t.Fatalf("second approve error = %+v", decode(t, rec).Error)
	}

	// The student can fetch the pass image.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/leave/gatepass/image", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("image status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "gatepass_STU-1042_2024-01-10.png") {
		t.Fatalf("content disposition = %q", cd)
	}
	signature := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if !bytes.HasPrefix(rec.Body.Bytes(), signature) {
		t.Fatal("image body is not a PNG")
	}

	// And the pass metadata.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/leave/gatepass", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("gatepass status = %d", rec.Code)
	}
	var passData struct {
		RequestID string `json:"requestId"`
		Payload   string `json:"payload"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &passData); err != nil {
		t.Fatalf("decode gatepass: %v", err)
	}
	if passData.RequestID != id || passData.Payload != decision.Payload {
		t.Fatalf("gatepass = %+v, want request %q with the issued payload", passData, id)
	}

	// The PDF download works too.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/leave/gatepass/pdf", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf status = %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatal("pdf body is not a PDF")
	}
}

func TestRejectClearsPass(t *testing.T) {
	router, _ := newTestRouter(t)
	studentToken := token(t, auth.RoleStudent, "STU-1042")
	teacherToken := token(t, auth.RoleTeacher, "")

	id := submitRequest(t, router, studentToken)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/leave/requests/%s/reject", id), teacherToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d, body %s", rec.Code, rec.Body.String())
	}

	// No gate pass exists for a rejected request.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/leave/gatepass", studentToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("gatepass status = %d, want 404", rec.Code)
	}
}

func TestDecisionUnknownRequest(t *testing.T) {
	router, _ := newTestRouter(t)
	teacherToken := token(t, auth.RoleTeacher, "")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/leave/requests/missing/approve", teacherToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env := decode(t, rec); env.Error == nil || env.Error.Code != "not_found" {
		t.Fatalf("error = %+v", decode(t, rec).Error)
	}
}

func TestListScopedByRole(t *testing.T) {
	router, _ := newTestRouter(t)
	asha := token(t, auth.RoleStudent, "STU-1042")
	teacherToken := token(t, auth.RoleTeacher, "")

	submitRequest(t, router, asha)

	other := token(t, auth.RoleStudent, "STU-2000")
	body := submitBody()
	body["startDate"] = "2024-02-01"
	body["endDate"] = "2024-02-01"
	rec := doJSON(t, router, http.MethodPost, "/api/v1/leave/requests", other, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second submit status = %d", rec.Code)
	}

	var listing struct {
		Requests []leave.Request `json:"requests"`
		Total    int             `json:"total"`
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/leave/requests", teacherToken, nil)
	if err := json.Unmarshal(decode(t, rec).Data, &listing); err != nil {
		t.Fatalf("decode teacher list: %v", err)
	}
	if listing.Total != 2 {
		t.Fatalf("teacher sees %d requests, want 2", listing.Total)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/leave/requests", asha, nil)
	if err := json.Unmarshal(decode(t, rec).Data, &listing); err != nil {
		t.Fatalf("decode student list: %v", err)
	}
	if listing.Total != 1 || listing.Requests[0].StudentID != "STU-1042" {
		t.Fatalf("student list = %+v, want only own request", listing)
	}
}

func TestDecisionRoutesUseTighterLimit(t *testing.T) {
	service := leave.NewService(memory.New(), gatepass.NewGenerator())
	handler := leavehandler.NewHandler(service, notifications.New(noopMailer{}, "no-reply@example.edu"), metrics.New())
	handler.DecisionLimit = middleware.DecisionRateLimit(2, time.Minute)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret))
	router.Route("/api/v1", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	teacherToken := token(t, auth.RoleTeacher, "")

	id := submitRequest(t, router, token(t, auth.RoleStudent, "STU-1042"))

	body := submitBody()
	body["startDate"] = "2024-02-01"
	body["endDate"] = "2024-02-01"
	rec := doJSON(t, router, http.MethodPost, "/api/v1/leave/requests", token(t, auth.RoleStudent, "STU-2000"), body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("second submit status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/leave/requests/%s/approve", id), teacherToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("first decision status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Base limit 2 means one decision per window for this teacher.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/leave/requests/%s/reject", id), teacherToken, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second decision status = %d, want 429", rec.Code)
	}
	if env := decode(t, rec); env.Error == nil || env.Error.Code != "rate_limited" {
		t.Fatalf("error = %+v, want rate_limited", decode(t, rec).Error)
	}

	// The student-facing routes are untouched by the decision limiter.
	rec = doJSON(t, router, http.MethodGet, "/api/v1/leave/requests/pending", teacherToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending status = %d, want 200", rec.Code)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/leave/catalog", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var data struct {
		Branches []struct {
			Branch  string            `json:"branch"`
			Batches []string          `json:"batches"`
			Mentors map[string]string `json:"mentors"`
		} `json:"branches"`
		Mentors []string `json:"mentors"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(data.Branches) != 7 {
		t.Fatalf("branches = %d, want 7", len(data.Branches))
	}
	if data.Branches[0].Branch != "BTECH CS" || data.Branches[0].Mentors["A1"] != "Sugam Shivare" {
		t.Fatalf("first branch = %+v", data.Branches[0])
	}
	if len(data.Mentors) != 9 {
		t.Fatalf("mentors = %d, want 9", len(data.Mentors))
	}
}
