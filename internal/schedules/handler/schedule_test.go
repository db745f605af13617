package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookline/internal/schedules/service"
	apperrors "bookline/pkg/errors"
	"bookline/pkg/logger"
	"bookline/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockScheduleService struct {
	getByScopeFunc func(ctx context.Context, company, department, date string) (*model.Schedule, error)
	createSlotFunc func(ctx context.Context, req *model.SlotCreate) (*model.Schedule, bool, error)
	deleteSlotFunc func(ctx context.Context, slotID string) error
	bookFunc       func(ctx context.Context, req *model.BookRequest) (*service.BookingReceipt, error)
	confirmFunc    func(ctx context.Context, req *model.ConfirmRequest) error
}

func (m *mockScheduleService) GetByScope(ctx context.Context, company, department, date string) (*model.Schedule, error) {
	if m.getByScopeFunc != nil {
		return m.getByScopeFunc(ctx, company, department, date)
	}
	return nil, apperrors.NotFound("Schedule")
}

func (m *mockScheduleService) CreateSlot(ctx context.Context, req *model.SlotCreate) (*model.Schedule, bool, error) {
	if m.createSlotFunc != nil {
		return m.createSlotFunc(ctx, req)
	}
	return nil, false, nil
}

func (m *mockScheduleService) DeleteSlot(ctx context.Context, slotID string) error {
	if m.deleteSlotFunc != nil {
		return m.deleteSlotFunc(ctx, slotID)
	}
	return nil
}

func (m *mockScheduleService) Book(ctx context.Context, req *model.BookRequest) (*service.BookingReceipt, error) {
	if m.bookFunc != nil {
		return m.bookFunc(ctx, req)
	}
	return &service.BookingReceipt{SlotID: req.SlotID, CustomerID: req.CustomerID, ExpiresIn: 300}, nil
}

func (m *mockScheduleService) Confirm(ctx context.Context, req *model.ConfirmRequest) error {
	if m.confirmFunc != nil {
		return m.confirmFunc(ctx, req)
	}
	return nil
}

func newTestRouter(svc service.ScheduleService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Service: "test"})
	router := httprouter.New()
	NewScheduleHandler(svc, log).RegisterRoutes(router)
	return router
}

func TestGet_ReturnsSlots(t *testing.T) {
	svc := &mockScheduleService{
		getByScopeFunc: func(ctx context.Context, company, department, date string) (*model.Schedule, error) {
			return &model.Schedule{
				ID: "sched-1",
				Slots: []model.Slot{
					{ID: "c-001", Start: "09:00", End: "10:00", Status: model.SlotAvailable},
				},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/schedule?company=acme&department=sales&date=2025-10-23", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body scheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Schedule) != 1 || body.Schedule[0].Start != "09:00" {
		t.Errorf("unexpected schedule body: %+v", body)
	}
	if body.Schedule[0].Booked {
		t.Error("expected an available slot to report booked=false")
	}
}

func TestGet_EmptyScopeAnswers204(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/schedule?company=acme&department=sales&date=2025-10-24", nil)
	newTestRouter(&mockScheduleService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for an empty scope, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}

func TestCreate_NewScheduleAnswers201(t *testing.T) {
	svc := &mockScheduleService{
		createSlotFunc: func(ctx context.Context, req *model.SlotCreate) (*model.Schedule, bool, error) {
			return &model.Schedule{ID: "sched-1"}, true, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/create",
		strings.NewReader(`{"company":"acme","department":"sales","date":"2025-10-23","start":"09:00","end":"10:00"}`))
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201 for a new schedule, got %d", rec.Code)
	}
}

func TestCreate_ExistingScopeAnswers200(t *testing.T) {
	svc := &mockScheduleService{
		createSlotFunc: func(ctx context.Context, req *model.SlotCreate) (*model.Schedule, bool, error) {
			return &model.Schedule{ID: "sched-1"}, false, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/create",
		strings.NewReader(`{"company":"acme","department":"sales","date":"2025-10-23","start":"10:00","end":"11:00"}`))
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an appended slot, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["message"] != "Schedule updated successfully" {
		t.Errorf("unexpected message: %q", body["message"])
	}
}

func TestCreate_ValidationFailureAnswers400(t *testing.T) {
	svc := &mockScheduleService{
		createSlotFunc: func(ctx context.Context, req *model.SlotCreate) (*model.Schedule, bool, error) {
			return nil, false, apperrors.Validation("Start time must be before end time", nil)
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/schedule/create",
		strings.NewReader(`{"company":"acme","department":"sales","date":"2025-10-23","start":"11:00","end":"10:00"}`))
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestBook_SuccessAnswers200(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/schedule/book",
		strings.NewReader(`{"slotId":"c-001","customerId":"user-a"}`))
	newTestRouter(&mockScheduleService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body bookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Message != "Booked successfully" {
		t.Errorf("unexpected message: %q", body.Message)
	}
	if body.ExpiresIn != 300 {
		t.Errorf("expected the TTL countdown in the response, got %d", body.ExpiresIn)
	}
}

func TestBook_ConflictAnswers400(t *testing.T) {
	svc := &mockScheduleService{
		bookFunc: func(ctx context.Context, req *model.BookRequest) (*service.BookingReceipt, error) {
			return nil, apperrors.Conflict("Already booked")
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/schedule/book",
		strings.NewReader(`{"slotId":"c-001","customerId":"user-b"}`))
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Already booked") {
		t.Errorf("expected conflict message in body, got %q", rec.Body.String())
	}
}

func TestBook_CustomerFromHeader(t *testing.T) {
	var captured string
	svc := &mockScheduleService{
		bookFunc: func(ctx context.Context, req *model.BookRequest) (*service.BookingReceipt, error) {
			captured = req.CustomerID
			return &service.BookingReceipt{SlotID: req.SlotID, CustomerID: req.CustomerID, ExpiresIn: 300}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/schedule/book",
		strings.NewReader(`{"slotId":"c-001"}`))
	req.Header.Set("X-Customer-ID", "user-h")
	newTestRouter(svc).ServeHTTP(rec, req)

	if captured != "user-h" {
		t.Errorf("expected customer id from header, got %q", captured)
	}
}

func TestDelete_BookedSlotAnswers400(t *testing.T) {
	svc := &mockScheduleService{
		deleteSlotFunc: func(ctx context.Context, slotID string) error {
			return apperrors.Conflict("Cannot delete a booked slot")
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/schedule/delete/c-001", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a booked slot, got %d", rec.Code)
	}
}

func TestDelete_SuccessAnswers200(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/schedule/delete/c-002", nil)
	newTestRouter(&mockScheduleService{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Delete Successful") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestDelete_MissingSlotAnswers204(t *testing.T) {
	svc := &mockScheduleService{
		deleteSlotFunc: func(ctx context.Context, slotID string) error {
			return apperrors.NotFound("Slot")
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/schedule/delete/c-404", nil)
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for a missing slot, got %d", rec.Code)
	}
}
