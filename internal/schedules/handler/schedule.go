package handler

import (
	"encoding/json"
	"net/http"

	"bookline/internal/schedules/service"
	"bookline/pkg/httputil"
	"bookline/pkg/logger"
	"bookline/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ScheduleHandler struct {
	service service.ScheduleService
	log     *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		log:     log,
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/schedule", h.Get)
	router.POST("/api/schedule/create", h.Create)
	router.PUT("/api/schedule/book", h.Book)
	router.PUT("/api/schedule/confirm", h.Confirm)
	router.DELETE("/api/schedule/delete/:id", h.Delete)
}

// slotView adds the legacy boolean alongside the tri-state status; older
// clients only check "booked".
type slotView struct {
	ID         string           `json:"id"`
	Start      string           `json:"start"`
	End        string           `json:"end"`
	Status     model.SlotStatus `json:"status"`
	Booked     bool             `json:"booked"`
	CustomerID string           `json:"customerId,omitempty"`
}

type scheduleResponse struct {
	ScheduleID string     `json:"scheduleId"`
	Schedule   []slotView `json:"schedule"`
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	schedule, err := h.service.GetByScope(r.Context(),
		query.Get("company"),
		query.Get("department"),
		query.Get("date"),
	)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views := make([]slotView, 0, len(schedule.Slots))
	for _, slot := range schedule.Slots {
		views = append(views, slotView{
			ID:         slot.ID,
			Start:      slot.Start,
			End:        slot.End,
			Status:     slot.Status,
			Booked:     slot.Taken(),
			CustomerID: slot.CustomerID,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, scheduleResponse{
		ScheduleID: schedule.ID,
		Schedule:   views,
	})
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SlotCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.FailureResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}

	_, created, err := h.service.CreateSlot(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if created {
		httputil.WriteMessage(w, http.StatusCreated, "Schedule created successfully")
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Schedule updated successfully")
}

type bookResponse struct {
	Message   string `json:"message"`
	SlotID    string `json:"slotId"`
	ExpiresIn int    `json:"expiresIn"`
}

func (h *ScheduleHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.FailureResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}
	if req.CustomerID == "" {
		req.CustomerID = r.Header.Get("X-Customer-ID")
	}

	receipt, err := h.service.Book(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, bookResponse{
		Message:   "Booked successfully",
		SlotID:    receipt.SlotID,
		ExpiresIn: receipt.ExpiresIn,
	})
}

func (h *ScheduleHandler) Confirm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.FailureResponse{
			Success: false,
			Message: "Invalid request body",
		})
		return
	}
	if req.CustomerID == "" {
		req.CustomerID = r.Header.Get("X-Customer-ID")
	}

	if err := h.service.Confirm(r.Context(), &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Booking confirmed")
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteSlot(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Delete Successful")
}
