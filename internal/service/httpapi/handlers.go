package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vladislavdragonenkov/atelier/internal/domain"
	"github.com/vladislavdragonenkov/atelier/internal/service/tracker"
)

type createOrderRequest struct {
	ID             string  `json:"id,omitempty"`
	Description    string  `json:"description,omitempty"`
	PlannedMinutes float64 `json:"planned_minutes,omitempty"`
	PlannedQty     float64 `json:"planned_qty,omitempty"`
}

type orderResponse struct {
	ID             string    `json:"id"`
	Description    string    `json:"description,omitempty"`
	PlannedMinutes float64   `json:"planned_minutes"`
	PlannedQty     float64   `json:"planned_qty"`
	RealizedQty    float64   `json:"realized_qty"`
	Status         string    `json:"status"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type recordEventRequest struct {
	Kind     string  `json:"kind"`
	Occurred string  `json:"occurred"`
	Cause    string  `json:"cause,omitempty"`
	Note     string  `json:"note,omitempty"`
	Qty      float64 `json:"qty,omitempty"`
}

type eventResponse struct {
	Seq      int64     `json:"seq"`
	OrderID  string    `json:"order_id"`
	Kind     string    `json:"kind"`
	Occurred time.Time `json:"occurred"`
	Cause    string    `json:"cause,omitempty"`
	Note     string    `json:"note,omitempty"`
	Qty      float64   `json:"qty,omitempty"`
	Status   string    `json:"status"`
}

type intervalResponse struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Mode    string    `json:"mode"`
	Cause   string    `json:"cause,omitempty"`
	Note    string    `json:"note,omitempty"`
	Minutes float64   `json:"minutes"`
}

type timelineResponse struct {
	OrderID   string             `json:"order_id"`
	AsOf      time.Time          `json:"as_of"`
	Intervals []intervalResponse `json:"intervals"`
}

type ratioResponse struct {
	Percent     float64 `json:"percent"`
	HasBaseline bool    `json:"has_baseline"`
}

type progressResponse struct {
	OrderID           string        `json:"order_id"`
	Status            string        `json:"status"`
	TimeProgress      ratioResponse `json:"time_progress"`
	Throughput        ratioResponse `json:"throughput"`
	ProductionMinutes float64       `json:"production_minutes"`
	DowntimeMinutes   float64       `json:"downtime_minutes"`
	AsOf              time.Time     `json:"as_of"`
}

type causeCountResponse struct {
	Cause string `json:"cause"`
	Count int    `json:"count"`
}

type downtimeReportResponse struct {
	OrderID string               `json:"order_id,omitempty"`
	AsOf    time.Time            `json:"as_of"`
	Causes  []causeCountResponse `json:"causes"`
}

type errorResponse struct {
	Error string `json:"error"`
	// Status — текущий статус заказа при отклонённой записи.
	Status string `json:"status,omitempty"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body", "")
		return
	}

	order, err := s.tracker.CreateOrder(tracker.CreateOrderParams{
		ID:             req.ID,
		Description:    req.Description,
		PlannedMinutes: req.PlannedMinutes,
		PlannedQty:     req.PlannedQty,
	})
	if err != nil {
		s.writeDomainError(w, err, "")
		return
	}

	s.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", "")
			return
		}
		limit = parsed
	}

	orders, err := s.tracker.ListOrders(limit)
	if err != nil {
		s.writeDomainError(w, err, "")
		return
	}

	result := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, toOrderResponse(order))
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.tracker.GetOrder(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err, "")
		return
	}
	s.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (s *Server) handleRecordEvent(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req recordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body", "")
		return
	}

	kind, err := domain.ParseEventKind(req.Kind)
	if err != nil {
		s.writeDomainError(w, err, orderID)
		return
	}
	occurred, err := time.Parse(time.RFC3339, req.Occurred)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "occurred must be an RFC 3339 timestamp", "")
		return
	}

	stored, err := s.tracker.RecordEvent(domain.Event{
		OrderID:  orderID,
		Kind:     kind,
		Occurred: occurred,
		Cause:    req.Cause,
		Note:     req.Note,
		Qty:      req.Qty,
	})
	if err != nil {
		s.writeDomainError(w, err, orderID)
		return
	}

	order, err := s.tracker.GetOrder(orderID)
	if err != nil {
		s.writeDomainError(w, err, "")
		return
	}

	s.writeJSON(w, http.StatusCreated, eventResponse{
		Seq:      stored.Seq,
		OrderID:  stored.OrderID,
		Kind:     string(stored.Kind),
		Occurred: stored.Occurred,
		Cause:    stored.Cause,
		Note:     stored.Note,
		Qty:      stored.Qty,
		Status:   string(order.Status),
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	asOf, ok := s.parseAsOf(w, r)
	if !ok {
		return
	}

	intervals, err := s.reporter.Timeline(orderID, asOf)
	if err != nil {
		s.writeDomainError(w, err, "")
		return
	}

	result := timelineResponse{
		OrderID:   orderID,
		AsOf:      asOf,
		Intervals: make([]intervalResponse, 0, len(intervals)),
	}
	for _, interval := range intervals {
		result.Intervals = append(result.Intervals, intervalResponse{
			Start:   interval.Start,
			End:     interval.End,
			Mode:    string(interval.Mode),
			Cause:   interval.Cause,
			Note:    interval.Note,
			Minutes: interval.Minutes(),
		})
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	asOf, ok := s.parseAsOf(w, r)
	if !ok {
		return
	}

	progress, err := s.reporter.Progress(r.PathValue("id"), asOf)
	if err != nil {
		s.writeDomainError(w, err, "")
		return
	}

	s.writeJSON(w, http.StatusOK, progressResponse{
		OrderID:           progress.OrderID,
		Status:            string(progress.Status),
		TimeProgress:      ratioResponse(progress.TimeProgress),
		Throughput:        ratioResponse(progress.Throughput),
		ProductionMinutes: progress.ProductionMinutes,
		DowntimeMinutes:   progress.DowntimeMinutes,
		AsOf:              progress.AsOf,
	})
}

func (s *Server) handleDowntimeReport(w http.ResponseWriter, r *http.Request) {
	asOf, ok := s.parseAsOf(w, r)
	if !ok {
		return
	}
	orderID := r.URL.Query().Get("order_id")

	pareto, err := s.reporter.DowntimePareto(orderID, asOf)
	if err != nil {
		s.writeDomainError(w, err, "")
		return
	}

	result := downtimeReportResponse{
		OrderID: orderID,
		AsOf:    asOf,
		Causes:  make([]causeCountResponse, 0, len(pareto)),
	}
	for _, row := range pareto {
		result.Causes = append(result.Causes, causeCountResponse(row))
	}
	s.writeJSON(w, http.StatusOK, result)
}

// parseAsOf извлекает момент отчёта из query; по умолчанию — текущее время.
func (s *Server) parseAsOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now().UTC(), true
	}
	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "as_of must be an RFC 3339 timestamp", "")
		return time.Time{}, false
	}
	return asOf, true
}

// writeDomainError переводит доменную ошибку в HTTP статус. Для
// отклонённой записи в ответ добавляется текущий статус заказа.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, orderID string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedEvent),
		errors.Is(err, domain.ErrOrderIDRequired),
		errors.Is(err, domain.ErrPlannedMinutesNegative),
		errors.Is(err, domain.ErrPlannedQtyNegative):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrOrderAlreadyExists),
		errors.Is(err, domain.ErrOrderVersionConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
		s.writeError(w, status, "internal error", "")
		return
	}

	currentStatus := ""
	if orderID != "" && errors.Is(err, domain.ErrInvalidTransition) {
		if order, getErr := s.tracker.GetOrder(orderID); getErr == nil {
			currentStatus = string(order.Status)
		}
	}
	s.writeError(w, status, err.Error(), currentStatus)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, orderStatus string) {
	s.writeJSON(w, status, errorResponse{Error: message, Status: orderStatus})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	return orderResponse{
		ID:             order.ID,
		Description:    order.Description,
		PlannedMinutes: order.PlannedMinutes,
		PlannedQty:     order.PlannedQty,
		RealizedQty:    order.RealizedQty,
		Status:         string(order.Status),
		Version:        order.Version,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}
