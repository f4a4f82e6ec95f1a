package handler

import (
	"github.com/BnBPlug/service-reservation/internal/application"
	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/BnBPlug/service-reservation/internal/platform/auth"
	"github.com/BnBPlug/service-reservation/internal/platform/middleware"
	"github.com/BnBPlug/service-reservation/internal/platform/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReservationHandler handles HTTP requests for the booking workflow and
// confirmed reservations.
type ReservationHandler struct {
	service *application.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(service *application.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

type cancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// RegisterRoutes registers all reservation routes on the given router group.
// Drafts accept anonymous guests; history and cancellation need a token.
func (h *ReservationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	drafts := r.Group("/api/v1/reservations/drafts")
	drafts.Use(middleware.OptionalAuthMiddleware(jwtManager))
	{
		drafts.POST("", h.StartBooking)
		drafts.GET("/:id", h.GetDraft)
		drafts.POST("/:id/guest", h.SubmitGuestDetails)
		drafts.POST("/:id/back", h.ReturnToGuestInfo)
		drafts.PUT("/:id/payment", h.SelectPaymentMethod)
		drafts.POST("/:id/confirm", h.Confirm)
		drafts.POST("/:id/quote", h.RecomputeQuote)
		drafts.DELETE("/:id", h.AbandonBooking)
	}

	reservations := r.Group("/api/v1/reservations")
	reservations.Use(middleware.AuthMiddleware(jwtManager))
	{
		reservations.GET("", h.ListReservations)
		reservations.GET("/summary", h.GetSummary)
		reservations.GET("/:bookingId", h.GetReservation)
		reservations.POST("/:bookingId/cancel", h.CancelReservation)
	}
}

// StartBooking handles POST /api/v1/reservations/drafts.
func (h *ReservationHandler) StartBooking(c *gin.Context) {
	var req application.StartBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.StartBooking(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetDraft handles GET /api/v1/reservations/drafts/:id.
func (h *ReservationHandler) GetDraft(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}

	result, err := h.service.GetDraft(c.Request.Context(), draftID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SubmitGuestDetails handles POST /api/v1/reservations/drafts/:id/guest.
func (h *ReservationHandler) SubmitGuestDetails(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}

	var req reservation.GuestDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SubmitGuestDetails(c.Request.Context(), draftID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReturnToGuestInfo handles POST /api/v1/reservations/drafts/:id/back.
func (h *ReservationHandler) ReturnToGuestInfo(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}

	result, err := h.service.ReturnToGuestInfo(c.Request.Context(), draftID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SelectPaymentMethod handles PUT /api/v1/reservations/drafts/:id/payment.
func (h *ReservationHandler) SelectPaymentMethod(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}

	var req reservation.PaymentSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SelectPaymentMethod(c.Request.Context(), draftID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Confirm handles POST /api/v1/reservations/drafts/:id/confirm.
func (h *ReservationHandler) Confirm(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}

	var req reservation.PaymentSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Confirm(c.Request.Context(), draftID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// RecomputeQuote handles POST /api/v1/reservations/drafts/:id/quote.
func (h *ReservationHandler) RecomputeQuote(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}

	var req application.RecomputeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RecomputeQuote(c.Request.Context(), draftID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AbandonBooking handles DELETE /api/v1/reservations/drafts/:id.
func (h *ReservationHandler) AbandonBooking(c *gin.Context) {
	draftID, ok := parseDraftID(c)
	if !ok {
		return
	}

	if err := h.service.AbandonBooking(c.Request.Context(), draftID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListReservations handles GET /api/v1/reservations.
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.ListUserReservations(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetSummary handles GET /api/v1/reservations/summary.
func (h *ReservationHandler) GetSummary(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetUserSummary(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetReservation handles GET /api/v1/reservations/:bookingId.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetReservation(c.Request.Context(), userID, c.Param("bookingId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelReservation handles POST /api/v1/reservations/:bookingId/cancel.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.service.CancelReservation(c.Request.Context(), userID, c.Param("bookingId"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

func parseDraftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid draft ID")
		return uuid.Nil, false
	}
	return id, true
}
