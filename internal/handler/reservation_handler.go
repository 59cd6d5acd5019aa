package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/domain"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/middleware"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/models"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReservationHandler struct {
	reservationRepo *repository.ReservationRepository
	excursionRepo   *repository.ExcursionRepository
	auditRepo       *repository.AuditLogRepository
}

func NewReservationHandler(reservationRepo *repository.ReservationRepository, excursionRepo *repository.ExcursionRepository, auditRepo *repository.AuditLogRepository) *ReservationHandler {
	return &ReservationHandler{reservationRepo: reservationRepo, excursionRepo: excursionRepo, auditRepo: auditRepo}
}

func (h *ReservationHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		ExcursionID  uint   `json:"excursion_id" binding:"required"`
		Date         string `json:"date" binding:"required"` // YYYY-MM-DD
		Participants int    `json:"participants" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format (use YYYY-MM-DD)"})
		return
	}
	exc, err := h.excursionRepo.GetByID(c.Request.Context(), req.ExcursionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "excursion not found"})
		return
	}
	if !exc.Active {
		c.JSON(http.StatusConflict, gin.H{"error": "excursion is not bookable"})
		return
	}
	if req.Participants > exc.MaxParticipants {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many participants"})
		return
	}
	res := &models.Reservation{
		UserID:           userID,
		ExcursionID:      exc.ID,
		Date:             date,
		Participants:     req.Participants,
		Status:           domain.ReservationPending,
		PaymentStatus:    domain.PaymentPending,
		TotalAmountCents: exc.PriceCents * int64(req.Participants),
		Currency:         exc.Currency,
	}
	if err := h.reservationRepo.Create(c.Request.Context(), res); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reservation create failed"})
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ReservationHandler) ListMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	out, err := h.reservationRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": out})
}

func (h *ReservationHandler) Get(c *gin.Context) {
	res, ok := h.ownedReservation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// Cancel marks a reservation cancelled. Cancelled is terminal and is never
// produced by webhooks; later webhook deliveries for it are log-only.
func (h *ReservationHandler) Cancel(c *gin.Context) {
	res, ok := h.ownedReservation(c)
	if !ok {
		return
	}
	switch res.Status {
	case domain.ReservationConfirmed, domain.ReservationCancelled, domain.ReservationRejected:
		c.JSON(http.StatusConflict, gin.H{"error": "reservation can no longer be cancelled"})
		return
	}
	res.Status = domain.ReservationCancelled
	if err := h.reservationRepo.Update(c.Request.Context(), res); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel failed"})
		return
	}
	uid := middleware.GetUserID(c)
	_ = h.auditRepo.Create(c.Request.Context(), &models.AuditLog{
		EventType:   domain.EventReservationCancelled,
		ActorID:     &uid,
		ActorEmail:  middleware.GetUserEmail(c),
		OrderNumber: res.PaymentID,
		AmountCents: res.TotalAmountCents,
		Success:     true,
		RequestID:   middleware.GetRequestID(c),
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) ownedReservation(c *gin.Context) (*models.Reservation, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return nil, false
	}
	res, err := h.reservationRepo.GetByID(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return nil, false
	}
	if res.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return nil, false
	}
	return res, true
}
