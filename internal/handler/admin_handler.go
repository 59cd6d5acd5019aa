package handler

import (
	"net/http"
	"strconv"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/repository"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	reservationRepo *repository.ReservationRepository
	auditRepo       *repository.AuditLogRepository
	paymentSvc      *service.PaymentService
}

func NewAdminHandler(reservationRepo *repository.ReservationRepository, auditRepo *repository.AuditLogRepository, paymentSvc *service.PaymentService) *AdminHandler {
	return &AdminHandler{reservationRepo: reservationRepo, auditRepo: auditRepo, paymentSvc: paymentSvc}
}

func (h *AdminHandler) ListReservations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	out, err := h.reservationRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": out})
}

func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	out, err := h.auditRepo.List(c.Request.Context(), c.Query("event_type"), c.Query("order_number"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": out})
}

// Capture builds the signed confirmation request for a preauthorized
// reservation. The reservation moves to confirmed only when the processor's
// confirmation webhook arrives.
func (h *AdminHandler) Capture(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}
	signed, err := h.paymentSvc.CreateCapture(c.Request.Context(), uint(id), actorFromContext(c))
	if err != nil {
		switch err {
		case service.ErrReservationNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		case service.ErrReservationNotCapture:
			c.JSON(http.StatusConflict, gin.H{"error": "reservation has no preauthorization to capture"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "capture failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"Ds_SignatureVersion":   signed.SignatureVersion,
		"Ds_MerchantParameters": signed.MerchantParameters,
		"Ds_Signature":          signed.Signature,
	})
}
