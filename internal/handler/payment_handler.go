package handler

import (
	"net/http"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/config"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/middleware"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/service"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/pkg/redsys"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	cfg *config.Config
	svc *service.PaymentService
}

func NewPaymentHandler(cfg *config.Config, svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{cfg: cfg, svc: svc}
}

// Initiate builds the signed redirect request for a pending reservation. The
// client renders the returned fields as a self-submitting form to the
// processor endpoint.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var req struct {
		ReservationID uint `json:"reservation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := actorFromContext(c)
	signed, order, err := h.svc.CreatePayment(c.Request.Context(), req.ReservationID, actor)
	if err != nil {
		switch err.(type) {
		case *redsys.ValidationError:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment request"})
			return
		}
		switch err {
		case service.ErrReservationNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		case service.ErrReservationNotPayable:
			c.JSON(http.StatusConflict, gin.H{"error": "reservation is not awaiting payment"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "payment creation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"endpoint":              h.cfg.Redsys.EndpointURL,
		"order_number":          order,
		"Ds_SignatureVersion":   signed.SignatureVersion,
		"Ds_MerchantParameters": signed.MerchantParameters,
		"Ds_Signature":          signed.Signature,
	})
}

// ReturnOK and ReturnKO land the URLOK/URLKO redirects. Payment state only
// ever changes through the webhook; these just tell the browser where it is.
func (h *PaymentHandler) ReturnOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": "ok", "message": "payment accepted, confirmation in progress"})
}

func (h *PaymentHandler) ReturnKO(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": "ko", "message": "payment was not completed"})
}

func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Email:     middleware.GetUserEmail(c),
		RequestID: middleware.GetRequestID(c),
	}
	if id := middleware.GetUserID(c); id != 0 {
		actor.ID = &id
	}
	return actor
}
