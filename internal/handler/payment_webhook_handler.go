package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/service"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/pkg/redsys"

	"github.com/gin-gonic/gin"
)

// webhookTimeout bounds the store round trips for one delivery. On timeout we
// answer 5xx and the processor redelivers.
const webhookTimeout = 5 * time.Second

type PaymentWebhookHandler struct {
	svc *service.PaymentService
}

func NewPaymentWebhookHandler(svc *service.PaymentService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{svc: svc}
}

// Handle processes one processor notification. Rejections are answered with a
// generic 400 so the response does not leak why verification failed; the real
// reason lands in the audit log only.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification"})
		return
	}
	n, err := redsys.ParseNotification(c.Request.PostForm, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), webhookTimeout)
	defer cancel()
	res, err := h.svc.HandleNotification(ctx, n, actorFromContext(c))
	if err != nil {
		if err == service.ErrReservationNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown reservation"})
			return
		}
		log.Printf("[Redsys] notification handling failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure"})
		return
	}
	if res.Rejected != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification"})
		return
	}
	c.String(http.StatusOK, "OK")
}
