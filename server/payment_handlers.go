package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) createPaymentIntent(c *gin.Context) {
	var req struct {
		Amount int64 `json:"amount" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := s.payments.CreateIntent(c.Request.Context(), identityFrom(c).UserID, c.Param("id"), req.Amount)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payment_intent_id": intent.ID,
		"client_secret":     intent.ClientSecret,
	})
}

func (s *Server) selectCashPayment(c *gin.Context) {
	ord, err := s.payments.SelectCash(c.Request.Context(), identityFrom(c).UserID, c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ord)
}

// handleStripeWebhook verifies the signature, then reconciles. An invalid
// signature is the only client-visible rejection; anything else the
// coordinator could not match is acknowledged so the processor stops
// retrying, and genuine storage failures return 500 to request a redelivery.
func (s *Server) handleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := s.payments.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		s.writeError(c, err)
		return
	}

	if err := s.payments.HandleProcessorEvent(c.Request.Context(), event); err != nil {
		s.logger.Error("Webhook processing failed",
			zap.String("event_id", event.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook handler failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
