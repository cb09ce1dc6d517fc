package routes

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"vehicle-rental-server/config"
	"vehicle-rental-server/services"
)

// PaymentRoutes sets up the payment provider webhook. The webhook is
// authenticated with a shared secret header instead of a user token.
func PaymentRoutes(router *gin.Engine, engine *services.BookingEngine) {
	bookingEngine = engine

	payments := router.Group("/api/v1/payments")
	{
		payments.POST("/confirm", handlePaymentConfirmed)
	}
}

// handlePaymentConfirmed consumes the provider's payment-confirmed event.
// Redeliveries are safe: the engine treats an already-paid booking as a no-op.
func handlePaymentConfirmed(c *gin.Context) {
	secret := config.AppConfig.Payment.WebhookSecret
	provided := c.GetHeader("X-Webhook-Secret")
	if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
		return
	}

	var request struct {
		BookingID uint `json:"booking_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	booking, err := bookingEngine.HandlePaymentConfirmed(request.BookingID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
			return
		}
		log.Printf("❌ Payment confirmation failed for booking %d: %v", request.BookingID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Printf("💳 Payment confirmed for booking %d (status %s)", booking.ID, booking.Status)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": booking,
	})
}
