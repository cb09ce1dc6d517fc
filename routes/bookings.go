package routes

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vehicle-rental-server/middleware"
	"vehicle-rental-server/models"
	"vehicle-rental-server/services"
)

var bookingEngine *services.BookingEngine

// BookingRoutes sets up booking-related routes
func BookingRoutes(router *gin.Engine, engine *services.BookingEngine) {
	bookingEngine = engine

	bookings := router.Group("/api/v1/bookings")
	bookings.Use(middleware.AuthMiddleware())
	{
		bookings.POST("", createBooking)
		bookings.GET("/my-bookings", getMyBookings)
		bookings.GET("/:id", getBooking)
		bookings.PUT("/:id/status", updateBookingStatus)
		bookings.DELETE("/:id", cancelBooking)
	}
}

// respondBookingError maps engine errors to HTTP responses
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, services.ErrVehicleUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vehicle is not available for the selected dates"})
	case errors.Is(err, services.ErrInvalidDates):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Return date must be after pickup date"})
	case errors.Is(err, services.ErrAlreadyTerminal):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Booking is already completed or cancelled"})
	case errors.Is(err, services.ErrAlreadyCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Completed bookings cannot be cancelled"})
	case errors.Is(err, services.ErrAlreadyActive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Active rentals cannot be cancelled"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status transition"})
	default:
		log.Printf("❌ Booking operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// createBooking creates a new booking request for a vehicle
func createBooking(c *gin.Context) {
	userID := c.GetUint("user_id")

	var request struct {
		VehicleID  uint      `json:"vehicle_id" binding:"required"`
		PickupDate time.Time `json:"pickup_date" binding:"required"`
		ReturnDate time.Time `json:"return_date" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	booking, err := bookingEngine.CreateBooking(userID, request.VehicleID, request.PickupDate, request.ReturnDate)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"booking": booking,
	})
}

// getMyBookings returns all bookings where the user is renter or owner
func getMyBookings(c *gin.Context) {
	userID := c.GetUint("user_id")

	bookings, err := bookingEngine.ListBookingsForUser(userID)
	if err != nil {
		log.Printf("❌ Error fetching bookings for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"bookings": bookings,
	})
}

// getBooking returns a single booking visible to the authenticated user
func getBooking(c *gin.Context) {
	userID := c.GetUint("user_id")
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	booking, getErr := bookingEngine.GetBooking(uint(bookingID), userID)
	if getErr != nil {
		respondBookingError(c, getErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": booking,
	})
}

// updateBookingStatus moves a booking through its lifecycle (owner actions)
func updateBookingStatus(c *gin.Context) {
	userID := c.GetUint("user_id")
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var request struct {
		Status string `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	target := models.BookingStatus(request.Status)
	switch target {
	case models.BookingStatusConfirmed, models.BookingStatusActive,
		models.BookingStatusCompleted, models.BookingStatusCancelled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown booking status"})
		return
	}

	booking, transErr := bookingEngine.TransitionStatus(uint(bookingID), userID, target)
	if transErr != nil {
		respondBookingError(c, transErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": booking,
	})
}

// cancelBooking cancels a pending or confirmed booking (renter action)
func cancelBooking(c *gin.Context) {
	userID := c.GetUint("user_id")
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	booking, cancelErr := bookingEngine.CancelBooking(uint(bookingID), userID)
	if cancelErr != nil {
		respondBookingError(c, cancelErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"booking": booking,
		"message": "Booking cancelled",
	})
}
