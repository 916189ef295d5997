package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"home-service-server/database"
	"home-service-server/middleware"
	"home-service-server/models"
	"home-service-server/services"
)

// createBooking creates a new booking for the authenticated customer. The
// engine re-checks partner availability immediately before the write.
func createBooking(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.BookingCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var start time.Time
	if req.ScheduledTime != "" {
		parsed, err := time.Parse(time.RFC3339, req.ScheduledTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_time must be RFC3339"})
			return
		}
		start = parsed
	}

	booking, err := matching.CreateBooking(c.Request.Context(), services.CreateBookingRequest{
		CustomerID:  userID,
		PartnerID:   req.PartnerID,
		ServiceID:   req.ServiceID,
		Start:       start,
		Address:     req.Address,
		LocationLat: req.LocationLat,
		LocationLng: req.LocationLng,
		SelfDrop:    req.SelfDrop,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking created successfully",
		"booking": booking,
	})
}

// getMyBookings returns all bookings created by the current user
func getMyBookings(c *gin.Context) {
	userID := c.GetUint("user_id")

	bookings, err := bookingStore.ForCustomer(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings":    bookings,
		"total_count": len(bookings),
	})
}

// getAssignedBookings returns the bookings assigned to the current partner
func getAssignedBookings(c *gin.Context) {
	userID := c.GetUint("user_id")

	profile, err := directory.GetPartnerByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load partner profile"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Partner profile not found"})
		return
	}

	bookings, err := bookingStore.ForPartner(c.Request.Context(), profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings":    bookings,
		"total_count": len(bookings),
	})
}

// getBooking returns a specific booking; only the customer, the assigned
// partner or an admin may read it.
func getBooking(c *gin.Context) {
	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	booking, err := bookingService.GetBooking(
		c.Request.Context(), uint(bookingID), c.GetUint("user_id"), middleware.ActorRole(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// updateBookingStatus advances a booking through the lifecycle graph.
func updateBookingStatus(c *gin.Context) {
	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req models.BookingStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := bookingService.TransitionStatus(
		c.Request.Context(), uint(bookingID), req.Status,
		c.GetUint("user_id"), middleware.ActorRole(c), req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking status updated",
		"booking": booking,
	})
}

// cancelBooking is sugar over the cancelled transition.
func cancelBooking(c *gin.Context) {
	bookingID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	booking, err := bookingService.TransitionStatus(
		c.Request.Context(), uint(bookingID), models.BookingStatusCancelled,
		c.GetUint("user_id"), middleware.ActorRole(c), req.Reason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled",
		"booking": booking,
	})
}

// getAllBookings lists every booking for the admin dashboard.
func getAllBookings(c *gin.Context) {
	var bookings []models.Booking
	if err := database.DB.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Limit(200).
		Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings":    bookings,
		"total_count": len(bookings),
	})
}
