package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"home-service-server/database"
	"home-service-server/services"
)

// Package-level collaborators, wired once from main.
var (
	matching       *services.MatchingEngine
	bookingService *services.BookingService
	availability   *services.AvailabilityChecker
	bookingStore   *database.BookingStore
	directory      services.Directory
)

// Init wires the handlers to the engine and stores.
func Init(
	m *services.MatchingEngine,
	b *services.BookingService,
	a *services.AvailabilityChecker,
	store *database.BookingStore,
	dir services.Directory,
) {
	matching = m
	bookingService = b
	availability = a
	bookingStore = store
	directory = dir
}

// RegisterProtectedRoutes registers the authenticated API surface.
func RegisterProtectedRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/bookings")
	{
		bookings.POST("", createBooking)
		bookings.GET("/my", getMyBookings)
		bookings.GET("/assigned", getAssignedBookings)
		bookings.GET("/:id", getBooking)
		bookings.PUT("/:id/status", updateBookingStatus)
		bookings.POST("/:id/cancel", cancelBooking)
	}

	partners := router.Group("/partners")
	{
		partners.GET("/busy", listBusyPartners)
		partners.GET("/:id", getPartner)
		partners.GET("/:id/availability", checkPartnerAvailability)
		partners.PATCH("/availability", updatePartnerAvailability)
	}

	router.GET("/services/:id/partners", rankPartnersForService)

	notifications := router.Group("/notifications")
	{
		notifications.GET("", getUserNotifications)
		notifications.GET("/unread-count", getUnreadCount)
		notifications.POST("/:id/read", markNotificationAsRead)
	}
}

// RegisterPublicRoutes registers the unauthenticated catalog reads.
func RegisterPublicRoutes(router *gin.RouterGroup) {
	router.GET("/categories", getCategories)
	router.GET("/services", getServices)
	router.GET("/services/:id", getService)
}

// RegisterAdminRoutes registers catalog management for admins.
func RegisterAdminRoutes(router *gin.RouterGroup) {
	router.GET("/bookings", getAllBookings)
	router.POST("/services", createService)
	router.PUT("/services/:id", updateService)
	router.POST("/categories", createCategory)
	router.PUT("/categories/:id", updateCategory)
}

// respondWithError translates the engine's typed errors into HTTP responses.
func respondWithError(c *gin.Context, err error) {
	if ite, ok := services.AsInvalidTransition(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":            "Invalid status transition",
			"current_status":   ite.From,
			"requested_status": ite.To,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, services.ErrPartnerNoLongerAvailable):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Partner no longer available",
			"code":    "partner_no_longer_available",
			"message": "The selected partner was booked by someone else. Please pick another partner.",
		})
	case errors.Is(err, services.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable, please retry"})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
