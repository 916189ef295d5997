package routes

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"home-service-server/config"
	"home-service-server/database"
	"home-service-server/models"
	"home-service-server/services"
	"home-service-server/utils"
)

// checkPartnerAvailability reports busy/free for one partner and candidate
// slot, with the conflicting booking for diagnostics.
func checkPartnerAvailability(c *gin.Context) {
	partnerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid partner ID"})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
		return
	}

	partner, err := directory.GetPartner(c.Request.Context(), uint(partnerID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch partner"})
		return
	}
	if partner == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
		return
	}

	cfg := config.Booking()
	available, conflict, err := availability.IsPartnerAvailable(
		c.Request.Context(), uint(partnerID), start, utils.SlotEnd(start, cfg.SlotDuration))
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := gin.H{"available": available}
	if conflict != nil {
		resp["conflict"] = gin.H{
			"booking_reference": conflict.Reference,
			"scheduled_time":    conflict.ScheduledTime,
			"status":            conflict.Status,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// listBusyPartners returns the partner IDs busy for a candidate slot,
// optionally restricted to ids=1,2,3.
func listBusyPartners(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
		return
	}

	var ids []uint
	if raw := c.Query("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "ids must be a comma-separated list of partner IDs"})
				return
			}
			ids = append(ids, uint(id))
		}
	}

	cfg := config.Booking()
	busy, err := availability.BusyPartnerIDs(
		c.Request.Context(), start, utils.SlotEnd(start, cfg.SlotDuration), ids)
	if err != nil {
		respondWithError(c, err)
		return
	}

	busyIDs := make([]uint, 0, len(busy))
	for id := range busy {
		busyIDs = append(busyIDs, id)
	}
	c.JSON(http.StatusOK, gin.H{
		"busy_partner_ids": busyIDs,
		"total_count":      len(busyIDs),
	})
}

// rankPartnersForService produces the tiered, priced partner list for a
// service request.
func rankPartnersForService(c *gin.Context) {
	serviceID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid service ID"})
		return
	}

	req := services.MatchRequest{
		ServiceID: uint(serviceID),
		SelfDrop:  c.Query("self_drop") == "true",
	}

	if raw := c.Query("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
			return
		}
		req.Start = start
	}

	latRaw, lngRaw := c.Query("lat"), c.Query("lng")
	if latRaw != "" && lngRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr != nil || lngErr != nil || !utils.IsLocationValid(lat, lng) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location coordinates"})
			return
		}
		req.CustomerLocation = &utils.Location{Latitude: lat, Longitude: lng}
	}

	matches, err := matching.RankPartners(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"partners":    matches,
		"total_count": len(matches),
	})
}

// getPartner returns a partner profile
func getPartner(c *gin.Context) {
	partnerID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid partner ID"})
		return
	}

	partner, err := directory.GetPartner(c.Request.Context(), uint(partnerID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch partner"})
		return
	}
	if partner == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Partner not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"partner": partner})
}

// updatePartnerAvailability toggles the manual online/offline flag for the
// authenticated partner, optionally refreshing their location.
func updatePartnerAvailability(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req models.PartnerAvailabilityUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := directory.GetPartnerByUserID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load partner profile"})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Partner profile not found"})
		return
	}

	updates := map[string]interface{}{
		"is_available": req.IsAvailable,
		"last_seen_at": time.Now(),
	}
	if req.Latitude != nil && req.Longitude != nil {
		if !utils.IsLocationValid(*req.Latitude, *req.Longitude) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location coordinates"})
			return
		}
		updates["current_lat"] = *req.Latitude
		updates["current_lng"] = *req.Longitude
	}

	if err := database.DB.WithContext(c.Request.Context()).
		Model(&models.PartnerProfile{}).
		Where("id = ?", profile.ID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update availability"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Availability updated",
		"is_available": req.IsAvailable,
	})
}
