package services

import (
	"log"

	"home-service-server/database"
	"home-service-server/models"
)

// NotificationService persists notification rows for the in-app inbox and
// hands the intent to the external delivery collaborator. Delivery failures
// are logged and swallowed; they never fail the booking operation.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) Notify(userID uint, title, body, notificationType, linkHint string) {
	if userID == 0 {
		return
	}

	notification := models.Notification{
		UserID:   userID,
		Title:    title,
		Body:     body,
		Type:     notificationType,
		LinkHint: linkHint,
	}
	if err := database.DB.Create(&notification).Error; err != nil {
		log.Printf("failed to persist notification for user %d: %v", userID, err)
		return
	}

	// Push/websocket delivery is owned by an external dispatcher; this server
	// only records the intent.
	log.Printf("notification intent for user %d: %s (%s)", userID, title, notificationType)
}
