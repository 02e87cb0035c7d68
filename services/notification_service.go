package services

import (
	"fmt"
	"log"

	"edms-api/config"
	"edms-api/models"

	"gorm.io/gorm"
)

// NotifyUser records an in-app notification and sends a best-effort email.
// Notification failures are logged, never surfaced: a lost email must not
// undo a committed workflow action.
func NotifyUser(db *gorm.DB, userID int, title, message, notifType string, documentID *int) {
	notification := models.Notification{
		UserID:            userID,
		Title:             title,
		Message:           message,
		Type:              notifType,
		RelatedDocumentID: documentID,
	}
	if err := db.Create(&notification).Error; err != nil {
		log.Printf("failed to store notification for user %d: %v", userID, err)
	}

	var user models.User
	if err := db.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		return
	}
	if user.Email == "" {
		return
	}

	go func(email, subject, body string) {
		html := fmt.Sprintf("<p>%s</p>", body)
		if err := config.SendMail([]string{email}, subject, html); err != nil {
			log.Printf("failed to email %s: %v", email, err)
		}
	}(user.Email, title, message)
}
