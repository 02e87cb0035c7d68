package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"edms-api/config"
	"edms-api/models"
	"edms-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser loads the authenticated user set by the auth middleware. It
// writes the error response itself when the context is broken.
func currentUser(c *gin.Context) (*models.User, bool) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return nil, false
	}
	userID, ok := userIDValue.(int)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return nil, false
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return nil, false
	}
	return &user, true
}

// respondServiceError maps workflow errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// workflow returns the engine bound to the shared DB; the permissive approve
// fallback is an env switch kept for compatibility with the old behaviour.
func workflow() *services.WorkflowService {
	return services.NewWorkflowService(config.DB, config.PermissiveApproval())
}

// saveAttachment stores an optional multipart file under UPLOAD_PATH and
// returns its stored path, or nil when no file was sent.
func saveAttachment(c *gin.Context) (*string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, nil
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	folder := filepath.Join(uploadPath, "action_logs", time.Now().Format("2006/01/02"))
	if err := os.MkdirAll(folder, os.ModePerm); err != nil {
		return nil, err
	}

	storedName := uuid.New().String() + filepath.Ext(file.Filename)
	storedPath := filepath.Join(folder, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		return nil, err
	}
	return &storedPath, nil
}
