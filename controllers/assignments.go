package controllers

import (
	"net/http"
	"strconv"

	"edms-api/config"
	"edms-api/models"
	"edms-api/services"

	"github.com/gin-gonic/gin"
)

// GetAssignments lists assignments visible to the current user, newest first.
func GetAssignments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := config.DB.Model(&models.DocumentAssignment{}).
		Preload("Document").
		Preload("Assignee").
		Preload("AssignedBy")

	if docID := c.Query("document"); docID != "" {
		query = query.Where("document_id = ?", docID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	query = services.ScopeAssignments(query, user)

	var assignments []models.DocumentAssignment
	if err := query.Order("created_at DESC").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assignments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"assignments": assignments,
		"total":       len(assignments),
	})
}

// AcceptAssignment marks a pending assignment as accepted by its executor.
func AcceptAssignment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	assignment, message, err := workflow().Accept(user.UserID, assignmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": message, "assignment": assignment})
}

// CompleteAssignment finishes an assignment with the executor's response.
func CompleteAssignment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req struct {
		Response string `json:"response"`
	}
	_ = c.ShouldBindJSON(&req)

	assignment, message, err := workflow().Complete(user.UserID, assignmentID, req.Response)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": message, "assignment": assignment})
}
