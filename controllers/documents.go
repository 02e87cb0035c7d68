package controllers

import (
	"net/http"
	"strconv"
	"time"

	"edms-api/config"
	"edms-api/models"
	"edms-api/services"
	"edms-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DocumentRequest struct {
	Title          string  `json:"title" binding:"required"`
	Content        string  `json:"content"`
	DocumentTypeID int     `json:"document_type_id" binding:"required"`
	Priority       string  `json:"priority"`
	Deadline       *string `json:"deadline"`
}

func parseDeadline(raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// GetDocuments lists documents visible to the current user, newest first.
func GetDocuments(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := config.DB.Model(&models.Document{}).
		Preload("DocumentType").
		Preload("Creator").
		Preload("CurrentApprover")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if docType := c.Query("type"); docType != "" {
		query = query.Where("document_type_id = ?", docType)
	}

	query = services.ScopeDocuments(query, user)

	var documents []models.Document
	if err := query.Order("created_at DESC").Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": documents,
		"total":     len(documents),
	})
}

// visibleDocument fetches one document within the user's visibility scope.
func visibleDocument(c *gin.Context, user *models.User) (*models.Document, bool) {
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return nil, false
	}

	query := services.ScopeDocuments(config.DB.Model(&models.Document{}), user).
		Preload("DocumentType").
		Preload("Creator").
		Preload("CurrentApprover").
		Preload("Assignments").
		Preload("Assignments.Assignee")

	var document models.Document
	if err := query.Where("document_id = ?", documentID).First(&document).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return nil, false
	}
	return &document, true
}

// GetDocument returns one document with its assignments.
func GetDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	document, ok := visibleDocument(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "document": document})
}

// CreateDocument creates a draft owned by the caller and logs the creation.
func CreateDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	deadline, ok2 := parseDeadline(req.Deadline)
	if !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline format, expected YYYY-MM-DD"})
		return
	}

	var docType models.DocumentType
	if err := config.DB.Where("document_type_id = ? AND delete_at IS NULL", req.DocumentTypeID).First(&docType).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown document type"})
		return
	}

	document := models.Document{
		Title:          utils.SanitizeInput(req.Title),
		Content:        utils.SanitizeInput(req.Content),
		DocumentTypeID: req.DocumentTypeID,
		CreatorID:      user.UserID,
		Status:         models.DocStatusDraft,
		Priority:       priority,
		Deadline:       deadline,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&document).Error; err != nil {
			return err
		}
		now := time.Now()
		entry := models.ActionLog{
			UserID:     &user.UserID,
			DocumentID: document.DocumentID,
			Action:     models.ActionCreated,
			Signature:  services.GenerateSignature(user.UserID, document.DocumentID, models.ActionCreated),
			SignedAt:   &now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "document": document})
}

// UpdateDocument changes a draft's editable fields. Only the creator may
// update, and only while the document has not entered the workflow.
func UpdateDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	document, ok := visibleDocument(c, user)
	if !ok {
		return
	}

	if document.CreatorID != user.UserID && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator may edit the document"})
		return
	}
	if !document.CanBeEdited() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only drafts can be edited"})
		return
	}

	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Priority != "" && !models.ValidPriority(req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}
	deadline, ok2 := parseDeadline(req.Deadline)
	if !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline format, expected YYYY-MM-DD"})
		return
	}

	document.Title = utils.SanitizeInput(req.Title)
	document.Content = utils.SanitizeInput(req.Content)
	if req.DocumentTypeID != 0 {
		document.DocumentTypeID = req.DocumentTypeID
	}
	if req.Priority != "" {
		document.Priority = req.Priority
	}
	if deadline != nil {
		document.Deadline = deadline
	}
	document.UpdatedAt = time.Now()

	if err := config.DB.Save(document).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "document": document})
}

// DeleteDocument soft-deletes a draft. Documents that entered the workflow
// are never deleted; they are archived through their status instead.
func DeleteDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	document, ok := visibleDocument(c, user)
	if !ok {
		return
	}

	if document.CreatorID != user.UserID && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator may delete the document"})
		return
	}
	if document.Status != models.DocStatusDraft {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only drafts can be deleted"})
		return
	}

	if err := config.DB.Delete(document).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted"})
}

// SubmitDocument sends a draft into the approval flow.
func SubmitDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var req struct {
		Comment string `json:"comment"`
	}
	_ = c.ShouldBindJSON(&req)

	document, message, err := workflow().Submit(user.UserID, documentID, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": message, "document": document})
}

// ApproveDocument advances a pending document. Accepts multipart form data
// with an optional comment and file attachment.
func ApproveDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	filePath, err := saveAttachment(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
		return
	}

	document, message, err := workflow().Approve(user.UserID, documentID, c.PostForm("comment"), filePath)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": message, "document": document})
}

// RejectDocument terminally rejects a pending document.
func RejectDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	filePath, err := saveAttachment(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
		return
	}

	document, message, err := workflow().Reject(user.UserID, documentID, c.PostForm("comment"), filePath)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": message, "document": document})
}

// AssignDocument creates an executor assignment on the document.
func AssignDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var req struct {
		AssigneeID  int     `json:"assignee_id" binding:"required"`
		Instruction string  `json:"instruction"`
		Deadline    *string `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Executor is required"})
		return
	}

	deadline, ok2 := parseDeadline(req.Deadline)
	if !ok2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid deadline format, expected YYYY-MM-DD"})
		return
	}

	assignment, err := workflow().Assign(user.UserID, documentID, req.AssigneeID, req.Instruction, deadline)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "assignment": assignment})
}

// GetDocumentLogs returns the audit trail of a visible document, newest first.
func GetDocumentLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	document, ok := visibleDocument(c, user)
	if !ok {
		return
	}

	var logs []models.ActionLog
	if err := config.DB.Preload("User").
		Where("document_id = ?", document.DocumentID).
		Order("timestamp DESC").
		Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "logs": logs, "total": len(logs)})
}
