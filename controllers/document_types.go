package controllers

import (
	"net/http"
	"strconv"
	"time"

	"edms-api/config"
	"edms-api/models"

	"github.com/gin-gonic/gin"
)

// GetDocumentTypes lists document categories used for route selection.
func GetDocumentTypes(c *gin.Context) {
	var types []models.DocumentType
	if err := config.DB.Where("delete_at IS NULL").Order("name ASC").Find(&types).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch document types"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "types": types, "total": len(types)})
}

// CreateDocumentType adds a document category. Admin only.
func CreateDocumentType(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docType := models.DocumentType{Name: req.Name}
	if err := config.DB.Create(&docType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document type"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "type": docType})
}

// UpdateDocumentType renames a document category. Admin only.
func UpdateDocumentType(c *gin.Context) {
	typeID, err := strconv.Atoi(c.Param("id"))
	if err != nil || typeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document type ID"})
		return
	}

	var docType models.DocumentType
	if err := config.DB.Where("document_type_id = ? AND delete_at IS NULL", typeID).First(&docType).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document type not found"})
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	docType.Name = req.Name
	docType.UpdatedAt = time.Now()
	if err := config.DB.Save(&docType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update document type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "type": docType})
}

// DeleteDocumentType soft-deletes an unused document category. Admin only.
func DeleteDocumentType(c *gin.Context) {
	typeID, err := strconv.Atoi(c.Param("id"))
	if err != nil || typeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document type ID"})
		return
	}

	var docType models.DocumentType
	if err := config.DB.Where("document_type_id = ? AND delete_at IS NULL", typeID).First(&docType).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document type not found"})
		return
	}

	var inUse int64
	config.DB.Model(&models.Document{}).Where("document_type_id = ?", typeID).Count(&inUse)
	if inUse > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document type is still referenced by documents"})
		return
	}

	now := time.Now()
	docType.DeleteAt = &now
	if err := config.DB.Save(&docType).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document type deleted"})
}
