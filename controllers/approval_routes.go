package controllers

import (
	"net/http"
	"strconv"
	"time"

	"edms-api/config"
	"edms-api/models"

	"github.com/gin-gonic/gin"
)

type ApprovalRouteRequest struct {
	DocumentTypeID int    `json:"document_type_id" binding:"required"`
	StepOrder      int    `json:"step_order"`
	ApproverRole   string `json:"approver_role" binding:"required"`
}

// GetApprovalRoutes lists route steps, optionally for one document type.
func GetApprovalRoutes(c *gin.Context) {
	query := config.DB.Model(&models.ApprovalRoute{}).
		Preload("DocumentType").
		Where("delete_at IS NULL")

	if docType := c.Query("type"); docType != "" {
		query = query.Where("document_type_id = ?", docType)
	}

	var routes []models.ApprovalRoute
	if err := query.Order("document_type_id ASC, step_order ASC").Find(&routes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch routes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "routes": routes, "total": len(routes)})
}

// CreateApprovalRoute adds one step to a document type's chain. Admin only.
// Step orders within a type must stay unique to keep the chain linear.
func CreateApprovalRoute(c *gin.Context) {
	var req ApprovalRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.Role(req.ApproverRole)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown approver role"})
		return
	}

	var docType models.DocumentType
	if err := config.DB.Where("document_type_id = ? AND delete_at IS NULL", req.DocumentTypeID).First(&docType).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown document type"})
		return
	}

	var duplicate int64
	config.DB.Model(&models.ApprovalRoute{}).
		Where("document_type_id = ? AND step_order = ? AND delete_at IS NULL", req.DocumentTypeID, req.StepOrder).
		Count(&duplicate)
	if duplicate > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Step order already exists for this document type"})
		return
	}

	route := models.ApprovalRoute{
		DocumentTypeID: req.DocumentTypeID,
		StepOrder:      req.StepOrder,
		ApproverRole:   role,
	}
	if err := config.DB.Create(&route).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create route"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "route": route})
}

// UpdateApprovalRoute changes a route step. Admin only.
func UpdateApprovalRoute(c *gin.Context) {
	routeID, err := strconv.Atoi(c.Param("id"))
	if err != nil || routeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	var route models.ApprovalRoute
	if err := config.DB.Where("route_id = ? AND delete_at IS NULL", routeID).First(&route).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}

	var req ApprovalRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.Role(req.ApproverRole)
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown approver role"})
		return
	}

	var duplicate int64
	config.DB.Model(&models.ApprovalRoute{}).
		Where("document_type_id = ? AND step_order = ? AND route_id <> ? AND delete_at IS NULL",
			req.DocumentTypeID, req.StepOrder, route.RouteID).
		Count(&duplicate)
	if duplicate > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Step order already exists for this document type"})
		return
	}

	route.DocumentTypeID = req.DocumentTypeID
	route.StepOrder = req.StepOrder
	route.ApproverRole = role
	route.UpdatedAt = time.Now()

	if err := config.DB.Save(&route).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update route"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "route": route})
}

// DeleteApprovalRoute removes a route step. Admin only.
func DeleteApprovalRoute(c *gin.Context) {
	routeID, err := strconv.Atoi(c.Param("id"))
	if err != nil || routeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
		return
	}

	var route models.ApprovalRoute
	if err := config.DB.Where("route_id = ? AND delete_at IS NULL", routeID).First(&route).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}

	now := time.Now()
	route.DeleteAt = &now
	if err := config.DB.Save(&route).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete route"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Route deleted"})
}
