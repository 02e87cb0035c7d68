package controllers

import (
	"net/http"
	"strconv"
	"time"

	"edms-api/config"
	"edms-api/models"

	"github.com/gin-gonic/gin"
)

type DepartmentRequest struct {
	Name     string `json:"name" binding:"required"`
	ParentID *int   `json:"parent_id"`
	HeadID   *int   `json:"head_id"`
}

// GetDepartments lists the department tree as flat rows with parent links.
func GetDepartments(c *gin.Context) {
	var departments []models.Department
	if err := config.DB.Preload("Head").
		Where("delete_at IS NULL").
		Order("name ASC").
		Find(&departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch departments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "departments": departments, "total": len(departments)})
}

// CreateDepartment adds a department node. Admin only.
func CreateDepartment(c *gin.Context) {
	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ParentID != nil {
		var parent models.Department
		if err := config.DB.Where("department_id = ? AND delete_at IS NULL", *req.ParentID).First(&parent).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent department not found"})
			return
		}
	}

	department := models.Department{
		Name:     req.Name,
		ParentID: req.ParentID,
		HeadID:   req.HeadID,
	}
	if err := config.DB.Create(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create department"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "department": department})
}

// UpdateDepartment renames or re-parents a department. Admin only.
func UpdateDepartment(c *gin.Context) {
	departmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || departmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department ID"})
		return
	}

	var department models.Department
	if err := config.DB.Where("department_id = ? AND delete_at IS NULL", departmentID).First(&department).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}

	var req DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ParentID != nil && *req.ParentID == department.DepartmentID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Department cannot be its own parent"})
		return
	}

	department.Name = req.Name
	department.ParentID = req.ParentID
	department.HeadID = req.HeadID
	department.UpdatedAt = time.Now()

	if err := config.DB.Save(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update department"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "department": department})
}

// DeleteDepartment soft-deletes an empty department. Admin only.
func DeleteDepartment(c *gin.Context) {
	departmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || departmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department ID"})
		return
	}

	var department models.Department
	if err := config.DB.Where("department_id = ? AND delete_at IS NULL", departmentID).First(&department).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}

	var members int64
	config.DB.Model(&models.User{}).
		Where("department_id = ? AND delete_at IS NULL", departmentID).
		Count(&members)
	if members > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Department still has members"})
		return
	}

	now := time.Now()
	department.DeleteAt = &now
	if err := config.DB.Save(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete department"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Department deleted"})
}
