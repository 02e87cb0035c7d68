package controllers

import (
	"net/http"
	"strconv"
	"time"

	"edms-api/config"
	"edms-api/models"
	"edms-api/utils"

	"github.com/gin-gonic/gin"
)

// GetUsers lists directory users, optionally filtered by department or role.
func GetUsers(c *gin.Context) {
	query := config.DB.Model(&models.User{}).
		Preload("Department").
		Where("delete_at IS NULL")

	if department := c.Query("department"); department != "" {
		query = query.Where("department_id = ?", department)
	}
	if role := c.Query("role"); role != "" {
		if !models.Role(role).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
			return
		}
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("last_name ASC, first_name ASC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "total": len(users)})
}

// GetSubordinates returns the current user's direct reports; department heads
// also see every member of their department.
func GetSubordinates(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := config.DB.Model(&models.User{}).Where("delete_at IS NULL")
	if user.Role == models.RoleDeptHead && user.DepartmentID != nil {
		query = query.Where(
			"(supervisor_id = ? OR department_id = ?) AND user_id <> ?",
			user.UserID, *user.DepartmentID, user.UserID,
		)
	} else {
		query = query.Where("supervisor_id = ?", user.UserID)
	}

	var subordinates []models.User
	if err := query.Order("last_name ASC, first_name ASC").Find(&subordinates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subordinates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": subordinates, "total": len(subordinates)})
}

type UserRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	MiddleName   string `json:"middle_name"`
	Role         string `json:"role" binding:"required"`
	Position     string `json:"position"`
	Phone        string `json:"phone"`
	DepartmentID *int   `json:"department_id"`
	SupervisorID *int   `json:"supervisor_id"`
}

// CreateUser registers a new directory user. Admin only.
func CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.Role(req.Role).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}
	if ok, reason := utils.ValidatePassword(req.Password); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": reason})
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		Password:     hashed,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MiddleName:   req.MiddleName,
		Role:         models.Role(req.Role),
		Position:     req.Position,
		Phone:        req.Phone,
		DepartmentID: req.DepartmentID,
		SupervisorID: req.SupervisorID,
		IsActive:     true,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

// UpdateUser changes directory attributes of a user. Admin only.
func UpdateUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.Role(req.Role).Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	user.Username = req.Username
	user.Email = req.Email
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.MiddleName = req.MiddleName
	user.Role = models.Role(req.Role)
	user.Position = req.Position
	user.Phone = req.Phone
	user.DepartmentID = req.DepartmentID
	user.SupervisorID = req.SupervisorID
	user.UpdatedAt = time.Now()

	if req.Password != "" {
		hashed, err := HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user.Password = hashed
	}

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// DeactivateUser disables logins without removing the directory record.
// Admin only.
func DeactivateUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.IsActive = false
	user.UpdatedAt = time.Now()
	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deactivated"})
}
