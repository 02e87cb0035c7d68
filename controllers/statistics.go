package controllers

import (
	"net/http"
	"time"

	"edms-api/config"
	"edms-api/models"

	"github.com/gin-gonic/gin"
)

type statusCount struct {
	Status string `gorm:"column:status" json:"status"`
	Count  int64  `gorm:"column:count" json:"count"`
}

type typeCount struct {
	Name  string `gorm:"column:name" json:"name"`
	Count int64  `gorm:"column:count" json:"count"`
}

type actionCount struct {
	Action string `gorm:"column:action" json:"action"`
	Count  int64  `gorm:"column:count" json:"count"`
}

type executorCount struct {
	FirstName string `gorm:"column:first_name" json:"first_name"`
	LastName  string `gorm:"column:last_name" json:"last_name"`
	Count     int64  `gorm:"column:count" json:"count"`
}

type monthlyTrend struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// GetStatistics aggregates dashboard numbers. Restricted to
// admin/rector/prorector by route middleware.
func GetStatistics(c *gin.Context) {
	db := config.DB
	now := time.Now()

	var statusStats []statusCount
	if err := db.Model(&models.Document{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&statusStats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	var typeStats []typeCount
	if err := db.Model(&models.Document{}).
		Select("document_types.name AS name, COUNT(*) AS count").
		Joins("JOIN document_types ON document_types.document_type_id = documents.document_type_id").
		Group("document_types.name").
		Scan(&typeStats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	var overdue int64
	if err := db.Model(&models.Document{}).
		Where("deadline < ? AND status IN ?", now, []string{models.DocStatusPending, models.DocStatusInProgress}).
		Count(&overdue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	var assignmentStats []statusCount
	if err := db.Model(&models.DocumentAssignment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&assignmentStats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	weekAgo := now.AddDate(0, 0, -7)
	var recentActivity []actionCount
	if err := db.Model(&models.ActionLog{}).
		Select("action, COUNT(*) AS count").
		Where("timestamp >= ?", weekAgo).
		Group("action").
		Scan(&recentActivity).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var docsThisMonth int64
	if err := db.Model(&models.Document{}).
		Where("created_at >= ?", monthStart).
		Count(&docsThisMonth).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	var topExecutors []executorCount
	if err := db.Model(&models.DocumentAssignment{}).
		Select("users.first_name, users.last_name, COUNT(*) AS count").
		Joins("JOIN users ON users.user_id = document_assignments.assignee_id").
		Where("document_assignments.status = ?", models.AssignmentStatusCompleted).
		Group("users.user_id, users.first_name, users.last_name").
		Order("count DESC").
		Limit(5).
		Scan(&topExecutors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	// Last 6 calendar months, oldest first.
	trends := make([]monthlyTrend, 0, 6)
	for i := 5; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		if i == 0 {
			end = now
		}
		var count int64
		if err := db.Model(&models.Document{}).
			Where("created_at >= ? AND created_at < ?", start, end).
			Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
			return
		}
		trends = append(trends, monthlyTrend{Month: start.Format("Jan"), Count: count})
	}

	var totalDocuments, completedDocuments, totalAssignments int64
	if err := db.Model(&models.Document{}).Count(&totalDocuments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}
	if err := db.Model(&models.Document{}).
		Where("status IN ?", []string{models.DocStatusCompleted, models.DocStatusApproved}).
		Count(&completedDocuments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}
	if err := db.Model(&models.DocumentAssignment{}).Count(&totalAssignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate statistics"})
		return
	}

	completionRate := 0.0
	if totalDocuments > 0 {
		completionRate = float64(completedDocuments) / float64(totalDocuments) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"status_stats":      statusStats,
		"type_stats":        typeStats,
		"overdue_count":     overdue,
		"assignment_stats":  assignmentStats,
		"recent_activity":   recentActivity,
		"docs_this_month":   docsThisMonth,
		"top_executors":     topExecutors,
		"total_documents":   totalDocuments,
		"total_assignments": totalAssignments,
		"monthly_trends":    trends,
		"completion_rate":   completionRate,
	})
}
