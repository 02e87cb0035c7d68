package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"edms-api/config"
	"edms-api/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testAPI wires the document handlers behind a stub of the auth middleware so
// each request can act as a chosen user.
type testAPI struct {
	router *gin.Engine
	actor  *models.User
}

func newTestAPI(t *testing.T) (*testAPI, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.DocumentType{},
		&models.ApprovalRoute{},
		&models.Document{},
		&models.DocumentAssignment{},
		&models.ActionLog{},
		&models.Notification{},
	))

	previous := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = previous })

	gin.SetMode(gin.TestMode)
	api := &testAPI{}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", api.actor.UserID)
		c.Set("email", api.actor.Email)
		c.Set("role", api.actor.Role)
	})
	router.GET("/api/documents", GetDocuments)
	router.POST("/api/documents", CreateDocument)
	router.GET("/api/documents/:id", GetDocument)
	router.DELETE("/api/documents/:id", DeleteDocument)
	router.POST("/api/documents/:id/submit", SubmitDocument)
	router.POST("/api/documents/:id/approve", ApproveDocument)
	router.POST("/api/documents/:id/reject", RejectDocument)
	router.GET("/api/documents/:id/logs", GetDocumentLogs)
	router.GET("/api/statistics", GetStatistics)
	api.router = router
	return api, db
}

func (a *testAPI) doJSON(t *testing.T, actor *models.User, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	a.actor = actor

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func (a *testAPI) doForm(t *testing.T, actor *models.User, method, path, form string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	a.actor = actor

	req := httptest.NewRequest(method, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func seedAPIUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username:  username,
		Email:     username + "@edms.local",
		Password:  "x",
		FirstName: username,
		LastName:  "Test",
		Role:      role,
		IsActive:  true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateSubmitApproveOverHTTP(t *testing.T) {
	api, db := newTestAPI(t)

	creator := seedAPIUser(t, db, "creator", models.RoleEmployee)
	head := seedAPIUser(t, db, "head", models.RoleDeptHead)
	memo := &models.DocumentType{Name: "Memo"}
	require.NoError(t, db.Create(memo).Error)
	require.NoError(t, db.Create(&models.ApprovalRoute{
		DocumentTypeID: memo.DocumentTypeID,
		StepOrder:      0,
		ApproverRole:   models.RoleDeptHead,
	}).Error)

	rec, payload := api.doJSON(t, creator, http.MethodPost, "/api/documents", gin.H{
		"title":            "Travel request",
		"content":          "please approve",
		"document_type_id": memo.DocumentTypeID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	document := payload["document"].(map[string]any)
	documentID := int(document["document_id"].(float64))
	assert.Equal(t, models.DocStatusDraft, document["status"])

	rec, payload = api.doJSON(t, creator, http.MethodPost, fmt.Sprintf("/api/documents/%d/submit", documentID), gin.H{"comment": "ready"})
	require.Equal(t, http.StatusOK, rec.Code)
	document = payload["document"].(map[string]any)
	assert.Equal(t, models.DocStatusPending, document["status"])

	// The creator holds no approval role, so strict mode refuses.
	rec, _ = api.doForm(t, creator, http.MethodPost, fmt.Sprintf("/api/documents/%d/approve", documentID), "comment=self")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, payload = api.doForm(t, head, http.MethodPost, fmt.Sprintf("/api/documents/%d/approve", documentID), "comment=ok")
	require.Equal(t, http.StatusOK, rec.Code)
	document = payload["document"].(map[string]any)
	assert.Equal(t, models.DocStatusApproved, document["status"])
	assert.NotEmpty(t, document["registration_number"])

	rec, payload = api.doJSON(t, creator, http.MethodGet, fmt.Sprintf("/api/documents/%d/logs", documentID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := payload["logs"].([]any)
	assert.Len(t, logs, 3)
}

func TestCreateDocumentValidation(t *testing.T) {
	api, db := newTestAPI(t)

	creator := seedAPIUser(t, db, "creator", models.RoleEmployee)
	memo := &models.DocumentType{Name: "Memo"}
	require.NoError(t, db.Create(memo).Error)

	rec, _ := api.doJSON(t, creator, http.MethodPost, "/api/documents", gin.H{
		"content":          "no title",
		"document_type_id": memo.DocumentTypeID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.doJSON(t, creator, http.MethodPost, "/api/documents", gin.H{
		"title":            "Bad type",
		"document_type_id": 9999,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.doJSON(t, creator, http.MethodPost, "/api/documents", gin.H{
		"title":            "Bad priority",
		"document_type_id": memo.DocumentTypeID,
		"priority":         "asap",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentVisibilityOverHTTP(t *testing.T) {
	api, db := newTestAPI(t)

	creator := seedAPIUser(t, db, "creator", models.RoleEmployee)
	stranger := seedAPIUser(t, db, "stranger", models.RoleEmployee)
	admin := seedAPIUser(t, db, "admin", models.RoleAdmin)
	memo := &models.DocumentType{Name: "Memo"}
	require.NoError(t, db.Create(memo).Error)

	rec, payload := api.doJSON(t, creator, http.MethodPost, "/api/documents", gin.H{
		"title":            "Internal memo",
		"document_type_id": memo.DocumentTypeID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	documentID := int(payload["document"].(map[string]any)["document_id"].(float64))

	rec, _ = api.doJSON(t, stranger, http.MethodGet, fmt.Sprintf("/api/documents/%d", documentID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = api.doJSON(t, admin, http.MethodGet, fmt.Sprintf("/api/documents/%d", documentID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, payload = api.doJSON(t, stranger, http.MethodGet, "/api/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), payload["total"])
}

func TestStatisticsSurfacesQueryFailures(t *testing.T) {
	api, db := newTestAPI(t)
	admin := seedAPIUser(t, db, "admin", models.RoleAdmin)

	rec, _ := api.doJSON(t, admin, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A broken aggregate must come back as an error, not as zero counts.
	require.NoError(t, db.Migrator().DropTable(&models.DocumentAssignment{}))

	rec, payload := api.doJSON(t, admin, http.MethodGet, "/api/statistics", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to aggregate statistics", payload["error"])
}

func TestDeleteOnlyDrafts(t *testing.T) {
	api, db := newTestAPI(t)

	creator := seedAPIUser(t, db, "creator", models.RoleEmployee)
	protocol := &models.DocumentType{Name: "Protocol"}
	require.NoError(t, db.Create(protocol).Error)

	rec, payload := api.doJSON(t, creator, http.MethodPost, "/api/documents", gin.H{
		"title":            "Meeting protocol",
		"document_type_id": protocol.DocumentTypeID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	documentID := int(payload["document"].(map[string]any)["document_id"].(float64))

	rec, _ = api.doJSON(t, creator, http.MethodPost, fmt.Sprintf("/api/documents/%d/submit", documentID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.doJSON(t, creator, http.MethodDelete, fmt.Sprintf("/api/documents/%d", documentID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
