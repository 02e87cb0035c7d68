package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"edms-api/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// A fresh connection would see a fresh empty in-memory database, so pin
	// the pool to the single connection that was migrated.
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
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
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

func seedDocumentType(t *testing.T, db *gorm.DB, name string, roles ...models.Role) *models.DocumentType {
	t.Helper()
	docType := &models.DocumentType{Name: name}
	require.NoError(t, db.Create(docType).Error)
	for i, role := range roles {
		route := &models.ApprovalRoute{
			DocumentTypeID: docType.DocumentTypeID,
			StepOrder:      i,
			ApproverRole:   role,
		}
		require.NoError(t, db.Create(route).Error)
	}
	return docType
}

func seedDocument(t *testing.T, db *gorm.DB, creatorID, typeID int) *models.Document {
	t.Helper()
	document := &models.Document{
		Title:          "Quarterly report",
		Content:        "body",
		DocumentTypeID: typeID,
		CreatorID:      creatorID,
		Status:         models.DocStatusDraft,
		Priority:       models.PriorityMedium,
	}
	require.NoError(t, db.Create(document).Error)
	return document
}

func documentLogs(t *testing.T, db *gorm.DB, documentID int) []models.ActionLog {
	t.Helper()
	var logs []models.ActionLog
	require.NoError(t, db.Where("document_id = ?", documentID).Order("log_id ASC").Find(&logs).Error)
	return logs
}

func TestSubmitRouteFlow(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	head := seedUser(t, db, "head", models.RoleDeptHead)
	prorector := seedUser(t, db, "prorector", models.RoleProrector)
	memo := seedDocumentType(t, db, "Memo", models.RoleDeptHead, models.RoleProrector)
	doc := seedDocument(t, db, creator.UserID, memo.DocumentTypeID)

	got, _, err := svc.Submit(creator.UserID, doc.DocumentID, "please review")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusPending, got.Status)
	assert.Equal(t, 0, got.CurrentStep)
	require.NotNil(t, got.CurrentApproverID)
	assert.Equal(t, head.UserID, *got.CurrentApproverID)
	assert.Equal(t, fmt.Sprintf("%d-00001", time.Now().Year()), got.RegistrationNumber)

	got, _, err = svc.Approve(head.UserID, doc.DocumentID, "fine by me", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusPending, got.Status)
	assert.Equal(t, 1, got.CurrentStep)
	require.NotNil(t, got.CurrentApproverID)
	assert.Equal(t, prorector.UserID, *got.CurrentApproverID)

	got, _, err = svc.Approve(prorector.UserID, doc.DocumentID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusApproved, got.Status)
	assert.Nil(t, got.CurrentApproverID)

	logs := documentLogs(t, db, doc.DocumentID)
	require.Len(t, logs, 3)
	assert.Equal(t, models.ActionSubmitted, logs[0].Action)
	assert.Equal(t, models.ActionApproved, logs[1].Action)
	assert.Equal(t, models.ActionApproved, logs[2].Action)
	for _, entry := range logs {
		assert.Len(t, entry.Signature, 32)
		require.NotNil(t, entry.SignedAt)
	}
}

func TestSubmitWithoutRouteAutoApproves(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	protocol := seedDocumentType(t, db, "Protocol")
	doc := seedDocument(t, db, creator.UserID, protocol.DocumentTypeID)

	got, _, err := svc.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusApproved, got.Status)
	assert.Nil(t, got.CurrentApproverID)
	assert.NotEmpty(t, got.RegistrationNumber)

	logs := documentLogs(t, db, doc.DocumentID)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionApproved, logs[0].Action)
}

func TestSubmitRejectsNonDraft(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	seedUser(t, db, "head", models.RoleDeptHead)
	memo := seedDocumentType(t, db, "Memo", models.RoleDeptHead)
	doc := seedDocument(t, db, creator.UserID, memo.DocumentTypeID)

	_, _, err := svc.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)

	_, _, err = svc.Submit(creator.UserID, doc.DocumentID, "")
	assert.ErrorIs(t, err, ErrInvalidState)

	logs := documentLogs(t, db, doc.DocumentID)
	assert.Len(t, logs, 1)
}

func TestSubmitDirectAssignmentFlow(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleSecretary)
	executor := seedUser(t, db, "executor", models.RoleEmployee)
	seedUser(t, db, "head", models.RoleDeptHead)
	// The type has a route, but a direct assignment must bypass it.
	memo := seedDocumentType(t, db, "Memo", models.RoleDeptHead)
	doc := seedDocument(t, db, creator.UserID, memo.DocumentTypeID)

	assignment, err := svc.Assign(creator.UserID, doc.DocumentID, executor.UserID, "prepare the answer", nil)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusPending, assignment.Status)
	assert.Len(t, assignment.Signature, 32)

	got, _, err := svc.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusPending, got.Status)
	require.NotNil(t, got.CurrentApproverID)
	assert.Equal(t, executor.UserID, *got.CurrentApproverID)

	got, _, err = svc.Approve(executor.UserID, doc.DocumentID, "taking it", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusInProgress, got.Status)
	assert.Nil(t, got.CurrentApproverID)
}

func TestApproveRequiresPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	memo := seedDocumentType(t, db, "Memo", models.RoleDeptHead)
	doc := seedDocument(t, db, creator.UserID, memo.DocumentTypeID)

	_, _, err := svc.Approve(creator.UserID, doc.DocumentID, "", nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApproveStrictRejectsUnauthorizedActor(t *testing.T) {
	db := newTestDB(t)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	seedUser(t, db, "head", models.RoleDeptHead)
	memo := seedDocumentType(t, db, "Memo", models.RoleDeptHead)
	doc := seedDocument(t, db, creator.UserID, memo.DocumentTypeID)

	strict := NewWorkflowService(db, false)
	_, _, err := strict.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)

	_, _, err = strict.Approve(creator.UserID, doc.DocumentID, "self-approve", nil)
	assert.ErrorIs(t, err, ErrForbidden)

	var reloaded models.Document
	require.NoError(t, db.First(&reloaded, "document_id = ?", doc.DocumentID).Error)
	assert.Equal(t, models.DocStatusPending, reloaded.Status)
	assert.Equal(t, 0, reloaded.CurrentStep)
	assert.Len(t, documentLogs(t, db, doc.DocumentID), 1)

	permissive := NewWorkflowService(db, true)
	got, _, err := permissive.Approve(creator.UserID, doc.DocumentID, "self-approve", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusApproved, got.Status)
}

func TestApproveByRoleHolderOtherThanResolvedApprover(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	first := seedUser(t, db, "head_a", models.RoleDeptHead)
	second := seedUser(t, db, "head_b", models.RoleDeptHead)
	memo := seedDocumentType(t, db, "Memo", models.RoleDeptHead)
	doc := seedDocument(t, db, creator.UserID, memo.DocumentTypeID)

	got, _, err := svc.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)
	require.NotNil(t, got.CurrentApproverID)
	assert.Equal(t, first.UserID, *got.CurrentApproverID)

	// Any holder of the step role may act, not only the resolved pointer.
	got, _, err = svc.Approve(second.UserID, doc.DocumentID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusApproved, got.Status)
}

func TestRejectOnlyPendingDocuments(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	head := seedUser(t, db, "head", models.RoleDeptHead)
	memo := seedDocumentType(t, db, "Memo", models.RoleDeptHead)
	doc := seedDocument(t, db, creator.UserID, memo.DocumentTypeID)

	_, _, err := svc.Reject(head.UserID, doc.DocumentID, "not yet submitted", nil)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, _, err = svc.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)

	got, _, err := svc.Reject(head.UserID, doc.DocumentID, "missing attachments", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusRejected, got.Status)
	assert.Nil(t, got.CurrentApproverID)

	logs := documentLogs(t, db, doc.DocumentID)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionRejected, logs[1].Action)
	assert.Equal(t, "missing attachments", logs[1].Comment)
}

func TestRegistrationNumbersAreSequential(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	protocol := seedDocumentType(t, db, "Protocol")

	year := time.Now().Year()
	for i := 1; i <= 3; i++ {
		doc := seedDocument(t, db, creator.UserID, protocol.DocumentTypeID)
		got, _, err := svc.Submit(creator.UserID, doc.DocumentID, "")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d-%05d", year, i), got.RegistrationNumber)
	}
}

func TestConcurrentSubmitsAllocateDistinctNumbers(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	protocol := seedDocumentType(t, db, "Protocol")

	const submits = 4
	docs := make([]*models.Document, submits)
	for i := range docs {
		docs[i] = seedDocument(t, db, creator.UserID, protocol.DocumentTypeID)
	}

	// In-flight submits must never be handed the same number: the allocator
	// stays locked until the transaction that stores the number commits.
	var wg sync.WaitGroup
	numbers := make([]string, submits)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, _, err := svc.Submit(creator.UserID, docs[i].DocumentID, "")
			if assert.NoError(t, err) {
				numbers[i] = got.RegistrationNumber
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, submits)
	for _, number := range numbers {
		assert.NotEmpty(t, number)
		assert.False(t, seen[number], "registration number %s allocated twice", number)
		seen[number] = true
	}
}

func TestApproveAfterRouteStepsRemoved(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleEmployee)
	head := seedUser(t, db, "head", models.RoleDeptHead)
	outsider := seedUser(t, db, "outsider", models.RoleEmployee)
	memo := seedDocumentType(t, db, "Memo", models.RoleDeptHead)
	doc := seedDocument(t, db, creator.UserID, memo.DocumentTypeID)

	_, _, err := svc.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)

	// Retire every route step while the document is still pending.
	require.NoError(t, db.Model(&models.ApprovalRoute{}).
		Where("document_type_id = ?", memo.DocumentTypeID).
		Update("delete_at", time.Now()).Error)

	_, _, err = svc.Approve(outsider.UserID, doc.DocumentID, "", nil)
	assert.ErrorIs(t, err, ErrForbidden)

	var reloaded models.Document
	require.NoError(t, db.First(&reloaded, "document_id = ?", doc.DocumentID).Error)
	assert.Equal(t, models.DocStatusPending, reloaded.Status)

	got, _, err := svc.Approve(head.UserID, doc.DocumentID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusApproved, got.Status)
}

func TestAssignValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleSecretary)
	protocol := seedDocumentType(t, db, "Protocol")
	doc := seedDocument(t, db, creator.UserID, protocol.DocumentTypeID)

	_, err := svc.Assign(creator.UserID, doc.DocumentID, 0, "", nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Assign(creator.UserID, doc.DocumentID, 9999, "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignMovesApprovedDocumentIntoWork(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleSecretary)
	executor := seedUser(t, db, "executor", models.RoleEmployee)
	protocol := seedDocumentType(t, db, "Protocol")
	doc := seedDocument(t, db, creator.UserID, protocol.DocumentTypeID)

	got, _, err := svc.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)
	require.Equal(t, models.DocStatusApproved, got.Status)

	_, err = svc.Assign(creator.UserID, doc.DocumentID, executor.UserID, "execute", nil)
	require.NoError(t, err)

	var reloaded models.Document
	require.NoError(t, db.First(&reloaded, "document_id = ?", doc.DocumentID).Error)
	assert.Equal(t, models.DocStatusInProgress, reloaded.Status)
}

func TestAcceptOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleSecretary)
	executor := seedUser(t, db, "executor", models.RoleEmployee)
	protocol := seedDocumentType(t, db, "Protocol")
	doc := seedDocument(t, db, creator.UserID, protocol.DocumentTypeID)

	assignment, err := svc.Assign(creator.UserID, doc.DocumentID, executor.UserID, "execute", nil)
	require.NoError(t, err)

	got, _, err := svc.Accept(executor.UserID, assignment.AssignmentID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusAccepted, got.Status)
	require.NotNil(t, got.SignedAt)

	_, _, err = svc.Accept(executor.UserID, assignment.AssignmentID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteCascadesWhenAllAssignmentsDone(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleSecretary)
	execA := seedUser(t, db, "exec_a", models.RoleEmployee)
	execB := seedUser(t, db, "exec_b", models.RoleEmployee)
	protocol := seedDocumentType(t, db, "Protocol")
	doc := seedDocument(t, db, creator.UserID, protocol.DocumentTypeID)

	_, _, err := svc.Submit(creator.UserID, doc.DocumentID, "")
	require.NoError(t, err)

	first, err := svc.Assign(creator.UserID, doc.DocumentID, execA.UserID, "part one", nil)
	require.NoError(t, err)
	second, err := svc.Assign(creator.UserID, doc.DocumentID, execB.UserID, "part two", nil)
	require.NoError(t, err)

	_, _, err = svc.Complete(execA.UserID, first.AssignmentID, "done with part one")
	require.NoError(t, err)

	var reloaded models.Document
	require.NoError(t, db.First(&reloaded, "document_id = ?", doc.DocumentID).Error)
	assert.Equal(t, models.DocStatusInProgress, reloaded.Status)

	got, _, err := svc.Complete(execB.UserID, second.AssignmentID, "done with part two")
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusCompleted, got.Status)
	assert.Equal(t, "done with part two", got.Response)

	require.NoError(t, db.First(&reloaded, "document_id = ?", doc.DocumentID).Error)
	assert.Equal(t, models.DocStatusCompleted, reloaded.Status)

	_, _, err = svc.Complete(execB.UserID, second.AssignmentID, "again")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteLeavesDraftDocumentAlone(t *testing.T) {
	db := newTestDB(t)
	svc := NewWorkflowService(db, false)

	creator := seedUser(t, db, "creator", models.RoleSecretary)
	executor := seedUser(t, db, "executor", models.RoleEmployee)
	protocol := seedDocumentType(t, db, "Protocol")
	doc := seedDocument(t, db, creator.UserID, protocol.DocumentTypeID)

	assignment, err := svc.Assign(creator.UserID, doc.DocumentID, executor.UserID, "early task", nil)
	require.NoError(t, err)

	_, _, err = svc.Complete(executor.UserID, assignment.AssignmentID, "done")
	require.NoError(t, err)

	var reloaded models.Document
	require.NoError(t, db.First(&reloaded, "document_id = ?", doc.DocumentID).Error)
	assert.Equal(t, models.DocStatusDraft, reloaded.Status)
}
