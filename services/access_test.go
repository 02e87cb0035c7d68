package services

import (
	"testing"

	"edms-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func intPtr(v int) *int { return &v }

func countScopedDocuments(t *testing.T, db *gorm.DB, user *models.User) int64 {
	t.Helper()
	var n int64
	require.NoError(t, ScopeDocuments(db.Model(&models.Document{}), user).Count(&n).Error)
	return n
}

func countScopedAssignments(t *testing.T, db *gorm.DB, user *models.User) int64 {
	t.Helper()
	var n int64
	require.NoError(t, ScopeAssignments(db.Model(&models.DocumentAssignment{}), user).Count(&n).Error)
	return n
}

func TestScopeDocumentsByRole(t *testing.T) {
	db := newTestDB(t)

	admin := seedUser(t, db, "admin", models.RoleAdmin)
	secretary := seedUser(t, db, "secretary", models.RoleSecretary)
	head := seedUser(t, db, "head", models.RoleDeptHead)
	empSameDept := seedUser(t, db, "emp_same", models.RoleEmployee)
	empOtherDept := seedUser(t, db, "emp_other", models.RoleEmployee)
	require.NoError(t, db.Model(&models.User{}).Where("user_id IN ?", []int{head.UserID, empSameDept.UserID}).Update("department_id", 1).Error)
	require.NoError(t, db.Model(&models.User{}).Where("user_id = ?", empOtherDept.UserID).Update("department_id", 2).Error)
	head.DepartmentID = intPtr(1)
	empSameDept.DepartmentID = intPtr(1)
	empOtherDept.DepartmentID = intPtr(2)

	memo := seedDocumentType(t, db, "Memo")
	seedDocument(t, db, empSameDept.UserID, memo.DocumentTypeID)
	otherDoc := seedDocument(t, db, empOtherDept.UserID, memo.DocumentTypeID)
	assignedDoc := seedDocument(t, db, secretary.UserID, memo.DocumentTypeID)
	require.NoError(t, db.Create(&models.DocumentAssignment{
		DocumentID: assignedDoc.DocumentID,
		AssigneeID: empOtherDept.UserID,
		Status:     models.AssignmentStatusPending,
	}).Error)

	assert.Equal(t, int64(3), countScopedDocuments(t, db, admin))
	assert.Equal(t, int64(3), countScopedDocuments(t, db, secretary))

	// Department head sees documents authored inside the department.
	assert.Equal(t, int64(1), countScopedDocuments(t, db, head))

	// Plain employees see what they created plus what they execute.
	assert.Equal(t, int64(1), countScopedDocuments(t, db, empSameDept))
	assert.Equal(t, int64(2), countScopedDocuments(t, db, empOtherDept))

	// Becoming the current approver widens the head's view.
	require.NoError(t, db.Model(&models.Document{}).
		Where("document_id = ?", otherDoc.DocumentID).
		Update("current_approver_id", head.UserID).Error)
	assert.Equal(t, int64(2), countScopedDocuments(t, db, head))
}

func TestScopeAssignmentsByRole(t *testing.T) {
	db := newTestDB(t)

	rector := seedUser(t, db, "rector", models.RoleRector)
	head := seedUser(t, db, "head", models.RoleDeptHead)
	subordinate := seedUser(t, db, "subordinate", models.RoleEmployee)
	outsider := seedUser(t, db, "outsider", models.RoleEmployee)
	require.NoError(t, db.Model(&models.User{}).
		Where("user_id = ?", subordinate.UserID).
		Update("supervisor_id", head.UserID).Error)

	memo := seedDocumentType(t, db, "Memo")
	doc := seedDocument(t, db, rector.UserID, memo.DocumentTypeID)

	for _, assigneeID := range []int{subordinate.UserID, outsider.UserID} {
		require.NoError(t, db.Create(&models.DocumentAssignment{
			DocumentID: doc.DocumentID,
			AssigneeID: assigneeID,
			Status:     models.AssignmentStatusPending,
		}).Error)
	}

	assert.Equal(t, int64(2), countScopedAssignments(t, db, rector))
	assert.Equal(t, int64(1), countScopedAssignments(t, db, head))
	assert.Equal(t, int64(1), countScopedAssignments(t, db, subordinate))
	assert.Equal(t, int64(1), countScopedAssignments(t, db, outsider))
}
