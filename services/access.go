package services

import (
	"edms-api/models"

	"gorm.io/gorm"
)

// ScopeDocuments narrows a documents query to what the user may see. The
// filter runs before every list and detail read; write operations do their
// own checks.
//
//   - admin, rector, secretary: everything
//   - prorector, dept_head: created by them, awaiting them, assigned to or by
//     them, or created inside their department
//   - everyone else: created by them or assigned to them
func ScopeDocuments(db *gorm.DB, user *models.User) *gorm.DB {
	switch user.Role {
	case models.RoleAdmin, models.RoleRector, models.RoleSecretary:
		return db
	case models.RoleProrector, models.RoleDeptHead:
		assigned := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.DocumentAssignment{}).
			Select("document_id").
			Where("assignee_id = ? OR assigned_by_id = ?", user.UserID, user.UserID)
		if user.DepartmentID != nil {
			sameDept := db.Session(&gorm.Session{NewDB: true}).
				Model(&models.User{}).
				Select("user_id").
				Where("department_id = ?", *user.DepartmentID)
			return db.Where(
				"creator_id = ? OR current_approver_id = ? OR document_id IN (?) OR creator_id IN (?)",
				user.UserID, user.UserID, assigned, sameDept,
			)
		}
		return db.Where(
			"creator_id = ? OR current_approver_id = ? OR document_id IN (?)",
			user.UserID, user.UserID, assigned,
		)
	default:
		assigned := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.DocumentAssignment{}).
			Select("document_id").
			Where("assignee_id = ?", user.UserID)
		return db.Where("creator_id = ? OR document_id IN (?)", user.UserID, assigned)
	}
}

// ScopeAssignments narrows an assignments query the same way: full access for
// admin/rector/secretary, own plus subordinates' for managers, own otherwise.
func ScopeAssignments(db *gorm.DB, user *models.User) *gorm.DB {
	switch user.Role {
	case models.RoleAdmin, models.RoleRector, models.RoleSecretary:
		return db
	}
	if user.IsManager() {
		supervised := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.User{}).
			Select("user_id").
			Where("supervisor_id = ?", user.UserID)
		return db.Where(
			"assignee_id = ? OR assigned_by_id = ? OR assignee_id IN (?)",
			user.UserID, user.UserID, supervised,
		)
	}
	return db.Where("assignee_id = ?", user.UserID)
}
