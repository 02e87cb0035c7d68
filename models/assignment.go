package models

import "time"

// Assignment statuses. A document counts as executed only when every one of
// its assignments is completed.
const (
	AssignmentStatusPending    = "pending"
	AssignmentStatusAccepted   = "accepted"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusCompleted  = "completed"
	AssignmentStatusRejected   = "rejected"
)

type DocumentAssignment struct {
	AssignmentID int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	DocumentID   int        `gorm:"column:document_id" json:"document_id"`
	AssigneeID   int        `gorm:"column:assignee_id" json:"assignee_id"`
	AssignedByID *int       `gorm:"column:assigned_by_id" json:"assigned_by_id"`
	Status       string     `gorm:"column:status;default:pending" json:"status"`
	Instruction  string     `gorm:"column:instruction;type:text" json:"instruction"`
	Deadline     *time.Time `gorm:"column:deadline" json:"deadline"`
	Signature    string     `gorm:"column:signature" json:"signature"`
	SignedAt     *time.Time `gorm:"column:signed_at" json:"signed_at"`
	Response     string     `gorm:"column:response;type:text" json:"response"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Document   *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Assignee   User      `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	AssignedBy *User     `gorm:"foreignKey:AssignedByID" json:"assigned_by,omitempty"`
}

// TableName specifies the table for DocumentAssignment.
func (DocumentAssignment) TableName() string {
	return "document_assignments"
}

// CanBeAccepted reports whether the assignee may still accept the task.
func (a *DocumentAssignment) CanBeAccepted() bool {
	return a.Status == AssignmentStatusPending
}

// CanBeCompleted reports whether the task is still open for completion.
func (a *DocumentAssignment) CanBeCompleted() bool {
	switch a.Status {
	case AssignmentStatusPending, AssignmentStatusAccepted, AssignmentStatusInProgress:
		return true
	}
	return false
}
