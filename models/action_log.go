package models

import "time"

// Workflow actions recorded in the audit trail. The set is closed; anything
// else is rejected before the row is written.
const (
	ActionCreated    = "created"
	ActionRegistered = "registered"
	ActionSubmitted  = "submitted"
	ActionApproved   = "approved"
	ActionRejected   = "rejected"
	ActionAssigned   = "assigned"
	ActionAccepted   = "accepted"
	ActionCompleted  = "completed"
	ActionReturned   = "returned"
	ActionArchived   = "archived"
	ActionCommented  = "commented"
)

var validActions = map[string]bool{
	ActionCreated:    true,
	ActionRegistered: true,
	ActionSubmitted:  true,
	ActionApproved:   true,
	ActionRejected:   true,
	ActionAssigned:   true,
	ActionAccepted:   true,
	ActionCompleted:  true,
	ActionReturned:   true,
	ActionArchived:   true,
	ActionCommented:  true,
}

// ValidAction reports whether the action belongs to the closed action set.
func ValidAction(action string) bool {
	return validActions[action]
}

// ActionLog is the append-only audit trail. Rows are created inside the same
// transaction as the status change they record and are never updated or
// deleted afterwards.
type ActionLog struct {
	LogID        int        `gorm:"primaryKey;column:log_id" json:"log_id"`
	UserID       *int       `gorm:"column:user_id" json:"user_id"`
	DocumentID   int        `gorm:"column:document_id" json:"document_id"`
	AssignmentID *int       `gorm:"column:assignment_id" json:"assignment_id"`
	Action       string     `gorm:"column:action" json:"action"`
	Comment      string     `gorm:"column:comment;type:text" json:"comment"`
	FilePath     *string    `gorm:"column:file_path" json:"file_path"`
	Signature    string     `gorm:"column:signature" json:"signature"`
	SignedAt     *time.Time `gorm:"column:signed_at" json:"signed_at"`
	Timestamp    time.Time  `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`

	// Relations
	User       *User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Document   *Document           `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Assignment *DocumentAssignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
}

// TableName specifies the table for ActionLog.
func (ActionLog) TableName() string {
	return "action_logs"
}
