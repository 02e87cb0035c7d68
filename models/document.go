package models

import (
	"time"

	"gorm.io/gorm"
)

// Document statuses. Transitions happen only inside services.WorkflowService;
// controllers never write the status column directly.
const (
	DocStatusDraft      = "draft"
	DocStatusPending    = "pending"
	DocStatusInProgress = "in_progress"
	DocStatusApproved   = "approved"
	DocStatusRejected   = "rejected"
	DocStatusCompleted  = "completed"
	DocStatusArchived   = "archived"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var validPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// ValidPriority reports whether p belongs to the priority enum.
func ValidPriority(p string) bool {
	return validPriorities[p]
}

type DocumentType struct {
	DocumentTypeID int        `gorm:"primaryKey;column:document_type_id" json:"document_type_id"`
	Name           string     `gorm:"column:name" json:"name"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

type Document struct {
	DocumentID         int            `gorm:"primaryKey;column:document_id" json:"document_id"`
	Title              string         `gorm:"column:title" json:"title"`
	Content            string         `gorm:"column:content;type:text" json:"content"`
	DocumentTypeID     int            `gorm:"column:document_type_id" json:"document_type_id"`
	CreatorID          int            `gorm:"column:creator_id" json:"creator_id"`
	CurrentApproverID  *int           `gorm:"column:current_approver_id" json:"current_approver_id"`
	Status             string         `gorm:"column:status;default:draft" json:"status"`
	Priority           string         `gorm:"column:priority;default:medium" json:"priority"`
	// CurrentStep is the 0-based index into the document type's approval
	// route. It is the single source of truth for route position, so a role
	// appearing at several steps cannot be confused for an earlier one.
	CurrentStep        int            `gorm:"column:current_step;default:0" json:"current_step"`
	FilePath           *string        `gorm:"column:file_path" json:"file_path"`
	Deadline           *time.Time     `gorm:"column:deadline" json:"deadline"`
	RegistrationNumber string         `gorm:"column:registration_number" json:"registration_number"`
	CreatedAt          time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`

	// Relations
	DocumentType    DocumentType         `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
	Creator         User                 `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CurrentApprover *User                `gorm:"foreignKey:CurrentApproverID" json:"current_approver,omitempty"`
	Assignments     []DocumentAssignment `gorm:"foreignKey:DocumentID" json:"assignments,omitempty"`
}

// TableName overrides
func (DocumentType) TableName() string {
	return "document_types"
}

func (Document) TableName() string {
	return "documents"
}

// CanBeSubmitted reports whether the document may enter the approval flow.
func (d *Document) CanBeSubmitted() bool {
	return d.Status == DocStatusDraft
}

// CanBeEdited reports whether the creator may still change the record.
func (d *Document) CanBeEdited() bool {
	return d.Status == DocStatusDraft
}
