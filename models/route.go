package models

import "time"

// ApprovalRoute is one step of the default approval chain for a document
// type. Steps are ordered by step_order and form a strict linear chain; the
// approver is resolved at runtime as the first active user holding the role.
type ApprovalRoute struct {
	RouteID        int        `gorm:"primaryKey;column:route_id" json:"route_id"`
	DocumentTypeID int        `gorm:"column:document_type_id" json:"document_type_id"`
	StepOrder      int        `gorm:"column:step_order" json:"step_order"`
	ApproverRole   Role       `gorm:"column:approver_role" json:"approver_role"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	DocumentType DocumentType `gorm:"foreignKey:DocumentTypeID" json:"document_type,omitempty"`
}

// TableName specifies the table for ApprovalRoute.
func (ApprovalRoute) TableName() string {
	return "approval_routes"
}
