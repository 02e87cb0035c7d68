package models

import (
	"time"
)

// Role is the closed set of user roles recognised by the workflow engine.
// Route steps reference these values, so anything outside the set is rejected
// at construction instead of silently matching nothing.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleRector        Role = "rector"
	RoleProrector     Role = "prorector"
	RoleDeptHead      Role = "dept_head"
	RoleEmployee      Role = "employee"
	RoleSecretary     Role = "secretary"
	RoleCouncilMember Role = "council_member"
)

var validRoles = map[Role]bool{
	RoleAdmin:         true,
	RoleRector:        true,
	RoleProrector:     true,
	RoleDeptHead:      true,
	RoleEmployee:      true,
	RoleSecretary:     true,
	RoleCouncilMember: true,
}

// Valid reports whether the role belongs to the closed role set.
func (r Role) Valid() bool {
	return validRoles[r]
}

// IsManager reports whether the role carries managerial visibility.
func (r Role) IsManager() bool {
	return r == RoleRector || r == RoleProrector || r == RoleDeptHead || r == RoleAdmin
}

type User struct {
	UserID       int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username     string     `gorm:"column:username;unique" json:"username"`
	Email        string     `gorm:"column:email;unique" json:"email"`
	Password     string     `gorm:"column:password" json:"-"`
	FirstName    string     `gorm:"column:first_name" json:"first_name"`
	LastName     string     `gorm:"column:last_name" json:"last_name"`
	MiddleName   string     `gorm:"column:middle_name" json:"middle_name"`
	Role         Role       `gorm:"column:role" json:"role"`
	Position     string     `gorm:"column:position" json:"position"`
	Phone        string     `gorm:"column:phone" json:"phone"`
	DepartmentID *int       `gorm:"column:department_id" json:"department_id"`
	SupervisorID *int       `gorm:"column:supervisor_id" json:"supervisor_id"`
	IsActive     bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Supervisor *User       `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
}

type Department struct {
	DepartmentID int        `gorm:"primaryKey;column:department_id" json:"department_id"`
	Name         string     `gorm:"column:name" json:"name"`
	ParentID     *int       `gorm:"column:parent_id" json:"parent_id"`
	HeadID       *int       `gorm:"column:head_id" json:"head_id"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Parent *Department `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Head   *User       `gorm:"foreignKey:HeadID" json:"head,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Department) TableName() string {
	return "departments"
}

// FullName returns "Last First Middle" trimmed of missing parts.
func (u *User) FullName() string {
	name := u.LastName + " " + u.FirstName
	if u.MiddleName != "" {
		name += " " + u.MiddleName
	}
	return name
}

// IsManager reports whether the user holds a managerial role.
func (u *User) IsManager() bool {
	return u.Role.IsManager()
}
