// Command seed creates the schema and loads a demo directory: departments,
// users for every role, document types and their approval routes. Intended
// for development and test environments only.
package main

import (
	"log"

	"edms-api/config"
	"edms-api/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const defaultPassword = "qwer123!"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()
	db := config.DB

	if err := db.AutoMigrate(
		&models.Department{},
		&models.User{},
		&models.DocumentType{},
		&models.Document{},
		&models.DocumentAssignment{},
		&models.ApprovalRoute{},
		&models.ActionLog{},
		&models.Notification{},
	); err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}

	var existing int64
	db.Model(&models.User{}).Count(&existing)
	if existing > 0 {
		log.Println("Database already contains users, skipping seed")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash default password:", err)
	}
	password := string(hashed)

	// Departments
	rectorate := models.Department{Name: "Rectorate"}
	hr := models.Department{Name: "Human Resources"}
	itFaculty := models.Department{Name: "Faculty of IT"}
	adminDept := models.Department{Name: "Administration"}
	for _, d := range []*models.Department{&rectorate, &hr, &itFaculty, &adminDept} {
		if err := db.Create(d).Error; err != nil {
			log.Fatal("Failed to create department:", err)
		}
	}

	newUser := func(username, email, first, last string, role models.Role, position string, dept *models.Department, supervisor *models.User) *models.User {
		user := models.User{
			Username:  username,
			Email:     email,
			Password:  password,
			FirstName: first,
			LastName:  last,
			Role:      role,
			Position:  position,
			IsActive:  true,
		}
		if dept != nil {
			user.DepartmentID = &dept.DepartmentID
		}
		if supervisor != nil {
			user.SupervisorID = &supervisor.UserID
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatal("Failed to create user:", err)
		}
		return &user
	}

	newUser("admin", "admin@example.com", "System", "Admin", models.RoleAdmin, "Administrator", &adminDept, nil)
	rector := newUser("rector", "rector@example.com", "Ivan", "Ivanov", models.RoleRector, "Rector", &rectorate, nil)
	newUser("prorector", "prorector@example.com", "Petr", "Petrov", models.RoleProrector, "Prorector", &rectorate, rector)
	headIT := newUser("head_it", "head_it@example.com", "Sergey", "Sergeev", models.RoleDeptHead, "Dean", &itFaculty, rector)
	headHR := newUser("head_hr", "head_hr@example.com", "Anna", "Annova", models.RoleDeptHead, "Head of HR", &hr, rector)
	newUser("emp_it1", "emp_it1@example.com", "Alexey", "Alexeev", models.RoleEmployee, "Lecturer", &itFaculty, headIT)
	newUser("emp_hr1", "emp_hr1@example.com", "Maria", "Marieva", models.RoleEmployee, "Specialist", &hr, headHR)
	newUser("secretary", "secretary@example.com", "Elena", "Elenova", models.RoleSecretary, "Secretary", &rectorate, nil)

	itFaculty.HeadID = &headIT.UserID
	hr.HeadID = &headHR.UserID
	db.Save(&itFaculty)
	db.Save(&hr)

	// Document types and their approval chains
	newType := func(name string) *models.DocumentType {
		docType := models.DocumentType{Name: name}
		if err := db.Create(&docType).Error; err != nil {
			log.Fatal("Failed to create document type:", err)
		}
		return &docType
	}

	memo := newType("Memo")
	order := newType("Order")
	report := newType("Report")
	application := newType("Application")
	newType("Protocol") // no route: auto-approves on submit

	routes := []models.ApprovalRoute{
		{DocumentTypeID: memo.DocumentTypeID, StepOrder: 1, ApproverRole: models.RoleDeptHead},
		{DocumentTypeID: memo.DocumentTypeID, StepOrder: 2, ApproverRole: models.RoleProrector},
		{DocumentTypeID: memo.DocumentTypeID, StepOrder: 3, ApproverRole: models.RoleRector},
		{DocumentTypeID: order.DocumentTypeID, StepOrder: 1, ApproverRole: models.RoleRector},
		{DocumentTypeID: report.DocumentTypeID, StepOrder: 1, ApproverRole: models.RoleDeptHead},
		{DocumentTypeID: application.DocumentTypeID, StepOrder: 1, ApproverRole: models.RoleDeptHead},
		{DocumentTypeID: application.DocumentTypeID, StepOrder: 2, ApproverRole: models.RoleProrector},
	}
	for _, route := range routes {
		if err := db.Create(&route).Error; err != nil {
			log.Fatal("Failed to create approval route:", err)
		}
	}

	log.Printf("Seeded %d departments, 8 users, 5 document types, %d route steps (password: %s)",
		4, len(routes), defaultPassword)
}
