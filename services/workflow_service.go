package services

import (
	"errors"
	"fmt"
	"time"

	"edms-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkflowService drives every document and assignment status transition.
// Each operation runs as one transaction: the status precondition check, the
// status write and the audit log append either all apply or none do.
type WorkflowService struct {
	db         *gorm.DB
	permissive bool
}

// NewWorkflowService returns a workflow engine bound to db. permissive
// re-enables the legacy behaviour where a direct-flow approve by someone who
// is neither an assignee nor the current approver still advances the
// document.
func NewWorkflowService(db *gorm.DB, permissive bool) *WorkflowService {
	return &WorkflowService{db: db, permissive: permissive}
}

// lockForUpdate applies a row lock where the dialect supports it. The sqlite
// driver used in tests has a single writer and no FOR UPDATE syntax, so the
// transaction itself serialises there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (s *WorkflowService) loadActor(tx *gorm.DB, actorID int) (*models.User, error) {
	var actor models.User
	if err := tx.Where("user_id = ? AND delete_at IS NULL", actorID).First(&actor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, actorID)
		}
		return nil, err
	}
	return &actor, nil
}

func (s *WorkflowService) loadDocument(tx *gorm.DB, documentID int) (*models.Document, error) {
	var document models.Document
	if err := lockForUpdate(tx).Where("document_id = ?", documentID).First(&document).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: document %d", ErrNotFound, documentID)
		}
		return nil, err
	}
	return &document, nil
}

// resolveApprover returns the first active user holding the role, or nil when
// nobody does.
func (s *WorkflowService) resolveApprover(tx *gorm.DB, role models.Role) (*models.User, error) {
	var approver models.User
	err := tx.Where("role = ? AND is_active = ? AND delete_at IS NULL", role, true).
		Order("user_id ASC").
		First(&approver).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &approver, nil
}

func documentAssignments(tx *gorm.DB, documentID int) ([]models.DocumentAssignment, error) {
	var assignments []models.DocumentAssignment
	err := tx.Where("document_id = ?", documentID).
		Order("created_at ASC, assignment_id ASC").
		Find(&assignments).Error
	return assignments, err
}

func documentRoutes(tx *gorm.DB, documentTypeID int) ([]models.ApprovalRoute, error) {
	var routes []models.ApprovalRoute
	err := tx.Where("document_type_id = ? AND delete_at IS NULL", documentTypeID).
		Order("step_order ASC").
		Find(&routes).Error
	return routes, err
}

// appendLog writes one audit row inside the caller's transaction. The action
// must come from the closed action set.
func (s *WorkflowService) appendLog(tx *gorm.DB, userID, documentID int, assignmentID *int, action, comment string, filePath *string) error {
	if !models.ValidAction(action) {
		return fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}
	now := time.Now()
	entry := models.ActionLog{
		UserID:       &userID,
		DocumentID:   documentID,
		AssignmentID: assignmentID,
		Action:       action,
		Comment:      comment,
		FilePath:     filePath,
		Signature:    GenerateSignature(userID, documentID, action),
		SignedAt:     &now,
	}
	return tx.Create(&entry).Error
}

func defaultComment(comment, fallback string) string {
	if comment != "" {
		return comment
	}
	return fallback
}

// Submit moves a draft into the approval flow. With assignments present the
// first-created assignee becomes the approver; otherwise the document type's
// route decides, and a missing route auto-approves. The registration number
// is assigned here, the first time the status leaves draft.
func (s *WorkflowService) Submit(actorID, documentID int, comment string) (*models.Document, string, error) {
	var document *models.Document
	var message string

	// Held across the whole transaction so the registration number scanned
	// by nextRegistrationNumber is committed before the next submit scans.
	registrationMutex.Lock()
	defer registrationMutex.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		actor, err := s.loadActor(tx, actorID)
		if err != nil {
			return err
		}

		document, err = s.loadDocument(tx, documentID)
		if err != nil {
			return err
		}
		if !document.CanBeSubmitted() {
			return fmt.Errorf("%w: document is not a draft", ErrInvalidState)
		}

		assignments, err := documentAssignments(tx, documentID)
		if err != nil {
			return err
		}

		action := models.ActionSubmitted
		if len(assignments) > 0 {
			// Direct-assignment flow bypasses the route table entirely.
			first := assignments[0]
			document.CurrentApproverID = &first.AssigneeID
			document.Status = models.DocStatusPending
			message = "Document sent to the executor for approval"
		} else {
			routes, err := documentRoutes(tx, document.DocumentTypeID)
			if err != nil {
				return err
			}
			if len(routes) > 0 {
				approver, err := s.resolveApprover(tx, routes[0].ApproverRole)
				if err != nil {
					return err
				}
				document.CurrentApproverID = nil
				if approver != nil {
					document.CurrentApproverID = &approver.UserID
				}
				document.CurrentStep = 0
				document.Status = models.DocStatusPending
				message = "Document sent for approval"
			} else {
				document.Status = models.DocStatusApproved
				document.CurrentApproverID = nil
				action = models.ActionApproved
				message = "Document approved (no approval route configured)"
			}
		}

		if document.RegistrationNumber == "" {
			document.RegistrationNumber = nextRegistrationNumber(tx)
		}
		document.UpdatedAt = time.Now()

		if err := tx.Save(document).Error; err != nil {
			return err
		}

		return s.appendLog(tx, actor.UserID, document.DocumentID, nil, action, defaultComment(comment, message), nil)
	})
	if err != nil {
		return nil, "", err
	}

	if document.CurrentApproverID != nil {
		NotifyUser(s.db, *document.CurrentApproverID, "Document awaiting approval",
			fmt.Sprintf("Document %q is waiting for your approval.", document.Title),
			"info", &document.DocumentID)
	}
	return document, message, nil
}

// Approve advances a pending document one step. In the direct-assignment flow
// approval by the assignee finalises the document into work; in the route
// flow the explicit current step index decides what comes next.
func (s *WorkflowService) Approve(actorID, documentID int, comment string, filePath *string) (*models.Document, string, error) {
	var document *models.Document
	var message string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		actor, err := s.loadActor(tx, actorID)
		if err != nil {
			return err
		}

		document, err = s.loadDocument(tx, documentID)
		if err != nil {
			return err
		}
		if document.Status != models.DocStatusPending {
			return fmt.Errorf("%w: document is not pending approval", ErrInvalidState)
		}

		assignments, err := documentAssignments(tx, documentID)
		if err != nil {
			return err
		}

		if len(assignments) > 0 {
			authorized := document.CurrentApproverID != nil && *document.CurrentApproverID == actor.UserID
			for _, a := range assignments {
				if a.AssigneeID == actor.UserID {
					authorized = true
					break
				}
			}
			if !authorized && !s.permissive {
				return fmt.Errorf("%w: only the assignee or the current approver may approve", ErrForbidden)
			}
			document.Status = models.DocStatusInProgress
			document.CurrentApproverID = nil
			message = "Document approved and taken into work"
		} else {
			routes, err := documentRoutes(tx, document.DocumentTypeID)
			if err != nil {
				return err
			}
			if len(routes) == 0 {
				// Route steps removed after submission. The resolved
				// approver still has to be the one who finalises.
				authorized := document.CurrentApproverID != nil && *document.CurrentApproverID == actor.UserID
				if !authorized && !s.permissive {
					return fmt.Errorf("%w: only the current approver may approve", ErrForbidden)
				}
				document.Status = models.DocStatusApproved
				document.CurrentApproverID = nil
				message = "Document approved"
			} else {
				step := document.CurrentStep
				if step >= len(routes) {
					step = len(routes) - 1
				}
				authorized := document.CurrentApproverID != nil && *document.CurrentApproverID == actor.UserID
				if actor.Role == routes[step].ApproverRole {
					authorized = true
				}
				if !authorized && !s.permissive {
					return fmt.Errorf("%w: approval at this step requires the %s role", ErrForbidden, routes[step].ApproverRole)
				}

				next := step + 1
				document.CurrentStep = next
				if next < len(routes) {
					approver, err := s.resolveApprover(tx, routes[next].ApproverRole)
					if err != nil {
						return err
					}
					document.CurrentApproverID = nil
					if approver != nil {
						document.CurrentApproverID = &approver.UserID
					}
					message = "Document forwarded to the next approval step"
				} else {
					document.Status = models.DocStatusApproved
					document.CurrentApproverID = nil
					message = "Document approved"
				}
			}
		}

		document.UpdatedAt = time.Now()
		if err := tx.Save(document).Error; err != nil {
			return err
		}

		return s.appendLog(tx, actor.UserID, document.DocumentID, nil, models.ActionApproved, defaultComment(comment, message), filePath)
	})
	if err != nil {
		return nil, "", err
	}

	if document.CurrentApproverID != nil {
		NotifyUser(s.db, *document.CurrentApproverID, "Document awaiting approval",
			fmt.Sprintf("Document %q is waiting for your approval.", document.Title),
			"info", &document.DocumentID)
	} else {
		NotifyUser(s.db, document.CreatorID, "Document approved",
			fmt.Sprintf("Document %q passed approval.", document.Title),
			"success", &document.DocumentID)
	}
	return document, message, nil
}

// Reject terminally rejects a pending document regardless of flow type.
func (s *WorkflowService) Reject(actorID, documentID int, comment string, filePath *string) (*models.Document, string, error) {
	var document *models.Document

	err := s.db.Transaction(func(tx *gorm.DB) error {
		actor, err := s.loadActor(tx, actorID)
		if err != nil {
			return err
		}

		document, err = s.loadDocument(tx, documentID)
		if err != nil {
			return err
		}
		if document.Status != models.DocStatusPending {
			return fmt.Errorf("%w: document is not pending approval", ErrInvalidState)
		}

		document.Status = models.DocStatusRejected
		document.CurrentApproverID = nil
		document.UpdatedAt = time.Now()
		if err := tx.Save(document).Error; err != nil {
			return err
		}

		return s.appendLog(tx, actor.UserID, document.DocumentID, nil, models.ActionRejected, comment, filePath)
	})
	if err != nil {
		return nil, "", err
	}

	NotifyUser(s.db, document.CreatorID, "Document rejected",
		fmt.Sprintf("Document %q was rejected.", document.Title),
		"error", &document.DocumentID)
	return document, "Document rejected", nil
}

// Assign creates an executor assignment for the document. It may be called at
// any document status; an approved document moves into work.
func (s *WorkflowService) Assign(actorID, documentID, assigneeID int, instruction string, deadline *time.Time) (*models.DocumentAssignment, error) {
	if assigneeID == 0 {
		return nil, fmt.Errorf("%w: assignee is required", ErrValidation)
	}

	var assignment models.DocumentAssignment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		actor, err := s.loadActor(tx, actorID)
		if err != nil {
			return err
		}

		document, err := s.loadDocument(tx, documentID)
		if err != nil {
			return err
		}

		var assignee models.User
		if err := tx.Where("user_id = ? AND delete_at IS NULL", assigneeID).First(&assignee).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: executor %d", ErrNotFound, assigneeID)
			}
			return err
		}

		now := time.Now()
		assignment = models.DocumentAssignment{
			DocumentID:   document.DocumentID,
			AssigneeID:   assignee.UserID,
			AssignedByID: &actor.UserID,
			Status:       models.AssignmentStatusPending,
			Instruction:  instruction,
			Deadline:     deadline,
			Signature:    GenerateSignature(actor.UserID, document.DocumentID, models.ActionAssigned),
			SignedAt:     &now,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}

		if document.Status == models.DocStatusApproved {
			document.Status = models.DocStatusInProgress
			document.UpdatedAt = now
			if err := tx.Save(document).Error; err != nil {
				return err
			}
		}

		comment := fmt.Sprintf("Executor assigned: %s. Instruction: %s", assignee.FullName(), instruction)
		return s.appendLog(tx, actor.UserID, document.DocumentID, &assignment.AssignmentID, models.ActionAssigned, comment, nil)
	})
	if err != nil {
		return nil, err
	}

	NotifyUser(s.db, assignment.AssigneeID, "New assignment",
		fmt.Sprintf("You have been assigned to a document. Instruction: %s", instruction),
		"info", &assignment.DocumentID)
	return &assignment, nil
}

func (s *WorkflowService) loadAssignment(tx *gorm.DB, assignmentID int) (*models.DocumentAssignment, error) {
	var assignment models.DocumentAssignment
	if err := lockForUpdate(tx).Where("assignment_id = ?", assignmentID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: assignment %d", ErrNotFound, assignmentID)
		}
		return nil, err
	}
	return &assignment, nil
}

// Accept marks a pending assignment as accepted by its executor and stamps
// the signature pair.
func (s *WorkflowService) Accept(actorID, assignmentID int) (*models.DocumentAssignment, string, error) {
	var assignment *models.DocumentAssignment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		actor, err := s.loadActor(tx, actorID)
		if err != nil {
			return err
		}

		assignment, err = s.loadAssignment(tx, assignmentID)
		if err != nil {
			return err
		}
		if !assignment.CanBeAccepted() {
			return fmt.Errorf("%w: assignment has already been processed", ErrInvalidState)
		}

		now := time.Now()
		assignment.Status = models.AssignmentStatusAccepted
		assignment.Signature = GenerateSignature(actor.UserID, assignment.DocumentID, models.ActionAccepted)
		assignment.SignedAt = &now
		assignment.UpdatedAt = now
		if err := tx.Save(assignment).Error; err != nil {
			return err
		}

		return s.appendLog(tx, actor.UserID, assignment.DocumentID, &assignment.AssignmentID, models.ActionAccepted, "", nil)
	})
	if err != nil {
		return nil, "", err
	}
	return assignment, "Assignment accepted", nil
}

// Complete finishes an assignment with the executor's response. When every
// assignment of the parent document is completed and the document is in work,
// the document itself completes.
func (s *WorkflowService) Complete(actorID, assignmentID int, response string) (*models.DocumentAssignment, string, error) {
	var assignment *models.DocumentAssignment

	err := s.db.Transaction(func(tx *gorm.DB) error {
		actor, err := s.loadActor(tx, actorID)
		if err != nil {
			return err
		}

		assignment, err = s.loadAssignment(tx, assignmentID)
		if err != nil {
			return err
		}
		if !assignment.CanBeCompleted() {
			return fmt.Errorf("%w: assignment is already completed", ErrInvalidState)
		}

		now := time.Now()
		assignment.Status = models.AssignmentStatusCompleted
		assignment.Response = response
		assignment.Signature = GenerateSignature(actor.UserID, assignment.DocumentID, models.ActionCompleted)
		assignment.SignedAt = &now
		assignment.UpdatedAt = now
		if err := tx.Save(assignment).Error; err != nil {
			return err
		}

		if err := s.appendLog(tx, actor.UserID, assignment.DocumentID, &assignment.AssignmentID, models.ActionCompleted, response, nil); err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.DocumentAssignment{}).
			Where("document_id = ? AND status <> ?", assignment.DocumentID, models.AssignmentStatusCompleted).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		document, err := s.loadDocument(tx, assignment.DocumentID)
		if err != nil {
			return err
		}
		if document.Status == models.DocStatusInProgress || document.Status == models.DocStatusApproved {
			document.Status = models.DocStatusCompleted
			document.UpdatedAt = now
			if err := tx.Save(document).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return assignment, "Assignment completed", nil
}
