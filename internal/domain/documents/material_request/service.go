package material_request

import (
	"context"
	"fmt"
	"time"

	"obraplan/internal/core/apperror"
	"obraplan/internal/core/id"
	"obraplan/internal/core/security"
	"obraplan/internal/core/tx"
	"obraplan/internal/core/types"
	"obraplan/internal/domain"
	"obraplan/internal/domain/auth"
	"obraplan/internal/domain/catalogs/material"
	"obraplan/internal/domain/catalogs/project"
	"obraplan/internal/domain/registers/stock"
	"obraplan/pkg/logger"
	"obraplan/pkg/numerator"
)

// recorderType identifies material request movements in the stock journal.
const recorderType = "MaterialRequest"

// ProjectLookup resolves the owning project.
type ProjectLookup interface {
	GetByID(ctx context.Context, id id.ID) (*project.Project, error)
}

// MaterialLookup resolves materials for price snapshots.
type MaterialLookup interface {
	GetByID(ctx context.Context, id id.ID) (*material.Material, error)
}

// UserLookup resolves requester and approver identities.
type UserLookup interface {
	GetByID(ctx context.Context, id id.ID) (*auth.User, error)
}

// Auditor records lifecycle events of a request. Optional; wired at
// composition time.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service orchestrates the material request lifecycle: creation with price
// snapshots, the single approval decision, and the stock posting that goes
// with it.
type Service struct {
	repo      Repository
	projects  ProjectLookup
	materials MaterialLookup
	users     UserLookup
	stock     *stock.Service
	policy    security.ApprovalPolicy
	txManager tx.Manager
	numerator numerator.Generator
	auditor   Auditor
}

// NewService creates a new material request service.
func NewService(
	repo Repository,
	projects ProjectLookup,
	materials MaterialLookup,
	users UserLookup,
	stockSvc *stock.Service,
	policy security.ApprovalPolicy,
	txManager tx.Manager,
	num numerator.Generator,
) *Service {
	if policy == nil {
		policy = security.OpenPolicy{}
	}
	return &Service{
		repo:      repo,
		projects:  projects,
		materials: materials,
		users:     users,
		stock:     stockSvc,
		policy:    policy,
		txManager: txManager,
		numerator: num,
	}
}

// SetAuditor wires the audit trail after construction.
func (s *Service) SetAuditor(a Auditor) {
	s.auditor = a
}

func (s *Service) audit(ctx context.Context, requestID id.ID, action string, changes map[string]any) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogChange(ctx, "material_request", requestID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed", "request_id", requestID.String(), "action", action, "error", err)
	}
}

// ItemInput is one requested material line as submitted by the caller.
// The unit price is never taken from input; it is snapshot from the material.
type ItemInput struct {
	MaterialID   id.ID
	Quantity     string
	Observations *string
}

// CreateInput carries the fields for a new request.
type CreateInput struct {
	ProjectID    id.ID
	RequesterID  id.ID
	NeededBy     *time.Time
	Observations string
	Items        []ItemInput
}

// Create builds and persists a new request in PENDENTE status.
// Validates that the project exists and accepts requests, that the requester
// exists, and that every material exists; snapshots unit prices and assigns
// the document number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*MaterialRequest, error) {
	proj, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !proj.IsActive() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "project does not accept material requests").
			WithDetail("projectId", in.ProjectID.String()).
			WithDetail("status", string(proj.Status))
	}

	if _, err := s.users.GetByID(ctx, in.RequesterID); err != nil {
		return nil, err
	}

	req := NewMaterialRequest(in.ProjectID, in.RequesterID)
	req.NeededBy = in.NeededBy
	req.Observations = in.Observations

	for _, item := range in.Items {
		qty, err := parseQuantity(item.Quantity)
		if err != nil {
			return nil, err
		}
		mat, err := s.materials.GetByID(ctx, item.MaterialID)
		if err != nil {
			return nil, err
		}
		if err := req.AddItem(mat.ID, qty, mat.UnitPrice, item.Observations); err != nil {
			return nil, err
		}
	}

	if err := req.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SM"), nil, req.Date)
		if err != nil {
			return fmt.Errorf("generate request number: %w", err)
		}
		req.Number = number

		if err := s.repo.Create(ctx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if err := s.repo.SaveItems(ctx, req.ID, req.Items); err != nil {
			return fmt.Errorf("save request items: %w", err)
		}
		s.audit(ctx, req.ID, "create", map[string]any{
			"number":    req.Number,
			"projectId": req.ProjectID.String(),
			"total":     req.TotalAmount.String(),
			"items":     len(req.Items),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material request created",
		"request_id", req.ID.String(),
		"number", req.Number,
		"project_id", req.ProjectID.String(),
		"items", len(req.Items),
	)
	return req, nil
}

// GetWithItems retrieves a request with its items loaded.
func (s *Service) GetWithItems(ctx context.Context, requestID id.ID) (*MaterialRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request items: %w", err)
	}
	req.Items = items

	return req, nil
}

// List retrieves requests with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*MaterialRequest], error) {
	return s.repo.List(ctx, filter)
}

// UpdateInput carries the modifiable fields of a pending request.
type UpdateInput struct {
	NeededBy     *time.Time
	Observations string
	Items        []ItemInput
}

// Update replaces the mutable fields and items of a PENDENTE request.
// Unit prices are re-snapshot from the current material records.
func (s *Service) Update(ctx context.Context, requestID id.ID, in UpdateInput) (*MaterialRequest, error) {
	var req *MaterialRequest

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.CanModify() {
			return apperror.NewInvalidRequestState(req.ID.String(), string(req.Status))
		}

		req.NeededBy = in.NeededBy
		req.Observations = in.Observations
		req.Items = req.Items[:0]
		for _, item := range in.Items {
			qty, err := parseQuantity(item.Quantity)
			if err != nil {
				return err
			}
			mat, err := s.materials.GetByID(ctx, item.MaterialID)
			if err != nil {
				return err
			}
			if err := req.AddItem(mat.ID, qty, mat.UnitPrice, item.Observations); err != nil {
				return err
			}
		}

		if err := req.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if err := s.repo.SaveItems(ctx, req.ID, req.Items); err != nil {
			return fmt.Errorf("save request items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

// Delete removes a request. Only PENDENTE requests can be deleted.
func (s *Service) Delete(ctx context.Context, requestID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		req, err := s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.CanModify() {
			return apperror.NewInvalidRequestState(req.ID.String(), string(req.Status))
		}
		if err := s.repo.Delete(ctx, requestID); err != nil {
			return err
		}
		s.audit(ctx, requestID, "delete", map[string]any{"number": req.Number})
		return nil
	})
}

// Approve runs the approval workflow in a single transaction:
//
//  1. Lock the request row; only PENDENTE requests proceed.
//  2. Resolve the approver and evaluate the approval policy.
//  3. Validate sufficiency for every item under row locks; any shortage
//     aborts the whole operation before a single balance changes.
//  4. Decrement every balance and journal the expense movements.
//  5. Record the decision on the request and persist it.
//
// The lock in step 1 serializes concurrent decisions on one request; the
// locks and guarded decrements in steps 3-4 keep concurrent approvals of
// different requests from driving a shared material balance negative.
func (s *Service) Approve(ctx context.Context, requestID, approverID id.ID) (*MaterialRequest, error) {
	var req *MaterialRequest

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return apperror.NewInvalidRequestState(req.ID.String(), string(req.Status))
		}

		items, err := s.repo.GetItems(ctx, requestID)
		if err != nil {
			return fmt.Errorf("load request items: %w", err)
		}
		req.Items = items

		approver, err := s.users.GetByID(ctx, approverID)
		if err != nil {
			return err
		}

		total, _ := req.TotalAmount.Float64()
		if err := s.policy.Authorize(ctx, security.ApprovalInput{
			Total:           total,
			ItemCount:       int64(len(req.Items)),
			ProjectID:       req.ProjectID.String(),
			RequesterID:     req.RequesterID.String(),
			ApproverID:      approver.ID.String(),
			ApproverRoles:   approver.Roles,
			ApproverIsAdmin: approver.IsAdmin,
		}); err != nil {
			return err
		}

		requirements := make([]stock.Requirement, len(req.Items))
		for i, item := range req.Items {
			requirements[i] = stock.Requirement{
				MaterialID: item.MaterialID,
				Quantity:   item.Quantity,
			}
		}

		// Validate all, then mutate all.
		if err := s.stock.ValidateSufficiency(ctx, requirements); err != nil {
			return err
		}
		if err := s.stock.Decrease(ctx, req.ID, recorderType, req.Date, requirements); err != nil {
			return err
		}

		if err := req.Approve(approver.ID); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, req); err != nil {
			return fmt.Errorf("persist approval: %w", err)
		}
		s.audit(ctx, req.ID, "approve", map[string]any{
			"number":     req.Number,
			"approverId": approver.ID.String(),
			"total":      req.TotalAmount.String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material request approved",
		"request_id", req.ID.String(),
		"number", req.Number,
		"approver_id", approverID.String(),
	)
	return req, nil
}

// Reject records a rejection. Requires a non-empty reason and a PENDENTE
// request; no stock interaction.
func (s *Service) Reject(ctx context.Context, requestID, approverID id.ID, reason string) (*MaterialRequest, error) {
	var req *MaterialRequest

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.repo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return apperror.NewInvalidRequestState(req.ID.String(), string(req.Status))
		}

		approver, err := s.users.GetByID(ctx, approverID)
		if err != nil {
			return err
		}

		if err := req.Reject(approver.ID, reason); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, req); err != nil {
			return fmt.Errorf("persist rejection: %w", err)
		}
		s.audit(ctx, req.ID, "reject", map[string]any{
			"number":     req.Number,
			"approverId": approver.ID.String(),
			"reason":     reason,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material request rejected",
		"request_id", req.ID.String(),
		"number", req.Number,
		"approver_id", approverID.String(),
	)
	return req, nil
}

func parseQuantity(raw string) (types.Quantity, error) {
	qty, err := types.NewQuantityFromString(raw)
	if err != nil {
		return 0, apperror.NewValidation("invalid quantity").
			WithDetail("value", raw).
			WithCause(err)
	}
	if qty <= 0 {
		return 0, apperror.NewValidation("quantity must be positive").
			WithDetail("value", raw)
	}
	return qty, nil
}
