// Package security provides approval policy evaluation.
// Deployments differ in who may approve what; the rule is configured as a CEL
// expression instead of hard-coded thresholds.
package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"obraplan/internal/core/apperror"
)

// ApprovalInput carries the facts an approval policy can reason about.
type ApprovalInput struct {
	// Total is the request total in currency units
	Total float64

	// ItemCount is the number of line items
	ItemCount int64

	ProjectID   string
	RequesterID string

	ApproverID      string
	ApproverRoles   []string
	ApproverIsAdmin bool
}

// ApprovalPolicy decides whether an approval attempt is allowed.
type ApprovalPolicy interface {
	// Authorize returns nil when the attempt is allowed,
	// apperror.CodeApprovalPolicy otherwise.
	Authorize(ctx context.Context, in ApprovalInput) error
}

// OpenPolicy allows all approvals (development default).
type OpenPolicy struct{}

func (OpenPolicy) Authorize(ctx context.Context, in ApprovalInput) error { return nil }

// CELPolicy evaluates a compiled CEL expression against the approval input.
//
// Example expressions:
//
//	"approver_is_admin || total <= 50000.0"
//	"approver_id != requester_id"
//	"'gestor' in approver_roles || item_count <= 3"
type CELPolicy struct {
	expr    string
	program cel.Program
}

// NewCELPolicy compiles the expression. The expression must evaluate to bool.
func NewCELPolicy(expr string) (*CELPolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("total", cel.DoubleType),
		cel.Variable("item_count", cel.IntType),
		cel.Variable("project_id", cel.StringType),
		cel.Variable("requester_id", cel.StringType),
		cel.Variable("approver_id", cel.StringType),
		cel.Variable("approver_roles", cel.ListType(cel.StringType)),
		cel.Variable("approver_is_admin", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile approval policy %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("approval policy %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build approval policy program: %w", err)
	}

	return &CELPolicy{expr: expr, program: program}, nil
}

// Authorize implements ApprovalPolicy.
func (p *CELPolicy) Authorize(ctx context.Context, in ApprovalInput) error {
	roles := in.ApproverRoles
	if roles == nil {
		roles = []string{}
	}

	out, _, err := p.program.ContextEval(ctx, map[string]any{
		"total":             in.Total,
		"item_count":        in.ItemCount,
		"project_id":        in.ProjectID,
		"requester_id":      in.RequesterID,
		"approver_id":       in.ApproverID,
		"approver_roles":    roles,
		"approver_is_admin": in.ApproverIsAdmin,
	})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate approval policy: %w", err))
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return apperror.NewInternal(fmt.Errorf("approval policy returned non-bool: %v", out.Value()))
	}
	if !allowed {
		return apperror.NewApprovalPolicy("approval denied by policy").
			WithDetail("policy", p.expr).
			WithDetail("approver_id", in.ApproverID)
	}

	return nil
}
