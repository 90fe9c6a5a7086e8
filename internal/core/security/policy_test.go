package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"obraplan/internal/core/apperror"
)

func TestNewCELPolicy_CompileErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "syntax error", expr: "total <="},
		{name: "unknown variable", expr: "unknown_var > 10"},
		{name: "non-bool result", expr: "total + 1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCELPolicy(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestCELPolicy_Authorize(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		expr    string
		in      ApprovalInput
		allowed bool
	}{
		{
			name:    "total below threshold",
			expr:    "total <= 50000.0",
			in:      ApprovalInput{Total: 987.00},
			allowed: true,
		},
		{
			name:    "total above threshold",
			expr:    "total <= 50000.0",
			in:      ApprovalInput{Total: 60000.0},
			allowed: false,
		},
		{
			name:    "admin bypasses threshold",
			expr:    "approver_is_admin || total <= 50000.0",
			in:      ApprovalInput{Total: 60000.0, ApproverIsAdmin: true},
			allowed: true,
		},
		{
			name:    "self approval blocked",
			expr:    "approver_id != requester_id",
			in:      ApprovalInput{RequesterID: "u1", ApproverID: "u1"},
			allowed: false,
		},
		{
			name:    "role membership",
			expr:    "'gestor' in approver_roles",
			in:      ApprovalInput{ApproverRoles: []string{"gestor", "engenheiro"}},
			allowed: true,
		},
		{
			name:    "role missing with nil roles",
			expr:    "'gestor' in approver_roles",
			in:      ApprovalInput{},
			allowed: false,
		},
		{
			name:    "item count limit",
			expr:    "item_count <= 3",
			in:      ApprovalInput{ItemCount: 5},
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewCELPolicy(tt.expr)
			require.NoError(t, err)

			err = policy.Authorize(ctx, tt.in)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeApprovalPolicy, appErr.Code)
		})
	}
}

func TestOpenPolicy_AllowsEverything(t *testing.T) {
	err := OpenPolicy{}.Authorize(context.Background(), ApprovalInput{Total: 1e9})
	assert.NoError(t, err)
}
