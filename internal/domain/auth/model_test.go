package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_LoginLockout(t *testing.T) {
	u := NewUser("pedro@obraplan.io", "hash")

	assert.NoError(t, u.CanLogin())

	for i := 0; i < 4; i++ {
		u.RecordFailedLogin(5, 15*time.Minute)
	}
	assert.False(t, u.IsLocked())
	assert.NoError(t, u.CanLogin())

	u.RecordFailedLogin(5, 15*time.Minute)
	assert.True(t, u.IsLocked())
	assert.Error(t, u.CanLogin())

	u.RecordSuccessfulLogin()
	assert.False(t, u.IsLocked())
	assert.Zero(t, u.FailedLoginAttempts)
	assert.NotNil(t, u.LastLoginAt)
}

func TestUser_CanLogin_Disabled(t *testing.T) {
	u := NewUser("pedro@obraplan.io", "hash")
	u.IsActive = false

	assert.Error(t, u.CanLogin())
}

func TestUser_HasPermission(t *testing.T) {
	t.Run("worker defaults", func(t *testing.T) {
		u := NewUser("pedro@obraplan.io", "hash")

		assert.True(t, u.HasPermission("catalog:material:read"))
		assert.True(t, u.HasPermission("document:material_request:create"))
		assert.False(t, u.HasPermission("document:material_request:approve"))
		assert.False(t, u.HasPermission("register:stock:adjust"))
	})

	t.Run("manager approves", func(t *testing.T) {
		u := NewUser("ana@obraplan.io", "hash")
		u.Roles = []string{RoleManager}

		assert.True(t, u.HasPermission("document:material_request:approve"))
		assert.True(t, u.HasPermission("register:stock:adjust"))
	})

	t.Run("admin bypasses everything", func(t *testing.T) {
		u := NewUser("root@obraplan.io", "hash")
		u.IsAdmin = true
		u.Roles = nil

		assert.True(t, u.HasPermission("anything:at:all"))
	})
}

func TestPermissionsForRoles_Deduplicates(t *testing.T) {
	perms := PermissionsForRoles([]string{RoleManager, RoleWorker})

	seen := make(map[string]int)
	for _, p := range perms {
		seen[p]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "permission %s granted %d times", p, n)
	}
	assert.Contains(t, perms, "catalog:material:read")
}

func TestRefreshToken_IsValid(t *testing.T) {
	now := time.Now()

	valid := RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, valid.IsValid())

	expired := RefreshToken{ExpiresAt: now.Add(-time.Hour)}
	assert.False(t, expired.IsValid())

	revoked := RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &now}
	assert.False(t, revoked.IsValid())
}
