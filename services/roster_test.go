package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safety-compliance-api/models"
)

func TestSuperAdminRoster(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 3, models.RoleSuperAdmin)
	seedUser(t, db, 1, models.RoleSuperAdmin)
	seedUser(t, db, 2, models.RoleManager)

	ids, err := superAdminRoster(db, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)
}

func TestSuperAdminRosterCacheInvalidation(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, models.RoleSuperAdmin)

	ids, err := superAdminRoster(db, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)

	// A newly promoted admin is invisible until the cache clears.
	seedUser(t, db, 2, models.RoleSuperAdmin)
	ids, err = superAdminRoster(db, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)

	ClearRosterCache()
	ids, err = superAdminRoster(db, false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)

	// Force refresh bypasses the TTL as well.
	seedUser(t, db, 3, models.RoleSuperAdmin)
	ids, err = superAdminRoster(db, true)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestSuperAdminRosterExcludesDeleted(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, 1, models.RoleSuperAdmin)
	seedUser(t, db, 2, models.RoleSuperAdmin)

	require.NoError(t, db.Model(&models.User{}).
		Where("user_id = ?", admin.UserID).
		Update("delete_at", testNow).Error)
	ClearRosterCache()

	ids, err := superAdminRoster(db, false)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, ids)
}
