package services

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"safety-compliance-api/models"
)

var (
	rosterCacheMu sync.RWMutex
	rosterCache   *rosterCacheEntry
	rosterTTL     = 5 * time.Minute
)

type rosterCacheEntry struct {
	superAdminIDs []int
	fetchedAt     time.Time
}

// superAdminRoster returns the user IDs of all active super admins. The
// roster is cached briefly because every submission reads it; workflows
// only use it to seed approval rows — quorum evaluation always runs over
// the persisted rows, so a roster change mid-flow never shifts an open
// quorum.
func superAdminRoster(db *gorm.DB, force bool) ([]int, error) {
	rosterCacheMu.RLock()
	cached := rosterCache
	rosterCacheMu.RUnlock()

	if cached != nil && !force && time.Since(cached.fetchedAt) < rosterTTL {
		return cached.superAdminIDs, nil
	}

	rosterCacheMu.Lock()
	defer rosterCacheMu.Unlock()

	if rosterCache != nil && !force && time.Since(rosterCache.fetchedAt) < rosterTTL {
		return rosterCache.superAdminIDs, nil
	}

	var ids []int
	if err := db.Model(&models.User{}).
		Where("role_id = ? AND delete_at IS NULL", models.RoleSuperAdmin).
		Order("user_id").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load super admin roster: %w", err)
	}

	rosterCache = &rosterCacheEntry{superAdminIDs: ids, fetchedAt: time.Now()}
	return ids, nil
}

// ClearRosterCache invalidates the cached super admin roster. Called when
// user roles change.
func ClearRosterCache() {
	rosterCacheMu.Lock()
	defer rosterCacheMu.Unlock()
	rosterCache = nil
}
