package repositories

import (
	"context"
	"errors"
	"fmt"

	"fileforge/internal/constants"
	"fileforge/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
)

// listingCache holds listing results per user. Reads are best effort, a miss
// or an unavailable cache falls through to the database.
type listingCache interface {
	get(ctx context.Context, key string, result any) bool
	set(ctx context.Context, userID uuid.UUID, key string, value any)
	clear(ctx context.Context, userID uuid.UUID) error
}

// valkeyListingCache tracks every key it writes in a user index set so a
// single call can drop all of them.
type valkeyListingCache struct {
	db  database.DB
	log logger.Logger
}

func newListingCache(db database.DB) listingCache {
	return valkeyListingCache{db: db, log: logger.New("listingCache")}
}

func listingKey(prefix string, userID uuid.UUID, suffix string) string {
	return fmt.Sprintf("%s:%s:%s", prefix, userID, suffix)
}

func (c valkeyListingCache) get(ctx context.Context, key string, result any) bool {
	found, err := database.NewCacheBuilder(c.db.Cache.User, key).
		WithContext(ctx).
		WithTimeout(constants.ListingCacheReadTimeout).
		Get(result)
	if err != nil {
		if !errors.Is(err, database.ErrCacheUnavailable) {
			c.log.Function("get").Warn("failed to read listing cache", "key", key, "error", err)
		}
		return false
	}
	return found
}

func (c valkeyListingCache) set(ctx context.Context, userID uuid.UUID, key string, value any) {
	log := c.log.Function("set")

	err := database.NewCacheBuilder(c.db.Cache.User, key).
		WithContext(ctx).
		WithStruct(value).
		WithTTL(constants.ListingCacheExpiry).
		Set()
	if errors.Is(err, database.ErrCacheUnavailable) {
		return
	}
	if err != nil {
		log.Warn("failed to cache listing", "key", key, "error", err)
		return
	}

	if err := database.NewCacheBuilder(c.db.Cache.User, userID).
		WithContext(ctx).
		WithHash(constants.UserListingsIndex).
		WithMember(key).
		SetSadd(); err != nil {
		log.Warn("failed to index listing key", "key", key, "error", err)
	}
}

// clear drops every listing cached for the user.
func (c valkeyListingCache) clear(ctx context.Context, userID uuid.UUID) error {
	log := c.log.Function("clear")

	keys, err := database.NewCacheBuilder(c.db.Cache.User, userID).
		WithContext(ctx).
		WithHash(constants.UserListingsIndex).
		GetSetMembers()
	if errors.Is(err, database.ErrCacheUnavailable) {
		return nil
	}
	if err != nil {
		return log.Err("failed to read listing index", err, "userID", userID)
	}

	indexKey := fmt.Sprintf("%s:%s", constants.UserListingsIndex, userID)
	keys = append(keys, indexKey)

	if err := database.NewCacheBuilder(c.db.Cache.User, keys).
		WithContext(ctx).
		Delete(); err != nil {
		return log.Err("failed to clear listing cache", err, "userID", userID, "keyCount", len(keys))
	}

	log.Debug("cleared listing cache", "userID", userID, "keyCount", len(keys))
	return nil
}
