package redis

import (
	"fmt"

	"github.com/mcoot/tapduel/internal/model"
)

// Key prefix for all persisted data
const keyPrefix = "tapduel"

// profileKey returns the Redis key for a player profile
func profileKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, id)
}

// profileIndexKey returns the Redis key for the SET of all profile keys
func profileIndexKey() string {
	return fmt.Sprintf("%s:idx:profiles", keyPrefix)
}
