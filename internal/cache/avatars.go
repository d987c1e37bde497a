// Package cache keeps avatar urls in memory between polling passes.
package cache

import (
	"errors"
	"time"

	"github.com/leighmacdonald/cs2-friends/internal/presence"
	"github.com/leighmacdonald/steamid/v4/steamid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	// How long until a entry is considered stale and refetched.
	maxCacheAge   = time.Hour * 24
	cleanInterval = time.Hour
)

var ErrCacheMiss = errors.New("cache miss error")

// Avatars holds the last known avatar url for each steam id. Entries expire so that changed
// avatars are eventually picked up.
type Avatars struct {
	items *gocache.Cache
}

func NewAvatars(maxAge time.Duration) *Avatars {
	if maxAge <= 0 {
		maxAge = maxCacheAge
	}

	return &Avatars{items: gocache.New(maxAge, cleanInterval)}
}

func (a *Avatars) Get(steamID steamid.SteamID) (string, error) {
	value, found := a.items.Get(steamID.String())
	if !found {
		return "", ErrCacheMiss
	}

	avatar, ok := value.(string)
	if !ok {
		return "", ErrCacheMiss
	}

	return avatar, nil
}

// Snapshot returns a copy of all unexpired entries, suitable for passing to an aggregation pass.
func (a *Avatars) Snapshot() presence.AvatarCache {
	items := a.items.Items()
	snapshot := make(presence.AvatarCache, len(items))
	for key, item := range items {
		avatar, ok := item.Object.(string)
		if !ok {
			continue
		}

		sid := steamid.New(key)
		if !sid.Valid() {
			continue
		}

		snapshot[sid] = avatar
	}

	return snapshot
}

// Update stores any entries in updated that are new or changed. Existing entries keep their
// original expiry so they are refreshed periodically.
func (a *Avatars) Update(updated presence.AvatarCache) int {
	changed := 0
	for sid, avatar := range updated {
		if avatar == "" {
			continue
		}

		if current, err := a.Get(sid); err == nil && current == avatar {
			continue
		}

		a.items.Set(sid.String(), avatar, gocache.DefaultExpiration)
		changed++
	}

	return changed
}

func (a *Avatars) Len() int {
	return a.items.ItemCount()
}
