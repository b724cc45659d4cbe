// Package directory keeps a lobby subscriber's view of the public room list
// and turns registry snapshots into added/updated/removed deltas.
package directory

import (
	"sort"
	"sync"

	"github.com/dkeye/Lobby/internal/core"
	"github.com/dkeye/Lobby/internal/domain"
)

// Cache is one subscriber's last-known room set. It lives while the session
// is in the lobby; Close empties it for good.
type Cache struct {
	mu     sync.Mutex
	rooms  map[domain.RoomName]core.RoomInfo
	closed bool
}

func NewCache() *Cache {
	return &Cache{rooms: make(map[domain.RoomName]core.RoomInfo)}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

// Diff reconciles the cache against snapshot and returns what changed.
//
// A listed room unknown to the cache is added. A known room whose version
// moved is updated by full replacement. A closed, hidden or removed room is
// dropped if cached and never added. A cached room missing from the
// snapshot is dropped as well.
func (c *Cache) Diff(snapshot []core.RoomInfo) core.RoomListDiff {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diffLocked(snapshot)
}

// Sync runs Diff and hands the result to deliver while still holding the
// cache, so nothing reaches the subscriber after Close returned.
// It reports false once the cache is closed.
func (c *Cache) Sync(snapshot []core.RoomInfo, deliver func(core.RoomListDiff)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	deliver(c.diffLocked(snapshot))
	return true
}

// Close clears the cache; a later subscription must start from a new one.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	clear(c.rooms)
}

func (c *Cache) diffLocked(snapshot []core.RoomInfo) core.RoomListDiff {
	diff := core.RoomListDiff{
		Added:   []core.RoomInfo{},
		Updated: []core.RoomInfo{},
		Removed: []domain.RoomName{},
	}
	seen := make(map[domain.RoomName]struct{}, len(snapshot))

	for _, info := range snapshot {
		seen[info.Name] = struct{}{}
		cached, known := c.rooms[info.Name]
		switch {
		case !info.Listed():
			if known {
				delete(c.rooms, info.Name)
				diff.Removed = append(diff.Removed, info.Name)
			}
		case !known:
			c.rooms[info.Name] = info
			diff.Added = append(diff.Added, info)
		case cached.Version != info.Version:
			c.rooms[info.Name] = info
			diff.Updated = append(diff.Updated, info)
		}
	}
	for name := range c.rooms {
		if _, ok := seen[name]; !ok {
			delete(c.rooms, name)
			diff.Removed = append(diff.Removed, name)
		}
	}

	sort.Slice(diff.Added, func(i, j int) bool { return diff.Added[i].Name < diff.Added[j].Name })
	sort.Slice(diff.Updated, func(i, j int) bool { return diff.Updated[i].Name < diff.Updated[j].Name })
	sort.Slice(diff.Removed, func(i, j int) bool { return diff.Removed[i] < diff.Removed[j] })
	return diff
}
