package service

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// keyedMutex serializes writers per package so two concurrent
// transitions cannot both validate against a stale status. Entries are
// refcounted and dropped once the last holder releases.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[snowflake.ID]*lockEntry)}
}

func (k *keyedMutex) Lock(id snowflake.ID) {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &lockEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) Unlock(id snowflake.ID) {
	k.mu.Lock()
	entry, ok := k.locks[id]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, id)
		}
	}
	k.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
