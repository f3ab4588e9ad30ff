// Package keyring stores API credential sets and rotates between them.
// UEX private calls need the full five-field credential set, so the ring
// only hands out entries that pass the completeness check.
package keyring

import (
	"fmt"
	"sync"
	"time"

	"uexgo/pkg/core"
)

// RotationStrategy selects when the ring advances to the next credential
// set.
type RotationStrategy int

const (
	// RotationRoundRobin advances only when Rotate is called explicitly.
	RotationRoundRobin RotationStrategy = iota
	// RotationOnError advances whenever a request using the current set
	// fails.
	RotationOnError
)

// Entry is one named credential set plus its usage accounting.
type Entry struct {
	ID          string
	Credentials core.Credentials
	Disabled    bool
	LastUsed    time.Time
	ErrorCount  int
}

// KeyRing is a thread-safe collection of credential entries.
type KeyRing struct {
	mu       sync.RWMutex
	entries  []*Entry
	current  int
	strategy RotationStrategy
}

// New creates a key ring over copies of the given entries.
func New(entries []*Entry, strategy RotationStrategy) *KeyRing {
	copies := make([]*Entry, len(entries))
	for i, e := range entries {
		c := *e
		copies[i] = &c
	}
	return &KeyRing{entries: copies, strategy: strategy}
}

// Current returns the active, enabled, complete credential set, or nil
// when none is available.
func (k *KeyRing) Current() *core.Credentials {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if len(k.entries) == 0 {
		return nil
	}
	for i := 0; i < len(k.entries); i++ {
		idx := (k.current + i) % len(k.entries)
		e := k.entries[idx]
		if !e.Disabled && e.Credentials.Complete() {
			creds := e.Credentials
			return &creds
		}
	}
	return nil
}

// Rotate advances to the next enabled entry.
func (k *KeyRing) Rotate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rotateLocked()
}

func (k *KeyRing) rotateLocked() {
	if len(k.entries) == 0 {
		return
	}
	start := k.current
	for {
		k.current = (k.current + 1) % len(k.entries)
		if !k.entries[k.current].Disabled {
			return
		}
		if k.current == start {
			return
		}
	}
}

// OnError records a failure against the current entry and rotates when the
// strategy calls for it.
func (k *KeyRing) OnError(err error) {
	if err == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if len(k.entries) == 0 {
		return
	}
	k.entries[k.current].ErrorCount++
	if k.strategy == RotationOnError {
		k.rotateLocked()
	}
}

// MarkUsed stamps the current entry's last-used time.
func (k *KeyRing) MarkUsed() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.entries) == 0 {
		return
	}
	k.entries[k.current].LastUsed = time.Now()
}

// Disable takes the named entry out of rotation.
func (k *KeyRing) Disable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, e := range k.entries {
		if e.ID == id {
			e.Disabled = true
			return
		}
	}
}

// Enable returns the named entry to rotation and resets its error count.
func (k *KeyRing) Enable(id string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, e := range k.entries {
		if e.ID == id {
			e.Disabled = false
			e.ErrorCount = 0
			return
		}
	}
}

// Len returns the number of entries in the ring.
func (k *KeyRing) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.entries)
}

// String identifies the entry with its key masked.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{ID:%s, Key:%s}", e.ID, maskKey(e.Credentials.APIKey))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
