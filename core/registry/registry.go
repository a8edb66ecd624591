// Package registry maps stable names to actor addresses.
//
// Addresses are weak handles, so a registration never keeps a dead actor
// alive: lookups prune entries whose actor has stopped, and a name whose
// actor died may be re-registered immediately.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joakim-brannstrom/my/core/actor"
	"github.com/joakim-brannstrom/my/core/sf"
)

// ErrNameTaken is returned by Register when the name is bound to a live
// actor.
var ErrNameTaken = errors.New("registry: name already taken")

// Registry is a concurrent name-to-address table for one actor system.
type Registry struct {
	sys *actor.System

	mu      sync.RWMutex
	entries map[string]actor.WeakAddress

	spawns *sf.Singleflight[actor.WeakAddress]
}

// New creates an empty registry bound to sys. Spawns issued through
// GetOrSpawn land on this system.
func New(sys *actor.System) *Registry {
	return &Registry{
		sys:     sys,
		entries: make(map[string]actor.WeakAddress),
		spawns:  sf.New[actor.WeakAddress](),
	}
}

// Register binds name to addr. It fails with ErrNameTaken if the name is
// already bound to a live actor; a binding to a dead actor is replaced.
func (r *Registry) Register(name string, addr actor.WeakAddress) error {
	if !addr.Valid() {
		return fmt.Errorf("registry: register %q: invalid address", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[name]; ok && cur.Alive() {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	r.entries[name] = addr
	return nil
}

// Deregister removes the binding for name, if any.
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Lookup returns the live address bound to name. A binding whose actor
// has stopped is pruned and reported as absent.
func (r *Registry) Lookup(name string) (actor.WeakAddress, bool) {
	r.mu.RLock()
	addr, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return actor.WeakAddress{}, false
	}
	if addr.Alive() {
		return addr, true
	}

	r.mu.Lock()
	if cur, ok := r.entries[name]; ok && !cur.Alive() {
		delete(r.entries, name)
	}
	r.mu.Unlock()
	return actor.WeakAddress{}, false
}

// GetOrSpawn returns the live actor bound to name, spawning it with
// factory if absent. Concurrent calls for the same name are deduplicated:
// the factory runs at most once per miss.
func (r *Registry) GetOrSpawn(name string, factory func(*actor.Actor)) (actor.WeakAddress, error) {
	if addr, ok := r.Lookup(name); ok {
		return addr, nil
	}
	return r.spawns.Do(name, func() (actor.WeakAddress, error) {
		// A racing call may have won the flight and registered already.
		if addr, ok := r.Lookup(name); ok {
			return addr, nil
		}
		addr := r.sys.Spawn(factory)
		if !addr.Valid() {
			return actor.WeakAddress{}, fmt.Errorf("registry: spawn %q: system is down", name)
		}
		if err := r.Register(name, addr); err != nil {
			return actor.WeakAddress{}, err
		}
		return addr, nil
	})
}

// Names returns the currently bound names, pruning dead entries.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name, addr := range r.entries {
		if !addr.Alive() {
			delete(r.entries, name)
			continue
		}
		names = append(names, name)
	}
	return names
}

// Len reports the number of live bindings.
func (r *Registry) Len() int { return len(r.Names()) }
