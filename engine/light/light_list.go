package light

import (
	"sync"
	"time"
)

// ID identifies a light in a List. The zero ID refers to no light.
type ID uint32

// list is the implementation of the List interface.
type list struct {
	mu     *sync.Mutex
	lights map[ID]Light
	order  []ID
	nextID ID
}

// List holds the live dynamic lights in spawn order.
type List interface {
	// Insert adds a light. When replace names a live light it is removed first, so an entity
	// that re-triggers its light every frame keeps a single entry.
	//
	// Parameters:
	//   - l: the light
	//   - replace: the ID of the light to replace, or 0
	//
	// Returns:
	//   - ID: the new light's ID
	Insert(l Light, replace ID) ID

	// Remove drops the light with the given ID if it is live.
	Remove(id ID)

	// Get returns the light with the given ID.
	Get(id ID) (Light, bool)

	// Len returns the number of live lights.
	Len() int

	// Update drops every light that has expired at now.
	//
	// Parameters:
	//   - now: the current level time
	//
	// Returns:
	//   - int: the number of lights dropped
	Update(now time.Duration) int

	// Each calls fn for every live light in spawn order.
	Each(fn func(id ID, l Light))

	// Clear drops every light, e.g. on level change.
	Clear()
}

var _ List = &list{}

// NewList creates an empty List.
func NewList() List {
	return &list{
		mu:     &sync.Mutex{},
		lights: make(map[ID]Light),
	}
}

func (ls *list) Insert(l Light, replace ID) ID {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if replace != 0 {
		ls.removeLocked(replace)
	}
	ls.nextID++
	if ls.nextID == 0 {
		ls.nextID = 1
	}
	id := ls.nextID
	ls.lights[id] = l
	ls.order = append(ls.order, id)
	return id
}

func (ls *list) removeLocked(id ID) {
	if _, ok := ls.lights[id]; !ok {
		return
	}
	delete(ls.lights, id)
	for i, o := range ls.order {
		if o == id {
			ls.order = append(ls.order[:i], ls.order[i+1:]...)
			break
		}
	}
}

func (ls *list) Remove(id ID) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.removeLocked(id)
}

func (ls *list) Get(id ID) (Light, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	l, ok := ls.lights[id]
	return l, ok
}

func (ls *list) Len() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return len(ls.order)
}

func (ls *list) Update(now time.Duration) int {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	kept := ls.order[:0]
	dropped := 0
	for _, id := range ls.order {
		if ls.lights[id].Expired(now) {
			delete(ls.lights, id)
			dropped++
			continue
		}
		kept = append(kept, id)
	}
	ls.order = kept
	return dropped
}

func (ls *list) Each(fn func(id ID, l Light)) {
	ls.mu.Lock()
	ids := append([]ID(nil), ls.order...)
	lights := make([]Light, len(ids))
	for i, id := range ids {
		lights[i] = ls.lights[id]
	}
	ls.mu.Unlock()

	for i, id := range ids {
		fn(id, lights[i])
	}
}

func (ls *list) Clear() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	clear(ls.lights)
	ls.order = ls.order[:0]
}
