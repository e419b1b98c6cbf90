// Package hooks implements an action/filter registry. Actions notify
// subscribers of events; filters transform a value through a chain of
// callbacks. Callbacks run in priority order (lower first, insertion
// order breaks ties).
package hooks

import (
	"context"
	"log"
	"sort"
	"sync"
)

// ActionFunc handles an event notification.
type ActionFunc func(ctx context.Context, payload any)

// FilterFunc transforms a value. Returning stop=true bails out of the
// chain; the value returned alongside it is discarded.
type FilterFunc func(value any) (out any, stop bool)

// Unsubscribe removes the callback it was returned for. Safe to call
// more than once.
type Unsubscribe func()

const defaultPriority = 10

type actionItem struct {
	id       uint64
	priority int
	once     bool
	fn       ActionFunc
}

type filterItem struct {
	id       uint64
	priority int
	once     bool
	fn       FilterFunc
}

// Registry holds named action and filter chains. The zero value is not
// usable; create one with NewRegistry and pass it by reference.
type Registry struct {
	mu      sync.Mutex
	uid     uint64
	actions map[string][]actionItem
	filters map[string][]filterItem
	logger  *log.Logger
}

func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		actions: make(map[string][]actionItem),
		filters: make(map[string][]filterItem),
		logger:  logger,
	}
}

// AddAction registers fn for the named action and returns a handle that
// removes it.
func (r *Registry) AddAction(name string, priority int, fn ActionFunc) Unsubscribe {
	return r.addAction(name, priority, false, fn)
}

// AddOnceAction registers fn to run at most once.
func (r *Registry) AddOnceAction(name string, priority int, fn ActionFunc) Unsubscribe {
	return r.addAction(name, priority, true, fn)
}

func (r *Registry) addAction(name string, priority int, once bool, fn ActionFunc) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	if priority == 0 {
		priority = defaultPriority
	}

	r.mu.Lock()
	r.uid++
	id := r.uid
	list := append(r.actions[name], actionItem{id: id, priority: priority, once: once, fn: fn})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].id < list[j].id
	})
	r.actions[name] = list
	r.mu.Unlock()

	return func() { r.removeAction(name, id) }
}

func (r *Registry) removeAction(name string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.actions[name]
	next := list[:0]
	for _, it := range list {
		if it.id != id {
			next = append(next, it)
		}
	}
	r.actions[name] = next
}

// DoAction invokes every callback registered for the named action.
// A panicking callback is logged and does not stop the rest.
func (r *Registry) DoAction(ctx context.Context, name string, payload any) {
	r.mu.Lock()
	list := make([]actionItem, len(r.actions[name]))
	copy(list, r.actions[name])
	r.mu.Unlock()

	for _, it := range list {
		r.runAction(ctx, name, it, payload)
		if it.once {
			r.removeAction(name, it.id)
		}
	}
}

func (r *Registry) runAction(ctx context.Context, name string, it actionItem, payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("hooks: panic in action %q: %v", name, rec)
		}
	}()
	it.fn(ctx, payload)
}

// AddFilter registers fn for the named filter and returns a handle that
// removes it.
func (r *Registry) AddFilter(name string, priority int, fn FilterFunc) Unsubscribe {
	return r.addFilter(name, priority, false, fn)
}

// AddOnceFilter registers fn to run at most once.
func (r *Registry) AddOnceFilter(name string, priority int, fn FilterFunc) Unsubscribe {
	return r.addFilter(name, priority, true, fn)
}

func (r *Registry) addFilter(name string, priority int, once bool, fn FilterFunc) Unsubscribe {
	if fn == nil {
		return func() {}
	}
	if priority == 0 {
		priority = defaultPriority
	}

	r.mu.Lock()
	r.uid++
	id := r.uid
	list := append(r.filters[name], filterItem{id: id, priority: priority, once: once, fn: fn})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].id < list[j].id
	})
	r.filters[name] = list
	r.mu.Unlock()

	return func() { r.removeFilter(name, id) }
}

func (r *Registry) removeFilter(name string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.filters[name]
	next := list[:0]
	for _, it := range list {
		if it.id != id {
			next = append(next, it)
		}
	}
	r.filters[name] = next
}

// ApplyFilters threads value through every callback registered for the
// named filter and returns the final value. A callback that signals
// stop ends the chain; a panicking callback is logged and its output
// ignored.
func (r *Registry) ApplyFilters(name string, value any) any {
	r.mu.Lock()
	list := make([]filterItem, len(r.filters[name]))
	copy(list, r.filters[name])
	r.mu.Unlock()

	out := value
	for _, it := range list {
		next, stop, ok := r.runFilter(name, it, out)
		if it.once {
			r.removeFilter(name, it.id)
		}
		if !ok {
			continue
		}
		if stop {
			break
		}
		out = next
	}
	return out
}

func (r *Registry) runFilter(name string, it filterItem, value any) (out any, stop, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("hooks: panic in filter %q: %v", name, rec)
			out, stop, ok = nil, false, false
		}
	}()
	next, bail := it.fn(value)
	return next, bail, true
}

// RemoveAll drops every callback for the named hook, or every hook when
// name is empty.
func (r *Registry) RemoveAll(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		r.actions = make(map[string][]actionItem)
		r.filters = make(map[string][]filterItem)
		return
	}
	delete(r.actions, name)
	delete(r.filters, name)
}
