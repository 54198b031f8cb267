// Package tempcache implements a task-keyed temporary cache: a pool of
// reusable scratch tensors keyed by call site and task, so repeated
// evaluations of the same compiled expression (e.g. inside a loop body)
// can reuse A'/B'/C' buffers instead of reallocating them every
// iteration. The cache is a sync.RWMutex-guarded map keyed by the
// 4-tuple (site, task, element type, shape).
package tempcache

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dkoslov/tensen/view"
	"golang.org/x/exp/slices"
)

// SiteTag identifies a single A'/B'/C' temporary call site; callers of
// kernel.ContractCached supply one per site. The compiler package assigns
// no site tags: compiled programs call kernel.Contract, which does not use
// the cache.
type SiteTag uint64

// TaskID scopes cached temporaries to one evaluation task (e.g. one loop
// body instantiation); Flush drops every entry belonging to a task.
type TaskID uint64

// Key is the cache's lookup key: a temporary is reusable only for the
// exact same call site, task, element type and shape that produced it.
type Key struct {
	Site  SiteTag
	Task  TaskID
	Type  reflect.Type
	Shape string
}

func shapeDescriptor(shape []int) string {
	return fmt.Sprint(shape)
}

type entry struct {
	view any // *view.View[T], type-erased
	size []int
}

var (
	mu    sync.RWMutex
	store = make(map[Key]entry)

	enabled atomic.Bool
)

func init() { enabled.Store(true) }

// Enable turns the cache on process-wide.
func Enable() { enabled.Store(true) }

// Disable turns the cache off process-wide; GetOrMake then always
// allocates fresh and never touches the map.
func Disable() { enabled.Store(false) }

// Enabled reports the current state of the process-wide cache toggle.
func Enabled() bool { return enabled.Load() }

// GetOrMake returns the cached temporary for (site, task) if one exists
// and its shape matches, else allocates a fresh zero-initialized view of
// that shape, stores it, and returns it. When the cache is disabled it
// always allocates and never reads or writes the map.
func GetOrMake[T view.Numeric](site SiteTag, task TaskID, shape []int) *view.View[T] {
	if !Enabled() {
		occupancy.Set(float64(size()))
		return view.New[T](shape)
	}

	var zero T
	key := Key{Site: site, Task: task, Type: reflect.TypeOf(zero), Shape: shapeDescriptor(shape)}

	mu.RLock()
	e, ok := store[key]
	mu.RUnlock()
	if ok {
		if v, ok := e.view.(*view.View[T]); ok && slices.Equal(e.size, shape) {
			cacheHits.Inc()
			return v
		}
	}
	cacheMisses.Inc()

	v := view.New[T](shape)
	mu.Lock()
	store[key] = entry{view: v, size: append([]int(nil), shape...)}
	mu.Unlock()
	occupancy.Set(float64(size()))
	return v
}

// Flush drops every cached temporary belonging to task.
func Flush(task TaskID) {
	mu.Lock()
	defer mu.Unlock()
	for k := range store {
		if k.Task == task {
			delete(store, k)
		}
	}
	occupancy.Set(float64(len(store)))
}

func size() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(store)
}
