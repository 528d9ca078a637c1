package boundary

// handle addresses an arena slot. The generation counter makes stale
// handles detectable: a destroyed slot's generation moves on, so a second
// destroy or a late read misses instead of touching recycled state. The
// zero handle is never live.
type handle struct {
	index int
	gen   uint32
}

func (h handle) isZero() bool {
	return h.gen == 0
}

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// arena is a generation-checked slab of entities of one handle family.
// Not safe for concurrent mutation; the owning session serializes access.
type arena[T any] struct {
	slots []slot[T]
	free  []int
}

func (a *arena[T]) insert(v T) handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.gen++
		s.live = true
		return handle{index: idx, gen: s.gen}
	}

	a.slots = append(a.slots, slot[T]{value: v, gen: 1, live: true})
	return handle{index: len(a.slots) - 1, gen: 1}
}

func (a *arena[T]) get(h handle) (T, bool) {
	var zero T
	if h.isZero() || h.index < 0 || h.index >= len(a.slots) {
		return zero, false
	}
	s := a.slots[h.index]
	if !s.live || s.gen != h.gen {
		return zero, false
	}
	return s.value, true
}

// remove retires a handle. Reports false when the handle is already dead;
// either way the call is safe.
func (a *arena[T]) remove(h handle) bool {
	if h.isZero() || h.index < 0 || h.index >= len(a.slots) {
		return false
	}
	s := &a.slots[h.index]
	if !s.live || s.gen != h.gen {
		return false
	}
	var zero T
	s.value = zero
	s.live = false
	a.free = append(a.free, h.index)
	return true
}

// Typed handle families. Distinct types keep a schedule handle from being
// passed where a context handle is expected.

// ContextHandle refers to an instrument + execution period bundle.
type ContextHandle struct{ h handle }

// BlocksHandle refers to a loaded block collection.
type BlocksHandle struct{ h handle }

// PeriodsHandle refers to a computed possible-periods map.
type PeriodsHandle struct{ h handle }

// ScheduleHandle refers to a scheduling result.
type ScheduleHandle struct{ h handle }

// IsZero reports whether the handle is the null handle.
func (h ContextHandle) IsZero() bool { return h.h.isZero() }

// IsZero reports whether the handle is the null handle.
func (h BlocksHandle) IsZero() bool { return h.h.isZero() }

// IsZero reports whether the handle is the null handle.
func (h PeriodsHandle) IsZero() bool { return h.h.isZero() }

// IsZero reports whether the handle is the null handle.
func (h ScheduleHandle) IsZero() bool { return h.h.isZero() }
