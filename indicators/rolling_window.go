package indicators

// NewRollingWindow returns a window holding at least one value
func NewRollingWindow[T any](capacity int) *RollingWindow[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingWindow[T]{values: make([]T, capacity)}
}

// Push stores v as the newest value and forwards it to subscribers
func (w *RollingWindow[T]) Push(v T) {
	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
	if w.count < len(w.values) {
		w.count++
	}
	w.pushes++
	for i := range w.subscribers {
		w.subscribers[i].Push(v)
	}
}

// Subscribe registers r to receive every future value
func (w *RollingWindow[T]) Subscribe(r Receiver[T]) {
	w.subscribers = append(w.subscribers, r)
}

// At returns the value i steps back from the newest; i must be zero or
// negative
func (w *RollingWindow[T]) At(i int) (T, bool) {
	var zero T
	if i > 0 || -i >= w.count {
		return zero, false
	}
	l := len(w.values)
	return w.values[((w.next-1+i)%l+l)%l], true
}

// Latest returns the newest value
func (w *RollingWindow[T]) Latest() (T, bool) {
	return w.At(0)
}

// Len returns how many values are currently held
func (w *RollingWindow[T]) Len() int {
	return w.count
}

// Capacity returns the maximum number of values held
func (w *RollingWindow[T]) Capacity() int {
	return len(w.values)
}

// Pushes returns how many values have ever been pushed
func (w *RollingWindow[T]) Pushes() int64 {
	return w.pushes
}

// Values returns the held values from oldest to newest
func (w *RollingWindow[T]) Values() []T {
	resp := make([]T, w.count)
	for i := 0; i < w.count; i++ {
		resp[i], _ = w.At(i - w.count + 1)
	}
	return resp
}

// EnsureCapacity grows the window to hold at least n values, keeping the
// values already held
func (w *RollingWindow[T]) EnsureCapacity(n int) {
	if n <= len(w.values) {
		return
	}
	held := w.Values()
	w.values = make([]T, n)
	copy(w.values, held)
	w.next = len(held)
	w.count = len(held)
}
