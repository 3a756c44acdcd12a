package monitor

// window is a fixed-capacity FIFO; pushing onto a full window drops the oldest value.
type window[T any] struct {
	buf   []T
	start int
	size  int
}

func newWindow[T any](capacity int) *window[T] {
	return &window[T]{buf: make([]T, capacity)}
}

func (w *window[T]) push(v T) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = v
		w.size++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// values returns the contents oldest first, as a copy.
func (w *window[T]) values() []T {
	out := make([]T, w.size)
	for i := range out {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}
