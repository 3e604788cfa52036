package dispatch

// Inline runs dispatched functions synchronously on the caller's goroutine.
type Inline struct{}

// Dispatch calls fn immediately.
func (Inline) Dispatch(fn func()) {
	fn()
}
