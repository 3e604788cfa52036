package watcher

// FileWatchGeneration counts how many times the file watch has been armed.
func (w *Watcher) FileWatchGeneration() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generation
}

// HasFileWatch reports whether a file watch is currently alive.
func (w *Watcher) HasFileWatch() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fileW != nil
}
