package dispatch

// ChatCount returns the number of chats the dispatcher keeps state for.
func ChatCount(d *Dispatcher) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.chats)
}
