package detector

// HasPending reports whether a caller is waiting for the detection turn.
func (a *Adapter) HasPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}
