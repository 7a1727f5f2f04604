package snapshot

import "sync/atomic"

// Holder is the single publication point between the engine and readers.
// Swap is atomic, so a reader always observes a complete snapshot.
type Holder struct {
	cur atomic.Pointer[Snapshot]
}

// Swap publishes a new snapshot and returns the previous one, nil on the
// first publish.
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	return h.cur.Swap(s)
}

// Current returns the latest published snapshot, or ErrNotReady before the
// first publish.
func (h *Holder) Current() (*Snapshot, error) {
	s := h.cur.Load()
	if s == nil {
		return nil, ErrNotReady
	}
	return s, nil
}
