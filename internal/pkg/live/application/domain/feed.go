package live

// Feed is the caller-owned live activity list for one open movement view.
// It is seeded once from a snapshot and advanced by pushed events; the
// aggregator itself keeps no per-view state.
type Feed struct {
	cap   int
	items []Activity
	seen  map[string]struct{}
}

// NewFeed builds a feed capped at capacity, seeded with snapshot events
// (newest first, as returned by the snapshot operation).
func NewFeed(capacity int, seed []Activity) *Feed {
	if capacity <= 0 {
		capacity = 50
	}
	f := &Feed{
		cap:  capacity,
		seen: make(map[string]struct{}, capacity),
	}
	for _, a := range seed {
		if len(f.items) >= f.cap {
			break
		}
		if _, dup := f.seen[a.ID]; dup {
			continue
		}
		f.items = append(f.items, a)
		f.seen[a.ID] = struct{}{}
	}
	return f
}

// Append merges a pushed event into the feed. Duplicate ids are dropped,
// which tolerates the race between a snapshot fetch and concurrently pushed
// events for the same movement. Returns whether the feed changed.
func (f *Feed) Append(a Activity) bool {
	if _, dup := f.seen[a.ID]; dup {
		return false
	}
	f.items = append([]Activity{a}, f.items...)
	f.seen[a.ID] = struct{}{}
	if len(f.items) > f.cap {
		evicted := f.items[f.cap:]
		f.items = f.items[:f.cap]
		for _, e := range evicted {
			delete(f.seen, e.ID)
		}
	}
	return true
}

// Items returns the feed contents, newest first.
func (f *Feed) Items() []Activity {
	out := make([]Activity, len(f.items))
	copy(out, f.items)
	return out
}

// Len reports the number of events currently held.
func (f *Feed) Len() int {
	return len(f.items)
}
