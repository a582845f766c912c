package buffer

type counters struct {
	hits       uint64
	misses     uint64
	evictions  uint64
	writeBacks uint64
}

// Stats is a snapshot of pool occupancy and activity.
type Stats struct {
	Capacity   int
	Valid      int
	Pinned     int
	Dirty      int
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	WriteBacks uint64
}

func (b *BufferpoolManager) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Stats{
		Capacity:   len(b.frames),
		Hits:       b.stats.hits,
		Misses:     b.stats.misses,
		Evictions:  b.stats.evictions,
		WriteBacks: b.stats.writeBacks,
	}
	for _, f := range b.frames {
		if !f.valid {
			continue
		}
		s.Valid++
		if f.pinned() {
			s.Pinned++
		}
		if f.dirty {
			s.Dirty++
		}
	}

	return s
}

// Dump logs the state of every frame.
func (b *BufferpoolManager) Dump() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, f := range b.frames {
		if !f.valid {
			b.log.Info("frame", "id", f.id, "valid", false)
			continue
		}
		b.log.Info("frame",
			"id", f.id,
			"valid", true,
			"file", f.file.ID(),
			"page", f.pageNo,
			"pins", f.pins.Load(),
			"dirty", f.dirty,
			"ref", f.ref,
		)
	}
}
