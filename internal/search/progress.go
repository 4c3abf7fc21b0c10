package search

type progressTracker struct {
	emit         func(permille int)
	total        int64
	lastReported int
}

func newProgressTracker(total int64, emit func(int)) *progressTracker {
	return &progressTracker{emit: emit, total: total, lastReported: -1}
}

// Permille converts scanned/total into thousandths clamped to [0, 1000].
func Permille(scanned, total int64) int {
	if total <= 0 {
		return 1000
	}
	if scanned <= 0 {
		return 0
	}
	if scanned >= total {
		return 1000
	}
	// Split to avoid overflowing on multi-terabyte ranges.
	if scanned > (1<<63-1)/1000 {
		return min(int(scanned/(total/1000)), 1000)
	}
	return int(scanned * 1000 / total)
}

func (pt *progressTracker) update(scanned int64) {
	if pt.emit == nil {
		return
	}
	p := Permille(scanned, pt.total)
	if p == pt.lastReported {
		return
	}
	pt.lastReported = p
	pt.emit(p)
}

func (pt *progressTracker) finish() {
	pt.update(pt.total)
}
