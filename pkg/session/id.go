package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IDLayout is the time layout of generated session ids. It matches the ids
// written by earlier versions of the store, e.g. 20240101_120000.
const IDLayout = "20060102_150405"

// Sequence suffixes are fixed width so they sort numerically.
const (
	idSeqWidth = 6
	maxIDSeq   = 1_000_000
)

// NewID returns a session id for a client with no earlier sessions.
func NewID(now time.Time) string {
	return NextID(now, "")
}

// NextID returns a session id for now that sorts lexicographically after
// prev. When now formats to an id that does not sort after prev (two
// sessions in the same second, or a clock that moved backwards) the id is
// prev's timestamp with the next sequence suffix, e.g. 20240101_120000-000001.
func NextID(now time.Time, prev string) string {
	id := now.Format(IDLayout)
	if id > prev {
		return id
	}
	base, seq := splitIDSeq(prev)
	if seq+1 >= maxIDSeq {
		base, seq = prev, 0
	}
	return fmt.Sprintf("%s-%0*d", base, idSeqWidth, seq+1)
}

func splitIDSeq(id string) (string, int) {
	i := strings.LastIndexByte(id, '-')
	if i < 0 || len(id)-i-1 != idSeqWidth {
		return id, 0
	}
	seq, err := strconv.Atoi(id[i+1:])
	if err != nil || seq < 0 {
		return id, 0
	}
	return id[:i], seq
}
