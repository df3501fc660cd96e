package timeline

import (
	"mkvlink/models"
)

// slot is an entry of the source table. seg stays nil until a file
// providing uid has been found.
type slot struct {
	uid models.SegmentUID
	seg Segment
}

type probeKey struct {
	path  string
	index int
}

// sourceTable is the ordered list of segments taking part in a timeline.
// Slot 0 is the root. Slots are only appended while matching; compact is
// the one operation that removes any.
type sourceTable struct {
	slots []slot
	// bound records which (path, index) pairs back a slot.
	bound map[probeKey]bool
}

func newSourceTable(root Segment) *sourceTable {
	st := &sourceTable{
		bound: make(map[probeKey]bool),
	}
	st.slots = append(st.slots, slot{uid: root.UID().WithEdition(0), seg: root})
	st.bound[probeKey{root.Path(), 0}] = true
	return st
}

// has reports whether any slot requests a UID compatible with uid.
func (st *sourceTable) has(uid models.SegmentUID) bool {
	for _, s := range st.slots {
		if models.Compatible(s.uid, uid) {
			return true
		}
	}
	return false
}

// request appends an unbound slot for uid unless one is already present.
// Returns true when a slot was added.
func (st *sourceTable) request(uid models.SegmentUID) bool {
	if st.has(uid) {
		return false
	}
	st.slots = append(st.slots, slot{uid: uid})
	return true
}

func (st *sourceTable) bind(i int, seg Segment, index int) {
	st.slots[i].seg = seg
	st.bound[probeKey{seg.Path(), index}] = true
}

func (st *sourceTable) isBound(path string, index int) bool {
	return st.bound[probeKey{path, index}]
}

func (st *sourceTable) missing() bool {
	for _, s := range st.slots {
		if s.seg == nil {
			return true
		}
	}
	return false
}

func (st *sourceTable) boundCount() int {
	n := 0
	for _, s := range st.slots {
		if s.seg != nil {
			n++
		}
	}
	return n
}

func (st *sourceTable) uids() []models.SegmentUID {
	out := make([]models.SegmentUID, len(st.slots))
	for i, s := range st.slots {
		out[i] = s.uid
	}
	return out
}

// compact removes unbound slots, preserving the order of the others, and
// returns the UIDs that were dropped.
func (st *sourceTable) compact() []models.SegmentUID {
	var dropped []models.SegmentUID
	kept := st.slots[:0]
	for _, s := range st.slots {
		if s.seg == nil {
			dropped = append(dropped, s.uid)
			continue
		}
		kept = append(kept, s)
	}
	st.slots = kept
	return dropped
}

// effectiveUID is the identity a bound slot is matched against while
// building. The root keeps the edition it was opened with; other slots
// keep the edition that was requested for them.
func (st *sourceTable) effectiveUID(i int) models.SegmentUID {
	if i == 0 {
		return st.slots[0].seg.UID()
	}
	return st.slots[i].uid
}

// lookup returns the first bound slot whose effective UID is compatible
// with uid, or -1.
func (st *sourceTable) lookup(uid models.SegmentUID) int {
	for i, s := range st.slots {
		if s.seg == nil {
			continue
		}
		if models.Compatible(uid, st.effectiveUID(i)) {
			return i
		}
	}
	return -1
}

func (st *sourceTable) segments() []Segment {
	out := make([]Segment, 0, len(st.slots))
	for _, s := range st.slots {
		if s.seg != nil {
			out = append(out, s.seg)
		}
	}
	return out
}

// closeReferenced closes every bound segment except the root.
func (st *sourceTable) closeReferenced() {
	for i := 1; i < len(st.slots); i++ {
		if st.slots[i].seg != nil {
			_ = st.slots[i].seg.Close()
			st.slots[i].seg = nil
		}
	}
}
