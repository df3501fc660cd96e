package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceTable(t *testing.T) {
	root := &fakeSegment{path: "/m/root.mkv", uid: uid(1, 4)}
	st := newSourceTable(root)

	require.Len(t, st.slots, 1)
	assert.Equal(t, uid(1, 0), st.slots[0].uid, "root slot requests any edition")
	assert.Equal(t, uid(1, 4), st.effectiveUID(0))
	assert.True(t, st.isBound(root.path, 0))

	assert.False(t, st.request(uid(1, 9)), "compatible with the root slot")
	assert.True(t, st.request(uid(2, 0)))
	assert.False(t, st.request(uid(2, 3)), "edition 0 request already covers it")
	assert.True(t, st.request(uid(3, 0)))
	assert.True(t, st.request(uid(4, 0)))
	assert.True(t, st.missing())

	b := &fakeSegment{path: "/m/b.mkv", uid: uid(2, 0)}
	d := &fakeSegment{path: "/m/d.mkv", uid: uid(4, 0)}
	st.bind(1, b, 0)
	st.bind(3, d, 2)
	assert.True(t, st.isBound(d.path, 2))
	assert.Equal(t, 3, st.boundCount())
	assert.Equal(t, 3, st.lookup(uid(4, 0)))
	assert.Equal(t, -1, st.lookup(uid(3, 0)), "unbound slots never resolve")

	dropped := st.compact()
	assert.Equal(t, []string{uid(3, 0).String()}, []string{dropped[0].String()})
	require.Len(t, st.slots, 3)
	assert.Equal(t, []Segment{root, b, d}, st.segments())
	assert.False(t, st.missing())

	st.closeReferenced()
	assert.Equal(t, 0, root.closeCount())
	assert.Equal(t, 1, b.closeCount())
	assert.Equal(t, 1, d.closeCount())
}
