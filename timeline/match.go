package timeline

import (
	"context"
	"errors"
	"fmt"

	"mkvlink/models"
)

// matcher binds files to the unbound slots of a source table.
type matcher struct {
	r      *resolution
	failed map[string]bool
}

// checkFile probes the segments of path starting at index first, until an
// open fails.
func (m *matcher) checkFile(ctx context.Context, path string, first int) error {
	if m.failed[path] {
		return nil
	}
	for index := first; ; index++ {
		valid, err := m.checkFileSegment(ctx, path, index)
		if err != nil {
			return err
		}
		if !valid {
			if index == first && first == 0 {
				m.failed[path] = true
			}
			return nil
		}
	}
}

// checkFileSegment opens segment index of path and binds it to the first
// unbound slot it satisfies. valid is false only when the open failed, so
// a segment that matches nothing still lets probing go on to the next
// index.
func (m *matcher) checkFileSegment(ctx context.Context, path string, index int) (valid bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	st := m.r.table
	if st.isBound(path, index) {
		return true, nil
	}

	seg, err := m.r.opener.OpenSegment(ctx, path, OpenParams{
		Index:           index,
		WantedUIDs:      st.uids(),
		DisableTimeline: true,
		Edition:         -1,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if !errors.Is(err, ErrNoSegment) {
			m.r.log.Debugf("Cannot open %s (segment %d): %v", path, index, err)
		}
		return false, nil
	}

	uid := seg.UID()
	for i := 1; i < len(st.slots); i++ {
		want := st.slots[i].uid
		if st.slots[i].seg != nil || !models.Compatible(want, uid) {
			continue
		}

		m.r.log.Infof("Match for source %d: %s", i, path)

		if want.Edition != 0 {
			added := 0
			for _, c := range seg.Chapters() {
				if c.HasTarget && st.request(c.Target) {
					added++
				}
			}
			if added > 0 {
				m.r.log.Debugf("%s references %d further segments", path, added)
			}
		}

		st.bind(i, seg, index)
		return true, nil
	}

	if err := seg.Close(); err != nil {
		m.r.log.Debugf("Closing unmatched segment %s: %v", path, err)
	}
	return true, nil
}

// findSources binds as many slots as possible, then drops the ones that
// stayed unbound.
func (m *matcher) findSources(ctx context.Context) error {
	st := m.r.table
	root := st.slots[0].seg

	var candidates []string
	if len(st.slots) > 1 {
		m.r.log.Infof("This file references data from other sources")
		candidates = m.r.finder.Locate(root.Path())

		// Further segments may be appended to the root file itself.
		if err := m.checkFile(ctx, root.Path(), 1); err != nil {
			return err
		}
	}

	for {
		before := st.boundCount()
		slotsBefore := len(st.slots)
		for _, path := range candidates {
			if !st.missing() {
				break
			}
			m.r.log.Debugf("Checking file %s", path)
			if err := m.checkFile(ctx, path, 0); err != nil {
				return err
			}
		}
		if !st.missing() || (st.boundCount() == before && len(st.slots) == slotsBefore) {
			break
		}
	}

	if st.missing() {
		m.r.log.Errorf("Failed to find ordered chapter part!")
		dropped := st.compact()
		for _, uid := range dropped {
			m.r.warnf("Missing segment %s", uid)
		}
	}

	for _, seg := range st.segments()[1:] {
		lister, ok := seg.(AttachmentLister)
		if !ok {
			continue
		}
		for _, a := range lister.Attachments() {
			if a.Source == "" {
				a.Source = seg.Path()
			}
			m.r.attachments = append(m.r.attachments, a)
		}
	}

	return nil
}

func errCancelled(err error) error {
	return fmt.Errorf("ordered chapter resolution cancelled: %w", err)
}
