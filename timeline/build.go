package timeline

import (
	"time"

	"mkvlink/internal/timeutil"
	"mkvlink/models"
)

// window restricts a build pass over a nested ordered edition to the part
// of its chapter table the referencing chapter asked for. The top-level
// pass has no window.
type window struct {
	top   bool
	skip  time.Duration
	limit time.Duration
}

// clip returns how much of the chapter-table range [from, to) lies inside
// the window.
func (w *window) clip(from, to time.Duration) time.Duration {
	if !w.top {
		from = max(from, w.skip)
		to = min(to, w.limit)
	}
	return max(to-from, 0)
}

// builder holds the state threaded through the recursive build passes.
type builder struct {
	r *resolution

	// cursor is where the next part starts on the unified timeline.
	cursor time.Duration
	// lastEnd is the source-local end of the last chapter that was played,
	// used to detect chapters that continue the previous one.
	lastEnd time.Duration
	missing time.Duration

	parts    []models.TimelinePart
	chapters []*models.Chapter
	stack    []int
}

func newBuilder(r *resolution) *builder {
	return &builder{
		r:        r,
		chapters: make([]*models.Chapter, len(r.table.slots[0].seg.Chapters())),
	}
}

func (b *builder) addMissing(d time.Duration) {
	if d > 0 {
		b.missing += d
	}
}

// rewind moves the cursor back by d, never past the start of the last part.
func (b *builder) rewind(d time.Duration) {
	if n := len(b.parts); n > 0 {
		d = min(d, b.cursor-b.parts[n-1].Start)
	}
	if d > 0 {
		b.cursor -= d
	}
}

// addPart starts a new part playing source from sourceStart, unless the
// chapter continues the previous part within the merge threshold. On a
// merge the cursor is moved by the gap or overlap, which is returned so the
// caller can adjust its own bookkeeping.
func (b *builder) addPart(source int, sourceStart time.Duration) time.Duration {
	joinDiff := sourceStart - b.lastEnd
	n := len(b.parts)
	if n == 0 || abs(joinDiff) > b.r.threshold || b.parts[n-1].Source != source {
		b.parts = append(b.parts, models.TimelinePart{
			Start:       b.cursor,
			SourceStart: sourceStart,
			Source:      source,
			SourcePath:  b.r.table.slots[source].seg.Path(),
		})
		return 0
	}

	if joinDiff != 0 {
		b.r.log.Debugf("Merging timeline part %d with offset %.3f ms", n, float64(joinDiff)/float64(time.Millisecond))
		b.cursor += joinDiff
	}
	return joinDiff
}

// isOrdered reports whether source j has to be flattened recursively when
// referenced from source current.
func (b *builder) isOrdered(current, j int) bool {
	if current == j || b.r.table.effectiveUID(j).Edition == 0 {
		return false
	}
	return len(b.r.table.slots[j].seg.Chapters()) > 0
}

func (b *builder) onStack(j int) bool {
	for _, s := range b.stack {
		if s == j {
			return true
		}
	}
	return false
}

// build walks the chapter table of source current and appends the parts it
// plays. w is widened in place when a merge shifts the timeline.
func (b *builder) build(current int, w *window) {
	st := b.r.table
	seg := st.slots[current].seg
	own := st.effectiveUID(current)

	b.stack = append(b.stack, current)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	var local time.Duration
	for i, c := range seg.Chapters() {
		if c.End < c.Start {
			b.r.warnf("Chapter %d of %s ends before it starts; skipping it", i, seg.Path())
			continue
		}
		length := c.End - c.Start

		target := c.Target
		if !c.HasTarget {
			target = own
		}

		from := local
		local += length
		if local <= w.skip {
			continue
		}
		before := b.cursor

		j := st.lookup(target)
		switch {
		case j < 0:
			b.addMissing(w.clip(from, local))
			length = 0

		default:
			if w.top && i < len(b.chapters) {
				b.chapters[i] = &models.Chapter{Index: i, Start: b.cursor, Title: c.Name}
			}

			if b.isOrdered(current, j) {
				if b.onStack(j) {
					b.r.warnf("Chapter %d of %s references segment %s recursively; skipping it", i, seg.Path(), target)
					b.addMissing(w.clip(from, local))
					length = 0
					break
				}
				b.build(j, &window{skip: c.Start, limit: c.End})
				length = 0
			} else {
				full := st.slots[j].seg.Duration()
				if full <= c.Start {
					// Nothing of this chapter exists in the source.
					b.addMissing(w.clip(from, local))
					length = 0
					break
				}
				if avail := full - c.Start; avail < length {
					b.addMissing(w.clip(from+avail, local))
					length = avail
				}

				joinDiff := b.addPart(j, c.Start)
				if !w.top {
					w.limit += joinDiff
					length += joinDiff
				}
			}
			b.lastEnd = c.End
		}

		b.cursor += length
		// The window ended inside this chapter; only what the chapter
		// added can be taken back.
		if !w.top && local >= w.limit {
			b.rewind(min(local-w.limit, b.cursor-before))
			break
		}
	}

	if !w.top && local < w.limit {
		b.addMissing(w.limit - max(local, w.skip))
	}
}

// finish turns the collected state into the final part and chapter lists.
func (b *builder) finish() ([]models.TimelinePart, []models.Chapter) {
	var chapters []models.Chapter
	for _, c := range b.chapters {
		if c != nil {
			chapters = append(chapters, *c)
		}
	}

	parts := b.parts
	if len(parts) == 0 {
		root := b.r.table.slots[0].seg
		b.r.warnf("Ordered chapters file with no parts?")
		end := b.cursor
		if d := root.Duration(); d > end {
			end = d
		}
		b.cursor = end
		parts = []models.TimelinePart{{Source: 0, SourcePath: root.Path()}}
	}

	for i := range parts {
		if i == len(parts)-1 {
			parts[i].End = b.cursor
		} else {
			parts[i].End = parts[i+1].Start
		}
	}

	if b.missing >= time.Millisecond {
		b.r.log.Errorf("There are %.3f seconds missing from the timeline! (%s)",
			b.missing.Seconds(), timeutil.FormatDuration(b.missing))
	}

	return parts, chapters
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
