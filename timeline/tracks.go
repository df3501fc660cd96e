package timeline

import (
	"mkvlink/models"
)

// trackLayout picks the source whose tracks define the visible track set:
// the root when any part plays from it, otherwise the source of the first
// part.
func trackLayout(parts []models.TimelinePart) int {
	for _, p := range parts {
		if p.Source == 0 {
			return 0
		}
	}
	return parts[0].Source
}

func findTrack(tracks []models.Track, kind models.TrackKind, id int) (models.Track, bool) {
	for _, t := range tracks {
		if t.Kind == kind && t.StableID == id {
			return t, true
		}
	}
	return models.Track{}, false
}

// checkTrackCompatibility warns about streams that differ between the
// layout source and the other sources used by parts. It never fails.
func (r *resolution) checkTrackCompatibility(parts []models.TimelinePart, layout int) {
	sources := r.table.segments()
	main := sources[layout]
	mainTracks := main.Tracks()

	checked := map[int]bool{layout: true}
	for _, p := range parts {
		if checked[p.Source] {
			continue
		}
		checked[p.Source] = true

		src := sources[p.Source]
		srcTracks := src.Tracks()

		for _, t := range srcTracks {
			if t.AttachedPicture {
				continue
			}
			if _, ok := findTrack(mainTracks, t.Kind, t.StableID); !ok {
				r.warnf("Source %s has %s stream with TID=%d, which is not present in the ordered chapters main file. This is a broken file. The additional stream is ignored.",
					src.Path(), t.Kind, t.StableID)
			}
		}

		for _, m := range mainTracks {
			if m.AttachedPicture {
				continue
			}
			s, ok := findTrack(srcTracks, m.Kind, m.StableID)
			if !ok {
				r.warnf("Source %s lacks %s stream with TID=%d, which is present in the ordered chapters main file. This is a broken file.",
					src.Path(), m.Kind, m.StableID)
				continue
			}
			if s.CodecID != m.CodecID {
				r.warnf("Timeline segments have mismatching codec: %s stream TID=%d is %s in %s but %s in %s.",
					m.Kind, m.StableID, m.CodecID, main.Path(), s.CodecID, src.Path())
			}
		}
	}
}
