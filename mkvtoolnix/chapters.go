package mkvtoolnix

import (
	"encoding/xml"
	"fmt"
	"strings"

	"mkvlink/internal/logger"
	"mkvlink/internal/timeutil"
	"mkvlink/models"
)

// UnnamedChapter is the title of chapters without a display string.
const UnnamedChapter = "(unnamed)"

// Edition is one EditionEntry of a chapter file.
type Edition struct {
	UID      uint64
	Default  bool
	Ordered  bool
	Chapters []models.ChapterEntry
}

type chaptersXML struct {
	XMLName  xml.Name     `xml:"Chapters"`
	Editions []editionXML `xml:"EditionEntry"`
}

type editionXML struct {
	UID         uint64    `xml:"EditionUID"`
	FlagDefault int       `xml:"EditionFlagDefault"`
	FlagOrdered int       `xml:"EditionFlagOrdered"`
	Atoms       []atomXML `xml:"ChapterAtom"`
}

type atomXML struct {
	TimeStart         string         `xml:"ChapterTimeStart"`
	TimeEnd           string         `xml:"ChapterTimeEnd"`
	SegmentUID        *segmentUIDXML `xml:"ChapterSegmentUID"`
	SegmentEditionUID uint64         `xml:"ChapterSegmentEditionUID"`
	Displays          []struct {
		String string `xml:"ChapterString"`
	} `xml:"ChapterDisplay"`
}

type segmentUIDXML struct {
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

// ParseChapters parses the XML chapter file written by mkvextract.
//
// Chapters whose segment reference cannot be decoded are kept without a
// target, with a warning, so the rest of the edition stays usable.
func ParseChapters(data []byte, log logger.Logger) ([]Edition, error) {
	if log == nil {
		log = logger.Nop()
	}

	var doc chaptersXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse chapter XML: %w", err)
	}

	editions := make([]Edition, 0, len(doc.Editions))
	for ei, e := range doc.Editions {
		ed := Edition{
			UID:     e.UID,
			Default: e.FlagDefault != 0,
			Ordered: e.FlagOrdered != 0,
		}

		for ai, a := range e.Atoms {
			var c models.ChapterEntry

			if strings.TrimSpace(a.TimeStart) == "" {
				log.Warnf("Chapter %d of edition %d lacks start time", ai, ei)
			} else {
				start, err := timeutil.ParseTimestamp(a.TimeStart)
				if err != nil {
					return nil, fmt.Errorf("edition %d chapter %d: %w", ei, ai, err)
				}
				c.Start = start
			}
			c.End = c.Start
			if strings.TrimSpace(a.TimeEnd) != "" {
				end, err := timeutil.ParseTimestamp(a.TimeEnd)
				if err != nil {
					return nil, fmt.Errorf("edition %d chapter %d: %w", ei, ai, err)
				}
				c.End = end
			}

			c.Name = UnnamedChapter
			if len(a.Displays) > 0 {
				if len(a.Displays) > 1 {
					log.Debugf("Multiple chapter names not supported, picking first")
				}
				if s := strings.TrimSpace(a.Displays[0].String); s != "" {
					c.Name = s
				}
			}

			if a.SegmentUID != nil {
				uid, err := decodeSegmentUID(a.SegmentUID)
				if err != nil {
					log.Warnf("Chapter %d of edition %d: %v", ai, ei, err)
				} else {
					c.Target = uid.WithEdition(a.SegmentEditionUID)
					c.HasTarget = true
				}
			}

			ed.Chapters = append(ed.Chapters, c)
		}

		editions = append(editions, ed)
	}

	return editions, nil
}

func decodeSegmentUID(x *segmentUIDXML) (models.SegmentUID, error) {
	value := strings.TrimSpace(x.Value)
	switch strings.ToLower(x.Format) {
	case "ascii":
		return models.NewSegmentUID([]byte(value), 0)
	case "", "hex":
		return models.ParseSegmentUID(value)
	default:
		return models.SegmentUID{}, fmt.Errorf("unsupported segment UID format %q", x.Format)
	}
}

// SelectEdition picks the edition to play.
//
// A wanted UID with the segment's bytes and a non-zero edition selects the
// edition with that EditionUID. Otherwise index selects an edition when it
// is in range; otherwise the first default-flagged edition wins, and the
// first edition is the fallback. The boolean reports a wanted UID match.
// Returns -1 when there are no editions.
func SelectEdition(editions []Edition, own models.SegmentUID, wanted []models.SegmentUID, index int) (int, bool) {
	if len(editions) == 0 {
		return -1, false
	}
	for _, w := range wanted {
		if w.Bytes != own.Bytes || w.Edition == 0 {
			continue
		}
		for i, e := range editions {
			if e.UID == w.Edition {
				return i, true
			}
		}
	}
	if index >= 0 && index < len(editions) {
		return index, false
	}
	for i, e := range editions {
		if e.Default {
			return i, false
		}
	}
	return 0, false
}
