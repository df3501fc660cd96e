// Package mkvtoolnix opens Matroska segments with the MKVToolNix
// command-line tools.
//
// Identification (segment UID, duration, tracks, attachments) comes from
// "mkvmerge -J"; chapter editions come from "mkvextract ... chapters".
package mkvtoolnix

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mkvlink/models"
)

// Identification is the subset of mkvmerge's JSON identification output
// used to open a segment.
type Identification struct {
	FileName  string `json:"file_name"`
	Container struct {
		Recognized bool   `json:"recognized"`
		Supported  bool   `json:"supported"`
		Type       string `json:"type"`
		Properties struct {
			SegmentUID string `json:"segment_uid"`
			Duration   int64  `json:"duration"`
			Title      string `json:"title"`
		} `json:"properties"`
	} `json:"container"`
	Tracks []struct {
		ID         int    `json:"id"`
		Type       string `json:"type"`
		Codec      string `json:"codec"`
		Properties struct {
			Number  int    `json:"number"`
			CodecID string `json:"codec_id"`
		} `json:"properties"`
	} `json:"tracks"`
	Attachments []struct {
		ID          int    `json:"id"`
		FileName    string `json:"file_name"`
		ContentType string `json:"content_type"`
		Size        int64  `json:"size"`
	} `json:"attachments"`
	Chapters []struct {
		NumEntries int `json:"num_entries"`
	} `json:"chapters"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ParseIdentification parses "mkvmerge -J" output and checks that it
// describes a Matroska file.
func ParseIdentification(data []byte) (*Identification, error) {
	var id Identification
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("failed to parse mkvmerge JSON output: %w", err)
	}
	if len(id.Errors) > 0 {
		return nil, fmt.Errorf("mkvmerge reported errors: %s", strings.Join(id.Errors, "; "))
	}
	if !id.Container.Recognized || !strings.EqualFold(id.Container.Type, "Matroska") {
		return nil, fmt.Errorf("not a Matroska file (container type %q)", id.Container.Type)
	}
	return &id, nil
}

// SegmentUID returns the segment UID with edition 0.
func (id *Identification) SegmentUID() (models.SegmentUID, error) {
	if id.Container.Properties.SegmentUID == "" {
		return models.SegmentUID{}, fmt.Errorf("file has no segment UID")
	}
	return models.ParseSegmentUID(id.Container.Properties.SegmentUID)
}

// Duration returns the segment duration.
func (id *Identification) Duration() time.Duration {
	return time.Duration(id.Container.Properties.Duration)
}

// HasChapters reports whether the file carries any chapter entries.
func (id *Identification) HasChapters() bool {
	for _, c := range id.Chapters {
		if c.NumEntries > 0 {
			return true
		}
	}
	return false
}

// ModelTracks converts the identified tracks. The Matroska track number is
// the stable ID, as ordered chapter authoring keeps it between segments.
func (id *Identification) ModelTracks() []models.Track {
	tracks := make([]models.Track, 0, len(id.Tracks))
	for _, t := range id.Tracks {
		number := t.Properties.Number
		if number == 0 {
			number = t.ID + 1
		}
		tracks = append(tracks, models.Track{
			Kind:     models.ParseTrackKind(t.Type),
			StableID: number,
			CodecID:  t.Properties.CodecID,
		})
	}
	return tracks
}

// ModelAttachments converts the identified attachments.
func (id *Identification) ModelAttachments(source string) []models.Attachment {
	if len(id.Attachments) == 0 {
		return nil
	}
	out := make([]models.Attachment, 0, len(id.Attachments))
	for _, a := range id.Attachments {
		out = append(out, models.Attachment{
			Name:     a.FileName,
			MimeType: a.ContentType,
			Size:     a.Size,
			Source:   source,
		})
	}
	return out
}
