package models

// TrackKind is the stream type of a track.
type TrackKind string

const (
	TrackKindVideo    TrackKind = "video"
	TrackKindAudio    TrackKind = "audio"
	TrackKindSubtitle TrackKind = "subtitle"
	TrackKindUnknown  TrackKind = "unknown"
)

// ParseTrackKind maps the type names used by mkvmerge and ffprobe onto a
// TrackKind.
func ParseTrackKind(s string) TrackKind {
	switch s {
	case "video":
		return TrackKindVideo
	case "audio":
		return TrackKindAudio
	case "subtitles", "subtitle":
		return TrackKindSubtitle
	default:
		return TrackKindUnknown
	}
}

// Track describes a stream of a segment, as far as cross-segment
// compatibility checks care.
//
// StableID is the container's track number, which is what ordered chapter
// authoring keeps stable between segments.
type Track struct {
	Kind            TrackKind `json:"kind"`
	StableID        int       `json:"stable_id"`
	CodecID         string    `json:"codec_id"`
	AttachedPicture bool      `json:"attached_picture,omitempty"`
}

// Attachment is a file embedded in a segment, typically a font used by
// subtitles.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Source   string `json:"source"`
}
