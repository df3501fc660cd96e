// Package models provides the value types shared by the resolver, the
// container collaborator and the exporters.
package models

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// SegmentUID identifies a Matroska segment and, optionally, one of its
// editions.
//
// Edition 0 means "any edition". Two UIDs are compatible when their bytes are
// equal and either edition is 0 or both editions are equal. SegmentUID is a
// value type: copy it freely and compare it with Compatible, never by
// address.
type SegmentUID struct {
	Bytes   uuid.UUID `json:"bytes"`
	Edition uint64    `json:"edition,omitempty"`
}

// NewSegmentUID builds a SegmentUID from a raw 16-byte slice.
//
// Returns an error if b is not exactly 16 bytes long.
func NewSegmentUID(b []byte, edition uint64) (SegmentUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return SegmentUID{}, fmt.Errorf("invalid segment uid: %w", err)
	}
	return SegmentUID{Bytes: id, Edition: edition}, nil
}

// ParseSegmentUID parses the textual forms produced by Matroska tooling.
//
// Accepted forms:
//   - 32 hex digits ("0f1e2d3c...")
//   - dashed UUID form ("0f1e2d3c-4b5a-...")
//   - space separated bytes, with or without a 0x prefix ("0x0f 0x1e ...")
//
// An optional "/<edition>" suffix sets the edition, e.g. "0f1e.../42".
func ParseSegmentUID(s string) (SegmentUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SegmentUID{}, fmt.Errorf("segment uid cannot be empty")
	}

	var edition uint64
	if i := strings.LastIndex(s, "/"); i >= 0 {
		e, err := strconv.ParseUint(s[i+1:], 10, 64)
		if err != nil {
			return SegmentUID{}, fmt.Errorf("invalid edition in segment uid %q: %w", s, err)
		}
		edition = e
		s = s[:i]
	}

	if id, err := uuid.Parse(s); err == nil {
		return SegmentUID{Bytes: id, Edition: edition}, nil
	}

	fields := strings.Fields(s)
	var sb strings.Builder
	for _, f := range fields {
		f = strings.TrimPrefix(strings.TrimPrefix(f, "0x"), "0X")
		if len(f) == 1 {
			f = "0" + f
		}
		sb.WriteString(f)
	}
	raw, err := hex.DecodeString(sb.String())
	if err != nil {
		return SegmentUID{}, fmt.Errorf("invalid segment uid %q: %w", s, err)
	}
	return NewSegmentUID(raw, edition)
}

// Compatible reports whether a and b refer to the same segment under the
// edition rules described on SegmentUID. The relation is symmetric.
func Compatible(a, b SegmentUID) bool {
	if a.Bytes != b.Bytes {
		return false
	}
	return a.Edition == 0 || b.Edition == 0 || a.Edition == b.Edition
}

// Compatible is the method form of the package-level Compatible.
func (u SegmentUID) Compatible(other SegmentUID) bool {
	return Compatible(u, other)
}

// WithEdition returns a copy of u with its edition replaced.
func (u SegmentUID) WithEdition(edition uint64) SegmentUID {
	u.Edition = edition
	return u
}

// IsZero reports whether u carries no identifier at all.
func (u SegmentUID) IsZero() bool {
	return u.Bytes == uuid.Nil
}

// Hex returns the 32 hex digit form used by mkvmerge.
func (u SegmentUID) Hex() string {
	return hex.EncodeToString(u.Bytes[:])
}

// String returns the hex form, followed by "/edition" when the edition is set.
func (u SegmentUID) String() string {
	if u.Edition == 0 {
		return u.Hex()
	}
	return fmt.Sprintf("%s/%d", u.Hex(), u.Edition)
}
