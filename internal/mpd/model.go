package mpd

import (
	"fmt"
	"sort"

	"mpdreader/internal/models"
)

// MediaKind classifies an adaptation set by its mimeType.
type MediaKind string

const (
	Audio MediaKind = "audio"
	Video MediaKind = "video"
)

// PlaybackModel is the structured result of walking an MPD.
type PlaybackModel struct {
	// MinBufferTime is the minimum client buffer in seconds, nil when the manifest omits it.
	MinBufferTime *float64
	// PlaybackDuration is the total presentation length in seconds, nil when the manifest omits it.
	PlaybackDuration *float64
	// Audio and Video map bandwidth in bits per second to the representation.
	Audio map[int]*Representation
	Video map[int]*Representation
}

// NewPlaybackModel returns an empty model with both maps allocated.
func NewPlaybackModel() *PlaybackModel {
	return &PlaybackModel{
		Audio: make(map[int]*Representation),
		Video: make(map[int]*Representation),
	}
}

// Representations returns the bitrate map for kind.
func (m *PlaybackModel) Representations(kind MediaKind) map[int]*Representation {
	if kind == Audio {
		return m.Audio
	}
	return m.Video
}

// Bitrates returns the bitrates available for kind in ascending order.
func (m *PlaybackModel) Bitrates(kind MediaKind) []int {
	reps := m.Representations(kind)
	bitrates := make([]int, 0, len(reps))
	for bw := range reps {
		bitrates = append(bitrates, bw)
	}
	sort.Ints(bitrates)
	return bitrates
}

// Representation is one encoded variant, with the SegmentTemplate fields of its
// adaptation set copied in.
type Representation struct {
	ID string
	// BaseURL is the media template, e.g. "seg-$RepresentationID$-$Number$.m4s".
	BaseURL        string
	Start          int
	Timescale      float64
	Initialization string
	// SegmentDuration is the template duration divided by the timescale, in seconds.
	SegmentDuration float64

	Codecs string
	Width  int
	Height int

	SegmentSizes []SegmentSize

	// URLList stays empty until ExpandSegmentURLs runs.
	URLList []string
}

// SegmentSize is a <SegmentSize> entry converted to bits.
type SegmentSize struct {
	ID   string
	Bits float64
}

var sizeScales = map[string]float64{
	"bits":  1,
	"Kbits": 1024,
	"Mbits": 1024 * 1024,
	"bytes": 8,
	"KB":    1024 * 8,
	"MB":    1024 * 1024 * 8,
}

func newSegmentSize(id string, size float64, scale string) (SegmentSize, error) {
	factor, ok := sizeScales[scale]
	if !ok {
		return SegmentSize{}, fmt.Errorf("%w: unknown segment size scale %q", ErrFormat, scale)
	}
	return SegmentSize{ID: id, Bits: size * factor}, nil
}

// InitializationURL returns the initialization path with $RepresentationID$ substituted.
func (r *Representation) InitializationURL() string {
	return substituteID(r.Initialization, r.ID)
}

// Segments pairs every expanded URL with its number and duration. The last
// segment that starts inside the presentation is clipped to the remaining time;
// expanded URLs starting at or past the end are left out. The first URL is
// always kept.
func (r *Representation) Segments(playbackDuration float64) []models.Segment {
	segments := make([]models.Segment, 0, len(r.URLList))
	for i, u := range r.URLList {
		duration := r.SegmentDuration
		remaining := playbackDuration - float64(i)*r.SegmentDuration
		if i > 0 && remaining <= 0 {
			break
		}
		if remaining > 0 && remaining < duration {
			duration = remaining
		}
		segments = append(segments, models.Segment{
			URL:      u,
			Number:   r.Start + i,
			Duration: duration,
			RepID:    r.ID,
		})
	}
	return segments
}
