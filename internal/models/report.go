package models

// ManifestReport is the diagnostic record produced for every parsed manifest.
// It is handed to whatever reporting layer the caller runs; nothing in the
// parser keeps a copy.
type ManifestReport struct {
	ID               string   `json:"id,omitempty"`
	ManifestFile     string   `json:"mpd_file"`
	Status           string   `json:"status,omitempty"`
	Error            string   `json:"error,omitempty"`
	PlaybackDuration *float64 `json:"playback_duration,omitempty"`
	// PlaybackDurationISO is PlaybackDuration in "PT..H..M..S" form.
	PlaybackDurationISO string   `json:"playback_duration_iso,omitempty"`
	MinBufferTime       *float64 `json:"min_buffer_time,omitempty"`
	// VideoSegmentDuration is the shared video segment duration, truncated to whole seconds.
	VideoSegmentDuration int   `json:"video_segment_duration"`
	VideoBitrates        []int `json:"available_bitrates"`
	AudioBitrates        []int `json:"available_audio_bitrates"`
	// SegmentCounts maps "video/<bitrate>" and "audio/<bitrate>" to the number of expanded URLs.
	SegmentCounts map[string]int `json:"segment_counts,omitempty"`
}

// Report statuses.
const (
	StatusParsed      = "parsed"
	StatusUnavailable = "unavailable"
	StatusFailed      = "failed"
)
