package models

// Segment represents one fetchable media segment of a representation.
// This struct is used across packages to hand expanded segment lists to renderers.
type Segment struct {
	// URL is the segment URL after template expansion, relative to the manifest unless resolved.
	URL string
	// Number is the $Number$ value the URL was expanded with.
	Number int
	// Duration is the playback time covered by the segment, in seconds.
	Duration float64
	// RepID is the ID of the representation this segment belongs to.
	RepID string
	// IsInit indicates if this is an initialization segment.
	IsInit bool
}
