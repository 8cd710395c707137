package mpd

import "errors"

var (
	// ErrTag is returned when an element has no usable tag name.
	ErrTag = errors.New("malformed tag name")
	// ErrFormat is returned for unparsable duration strings and unknown size scales.
	ErrFormat = errors.New("invalid format")
	// ErrMissingTemplate is returned when a Representation has no SegmentTemplate to copy from.
	ErrMissingTemplate = errors.New("representation without segment template")
	// ErrNoVideoFound is returned when no adaptation set carries a video mimeType.
	ErrNoVideoFound = errors.New("no video adaptation set found")
	// ErrTemplate is returned when a media template has no $Number$ token.
	ErrTemplate = errors.New("invalid segment url template")
	// ErrInvalidDuration is returned for non-positive or non-finite durations and timescales.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrMissingAttribute is returned when a required attribute is absent or unparsable.
	ErrMissingAttribute = errors.New("missing or invalid attribute")
	// ErrMalformedManifest is returned when the document is not well-formed XML or has no root element.
	ErrMalformedManifest = errors.New("malformed manifest")
	// ErrManifestUnavailable marks a manifest that could not be read at all.
	// It is recoverable: the manifest is simply not parsed.
	ErrManifestUnavailable = errors.New("manifest unavailable")
)
