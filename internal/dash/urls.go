package dash

import (
	"fmt"
	"net/url"
	"path/filepath"

	"mpdreader/internal/models"
	"mpdreader/internal/mpd"
)

// ResolveURL resolves a segment path against the manifest location. Absolute
// references are returned unchanged; an empty location leaves ref as is.
func ResolveURL(location, ref string) (string, error) {
	if location == "" {
		return ref, nil
	}
	if !IsRemote(location) {
		location = filepath.ToSlash(location)
	}
	base, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("failed to parse manifest location '%s': %w", location, err)
	}
	rel, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("failed to parse path '%s': %w", ref, err)
	}
	return base.ResolveReference(rel).String(), nil
}

// BuildInitSegment returns the initialization segment of rep resolved against location.
func BuildInitSegment(location string, rep *mpd.Representation) (models.Segment, error) {
	u, err := ResolveURL(location, rep.InitializationURL())
	if err != nil {
		return models.Segment{}, fmt.Errorf("failed to resolve init path: %w", err)
	}
	return models.Segment{URL: u, RepID: rep.ID, IsInit: true}, nil
}

// BuildSegments returns the expanded media segments of rep resolved against location.
func BuildSegments(location string, rep *mpd.Representation, playbackDuration float64) ([]models.Segment, error) {
	segments := rep.Segments(playbackDuration)
	for i := range segments {
		u, err := ResolveURL(location, segments[i].URL)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve media path: %w", err)
		}
		segments[i].URL = u
	}
	return segments, nil
}
