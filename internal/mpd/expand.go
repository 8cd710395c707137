package mpd

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	tokenRepresentationID = "$RepresentationID$"
	tokenNumber           = "$Number$"

	// maxSegmentURLs bounds the URL list of a single representation.
	maxSegmentURLs = 1 << 20
)

func substituteID(template, id string) string {
	return strings.ReplaceAll(template, tokenRepresentationID, id)
}

// ExpandSegmentURLs fills rep.URLList with one URL per segment, numbered from
// rep.Start, until the accumulated segment time exceeds playbackDuration.
//
// The exit check runs after each append, so at least one URL is produced and
// the segment whose accumulated end first passes the duration is included.
// bitrate only identifies the representation in errors.
func ExpandSegmentURLs(rep *Representation, segmentDuration, playbackDuration float64, bitrate int) error {
	if rep == nil {
		return fmt.Errorf("%w: nil representation for bitrate %d", ErrTemplate, bitrate)
	}
	if !(segmentDuration > 0) || math.IsInf(segmentDuration, 0) {
		return fmt.Errorf("%w: segment duration %v for representation %s (%d bps)", ErrInvalidDuration, segmentDuration, rep.ID, bitrate)
	}
	if math.IsNaN(playbackDuration) || math.IsInf(playbackDuration, 0) {
		return fmt.Errorf("%w: playback duration %v for representation %s (%d bps)", ErrInvalidDuration, playbackDuration, rep.ID, bitrate)
	}
	if !strings.Contains(rep.BaseURL, tokenNumber) {
		return fmt.Errorf("%w: %q has no %s token (representation %s, %d bps)", ErrTemplate, rep.BaseURL, tokenNumber, rep.ID, bitrate)
	}

	n := math.Ceil(playbackDuration/segmentDuration) + 1
	if n > maxSegmentURLs {
		return fmt.Errorf("%w: %v s of %v s segments exceeds %d URLs (representation %s, %d bps)",
			ErrInvalidDuration, playbackDuration, segmentDuration, maxSegmentURLs, rep.ID, bitrate)
	}

	template := substituteID(rep.BaseURL, rep.ID)
	urls := make([]string, 0, int(max(n, 1)))
	total := segmentDuration
	for number := rep.Start; ; number++ {
		urls = append(urls, strings.ReplaceAll(template, tokenNumber, strconv.Itoa(number)))
		if total > playbackDuration {
			break
		}
		total += segmentDuration
	}
	rep.URLList = urls
	return nil
}

// ExpandAll expands every audio and video representation against the model's
// playback duration, running at most limit expansions at once (limit <= 0 means
// no limit). Each representation uses its own segment duration.
func (m *PlaybackModel) ExpandAll(ctx context.Context, limit int) error {
	if m.PlaybackDuration == nil {
		return fmt.Errorf("%w: manifest has no mediaPresentationDuration", ErrInvalidDuration)
	}
	playbackDuration := *m.PlaybackDuration

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, kind := range []MediaKind{Video, Audio} {
		for bitrate, rep := range m.Representations(kind) {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := ExpandSegmentURLs(rep, rep.SegmentDuration, playbackDuration, bitrate); err != nil {
					return fmt.Errorf("%s: %w", kind, err)
				}
				return nil
			})
		}
	}
	return g.Wait()
}
