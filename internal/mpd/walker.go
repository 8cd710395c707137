package mpd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mpdreader/internal/logger"
	"mpdreader/internal/models"

	"github.com/antchfx/xmlquery"
)

const (
	attrMediaPresentationDuration = "mediaPresentationDuration"
	attrMinBufferTime             = "minBufferTime"

	tagPeriod          = "Period"
	tagSegmentTemplate = "SegmentTemplate"
	tagRepresentation  = "Representation"
	tagSegmentSize     = "SegmentSize"
)

// Options tunes how strictly the walker treats loosely structured manifests.
type Options struct {
	// SkipAudioRepresentations ignores audio adaptation sets, leaving the audio map empty.
	SkipAudioRepresentations bool
	// StrictTemplateOrder requires each SegmentTemplate to precede the
	// Representations that use it, in document order.
	StrictTemplateOrder bool
}

// Result is everything one walk produces.
type Result struct {
	Playback *PlaybackModel
	// VideoSegmentDuration is the video segment duration truncated to whole seconds.
	VideoSegmentDuration int
	Report               models.ManifestReport
}

// Walker turns a parsed MPD tree into a PlaybackModel.
type Walker struct {
	logger logger.Logger
	opts   Options
}

// NewWalker creates a new manifest walker.
func NewWalker(log logger.Logger, opts Options) *Walker {
	return &Walker{logger: log, opts: opts}
}

// ReadFile parses the manifest at path. A file that cannot be opened yields
// ErrManifestUnavailable.
func (w *Walker) ReadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		w.logger.Errorf("MPD file %s not found: %v", path, err)
		return nil, fmt.Errorf("%w: %v", ErrManifestUnavailable, err)
	}
	defer f.Close()
	return w.Read(f, path)
}

// Read parses a manifest from r; source names it in the report.
func (w *Walker) Read(r io.Reader, source string) (*Result, error) {
	w.logger.Infof("Reading the MPD file %s", source)
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse XML from %s: %v", ErrMalformedManifest, source, err)
	}
	res, err := w.Walk(doc)
	if err != nil {
		return nil, err
	}
	res.Report.ManifestFile = source
	return res, nil
}

// Walk populates a PlaybackModel from a document or root element node.
func (w *Walker) Walk(root *xmlquery.Node) (*Result, error) {
	if root != nil && root.Type == xmlquery.DocumentNode {
		children := elementChildren(root)
		root = nil
		if len(children) > 0 {
			root = children[0]
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: document has no root element", ErrMalformedManifest)
	}

	if name, err := LocalName(QualifiedName(root)); err != nil || !strings.Contains(strings.ToUpper(name), "MPD") {
		w.logger.Warnf("Root element %q is not an MPD, parsing anyway", root.Data)
	}

	playback := NewPlaybackModel()
	if v, ok := attr(root, attrMediaPresentationDuration); ok {
		d, err := ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", attrMediaPresentationDuration, err)
		}
		playback.PlaybackDuration = &d
		w.logger.Debugf("Playback duration %s = %v seconds", FormatDuration(d), d)
	}
	if v, ok := attr(root, attrMinBufferTime); ok {
		d, err := ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", attrMinBufferTime, err)
		}
		playback.MinBufferTime = &d
	}

	report := models.ManifestReport{
		PlaybackDuration: playback.PlaybackDuration,
		MinBufferTime:    playback.MinBufferTime,
		VideoBitrates:    []int{},
		AudioBitrates:    []int{},
	}
	if playback.PlaybackDuration != nil {
		report.PlaybackDurationISO = FormatDuration(*playback.PlaybackDuration)
	}

	videoFound := false
	var videoSegmentDuration float64
	for i, as := range elementChildren(selectPeriod(root)) {
		mimeType, ok := attr(as, "mimeType")
		if !ok {
			continue
		}
		var kind MediaKind
		switch {
		case strings.Contains(mimeType, string(Audio)):
			kind = Audio
			w.logger.Infof("Found Audio")
			if w.opts.SkipAudioRepresentations {
				continue
			}
		case strings.Contains(mimeType, string(Video)):
			kind = Video
			w.logger.Infof("Found Video")
		default:
			w.logger.Debugf("Skipping adaptation set %d with mimeType %q", i, mimeType)
			continue
		}

		tmpl, err := w.walkAdaptationSet(as, kind, playback, &report)
		if err != nil {
			return nil, fmt.Errorf("adaptation set %d (%s): %w", i, mimeType, err)
		}
		if kind == Video {
			if tmpl == nil {
				return nil, fmt.Errorf("adaptation set %d (%s): %w: no SegmentTemplate", i, mimeType, ErrMissingTemplate)
			}
			videoFound = true
			videoSegmentDuration = tmpl.segmentDuration()
			w.logger.Debugf("Segment Playback Duration = %v", videoSegmentDuration)
		}
	}

	if !videoFound {
		return nil, ErrNoVideoFound
	}
	report.VideoSegmentDuration = int(videoSegmentDuration)
	return &Result{
		Playback:             playback,
		VideoSegmentDuration: int(videoSegmentDuration),
		Report:               report,
	}, nil
}

// selectPeriod picks the first Period child of the root, falling back to the
// first child element when none is named Period.
func selectPeriod(root *xmlquery.Node) *xmlquery.Node {
	children := elementChildren(root)
	for _, c := range children {
		if hasTag(c, tagPeriod) {
			return c
		}
	}
	if len(children) > 0 {
		return children[0]
	}
	return nil
}

// walkAdaptationSet builds the representations of one adaptation set and
// returns the template that applied last, or nil if it had none.
func (w *Walker) walkAdaptationSet(as *xmlquery.Node, kind MediaKind, playback *PlaybackModel, report *models.ManifestReport) (*segmentTemplate, error) {
	children := elementChildren(as)

	var tmpl *segmentTemplate
	if !w.opts.StrictTemplateOrder {
		for _, child := range children {
			if !hasTag(child, tagSegmentTemplate) {
				continue
			}
			t, err := parseSegmentTemplate(child, kind)
			if err != nil {
				return nil, err
			}
			tmpl = t
		}
	}

	for _, child := range children {
		switch {
		case hasTag(child, tagSegmentTemplate):
			if w.opts.StrictTemplateOrder {
				t, err := parseSegmentTemplate(child, kind)
				if err != nil {
					return nil, err
				}
				tmpl = t
			}
		case hasTag(child, tagRepresentation):
			if tmpl == nil {
				return nil, fmt.Errorf("%w: representation %q", ErrMissingTemplate, child.SelectAttr("id"))
			}
			bandwidth, rep, err := parseRepresentation(child, tmpl)
			if err != nil {
				return nil, err
			}
			reps := playback.Representations(kind)
			if _, exists := reps[bandwidth]; exists {
				w.logger.Warnf("Duplicate %s bandwidth %d, representation %s replaces %s", kind, bandwidth, rep.ID, reps[bandwidth].ID)
			} else if kind == Video {
				report.VideoBitrates = append(report.VideoBitrates, bandwidth)
			} else {
				report.AudioBitrates = append(report.AudioBitrates, bandwidth)
			}
			reps[bandwidth] = rep
		}
	}
	return tmpl, nil
}

// segmentTemplate holds the SegmentTemplate fields shared by an adaptation set.
type segmentTemplate struct {
	media          string
	start          int
	timescale      float64
	initialization string
	duration       float64
}

func (t *segmentTemplate) segmentDuration() float64 {
	return t.duration / t.timescale
}

func parseSegmentTemplate(n *xmlquery.Node, kind MediaKind) (*segmentTemplate, error) {
	media, err := requiredAttr(n, "media")
	if err != nil {
		return nil, err
	}
	start, err := intAttr(n, "startNumber", 1)
	if err != nil {
		return nil, err
	}
	timescale, err := floatAttr(n, "timescale", 1)
	if err != nil {
		return nil, err
	}
	if !(timescale > 0) {
		return nil, fmt.Errorf("%w: timescale %v", ErrInvalidDuration, timescale)
	}
	initialization, _ := attr(n, "initialization")

	t := &segmentTemplate{
		media:          media,
		start:          start,
		timescale:      timescale,
		initialization: initialization,
	}
	if _, ok := attr(n, "duration"); !ok && kind == Video {
		return nil, fmt.Errorf("%w: video <%s> has no duration", ErrMissingAttribute, n.Data)
	}
	if t.duration, err = floatAttr(n, "duration", 0); err != nil {
		return nil, err
	}
	return t, nil
}

func parseRepresentation(n *xmlquery.Node, tmpl *segmentTemplate) (int, *Representation, error) {
	id, err := requiredAttr(n, "id")
	if err != nil {
		return 0, nil, err
	}
	bw, err := requiredAttr(n, "bandwidth")
	if err != nil {
		return 0, nil, err
	}
	bandwidth, err := strconv.Atoi(bw)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: bandwidth %q of representation %s: %v", ErrMissingAttribute, bw, id, err)
	}
	width, err := intAttr(n, "width", 0)
	if err != nil {
		return 0, nil, err
	}
	height, err := intAttr(n, "height", 0)
	if err != nil {
		return 0, nil, err
	}
	codecs, _ := attr(n, "codecs")

	rep := &Representation{
		ID:              id,
		BaseURL:         tmpl.media,
		Start:           tmpl.start,
		Timescale:       tmpl.timescale,
		Initialization:  tmpl.initialization,
		SegmentDuration: tmpl.segmentDuration(),
		Codecs:          codecs,
		Width:           width,
		Height:          height,
		URLList:         []string{},
	}

	for _, child := range elementChildren(n) {
		if !hasTag(child, tagSegmentSize) {
			continue
		}
		size, err := floatAttr(child, "size", 0)
		if err != nil {
			return 0, nil, err
		}
		scale, _ := attr(child, "scale")
		s, err := newSegmentSize(child.SelectAttr("id"), size, scale)
		if err != nil {
			return 0, nil, fmt.Errorf("representation %s: %w", id, err)
		}
		rep.SegmentSizes = append(rep.SegmentSizes, s)
	}
	return bandwidth, rep, nil
}

func requiredAttr(n *xmlquery.Node, name string) (string, error) {
	v, ok := attr(n, name)
	if !ok {
		return "", fmt.Errorf("%w: <%s> has no %s", ErrMissingAttribute, n.Data, name)
	}
	return v, nil
}

func intAttr(n *xmlquery.Node, name string, def int) (int, error) {
	v, ok := attr(n, name)
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: <%s %s=%q>: %v", ErrMissingAttribute, n.Data, name, v, errors.Unwrap(err))
	}
	return i, nil
}

func floatAttr(n *xmlquery.Node, name string, def float64) (float64, error) {
	v, ok := attr(n, name)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: <%s %s=%q>: %v", ErrMissingAttribute, n.Data, name, v, errors.Unwrap(err))
	}
	return f, nil
}
