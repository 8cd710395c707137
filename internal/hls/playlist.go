package hls

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"mpdreader/internal/dash"
	"mpdreader/internal/mpd"

	"github.com/grafov/m3u8"
)

const (
	playlistName = "playlist.m3u8"
	masterName   = "master.m3u8"
	audioGroupID = "audio"
)

// MediaPlaylistPath is the path of a representation's media playlist relative to the master.
func MediaPlaylistPath(kind mpd.MediaKind, bitrate int) string {
	return fmt.Sprintf("%s/%d/%s", kind, bitrate, playlistName)
}

// GenerateMasterPlaylist creates the HLS master playlist for an expanded model.
// Every video bitrate becomes a variant; audio bitrates form one rendition group.
func GenerateMasterPlaylist(playback *mpd.PlaybackModel) (string, error) {
	videoBitrates := playback.Bitrates(mpd.Video)
	if len(videoBitrates) == 0 {
		return "", fmt.Errorf("no video representations to list")
	}

	var alternatives []*m3u8.Alternative
	for i, bw := range playback.Bitrates(mpd.Audio) {
		rep := playback.Audio[bw]
		alternatives = append(alternatives, &m3u8.Alternative{
			GroupId:    audioGroupID,
			Type:       "AUDIO",
			Name:       rep.ID,
			URI:        MediaPlaylistPath(mpd.Audio, bw),
			Default:    i == 0,
			Autoselect: "YES",
		})
	}

	master := m3u8.NewMasterPlaylist()
	for _, bw := range videoBitrates {
		rep := playback.Video[bw]
		params := m3u8.VariantParams{
			Bandwidth: uint32(bw),
			Codecs:    rep.Codecs,
		}
		if rep.Width > 0 && rep.Height > 0 {
			params.Resolution = fmt.Sprintf("%dx%d", rep.Width, rep.Height)
		}
		if len(alternatives) > 0 {
			params.Audio = audioGroupID
			params.Alternatives = alternatives
		}
		master.Append(MediaPlaylistPath(mpd.Video, bw), nil, params)
	}
	return master.String(), nil
}

// GenerateMediaPlaylist creates a VOD media playlist for one expanded
// representation. Segment and map URIs are resolved against location.
func GenerateMediaPlaylist(rep *mpd.Representation, playbackDuration float64, location string) (string, error) {
	if len(rep.URLList) == 0 {
		return "", fmt.Errorf("representation '%s' has not been expanded", rep.ID)
	}

	segments, err := dash.BuildSegments(location, rep, playbackDuration)
	if err != nil {
		return "", err
	}

	p, err := m3u8.NewMediaPlaylist(0, uint(len(segments)))
	if err != nil {
		return "", fmt.Errorf("failed to create media playlist: %w", err)
	}
	p.MediaType = m3u8.VOD
	p.TargetDuration = math.Ceil(rep.SegmentDuration)

	if rep.Initialization != "" {
		init, err := dash.BuildInitSegment(location, rep)
		if err != nil {
			return "", err
		}
		p.SetDefaultMap(init.URL, 0, 0)
	}

	for _, seg := range segments {
		if err := p.Append(seg.URL, seg.Duration, ""); err != nil {
			return "", fmt.Errorf("failed to append segment %d: %w", seg.Number, err)
		}
	}
	p.Close()
	return p.String(), nil
}

// WriteTree writes master.m3u8 and one media playlist per representation under dir.
func WriteTree(dir string, playback *mpd.PlaybackModel, location string) error {
	if playback.PlaybackDuration == nil {
		return fmt.Errorf("playback duration unknown, cannot render playlists")
	}

	master, err := GenerateMasterPlaylist(playback)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, masterName), master); err != nil {
		return err
	}

	for _, kind := range []mpd.MediaKind{mpd.Video, mpd.Audio} {
		for bw, rep := range playback.Representations(kind) {
			media, err := GenerateMediaPlaylist(rep, *playback.PlaybackDuration, location)
			if err != nil {
				return fmt.Errorf("%s %s: %w", kind, strconv.Itoa(bw), err)
			}
			if err := writeFile(filepath.Join(dir, filepath.FromSlash(MediaPlaylistPath(kind, bw))), media); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
