package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mpdreader/internal/config"
	"mpdreader/internal/dash"
	"mpdreader/internal/models"
	"mpdreader/internal/mpd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger is a no-op logger for testing purposes.
type mockLogger struct{}

func (m *mockLogger) Debugf(format string, v ...interface{}) {}
func (m *mockLogger) Infof(format string, v ...interface{})  {}
func (m *mockLogger) Warnf(format string, v ...interface{})  {}
func (m *mockLogger) Errorf(format string, v ...interface{}) {}

const vodMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT5S" minBufferTime="PT1.5S">
  <Period>
    <AdaptationSet mimeType="video/mp4">
      <SegmentTemplate media="video/$RepresentationID$/$Number$.m4s" initialization="video/$RepresentationID$/init.mp4"
                       startNumber="1" timescale="1000" duration="2000"/>
      <Representation id="v1" bandwidth="3000000" width="1280" height="720" codecs="avc1.64001F"/>
      <Representation id="v2" bandwidth="800000" width="640" height="360" codecs="avc1.64001E"/>
    </AdaptationSet>
    <AdaptationSet mimeType="audio/mp4">
      <SegmentTemplate media="audio/$Number$.m4s" startNumber="1" timescale="1" duration="2"/>
      <Representation id="a1" bandwidth="128000" codecs="mp4a.40.2"/>
    </AdaptationSet>
  </Period>
</MPD>`

const audioOnlyMPD = `<MPD mediaPresentationDuration="PT5S"><Period>
  <AdaptationSet mimeType="audio/mp4">
    <SegmentTemplate media="audio/$Number$.m4s" duration="2"/>
    <Representation id="a1" bandwidth="128000"/>
  </AdaptationSet>
</Period></MPD>`

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Name:        "test",
		Concurrency: 2,
		Manifests: []config.Manifest{
			{Name: "VOD", Id: "vod", Source: writeManifest(t, dir, "vod.mpd", vodMPD)},
			{Name: "Audio only", Id: "audio", Source: writeManifest(t, dir, "audio.mpd", audioOnlyMPD)},
			{Name: "Missing", Id: "missing", Source: filepath.Join(dir, "missing.mpd")},
		},
	}
	log := &mockLogger{}
	return NewManager(log, cfg, dash.NewClient(log))
}

func TestGetOrLoad(t *testing.T) {
	m := newTestManager(t)

	entry, err := m.GetOrLoad(context.Background(), "vod")
	require.NoError(t, err)

	assert.Equal(t, "VOD", entry.Name)
	assert.Equal(t, models.StatusParsed, entry.Report.Status)
	assert.Equal(t, "vod", entry.Report.ID)
	assert.Equal(t, 2, entry.Report.VideoSegmentDuration)
	assert.Equal(t, []int{3000000, 800000}, entry.Report.VideoBitrates, "bitrates keep document order")
	assert.Equal(t, []int{128000}, entry.Report.AudioBitrates)
	assert.Equal(t, map[string]int{"video/3000000": 3, "video/800000": 3, "audio/128000": 3}, entry.Report.SegmentCounts)
	assert.Equal(t, "video/v1/1.m4s", entry.Result.Playback.Video[3000000].URLList[0])

	again, err := m.GetOrLoad(context.Background(), "vod")
	require.NoError(t, err)
	assert.Same(t, entry, again, "loaded entries are reused")
}

func TestGetOrLoad_Errors(t *testing.T) {
	m := newTestManager(t)

	_, err := m.GetOrLoad(context.Background(), "unknown")
	assert.True(t, errors.Is(err, ErrUnknownManifest))

	_, err = m.GetOrLoad(context.Background(), "missing")
	assert.True(t, errors.Is(err, mpd.ErrManifestUnavailable))

	_, err = m.GetOrLoad(context.Background(), "audio")
	assert.True(t, errors.Is(err, mpd.ErrNoVideoFound))
	assert.Empty(t, m.Reports(), "failed loads are not kept")
}

func TestLoadAll(t *testing.T) {
	m := newTestManager(t)

	reports, err := m.LoadAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, mpd.ErrNoVideoFound))
	assert.False(t, errors.Is(err, mpd.ErrManifestUnavailable), "unavailable manifests are skipped, not failed")

	require.Len(t, reports, 3)
	assert.Equal(t, "vod", reports[0].ID)
	assert.Equal(t, models.StatusParsed, reports[0].Status)
	assert.Equal(t, models.StatusFailed, reports[1].Status)
	assert.NotEmpty(t, reports[1].Error)
	assert.Equal(t, models.StatusUnavailable, reports[2].Status)

	loaded := m.Reports()
	require.Len(t, loaded, 1)
	assert.Equal(t, "vod", loaded[0].ID)
}

func TestEntryPlaylists(t *testing.T) {
	m := newTestManager(t)
	entry, err := m.GetOrLoad(context.Background(), "vod")
	require.NoError(t, err)

	master, err := entry.MasterPlaylist()
	require.NoError(t, err)
	assert.Contains(t, master, "video/800000/playlist.m3u8")

	media, err := entry.MediaPlaylist(mpd.Video, 3000000)
	require.NoError(t, err)
	assert.Contains(t, media, "video/v1/3.m4s")

	cached, err := entry.MediaPlaylist(mpd.Video, 3000000)
	require.NoError(t, err)
	assert.Equal(t, media, cached)

	_, err = entry.MediaPlaylist(mpd.Audio, 1)
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, entry.WritePlaylists(dir))
	assert.FileExists(t, filepath.Join(dir, "master.m3u8"))
	assert.FileExists(t, filepath.Join(dir, "audio", "128000", "playlist.m3u8"))
}
