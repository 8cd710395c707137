package dash

import (
	"testing"

	"mpdreader/internal/mpd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		location, ref, want string
	}{
		{"https://cdn.example.com/vod/bunny/manifest.mpd", "video/seg-1.m4s", "https://cdn.example.com/vod/bunny/video/seg-1.m4s"},
		{"https://cdn.example.com/vod/bunny/manifest.mpd", "/root/seg-1.m4s", "https://cdn.example.com/root/seg-1.m4s"},
		{"https://cdn.example.com/vod/manifest.mpd", "https://other.example.com/seg-1.m4s", "https://other.example.com/seg-1.m4s"},
		{"/srv/media/bunny/manifest.mpd", "seg-1.m4s", "/srv/media/bunny/seg-1.m4s"},
		{"", "seg-1.m4s", "seg-1.m4s"},
	}
	for _, tt := range tests {
		got, err := ResolveURL(tt.location, tt.ref)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestBuildSegments(t *testing.T) {
	rep := &mpd.Representation{
		ID:              "720p",
		BaseURL:         "$RepresentationID$/$Number$.m4s",
		Start:           1,
		Initialization:  "$RepresentationID$/init.mp4",
		SegmentDuration: 2,
	}
	require.NoError(t, mpd.ExpandSegmentURLs(rep, 2, 5, 3000000))

	const location = "https://cdn.example.com/vod/manifest.mpd"
	segments, err := BuildSegments(location, rep, 5)
	require.NoError(t, err)
	require.Len(t, segments, 3)
	assert.Equal(t, "https://cdn.example.com/vod/720p/1.m4s", segments[0].URL)
	assert.Equal(t, 3, segments[2].Number)

	init, err := BuildInitSegment(location, rep)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/vod/720p/init.mp4", init.URL)
	assert.True(t, init.IsInit)
}
