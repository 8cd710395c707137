package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigJSON = `{
	"Name": "vod-catalog",
	"UserAgent": "mpdreader/1.0",
	"Concurrency": 2,
	"OutputDir": "out",
	"SkipAudioRepresentations": true,
	"Manifests": [
		{ "Name": "Big Buck Bunny", "Id": "bbb", "Source": "https://dash.example.com/bbb/manifest.mpd" },
		{ "Id": "local", "Source": "testdata/local.mpd" }
	]
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifests.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testConfigJSON))
	require.NoError(t, err)

	assert.Equal(t, "vod-catalog", cfg.Name)
	assert.Equal(t, "mpdreader/1.0", cfg.UserAgent)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.Parser.SkipAudioRepresentations)
	assert.False(t, cfg.Parser.StrictTemplateOrder)

	require.Len(t, cfg.Manifests, 2)
	assert.Equal(t, Manifest{Name: "Big Buck Bunny", Id: "bbb", Source: "https://dash.example.com/bbb/manifest.mpd"}, cfg.Manifests[0])
	assert.Equal(t, "local", cfg.Manifests[1].Name, "name defaults to id")
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"Manifests": []}`))
	require.NoError(t, err)
	assert.Equal(t, defaultConcurrency, cfg.Concurrency)
	assert.Empty(t, cfg.Manifests)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := map[string]string{
		"duplicate id": `{"Manifests": [{"Id": "a", "Source": "a.mpd"}, {"Id": "a", "Source": "b.mpd"}]}`,
		"missing id":   `{"Manifests": [{"Source": "a.mpd"}]}`,
		"missing src":  `{"Manifests": [{"Id": "a"}]}`,
		"bad json":     `{"Manifests": [`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestFromSources(t *testing.T) {
	cfg := FromSources([]string{"media/bunny.mpd", "other/bunny.mpd", "https://cdn.example.com/live/sintel.mpd"})

	require.Len(t, cfg.Manifests, 3)
	assert.Equal(t, "bunny", cfg.Manifests[0].Id)
	assert.Equal(t, "bunny-2", cfg.Manifests[1].Id)
	assert.Equal(t, "sintel", cfg.Manifests[2].Id)
	assert.Equal(t, "https://cdn.example.com/live/sintel.mpd", cfg.Manifests[2].Source)
	assert.Equal(t, defaultConcurrency, cfg.Concurrency)
}
