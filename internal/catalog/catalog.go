package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"mpdreader/internal/config"
	"mpdreader/internal/dash"
	"mpdreader/internal/hls"
	"mpdreader/internal/logger"
	"mpdreader/internal/models"
	"mpdreader/internal/mpd"

	"golang.org/x/sync/errgroup"
)

// ErrUnknownManifest is returned for an ID that is not in the configuration.
var ErrUnknownManifest = errors.New("manifest not configured")

// Entry holds a parsed and expanded manifest.
type Entry struct {
	ID     string
	Name   string
	Source string
	// Location is where segment paths resolve: the final URL after redirects,
	// or the absolute path of a local file.
	Location string
	Result   *mpd.Result
	Report   models.ManifestReport

	mutex         sync.RWMutex
	playlistCache map[string]string // Keyed by playlist path relative to the master
}

// Manager loads configured manifests on demand and keeps the parsed results.
type Manager struct {
	mutex   sync.RWMutex
	entries map[string]*Entry
	logger  logger.Logger
	cfg     *config.Config
	client  *dash.Client
	walker  *mpd.Walker
}

// NewManager creates a new catalog manager.
func NewManager(log logger.Logger, cfg *config.Config, client *dash.Client) *Manager {
	return &Manager{
		entries: make(map[string]*Entry),
		logger:  log,
		cfg:     cfg,
		client:  client,
		walker:  mpd.NewWalker(log, cfg.Parser),
	}
}

// GetOrLoad retrieves a loaded manifest or fetches, parses and expands it.
// Failed loads are not kept, so the next call retries.
func (m *Manager) GetOrLoad(ctx context.Context, id string) (*Entry, error) {
	m.mutex.RLock()
	entry, found := m.entries[id]
	m.mutex.RUnlock()

	if found {
		return entry, nil
	}

	var manifestCfg *config.Manifest
	for i := range m.cfg.Manifests {
		if m.cfg.Manifests[i].Id == id {
			manifestCfg = &m.cfg.Manifests[i]
			break
		}
	}
	if manifestCfg == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownManifest, id)
	}

	// Loading runs unlocked so distinct manifests load in parallel.
	m.logger.Infof("No entry found for manifest ID: %s. Loading it.", id)
	loaded, err := m.load(ctx, manifestCfg)
	if err != nil {
		return nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	if entry, found = m.entries[id]; found {
		return entry, nil
	}
	m.entries[id] = loaded
	m.logger.Infof("Loaded manifest: %s (%s)", manifestCfg.Name, id)
	return loaded, nil
}

func (m *Manager) load(ctx context.Context, manifestCfg *config.Manifest) (*Entry, error) {
	data, location, err := m.client.FetchManifest(ctx, manifestCfg.Source, m.cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest '%s': %w", manifestCfg.Id, err)
	}

	res, err := m.walker.Read(bytes.NewReader(data), location)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest '%s': %w", manifestCfg.Id, err)
	}

	if err := res.Playback.ExpandAll(ctx, m.cfg.Concurrency); err != nil {
		return nil, fmt.Errorf("failed to expand segments of manifest '%s': %w", manifestCfg.Id, err)
	}

	report := res.Report
	report.ID = manifestCfg.Id
	report.Status = models.StatusParsed
	report.SegmentCounts = make(map[string]int)
	for _, kind := range []mpd.MediaKind{mpd.Video, mpd.Audio} {
		for bw, rep := range res.Playback.Representations(kind) {
			report.SegmentCounts[string(kind)+"/"+strconv.Itoa(bw)] = len(rep.URLList)
		}
	}

	return &Entry{
		ID:            manifestCfg.Id,
		Name:          manifestCfg.Name,
		Source:        manifestCfg.Source,
		Location:      location,
		Result:        res,
		Report:        report,
		playlistCache: make(map[string]string),
	}, nil
}

// LoadAll loads every configured manifest, at most cfg.Concurrency at a time,
// and returns one report per manifest in configuration order. Unreachable
// manifests are logged and reported; the returned error joins every other failure.
func (m *Manager) LoadAll(ctx context.Context) ([]models.ManifestReport, error) {
	reports := make([]models.ManifestReport, len(m.cfg.Manifests))
	errs := make([]error, len(m.cfg.Manifests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(m.cfg.Concurrency, 1))
	for i, manifestCfg := range m.cfg.Manifests {
		g.Go(func() error {
			entry, err := m.GetOrLoad(ctx, manifestCfg.Id)
			if err == nil {
				reports[i] = entry.Report
				return nil
			}

			report := models.ManifestReport{
				ID:            manifestCfg.Id,
				ManifestFile:  manifestCfg.Source,
				Status:        models.StatusFailed,
				Error:         err.Error(),
				VideoBitrates: []int{},
				AudioBitrates: []int{},
			}
			if errors.Is(err, mpd.ErrManifestUnavailable) {
				m.logger.Warnf("Skipping manifest %s: %v", manifestCfg.Id, err)
				report.Status = models.StatusUnavailable
			} else {
				m.logger.Errorf("Manifest %s failed: %v", manifestCfg.Id, err)
				errs[i] = err
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()

	return reports, errors.Join(errs...)
}

// Reports returns the reports of all loaded manifests ordered by ID.
func (m *Manager) Reports() []models.ManifestReport {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	reports := make([]models.ManifestReport, 0, len(m.entries))
	for _, entry := range m.entries {
		reports = append(reports, entry.Report)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports
}

// MasterPlaylist returns the HLS master playlist of the entry.
func (e *Entry) MasterPlaylist() (string, error) {
	return e.cachedPlaylist("master", func() (string, error) {
		return hls.GenerateMasterPlaylist(e.Result.Playback)
	})
}

// MediaPlaylist returns the HLS media playlist for one representation.
func (e *Entry) MediaPlaylist(kind mpd.MediaKind, bitrate int) (string, error) {
	rep, ok := e.Result.Playback.Representations(kind)[bitrate]
	if !ok {
		return "", fmt.Errorf("no %s representation with bitrate %d", kind, bitrate)
	}
	return e.cachedPlaylist(hls.MediaPlaylistPath(kind, bitrate), func() (string, error) {
		return hls.GenerateMediaPlaylist(rep, *e.Result.Playback.PlaybackDuration, e.Location)
	})
}

// WritePlaylists renders the entry's playlists under dir.
func (e *Entry) WritePlaylists(dir string) error {
	return hls.WriteTree(dir, e.Result.Playback, e.Location)
}

func (e *Entry) cachedPlaylist(key string, generate func() (string, error)) (string, error) {
	e.mutex.RLock()
	playlist, found := e.playlistCache[key]
	e.mutex.RUnlock()
	if found {
		return playlist, nil
	}

	playlist, err := generate()
	if err != nil {
		return "", err
	}

	e.mutex.Lock()
	e.playlistCache[key] = playlist
	e.mutex.Unlock()
	return playlist, nil
}
