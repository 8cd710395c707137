package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mpdreader/internal/catalog"
	"mpdreader/internal/logger"
	"mpdreader/internal/mpd"
)

type API struct {
	catalog *catalog.Manager
	logger  logger.Logger
}

func New(catalogMgr *catalog.Manager, log logger.Logger) http.Handler {
	api := &API{
		catalog: catalogMgr,
		logger:  log,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /manifests/{manifestId}/master.m3u8", api.handleMasterPlaylist)
	mux.HandleFunc("GET /manifests/{manifestId}/{mediaType}/{bitrate}/playlist.m3u8", api.handleMediaPlaylist)
	mux.HandleFunc("GET /manifests/{manifestId}/report", api.handleReport)
	mux.HandleFunc("GET /reports", api.handleReports)

	return mux
}

func (a *API) entry(w http.ResponseWriter, r *http.Request) (*catalog.Entry, bool) {
	manifestId := r.PathValue("manifestId")
	entry, err := a.catalog.GetOrLoad(r.Context(), manifestId)
	if err != nil {
		a.logger.Warnf("Failed to load manifest %s: %v", manifestId, err)
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, catalog.ErrUnknownManifest):
			status = http.StatusNotFound
		case errors.Is(err, mpd.ErrManifestUnavailable):
			status = http.StatusBadGateway
		}
		http.Error(w, fmt.Sprintf("Failed to load manifest: %v", err), status)
		return nil, false
	}
	return entry, true
}

func (a *API) handleMasterPlaylist(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}

	playlist, err := entry.MasterPlaylist()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate master playlist: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Write([]byte(playlist))
}

func (a *API) handleMediaPlaylist(w http.ResponseWriter, r *http.Request) {
	var kind mpd.MediaKind
	switch mediaType := r.PathValue("mediaType"); mediaType {
	case string(mpd.Video):
		kind = mpd.Video
	case string(mpd.Audio):
		kind = mpd.Audio
	default:
		http.Error(w, fmt.Sprintf("Unknown media type '%s'", mediaType), http.StatusNotFound)
		return
	}
	bitrate, err := strconv.Atoi(r.PathValue("bitrate"))
	if err != nil {
		http.Error(w, "Bitrate must be an integer", http.StatusBadRequest)
		return
	}

	entry, ok := a.entry(w, r)
	if !ok {
		return
	}

	playlist, err := entry.MediaPlaylist(kind, bitrate)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate media playlist: %v", err), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Write([]byte(playlist))
}

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.entry(w, r)
	if !ok {
		return
	}
	a.writeJSON(w, entry.Report)
}

func (a *API) handleReports(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, a.catalog.Reports())
}

func (a *API) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Errorf("Failed to encode response: %v", err)
	}
}
