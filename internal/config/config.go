package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mpdreader/internal/mpd"
)

const defaultConcurrency = 4

// Manifest defines the final, processed structure for a single manifest source.
type Manifest struct {
	Name string
	Id   string
	// Source is a file path or an http(s) URL.
	Source string
}

// Config holds the fully processed application configuration.
type Config struct {
	Name        string
	UserAgent   string
	Concurrency int
	OutputDir   string
	Parser      mpd.Options
	Manifests   []Manifest
}

// rawManifest is used for intermediate unmarshaling from the JSON file.
type rawManifest struct {
	Name   string `json:"Name"`
	Id     string `json:"Id"`
	Source string `json:"Source"`
}

// rawConfig is the intermediate structure that maps directly to the JSON file.
type rawConfig struct {
	Name                     string        `json:"Name"`
	UserAgent                string        `json:"UserAgent"`
	Concurrency              int           `json:"Concurrency"`
	OutputDir                string        `json:"OutputDir"`
	SkipAudioRepresentations bool          `json:"SkipAudioRepresentations"`
	StrictTemplateOrder      bool          `json:"StrictTemplateOrder"`
	Manifests                []rawManifest `json:"Manifests"`
}

// LoadConfig reads and parses the configuration file from the given path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	var rawCfg rawConfig
	if err := json.Unmarshal(data, &rawCfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config JSON: %w", err)
	}

	manifests := make([]Manifest, 0, len(rawCfg.Manifests))
	seen := make(map[string]struct{}, len(rawCfg.Manifests))
	for i, rm := range rawCfg.Manifests {
		if rm.Id == "" {
			return nil, fmt.Errorf("manifest %d has no Id", i)
		}
		if rm.Source == "" {
			return nil, fmt.Errorf("manifest '%s' has no Source", rm.Id)
		}
		if _, exists := seen[rm.Id]; exists {
			return nil, fmt.Errorf("duplicate manifest ID found in config: %s", rm.Id)
		}
		seen[rm.Id] = struct{}{}

		name := rm.Name
		if name == "" {
			name = rm.Id
		}
		manifests = append(manifests, Manifest{Name: name, Id: rm.Id, Source: rm.Source})
	}

	concurrency := rawCfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Config{
		Name:        rawCfg.Name,
		UserAgent:   rawCfg.UserAgent,
		Concurrency: concurrency,
		OutputDir:   rawCfg.OutputDir,
		Parser: mpd.Options{
			SkipAudioRepresentations: rawCfg.SkipAudioRepresentations,
			StrictTemplateOrder:      rawCfg.StrictTemplateOrder,
		},
		Manifests: manifests,
	}, nil
}

// FromSources builds a configuration for manifests given on the command line.
// Ids come from the file base name, suffixed on collision.
func FromSources(sources []string) *Config {
	cfg := &Config{Name: "command line", Concurrency: defaultConcurrency}
	seen := make(map[string]int)
	for _, src := range sources {
		id := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		if id == "" || id == "." || id == "/" {
			id = "manifest"
		}
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s-%d", id, n+1)
		} else {
			seen[id] = 1
		}
		cfg.Manifests = append(cfg.Manifests, Manifest{Name: src, Id: id, Source: src})
	}
	return cfg
}
