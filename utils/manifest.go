package utils

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// ManifestEntry represents a Vite manifest entry
type ManifestEntry struct {
	File    string   `json:"file"`
	Name    string   `json:"name"`
	Src     string   `json:"src"`
	IsEntry bool     `json:"isEntry"`
	CSS     []string `json:"css"`
	Assets  []string `json:"assets"`
}

// ViteManifest holds the parsed Vite manifest
type ViteManifest map[string]ManifestEntry

// ViteManifestPath is where the frontend build writes its manifest
var ViteManifestPath = "static/dist/.vite/manifest.json"

var (
	manifestCache     ViteManifest
	manifestCacheMu   sync.RWMutex
	manifestCacheOnce sync.Once
	manifestErr       error
)

// LoadViteManifest loads and caches the Vite manifest file
func LoadViteManifest(logger *slog.Logger) (ViteManifest, error) {
	manifestCacheOnce.Do(func() {
		data, readErr := os.ReadFile(ViteManifestPath)
		if readErr != nil {
			logger.Warn("Failed to read Vite manifest", "error", readErr, "path", ViteManifestPath)
			manifestErr = readErr
			return
		}

		manifest, parseErr := ParseViteManifest(data)
		if parseErr != nil {
			logger.Error("Failed to parse Vite manifest", "error", parseErr)
			manifestErr = parseErr
			return
		}

		manifestCacheMu.Lock()
		manifestCache = manifest
		manifestCacheMu.Unlock()

		logger.Info("Vite manifest loaded successfully", "entries", len(manifest))
	})

	if manifestErr != nil {
		return nil, manifestErr
	}

	manifestCacheMu.RLock()
	defer manifestCacheMu.RUnlock()

	return manifestCache, nil
}

// ParseViteManifest decodes a manifest document
func ParseViteManifest(data []byte) (ViteManifest, error) {
	var manifest ViteManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// GetMainScript returns the path to the main JS bundle
func GetMainScript(logger *slog.Logger) string {
	manifest, err := LoadViteManifest(logger)
	if err != nil {
		// Fallback to development path
		return "/static/js/main.js"
	}
	return manifest.MainScript()
}

// MainScript returns the hashed main entry, or the development path
func (m ViteManifest) MainScript() string {
	if entry, ok := m["src/main.ts"]; ok {
		return "/static/dist/" + entry.File
	}
	return "/static/js/main.js"
}

// BuildAssets lists every emitted file in the manifest, sorted and deduplicated
func (m ViteManifest) BuildAssets() []string {
	seen := make(map[string]bool)
	var assets []string
	add := func(file string) {
		if file == "" || seen[file] {
			return
		}
		seen[file] = true
		assets = append(assets, "/static/dist/"+file)
	}

	for _, entry := range m {
		add(entry.File)
		for _, css := range entry.CSS {
			add(css)
		}
		for _, a := range entry.Assets {
			add(a)
		}
	}
	sort.Strings(assets)
	return assets
}

// shellAssets are cached by the service worker whether or not a build exists
var shellAssets = []string{
	"/",
	"/offline",
	"/manifest.webmanifest",
	"/static/icons/icon-192.png",
	"/static/icons/icon-512.png",
}

// PrecacheList returns the URLs the service worker caches on install
func PrecacheList(logger *slog.Logger) []string {
	list := append([]string(nil), shellAssets...)

	manifest, err := LoadViteManifest(logger)
	if err != nil {
		return append(list, "/static/js/main.js")
	}
	return append(list, manifest.BuildAssets()...)
}
