package utils

import "checkquest/config"

// WebManifest is the PWA web app manifest
type WebManifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Scope           string         `json:"scope"`
	Display         string         `json:"display"`
	Orientation     string         `json:"orientation"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []ManifestIcon `json:"icons"`
	Shortcuts       []Shortcut     `json:"shortcuts,omitempty"`
}

type ManifestIcon struct {
	Src     string `json:"src"`
	Sizes   string `json:"sizes"`
	Type    string `json:"type"`
	Purpose string `json:"purpose,omitempty"`
}

type Shortcut struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// BuildWebManifest renders the manifest from configuration
func BuildWebManifest(cfg *config.Config) WebManifest {
	return WebManifest{
		Name:            cfg.AppName,
		ShortName:       cfg.AppShortName,
		Description:     "Checklists, action plans and rankings for restaurant teams",
		StartURL:        "/?source=pwa",
		Scope:           "/",
		Display:         "standalone",
		Orientation:     "portrait",
		BackgroundColor: "#ffffff",
		ThemeColor:      cfg.ThemeColor,
		Icons: []ManifestIcon{
			{Src: "/static/icons/icon-192.png", Sizes: "192x192", Type: "image/png"},
			{Src: "/static/icons/icon-512.png", Sizes: "512x512", Type: "image/png"},
			{Src: "/static/icons/icon-512-maskable.png", Sizes: "512x512", Type: "image/png", Purpose: "maskable"},
		},
		Shortcuts: []Shortcut{
			{Name: "Checklists", URL: "/checklists"},
			{Name: "Action plans", URL: "/action-plans"},
			{Name: "Ranking", URL: "/ranking"},
		},
	}
}
