package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// CatalogEntry is curated metadata for a known video.
type CatalogEntry struct {
	Title       string   `yaml:"title"`
	Topics      []string `yaml:"topics"`
	PublishDate string   `yaml:"publish_date"`
	ViewCount   int64    `yaml:"view_count"`
	Featured    bool     `yaml:"featured"`
	Description string   `yaml:"description"`
}

// AgentConfig holds the agent's identity, response and search options.
type AgentConfig struct {
	Agent struct {
		Name string `yaml:"name"`
		Icon string `yaml:"icon"`
	} `yaml:"agent"`
	Response struct {
		Language          string `yaml:"language"`
		IncludeTimestamps bool   `yaml:"include_timestamps"`
		IncludeURLs       bool   `yaml:"include_urls"`
	} `yaml:"response"`
	Search struct {
		MaxResults   int     `yaml:"max_results"`
		MinRelevance float64 `yaml:"min_relevance"`
	} `yaml:"search"`
	Catalog map[string]CatalogEntry `yaml:"catalog"`
}

// DefaultAgentConfig returns the settings used when no file is present.
func DefaultAgentConfig() AgentConfig {
	var c AgentConfig
	c.Agent.Name = "Jess"
	c.Agent.Icon = "🎬"
	c.Response.Language = "en"
	c.Response.IncludeTimestamps = true
	c.Response.IncludeURLs = true
	c.Search.MaxResults = 10
	c.Catalog = DefaultCatalog()
	return c
}

// LoadAgentConfig reads path over the defaults. A missing file is not an error.
// Catalog entries in the file are merged into the default catalog.
func LoadAgentConfig(path string) (AgentConfig, error) {
	cfg := DefaultAgentConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read agent config: %w", err)
	}

	defaults := cfg.Catalog
	cfg.Catalog = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		cfg.Catalog = defaults
		return cfg, fmt.Errorf("parse agent config: %w", err)
	}
	for id, entry := range cfg.Catalog {
		defaults[id] = entry
	}
	cfg.Catalog = defaults
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 10
	}
	return cfg, nil
}

// DefaultCatalog is the curated list of channel videos.
func DefaultCatalog() map[string]CatalogEntry {
	return map[string]CatalogEntry{
		"SKfMmH9Bk4o": {
			Title:       "Are we in an AI bubble?",
			Topics:      []string{"AI", "technology", "market bubble", "valuations", "Nvidia"},
			PublishDate: "2024-06-15",
			ViewCount:   15420,
			Featured:    true,
			Description: "Discussion of AI market dynamics and valuation concerns.",
		},
		"AOVpTvMW6ro": {
			Title:       "Governance, Growth and Volatility: Navigating ASEAN",
			Topics:      []string{"ASEAN", "emerging markets", "governance", "Southeast Asia"},
			PublishDate: "2024-05-22",
			ViewCount:   8750,
			Featured:    true,
			Description: "Analysis of Southeast Asian markets and opportunities.",
		},
		"biVXxcjM4ws": {
			Title:       "China R&D Surge: From fast follower to innovation powerhouse",
			Topics:      []string{"China", "R&D", "innovation", "technology", "EVs"},
			PublishDate: "2024-04-10",
			ViewCount:   12300,
			Description: "How China became a global innovation leader.",
		},
		"J9izUotQ6Ls": {Title: "China's two-part strategy and the shifting global landscape"},
		"L5P2q3Ffazg": {Title: "Apple's dependence on China and the 'Catfish effect'"},
		"pLHDv--lr4U": {Title: "Fighting inflation with real assets"},
		"Khp3B8cXKbk": {Title: "Building the backbone of the AI revolution"},
		"WLXPgQUS4UI": {Title: "AI After the Magnificent Seven"},
		"d6-oSabOAEI": {Title: "Real Assets in an Unstable World"},
		"A9kV-HZjinQ": {Title: "What investors should know about the current US Budget Deficit"},
		"p3eHt8PiN_I": {Title: "A Quick Take on Tariffs"},
		"NXpheKdhwwc": {Title: "Revisiting the case for the Magnificent Seven"},
		"gmWLTbzVtp8": {Title: "Asia's manufacturing resilience"},
		"e4rJqlZZ_RI": {Title: "Asia's growth story revived"},
		"2CbZXBn4QlM": {Title: "Understanding China's Economic Transition"},
		"kkpz7Z1ut38": {Title: "Global Equity Income - 2025 Outlook"},
		"sKUAKjRk-2Q": {Title: "Global Innovators - 2025 Outlook"},
		"XpLfQzLGn2U": {Title: "Global Energy - 2025 Outlook"},
		"d2WY9i1E1mw": {Title: "The Magnificent Seven"},
		"S4KGXIY2AGw": {Title: "Opportunities across the Semiconductor industry"},
	}
}
