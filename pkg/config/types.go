package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent advisor configuration stored as
// config.toml in the .advisor/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Store       StoreConfig       `toml:"store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorIndex VectorIndexConfig `toml:"vector_index"`
	LLM         LLMConfig         `toml:"llm"`
	API         APIConfig         `toml:"api"`
	Events      EventsConfig      `toml:"events"`
	Search      SearchConfig      `toml:"search"`
}

// StoreConfig holds knowledge store settings.
type StoreConfig struct {
	// Path of the session log. Empty means sessions.json in the .advisor/ directory.
	Path       string `toml:"path,omitempty"`
	StrictLoad bool   `toml:"strict_load,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// VectorIndexConfig holds vector index settings.
type VectorIndexConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// LLMConfig holds completion model settings. API keys are read from the
// environment only (ADVISOR_LLM_API_KEY).
type LLMConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventsConfig holds session event publishing settings. Brokers is a comma
// separated list.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// SearchConfig holds retrieval settings for the search command and API.
type SearchConfig struct {
	TopK int `toml:"top_k,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"store.path": {
		get: func(c *Config) string { return c.Store.Path },
		set: func(c *Config, v string) error { c.Store.Path = v; return nil },
	},
	"store.strict_load": {
		get: func(c *Config) string { return strconv.FormatBool(c.Store.StrictLoad) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for store.strict_load: %w", err)
			}
			c.Store.StrictLoad = b
			return nil
		},
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
	"vector_index.provider": {
		get: func(c *Config) string { return c.VectorIndex.Provider },
		set: func(c *Config, v string) error { c.VectorIndex.Provider = v; return nil },
	},
	"vector_index.target": {
		get: func(c *Config) string { return c.VectorIndex.Target },
		set: func(c *Config, v string) error { c.VectorIndex.Target = v; return nil },
	},
	"vector_index.collection": {
		get: func(c *Config) string { return c.VectorIndex.Collection },
		set: func(c *Config, v string) error { c.VectorIndex.Collection = v; return nil },
	},
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.target": {
		get: func(c *Config) string { return c.LLM.Target },
		set: func(c *Config, v string) error { c.LLM.Target = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"search.top_k": {
		get: func(c *Config) string {
			if c.Search.TopK == 0 {
				return ""
			}
			return strconv.Itoa(c.Search.TopK)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for search.top_k: %w", err)
			}
			if n <= 0 {
				return fmt.Errorf("invalid value for search.top_k: must be positive, got %d", n)
			}
			c.Search.TopK = n
			return nil
		},
	},
}
