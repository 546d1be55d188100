package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/config"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			data := `version = 0

[store]
path = "/tmp/advisor/sessions.json"
strict_load = true

[embedding]
provider = "ollama"
target = "http://ollama:11434"
model = "nomic-embed-text"
dimensions = 768

[vector_index]
provider = "qdrant"
target = "qdrant:6334"
collection = "sessions"

[llm]
provider = "openai"
target = "https://api.openai.com/v1"
model = "gpt-4o"

[api]
listen = ":9091"

[events]
provider = "kafka"
brokers = "kafka-1:9092,kafka-2:9092"
topic = "sessions"

[search]
top_k = 7
`
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Store).To(Equal(config.StoreConfig{Path: "/tmp/advisor/sessions.json", StrictLoad: true}))
			Expect(cfg.Embedding).To(Equal(config.EmbeddingConfig{
				Provider: "ollama", Target: "http://ollama:11434", Model: "nomic-embed-text", Dimensions: 768,
			}))
			Expect(cfg.VectorIndex).To(Equal(config.VectorIndexConfig{Provider: "qdrant", Target: "qdrant:6334", Collection: "sessions"}))
			Expect(cfg.LLM).To(Equal(config.LLMConfig{Provider: "openai", Target: "https://api.openai.com/v1", Model: "gpt-4o"}))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Events).To(Equal(config.EventsConfig{Provider: "kafka", Brokers: "kafka-1:9092,kafka-2:9092", Topic: "sessions"}))
			Expect(cfg.Search.TopK).To(Equal(7))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			data := `[llm]
model = "mistral"
`
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.LLM.Model).To(Equal("mistral"))
			Expect(cfg.LLM.Provider).To(Equal(defaults.LLM.Provider))
			Expect(cfg.Embedding).To(Equal(defaults.Embedding))
			Expect(cfg.Search.TopK).To(Equal(defaults.Search.TopK))
		})

		It("returns error for malformed TOML", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[store\npath ="), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})

		It("returns error for unsupported config version", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 99\n"), 0o600)).To(Succeed())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version 99")))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk and round-trips", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Store.Path = "/data/sessions.json"
			cfg.VectorIndex.Provider = "sqlite"
			cfg.Events.Brokers = "localhost:9092"
			Expect(c.SaveConfig(cfg)).To(Succeed())

			info, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(MatchError("cannot save nil config"))
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets and gets a string key", func() {
			Expect(c.SetConfigValue("llm.model", "mistral")).To(Succeed())
			v, err := c.GetConfigValue("llm.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("mistral"))
		})

		It("sets and gets typed keys", func() {
			Expect(c.SetConfigValue("embedding.dimensions", "768")).To(Succeed())
			Expect(c.SetConfigValue("store.strict_load", "true")).To(Succeed())
			Expect(c.SetConfigValue("search.top_k", "5")).To(Succeed())

			v, err := c.GetConfigValue("embedding.dimensions")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("768"))
			v, err = c.GetConfigValue("store.strict_load")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("true"))
			v, err = c.GetConfigValue("search.top_k")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("5"))
		})

		It("rejects invalid typed values", func() {
			Expect(c.SetConfigValue("embedding.dimensions", "many")).To(MatchError(ContainSubstring("embedding.dimensions")))
			Expect(c.SetConfigValue("store.strict_load", "sometimes")).To(MatchError(ContainSubstring("store.strict_load")))
			Expect(c.SetConfigValue("search.top_k", "0")).To(MatchError(ContainSubstring("must be positive")))
		})

		It("rejects unknown keys", func() {
			Expect(c.SetConfigValue("proxy.upstream", "x")).To(MatchError(ContainSubstring("unknown config key")))
			_, err := c.GetConfigValue("proxy.upstream")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("returns defaults when no config file exists", func() {
			v, err := c.GetConfigValue("vector_index.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("flat"))

			v, err = c.GetConfigValue("store.path")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeEmpty())
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("llm.provider", "openai")).To(Succeed())
			Expect(c.SetConfigValue("api.listen", ":9000")).To(Succeed())

			v, err := c.GetConfigValue("llm.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("openai"))
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("lists every key in section order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys).To(HaveLen(17))
		Expect(keys[0]).To(Equal("store.path"))
		Expect(keys[len(keys)-1]).To(Equal("search.top_k"))
		for _, k := range keys {
			Expect(config.IsValidConfigKey(k)).To(BeTrue(), k)
		}
	})

	It("does not accept old key names", func() {
		Expect(config.IsValidConfigKey("storage.sqlite_path")).To(BeFalse())
		Expect(config.IsValidConfigKey("vector_store.provider")).To(BeFalse())
	})
})

var _ = Describe("PresetConfig", func() {
	It("returns the defaults for offline", func() {
		cfg, err := config.PresetConfig("offline")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("switches embeddings and the index for ollama", func() {
		cfg, err := config.PresetConfig("OLLAMA")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		Expect(cfg.VectorIndex.Provider).To(Equal("sqlite"))
	})

	It("switches the llm for openai", func() {
		cfg, err := config.PresetConfig("openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal("openai"))
		Expect(cfg.Embedding.Provider).To(Equal("hashing"))
	})

	It("returns error for unknown preset", func() {
		_, err := config.PresetConfig("anthropic")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
		Expect(config.ValidPresetNames()).To(ConsistOf("offline", "ollama", "openai"))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("embedding.provider")).To(Equal(defaults.Embedding.Provider))
		Expect(v.GetUint("embedding.dimensions")).To(Equal(defaults.Embedding.Dimensions))
		Expect(v.GetString("vector_index.provider")).To(Equal(defaults.VectorIndex.Provider))
		Expect(v.GetString("llm.model")).To(Equal(defaults.LLM.Model))
		Expect(v.GetInt("search.top_k")).To(Equal(defaults.Search.TopK))
		Expect(v.GetBool("store.strict_load")).To(BeFalse())
	})

	It("reads config file values over defaults", func() {
		data := `[llm]
provider = "openai"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("llm.provider")).To(Equal("openai"))
		Expect(v.GetString("llm.model")).To(Equal(config.NewDefaultConfig().LLM.Model))
	})

	It("env vars take precedence over config file values", func() {
		data := `[llm]
provider = "openai"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("ADVISOR_LLM_PROVIDER", "ollama")
		GinkgoT().Setenv("ADVISOR_LLM_API_KEY", "sk-test")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("llm.provider")).To(Equal("ollama"))
		Expect(v.GetString("llm.api_key")).To(Equal("sk-test"))
	})
})

var _ = Describe("Flags", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("binds cobra flags to viper keys via the registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagListen, &listen)
		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())

		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagListen})
		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[search]\ntop_k = 9\n"), 0o600)).To(Succeed())
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var top int
		config.AddIntFlag(cmd, config.Flags, config.FlagTopK, &top)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagTopK, "nonexistent"})

		Expect(v.GetInt("search.top_k")).To(Equal(9))
	})

	It("takes defaults, shorthands and descriptions from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var (
			top    int
			strict bool
			dims   uint
		)
		config.AddIntFlag(cmd, config.Flags, config.FlagTopK, &top)
		config.AddBoolFlag(cmd, config.Flags, config.FlagStrictLoad, &strict)
		config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &dims)

		f := cmd.Flags().Lookup("top")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("k"))
		Expect(f.DefValue).To(Equal("3"))
		Expect(cmd.Flags().Lookup("strict-load").DefValue).To(Equal("false"))
		Expect(cmd.Flags().Lookup("embedding-dimensions").DefValue).To(Equal("384"))
	})
})

var _ = Describe("FromViper", func() {
	It("reads the layered configuration", func() {
		tmpDir := GinkgoT().TempDir()
		data := `[events]
provider = "kafka"
brokers = " kafka-1:9092, ,kafka-2:9092"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())
		GinkgoT().Setenv("ADVISOR_STORE_STRICT_LOAD", "true")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.Store.StrictLoad).To(BeTrue())
		Expect(cfg.Events.Provider).To(Equal("kafka"))
		Expect(cfg.Events.BrokerList()).To(Equal([]string{"kafka-1:9092", "kafka-2:9092"}))
		Expect(cfg.Embedding).To(Equal(config.NewDefaultConfig().Embedding))
	})
})
