// Package setup resolves the effective configuration of an advisor command
// and builds the components it needs.
package setup

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/dotdir"
	embeddingutils "github.com/papercomputeco/advisor/pkg/embeddings/utils"
	eventstreamutils "github.com/papercomputeco/advisor/pkg/eventstream/utils"
	knowledgeutils "github.com/papercomputeco/advisor/pkg/knowledge/utils"
	llmutils "github.com/papercomputeco/advisor/pkg/llm/utils"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/sessionlog"
	vectorutils "github.com/papercomputeco/advisor/pkg/vector/utils"
)

// VectorsFileName is the sqlite-vec database used when no target is configured.
const VectorsFileName = "vectors.sqlite"

// Env is the resolved environment of one command run.
type Env struct {
	Dir    string
	Config *config.Config
	Viper  *viper.Viper
}

// Load layers defaults, config.toml, ADVISOR_* env vars and the given
// registered flags of cmd.
func Load(cmd *cobra.Command, flagKeys []string) (*Env, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	v, err := config.InitViper(dir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	return &Env{Dir: dir, Config: config.FromViper(v), Viper: v}, nil
}

// LogPath returns the session log path: the configured one, or
// sessions.json in the advisor directory.
func (e *Env) LogPath() string {
	if e.Config.Store.Path != "" {
		return e.Config.Store.Path
	}
	return filepath.Join(e.Dir, sessionlog.DefaultFileName)
}

// StoreOpts returns the knowledge store settings for this environment.
func (e *Env) StoreOpts(log *slog.Logger) *knowledgeutils.NewStoreOpts {
	c := e.Config

	indexTarget := c.VectorIndex.Target
	if indexTarget == "" && c.VectorIndex.Provider == vectorutils.ProviderSQLiteVec {
		indexTarget = filepath.Join(e.Dir, VectorsFileName)
	}

	return &knowledgeutils.NewStoreOpts{
		LogPath:    e.LogPath(),
		StrictLoad: c.Store.StrictLoad,
		Embedding: embeddingutils.NewEmbedderOpts{
			ProviderType: c.Embedding.Provider,
			TargetURL:    c.Embedding.Target,
			Model:        c.Embedding.Model,
			Dimensions:   c.Embedding.Dimensions,
		},
		Index: vectorutils.NewIndexOpts{
			ProviderType: c.VectorIndex.Provider,
			TargetURL:    indexTarget,
			Collection:   c.VectorIndex.Collection,
		},
		Events: eventstreamutils.NewPublisherOpts{
			ProviderType: c.Events.Provider,
			Brokers:      c.Events.BrokerList(),
			Topic:        c.Events.Topic,
		},
		Logger: log,
	}
}

// CallerOpts returns the completion model settings. The API key only comes
// from the environment.
func (e *Env) CallerOpts(log *slog.Logger) *llmutils.NewCallerOpts {
	return &llmutils.NewCallerOpts{
		ProviderType: e.Config.LLM.Provider,
		TargetURL:    e.Config.LLM.Target,
		Model:        e.Config.LLM.Model,
		APIKey:       e.Viper.GetString("llm.api_key"),
		Logger:       log,
	}
}

// Logger builds the CLI logger from the global --debug flag. Extra writers,
// such as a log file, receive JSON lines.
func Logger(cmd *cobra.Command, extra ...io.Writer) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")

	pretty := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)
	if len(extra) == 0 {
		return pretty
	}

	structured := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriters(extra...),
	)
	return logger.Multi(pretty, structured)
}

// StoreFlags are the registry keys of the knowledge store flags.
var StoreFlags = []string{
	config.FlagStorePath,
	config.FlagStrictLoad,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagVectorIndexProv,
	config.FlagVectorIndexTgt,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
}

// LLMFlags are the registry keys of the completion model flags.
var LLMFlags = []string{
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagLLMModel,
}

// AddFlags registers the given registry flags on cmd. Values are read back
// through viper in Load, so the flag targets are not kept.
func AddFlags(cmd *cobra.Command, keys ...string) {
	for _, key := range keys {
		switch key {
		case config.FlagStrictLoad:
			config.AddBoolFlag(cmd, config.Flags, key, new(bool))
		case config.FlagEmbeddingDims:
			config.AddUintFlag(cmd, config.Flags, key, new(uint))
		case config.FlagTopK:
			config.AddIntFlag(cmd, config.Flags, key, new(int))
		default:
			config.AddStringFlag(cmd, config.Flags, key, new(string))
		}
	}
}
