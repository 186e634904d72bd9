// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the topic-scout CLI.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thesismate/topic-scout/internal/conversation"
	"github.com/thesismate/topic-scout/internal/literature"
	"github.com/thesismate/topic-scout/internal/llm"
	"github.com/thesismate/topic-scout/internal/propose"
	"github.com/thesismate/topic-scout/internal/route"
	"github.com/thesismate/topic-scout/internal/secrets"
	"github.com/thesismate/topic-scout/internal/session"
	"github.com/thesismate/topic-scout/internal/store"
	"github.com/thesismate/topic-scout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the topic-scout CLI.
var rootCmd = &cobra.Command{
	Use:   "topic-scout",
	Short: "Conversational research topic discovery and validation",
	Long: `topic-scout helps a student move from vague research interests to concrete,
literature-backed thesis topics. A conversation collects the field and
interests, candidate topics are generated, and each candidate is validated
against live academic sources (arXiv, CrossRef, Semantic Scholar, OpenAlex)
before being proposed.

Use chat for the interactive flow, validate to check a single topic, propose
for a non-interactive round, and export to pull citations out of the store.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./topic-scout.yaml or ~/.config/topic-scout/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for persisted data (default: ./data)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("topic-scout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "topic-scout"))
		}
	}

	viper.SetEnvPrefix("TOPIC_SCOUT")
	viper.AutomaticEnv()

	viper.SetDefault("sources.enable_arxiv", true)
	viper.SetDefault("sources.enable_crossref", true)
	viper.SetDefault("sources.enable_semantic_scholar", true)
	viper.SetDefault("sources.enable_openalex", true)
	viper.SetDefault("sources.user_agent", "topic-scout/0.1 (mailto:research@thesismate.com)")
	viper.SetDefault("sources.timeout", 30*time.Second)
	viper.SetDefault("store.data_dir", "data")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from viper, flags, and
// loaded secrets. Fields left zero fall back to package defaults at the
// point of use.
func engineConfig() types.EngineConfig {
	mailto := secrets.Get(loadedSecrets, "contact-email", viper.GetString("sources.mailto"))
	if mailto == "" {
		mailto = "research@thesismate.com"
	}

	cfg := types.EngineConfig{
		Sources: types.SourcesConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("sources.timeout"),
				UserAgent: viper.GetString("sources.user_agent"),
			},
			MaxRecords:              viper.GetInt("sources.max_records"),
			CollectTimeout:          viper.GetDuration("sources.collect_timeout"),
			EnableArxiv:             viper.GetBool("sources.enable_arxiv"),
			EnableCrossRef:          viper.GetBool("sources.enable_crossref"),
			EnableSemanticScholar:   viper.GetBool("sources.enable_semantic_scholar"),
			EnableOpenAlex:          viper.GetBool("sources.enable_openalex"),
			SemanticScholarAPIKey:   secrets.Get(loadedSecrets, "semantic-scholar-api-key", viper.GetString("sources.semantic_scholar_api_key")),
			Mailto:                  mailto,
			ArxivInterval:           viper.GetDuration("sources.arxiv_interval"),
			CrossRefInterval:        viper.GetDuration("sources.crossref_interval"),
			SemanticScholarInterval: viper.GetDuration("sources.semantic_scholar_interval"),
			OpenAlexInterval:        viper.GetDuration("sources.openalex_interval"),
		},
		Proposer: types.ProposerConfig{
			Candidates:           viper.GetInt("proposer.candidates"),
			RelaxedCandidates:    viper.GetInt("proposer.relaxed_candidates"),
			FeasibilityThreshold: viper.GetFloat64("proposer.feasibility_threshold"),
		},
		AI: types.AIConfig{
			Model:      viper.GetString("ai.model"),
			APIKey:     secrets.Get(loadedSecrets, "anthropic-api-key", viper.GetString("ai.api_key")),
			MaxRetries: viper.GetInt("ai.max_retries"),
		},
		Store: types.StoreConfig{
			DataDir:    viper.GetString("store.data_dir"),
			MaxResults: viper.GetInt("store.max_results"),
		},
	}

	if dataDir, _ := rootCmd.PersistentFlags().GetString("data-dir"); dataDir != "" {
		cfg.Store.DataDir = dataDir
	}
	return cfg
}

// newLogger builds the CLI logger. Warnings and errors only by default so
// conversation output stays readable; --verbose drops to debug.
func newLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// app bundles the assembled components a command needs.
type app struct {
	cfg      types.EngineConfig
	logger   *zap.Logger
	store    *store.Store
	engine   *literature.Engine
	proposer *propose.Proposer
	manager  *session.Manager
}

// newApp wires the full engine. withAI controls whether the Anthropic
// collaborators are required; commands that never call the model pass false
// and can run without a key.
func newApp(withAI bool) (*app, error) {
	cfg := engineConfig()

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Sources.Timeout}
	engine := literature.NewEngine(buildSources(client, cfg.Sources), cfg.Sources, cfg.Scoring, logger)

	a := &app{cfg: cfg, logger: logger, store: st, engine: engine}
	if !withAI {
		return a, nil
	}

	caller, err := llm.NewAnthropicCaller(cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: put it in .secrets/anthropic-api-key or set TOPIC_SCOUT_AI_API_KEY", err)
	}

	tracker := conversation.NewTracker(llm.NewExtractor(caller, cfg.AI), logger)
	a.proposer = propose.NewProposer(llm.NewGenerator(caller, cfg.AI), engine, cfg.Proposer, logger)
	router := route.NewRouter(tracker, a.proposer, logger)
	a.manager = session.NewManager(router, st, logger)
	return a, nil
}

// buildSources constructs the enabled literature source adapters.
func buildSources(client *http.Client, cfg types.SourcesConfig) []literature.Source {
	var sources []literature.Source
	if cfg.EnableArxiv {
		sources = append(sources, literature.NewArxivSource(client, cfg))
	}
	if cfg.EnableCrossRef {
		sources = append(sources, literature.NewCrossRefSource(client, cfg))
	}
	if cfg.EnableSemanticScholar {
		sources = append(sources, literature.NewSemanticScholarSource(client, cfg))
	}
	if cfg.EnableOpenAlex {
		sources = append(sources, literature.NewOpenAlexSource(client, cfg))
	}
	return sources
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
