// Command graphragd wires the GraphRAG query engine's ambient stack —
// configuration, store adapters, memory store, query generator, and
// orchestrator — into a running HTTP server. It carries no business
// logic itself: every operation it exposes is implemented by the
// package it delegates to. The wiring order follows the teacher's
// "CLI → Configuration → Services → HTTP Server → API Routes"
// architecture comment in cli/root.go, adapted from cobra/viper flags
// to this module's prefix-scoped EnvConfig loaders.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"purplefabric.ai/graphrag/chat"
	"purplefabric.ai/graphrag/config"
	"purplefabric.ai/graphrag/embed"
	"purplefabric.ai/graphrag/extraction"
	"purplefabric.ai/graphrag/httpapi"
	"purplefabric.ai/graphrag/memory"
	"purplefabric.ai/graphrag/obslog"
	"purplefabric.ai/graphrag/orchestrator"
	"purplefabric.ai/graphrag/querygen"
	"purplefabric.ai/graphrag/store"
)

const envPrefix = "GRAPHRAG"

var rootCmd = &cobra.Command{
	Use:   "graphragd",
	Short: "GraphRAG query engine server",
	Long: `graphragd serves the GraphRAG query engine's HTTP surface: agent chat
(rag/graph/graphdb/compare/hybrid/unified modes), SPARQL passthrough
queries, document extraction runs, and agent/memory CRUD.

Configuration is environment-driven (GRAPHRAG_* variables); the flags
below override the common server/service fields for local runs.`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().Int("port", 0, "HTTP server port (overrides GRAPHRAG_PORT)")
	rootCmd.PersistentFlags().String("name", "", "Service name (overrides GRAPHRAG_NAME)")
	rootCmd.PersistentFlags().String("environment", "", "Deployment environment (overrides GRAPHRAG_ENVIRONMENT)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug (overrides GRAPHRAG_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: json or text (overrides GRAPHRAG_LOG_FORMAT)")

	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("name", rootCmd.PersistentFlags().Lookup("name"))
	viper.BindPFlag("environment", rootCmd.PersistentFlags().Lookup("environment"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// runServe implements the startup sequence: load configuration, build
// every store adapter, construct the memory store and query generator,
// assemble the Orchestrator and Extraction Pipeline, then start the echo
// server and wait for a shutdown signal.
func runServe(cmd *cobra.Command, args []string) error {
	allConfig, err := loadAllConfig()
	if err != nil {
		return fmt.Errorf("graphragd: configuration: %w", err)
	}

	logger := obslog.ServiceLogger(allConfig.Service.Name, allConfig.Service.Version)
	logger.Infof("starting graphragd in %s environment", allConfig.Service.Environment)

	ctx := context.Background()
	adapters, err := store.New(ctx, allConfig.GraphRAG)
	if err != nil {
		return fmt.Errorf("graphragd: store adapters: %w", err)
	}
	defer adapters.Close()

	// chat.Model and embed.Model are pluggable external collaborators per
	// spec.md §1 ("Out of scope: ... LLM calls are modeled as a pluggable
	// chat capability; embedding generation as an embed capability"). No
	// concrete backend ships in this module; operators install one by
	// replacing these two Funcs (e.g. an OpenAI- or Bedrock-backed
	// implementation) before deploying.
	chatModel := chat.Func(func(ctx context.Context, req chat.Request) (chat.Response, error) {
		return chat.Response{}, fmt.Errorf("graphragd: no chat.Model backend configured")
	})
	embedModel := embed.Func{
		Dim: allConfig.GraphRAG.Vector.EmbeddingDim,
		EmbedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, fmt.Errorf("graphragd: no embed.Model backend configured")
		},
	}

	memoryStore, err := memory.New(allConfig.GraphRAG.KV.RedisURL, embedModel, chatModel)
	if err != nil {
		return fmt.Errorf("graphragd: memory store: %w", err)
	}
	defer memoryStore.Close()

	generator := querygen.New(chatModel)
	orch := orchestrator.New(adapters, memoryStore, generator, chatModel, embedModel, logger)

	pipeline := &extraction.Pipeline{
		LPG:    adapters.LPG,
		KV:     adapters.KV,
		Chat:   chatModel,
		Runs:   extraction.NewRunManager(0),
		Logger: logger,
	}

	handlers := &httpapi.Handlers{
		Orchestrator: orch,
		Extraction:   pipeline,
		Memory:       memoryStore,
		Stores:       adapters,
		Logger:       logger,
	}

	serverConfig := httpapi.DefaultServerConfig()
	serverConfig.Port = allConfig.Server.Port
	serverConfig.ReadTimeout = allConfig.Server.ReadTimeout
	serverConfig.WriteTimeout = allConfig.Server.WriteTimeout
	serverConfig.ShutdownTimeout = allConfig.Server.ShutdownTimeout
	serverConfig.Debug = allConfig.Server.Debug

	e := httpapi.NewEchoServer(serverConfig)
	e.HTTPErrorHandler = httpapi.CustomHTTPErrorHandler
	httpapi.RegisterRoutes(e, handlers)

	go func() {
		logger.Infof("listening on :%d", serverConfig.Port)
		if err := e.Start(fmt.Sprintf(":%d", serverConfig.Port)); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("graphragd: server stopped unexpectedly")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// loadAllConfig loads the shared server/service configuration and the
// GraphRAG adapter configuration, letting cobra flags (bound to viper)
// override the common fields for local runs the way the teacher's
// runServer builds its FlowConfig from viper.GetString calls.
func loadAllConfig() (*config.AllConfig, error) {
	loader := config.NewConfigLoader(envPrefix)

	if v := viper.GetString("name"); v != "" {
		os.Setenv(envPrefix+"_NAME", v)
	}
	if v := viper.GetString("environment"); v != "" {
		os.Setenv(envPrefix+"_ENVIRONMENT", v)
	}
	if v := viper.GetString("log_level"); v != "" {
		os.Setenv(envPrefix+"_LOG_LEVEL", strings.ToLower(v))
	}
	if v := viper.GetString("log_format"); v != "" {
		os.Setenv(envPrefix+"_LOG_FORMAT", v)
	}
	if v := viper.GetInt("port"); v != 0 {
		os.Setenv(envPrefix+"_PORT", fmt.Sprintf("%d", v))
	}

	allConfig, err := loader.LoadAll()
	if err != nil {
		return nil, err
	}

	graphRAGConfig, err := config.LoadGraphRAGConfig(envPrefix)
	if err != nil {
		return nil, err
	}
	allConfig.GraphRAG = graphRAGConfig

	return allConfig, nil
}
