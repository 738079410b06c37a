// Command ucp-agent runs the payment agent: it loads (or mints) the signing
// identity, wires the merchant clients, and serves the HTTP API.
package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Rakinzi/UCP/cart"
	"github.com/Rakinzi/UCP/catalog"
	"github.com/Rakinzi/UCP/config"
	ucphttp "github.com/Rakinzi/UCP/http"
	"github.com/Rakinzi/UCP/identity"
	ucpmcp "github.com/Rakinzi/UCP/mcp"
	"github.com/Rakinzi/UCP/rank"
	"github.com/Rakinzi/UCP/server"
	"github.com/Rakinzi/UCP/settle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.FromEnv()

	// No identity, no agent: merchants verify every mandate against the key
	// persisted here, so failing to load it is fatal.
	id, err := identity.LoadOrCreate(cfg.KeyFile)
	if err != nil {
		logger.Error("cannot establish signing identity", "key_file", cfg.KeyFile, "error", err)
		os.Exit(1)
	}
	logger.Info("agent identity ready", "public_key", id.PublicKeyHex())

	client := ucphttp.NewMerchantClient(&ucphttp.ClientConfig{
		Signer:       id,
		HostRewrites: cfg.HostRewrites,
	})

	var ranker catalog.Ranker
	if cfg.OllamaEnabled {
		ranker = rank.NewOllamaRanker(&rank.OllamaConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.OllamaTimeout,
		})
	}

	resolver := cart.NewResolver(client, logger)
	orchestrator := settle.NewOrchestrator(client, logger)
	aggregator := catalog.NewAggregator(&catalog.AggregatorConfig{
		Client: client,
		Stores: cfg.Stores,
		Ranker: ranker,
		Logger: logger,
	})

	srv := server.New(&server.Config{
		Identity:     id,
		Resolver:     resolver,
		Orchestrator: orchestrator,
		Aggregator:   aggregator,
		Logger:       logger,
	})

	if cfg.MCPEnabled {
		tools := ucpmcp.NewServer(&ucpmcp.Config{
			Aggregator:   aggregator,
			Resolver:     resolver,
			Orchestrator: orchestrator,
		})
		srv.Router().Any("/mcp", gin.WrapH(ucpmcp.SSEHandler(tools)))
		logger.Info("MCP tool surface mounted", "path", "/mcp")
	}

	if err := srv.Run(cfg.ListenAddr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
