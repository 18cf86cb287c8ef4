// Command abrachat runs the chat service: an LLM assistant over
// OpenRouter with the ABRA Gen tools, optional external MCP tool
// servers, and a REST API for conversations.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"

	"github.com/abrachat/abrachat/abra"
	"github.com/abrachat/abrachat/abratools"
	"github.com/abrachat/abrachat/assistants"
	"github.com/abrachat/abrachat/chatapi"
	"github.com/abrachat/abrachat/config"
	"github.com/abrachat/abrachat/llmfactory"
	"github.com/abrachat/abrachat/llms"
	"github.com/abrachat/abrachat/store"
	"github.com/abrachat/abrachat/tools/mcptools"
)

var logger = xlog.NewPackageLogger("github.com/abrachat/abrachat", "abrachat")

const (
	clientVersion   = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

const systemPrompt = `You are a helpful assistant for the ABRA Gen ERP system.
You can query business data such as firms, invoices, orders and products
using the available tools. Answer in the language the user writes in.
When a tool returns an error, explain the problem and suggest a corrected
query instead of giving up.`

func main() {
	xlog.SetFormatter(xlog.NewStringFormatter(os.Stdout))
	xlog.SetGlobalLogLevel(xlog.INFO)

	if err := run(); err != nil {
		logger.KV(xlog.ERROR, "status", "failed", "err", err.Error())
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	model, err := buildModel(cfg)
	if err != nil {
		return err
	}

	abraClient, err := abra.NewClient(cfg.Abra.Host, cfg.Abra.Database,
		cfg.Abra.Username, cfg.Abra.Password,
		abra.WithTimeout(cfg.Abra.Timeout))
	if err != nil {
		return err
	}
	toolSet, err := abratools.All(abraClient)
	if err != nil {
		return err
	}

	mcpSet, err := mcptools.Connect(ctx, cfg.MCPServers, "abrachat", clientVersion)
	if err != nil {
		return err
	}
	defer func() {
		if err := mcpSet.Close(); err != nil {
			logger.KV(xlog.WARNING, "reason", "mcp_close", "err", err.Error())
		}
	}()
	toolSet = append(toolSet, mcpSet.Tools()...)

	st := buildStore(cfg)

	assistant := assistants.NewAssistant(model, systemPrompt,
		assistants.WithTemperature(cfg.Temperature),
		assistants.WithStore(st),
	).WithTools(toolSet...)

	names := make([]string, 0, len(toolSet))
	for _, t := range toolSet {
		names = append(names, t.Name())
	}
	logger.KV(xlog.INFO,
		"status", "starting",
		"model", cfg.ModelName,
		"tools", strings.Join(names, ","),
	)

	srv := chatapi.NewServer(assistant, st, cfg.AuthUsers)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.KV(xlog.INFO, "status", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func buildModel(cfg *config.Settings) (model llms.Model, err error) {
	var f llmfactory.Factory
	if cfg.ModelsConfigFile != "" {
		f, err = llmfactory.Load(cfg.ModelsConfigFile)
	} else {
		f = llmfactory.New(llmfactory.DefaultConfig(cfg.OpenRouterAPIKey, cfg.ModelName))
	}
	if err != nil {
		return nil, err
	}
	return f.DefaultModel()
}

func buildStore(cfg *config.Settings) store.MessageStore {
	if cfg.RedisAddr == "" {
		logger.KV(xlog.INFO, "store", "memory")
		return store.NewMemoryStore()
	}
	logger.KV(xlog.INFO, "store", "redis", "addr", cfg.RedisAddr)
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return store.NewRedisStore(client, "abrachat")
}
