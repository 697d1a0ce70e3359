// Command agentcored runs the agent orchestration HTTP service: it loads
// process configuration, wires the model/memory/event/session backends,
// assembles the coordinator/sub-agent graph, and serves the HTTP API until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goa.design/clue/log"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/Shubhamnegi/agent-core/agentgraph"
	"github.com/Shubhamnegi/agent-core/config"
	"github.com/Shubhamnegi/agent-core/engine"
	"github.com/Shubhamnegi/agent-core/engine/inmem"
	"github.com/Shubhamnegi/agent-core/engine/temporal"
	"github.com/Shubhamnegi/agent-core/eventlog"
	"github.com/Shubhamnegi/agent-core/httpapi"
	"github.com/Shubhamnegi/agent-core/mcpresolver"
	"github.com/Shubhamnegi/agent-core/memorystore"
	"github.com/Shubhamnegi/agent-core/memorystore/lock"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/model/anthropic"
	"github.com/Shubhamnegi/agent-core/model/openai"
	"github.com/Shubhamnegi/agent-core/orchestrator"
	repoinmem "github.com/Shubhamnegi/agent-core/repo/inmem"
	"github.com/Shubhamnegi/agent-core/telemetry"
)

func main() {
	addrF := flag.String("addr", ":8080", "HTTP listen address")
	dbgF := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()

	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if *dbgF {
		ctx = log.Context(ctx, log.WithDebug())
	}

	settings := config.Load()
	logger := telemetry.NewClueLogger()
	metrics := telemetry.NewOTELMetrics(settings.AppName)
	tracer := telemetry.NewOTELTracer(settings.AppName)

	graph, err := buildGraph(ctx, settings, logger, metrics, tracer)
	if err != nil {
		log.Fatalf(ctx, err, "failed to build agent graph")
	}

	memStore, err := buildMemoryStore(settings, logger, metrics)
	if err != nil {
		log.Fatalf(ctx, err, "failed to build memory store")
	}

	eventRepo := eventlog.NewInMemory()
	sweeper := eventlog.NewSweeper(eventRepo, settings.EventRetentionDays, 0, logger)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf(ctx, err, "failed to start event retention sweeper")
	}
	defer sweeper.Stop()

	planStore := repoinmem.NewPlanStore()

	replanEngine, err := buildEngine(settings, logger, metrics, tracer)
	if err != nil {
		log.Fatalf(ctx, err, "failed to build replan engine")
	}

	orch := &orchestrator.Orchestrator{
		Graph:        graph,
		Sessions:     repoinmem.NewSessionStore(),
		Events:       eventRepo,
		MemoryRepo:   memStore,
		CommConfig:   settings.CommConfigPath,
		Logger:       logger,
		Metrics:      metrics,
		Tracer:       tracer,
		Plans:        planStore,
		Engine:       replanEngine,
		MaxPlanSteps: settings.MaxPlanSteps,
		MaxReplans:   settings.MaxReplans,
	}

	server := &httpapi.Server{
		Orchestrator: orch,
		Plans:        planStore,
		Events:       eventRepo,
		Souls:        repoinmem.NewSoulStore(),
		MemoryRepo:   memStore,
		Logger:       logger,
	}

	httpSrv := &http.Server{Addr: *addrF, Handler: server.NewMux(), ReadHeaderTimeout: 60 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.Printf(ctx, "HTTP server listening on %q", *addrF)
		errc <- httpSrv.ListenAndServe()
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf(ctx, err, "http server exited")
		}
	case sig := <-sigc:
		log.Printf(ctx, "received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf(ctx, "failed to shutdown cleanly: %v", err)
	}
}

// buildGraph resolves one model.Client per sub-agent role from
// agent_models.json (falling back to settings.ModelName) and the MCP
// endpoint config, then assembles the coordinator/sub-agent graph those
// roles drive.
func buildGraph(ctx context.Context, settings config.Settings, logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) (*agentgraph.Graph, error) {
	modelsByRole := config.ResolveAgentModels(ctx, settings.AgentModelsPath, settings.ModelName, logger)

	mcpCfg, err := config.LoadMCPConfig(settings.MCPConfigPath)
	if err != nil {
		logger.Warn(ctx, "mcp_config_unavailable_falling_back_to_skill_service_env", "error", err.Error())
		mcpCfg = config.MCPConfig{PlannerEndpoint: "skill_service", Endpoints: []config.MCPEndpoint{config.DefaultSkillServiceEndpoint()}}
	}
	resolvedMCP, err := mcpresolver.Resolve(mcpCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("resolve mcp config: %w", err)
	}

	specialists := make(map[string]agentgraph.Specialist, len(config.AgentRoles))
	for _, role := range config.AgentRoles {
		client, err := resolveModelClient(modelsByRole[role])
		if err != nil {
			return nil, fmt.Errorf("resolve model for role %q: %w", role, err)
		}
		specialists[role] = agentgraph.Specialist{Name: role, Client: client}
	}

	return agentgraph.Build(agentgraph.Config{
		Specialists: specialists,
		Executor:    newToolExecutor(resolvedMCP),
		Logger:      logger,
		Metrics:     metrics,
		Tracer:      tracer,
	})
}

// resolveModelClient picks a model.Client backend by the model name's
// provider prefix; Anthropic is the default when the name matches no
// recognized OpenAI naming convention, since this runtime's other example
// deployments default to a Claude model.
func resolveModelClient(modelName string) (model.Client, error) {
	if isOpenAIModelName(modelName) {
		return openai.NewFromAPIKey(os.Getenv("OPENAI_API_KEY"), modelName)
	}
	return anthropic.NewFromAPIKey(os.Getenv("ANTHROPIC_API_KEY"), modelName, 4096)
}

func isOpenAIModelName(name string) bool {
	for _, prefix := range []string{"gpt-", "o1", "o3", "o4"} {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func buildMemoryStore(settings config.Settings, logger telemetry.Logger, metrics telemetry.Metrics) (*memorystore.Store, error) {
	return memorystore.New(memorystore.Options{
		Backend: memorystore.NewInMemoryBackend(),
		Locker:  lock.NewInMemory(10 * time.Second),
		Logger:  logger,
		Metrics: metrics,
	})
}

// buildEngine picks the plan/replan workflow backend per settings.ReplanEngine:
// "temporal" dials a real Temporal server and backs the engine with
// go.temporal.io/sdk for crash-safe replay, anything else (including the
// default "inmem") runs the synchronous in-process adapter.
func buildEngine(settings config.Settings, logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) (engine.Engine, error) {
	if settings.ReplanEngine != "temporal" {
		return inmem.New(), nil
	}
	client, err := temporalclient.Dial(temporalclient.Options{
		HostPort:  settings.TemporalHostPort,
		Namespace: settings.TemporalNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal at %q: %w", settings.TemporalHostPort, err)
	}
	return temporal.New(temporal.Options{
		Client:    client,
		TaskQueue: settings.TemporalTaskQueue,
		Logger:    logger,
		Metrics:   metrics,
		Tracer:    tracer,
	})
}
