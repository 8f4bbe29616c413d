package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	auditstore "github.com/nauanbek/saqshy/internal/adapters/audit/inmemory"
	kvmemory "github.com/nauanbek/saqshy/internal/adapters/kv/memory"
	"github.com/nauanbek/saqshy/internal/adapters/messaging/logonly"
	spamdbmem "github.com/nauanbek/saqshy/internal/adapters/spamdb/inmemory"
	"github.com/nauanbek/saqshy/pkg/action"
	"github.com/nauanbek/saqshy/pkg/analyzer"
	"github.com/nauanbek/saqshy/pkg/audit"
	"github.com/nauanbek/saqshy/pkg/breaker"
	"github.com/nauanbek/saqshy/pkg/cache"
	"github.com/nauanbek/saqshy/pkg/config"
	"github.com/nauanbek/saqshy/pkg/logging"
	"github.com/nauanbek/saqshy/pkg/metrics"
	"github.com/nauanbek/saqshy/pkg/pipeline"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/trust"
)

// loadConfig resolves the process config: the --config file when given,
// package defaults otherwise (run-local needs no external services, so an
// empty config is not an error there).
func loadConfig(required bool) (*config.ProcessConfig, error) {
	if CLI.Config == "" {
		if required {
			return nil, fmt.Errorf("%w: --config (or SAQSHY_CONFIG) is required for this command", errConfig)
		}
		cfg := config.Defaults()
		return &cfg, nil
	}
	cfg, err := config.LoadProcessConfig(CLI.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.ProcessConfig) *slog.Logger {
	level := logging.ParseLevel(cfg.Log.Level)
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	logging.Configure(level, cfg.Log.Format, os.Stderr)
	return slog.Default()
}

// localCore is a fully in-process decision core: every port is backed by
// an in-memory adapter, so run-local exercises the real pipeline without
// touching redis, the messaging platform, or an LLM endpoint.
type localCore struct {
	pipeline  *pipeline.Pipeline
	decisions *auditstore.Store
	spamDB    *spamdbmem.DB
	sink      *metrics.PrometheusSink
}

func buildLocalCore(cfg *config.ProcessConfig, log *slog.Logger) (*localCore, error) {
	kv := kvmemory.New()
	store := cache.NewMemoryStore(func() int64 { return time.Now().Unix() })
	sink := metrics.NewPrometheusSink()
	breakers := breaker.NewRegistry(breaker.Settings{
		FailureThreshold: uint32(cfg.Breaker.FailureThreshold),
		OpenTimeout:      config.Duration(cfg.Breaker.OpenTimeout, 30*time.Second),
	}, sink.IncCircuitOpen)

	spamDB := spamdbmem.New()
	seedDemoSpamDB(spamDB)
	guardedSpamDB := breaker.GuardedSpamDatabase{Inner: spamDB, Registry: breakers}

	analyzers, err := buildAnalyzers(store, registry.Config{
		"spam_db": guardedSpamDB,
	})
	if err != nil {
		return nil, err
	}

	decisions := auditstore.New()
	trail := audit.NewTrail(decisions, sink)
	engine := action.NewEngine(logonly.New(log), store, nil, log)
	trustMgr := trust.NewManager(kv, time.Now)

	p := pipeline.New(pipeline.Options{
		Analyzers:            analyzers,
		Breakers:             breakers,
		ActionEngine:         engine,
		TrustManager:         trustMgr,
		Trail:                trail,
		Cache:                store,
		Metrics:              sink,
		Log:                  log,
		AnalyzerSoftDeadline: config.Duration(cfg.Timeouts.AnalyzerSoftDeadline, pipeline.DefaultAnalyzerSoftDeadline),
		PipelineHardDeadline: config.Duration(cfg.Timeouts.PipelineHardDeadline, pipeline.DefaultPipelineHardDeadline),
		LLMTimeout:           config.Duration(cfg.Timeouts.LLMTimeout, pipeline.DefaultLLMTimeout),
	})

	return &localCore{pipeline: p, decisions: decisions, spamDB: spamDB, sink: sink}, nil
}

// buildAnalyzers creates all four registered analyzers. shared carries
// collaborators every analyzer config receives on top of the cache.
func buildAnalyzers(store cache.Store, shared registry.Config) ([]analyzer.Analyzer, error) {
	var out []analyzer.Analyzer
	for _, name := range analyzer.List() {
		cfg := registry.Config{"cache": store}
		for k, v := range shared {
			cfg[k] = v
		}
		an, err := analyzer.Create(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("build analyzer %s: %w", name, err)
		}
		out = append(out, an)
	}
	return out, nil
}

func seedDemoSpamDB(db *spamdbmem.DB) {
	db.AddPhrase("guaranteed profit join my signal group", "crypto_signal_spam")
	db.AddPhrase("send btc to this wallet and double your money", "crypto_doubler")
	db.AddPhrase("claim your free airdrop now limited slots", "airdrop_scam")
	db.AddPhrase("dm me for exclusive investment opportunity", "investment_dm")
}

// connectRedis builds the go-redis client init-db and seed-spam-db write
// through, verifying connectivity with a bounded ping.
func connectRedis(ctx context.Context, cfg *config.ProcessConfig) (*goredis.Client, error) {
	if cfg.KV.URL == "" {
		return nil, fmt.Errorf("%w: kv.url is not configured", errConfig)
	}
	opts, err := goredis.ParseURL(cfg.KV.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid kv.url: %v", errConfig, err)
	}
	opts.PoolSize = cfg.KV.MaxConnections + cfg.KV.Overflow
	opts.PoolTimeout = config.Duration(cfg.KV.AcquireTimeout, 30*time.Second)

	client := goredis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: kv ping failed: %v", errDependency, err)
	}
	return client, nil
}
