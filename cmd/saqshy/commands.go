package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	kvredis "github.com/nauanbek/saqshy/internal/adapters/kv/redis"
	"github.com/nauanbek/saqshy/internal/adapters/spamdb/remote"
	"github.com/nauanbek/saqshy/pkg/audit"
	"github.com/nauanbek/saqshy/pkg/config"
	"github.com/nauanbek/saqshy/pkg/llm"
	"github.com/nauanbek/saqshy/pkg/pipeline"
	"github.com/nauanbek/saqshy/pkg/registry"
	"github.com/nauanbek/saqshy/pkg/trust"
	"github.com/nauanbek/saqshy/pkg/types"
)

// RunLocalCmd processes a demo message set (or a JSON-lines file) through
// the full pipeline with in-process adapters and prints each verdict.
type RunLocalCmd struct {
	Messages    string `help:"JSON-lines file of MessageContext records; omit for the built-in demo set." type:"existingfile" optional:""`
	Sensitivity int    `help:"Group sensitivity 1-10." default:"5"`
}

func (c *RunLocalCmd) Run() error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	log := setupLogging(cfg)

	core, err := buildLocalCore(cfg, log)
	if err != nil {
		return err
	}

	msgs, err := c.loadMessages()
	if err != nil {
		return err
	}

	group := config.DefaultGroupConfig()
	policy := pipeline.GroupPolicy{
		Sensitivity:    c.Sensitivity,
		SandboxEnabled: group.SandboxEnabled,
	}

	ctx := context.Background()
	for _, msg := range msgs {
		result, err := core.pipeline.Process(ctx, msg, policy)
		if err != nil {
			log.Error("pipeline failed", "err", err)
			continue
		}
		d := result.Decision
		fmt.Printf("%-12s score=%-3d verdict=%-7s threat=%-12s user=%d text=%q\n",
			d.GroupType, d.Risk.Score, d.Risk.Verdict, d.Risk.ThreatType, d.UserID, truncate(msg.Text, 48))
	}

	stats := audit.ComputeStats(core.decisions.All())
	fmt.Printf("\nprocessed=%d avg_score=%.1f llm_fraction=%.2f\n", stats.Total, stats.AvgScore, stats.LLMUsageFraction)
	for verdict, count := range stats.ByVerdict {
		fmt.Printf("  %-7s %d\n", verdict, count)
	}
	return nil
}

func (c *RunLocalCmd) loadMessages() ([]types.MessageContext, error) {
	if c.Messages == "" {
		return demoMessages(), nil
	}
	data, err := os.ReadFile(c.Messages)
	if err != nil {
		return nil, err
	}
	var out []types.MessageContext
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var msg types.MessageContext
		if err := dec.Decode(&msg); err != nil {
			return nil, fmt.Errorf("%w: bad message record: %v", errConfig, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func demoMessages() []types.MessageContext {
	now := time.Now()
	return []types.MessageContext{
		{
			MessageID: 1, ChatID: -100200, UserID: 120_000_000, Timestamp: now,
			Username: "longtime_member", FirstName: "Aizhan",
			GroupType: types.GroupGeneral,
			Text:      "Has anyone tried the new release? The changelog looks promising.",
		},
		{
			MessageID: 2, ChatID: -100200, UserID: 7_900_000_000, Timestamp: now,
			Username: "user8821736", FirstName: "Promo🔥🔥🚀",
			GroupType: types.GroupGeneral,
			Text:      "Guaranteed profit!! Send btc to this wallet and double your money: bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		},
		{
			MessageID: 3, ChatID: -100300, UserID: 450_000_000, Timestamp: now,
			Username: "deal_hunter", FirstName: "Marat",
			GroupType: types.GroupDeals,
			Text:      "Selling a barely used monitor, $120, pickup downtown. DM if interested.",
		},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// HealthCheckCmd concurrently probes the key-value store and the spam
// database and constructs the configured LLM client (the LLM is not called),
// without going through circuit breakers. It exits 1 if any check fails,
// 2 on configuration errors.
type HealthCheckCmd struct {
	Timeout time.Duration `help:"Overall health-check deadline." default:"10s"`
}

func (c *HealthCheckCmd) Run() error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	log := setupLogging(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	// Independent probes where any failure fails the whole check —
	// errgroup's fail-fast semantics are exactly right here, unlike in
	// the pipeline's analyzer fan-out.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		client, err := connectRedis(gctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		log.Info("kv reachable", "url", cfg.KV.URL)
		return nil
	})

	if cfg.SpamDB.Endpoint != "" {
		g.Go(func() error {
			db, err := remote.New(cfg.SpamDB.Endpoint, remote.Options{Timeout: c.Timeout})
			if err != nil {
				return fmt.Errorf("%w: %v", errConfig, err)
			}
			if _, _, err := db.Similarity(gctx, "health check probe"); err != nil {
				return fmt.Errorf("%w: spam database: %v", errDependency, err)
			}
			log.Info("spam database reachable", "endpoint", cfg.SpamDB.Endpoint)
			return nil
		})
	}

	if cfg.LLM.Provider != "" {
		g.Go(func() error {
			_, err := llm.Create(cfg.LLM.Provider, registry.Config{
				"model":    cfg.LLM.Model,
				"api_key":  cfg.LLM.APIKey,
				"region":   cfg.LLM.Region,
				"endpoint": cfg.LLM.Endpoint,
				"base_url": cfg.LLM.Endpoint,
			})
			if err != nil {
				return fmt.Errorf("%w: llm adjudicator: %v", errConfig, err)
			}
			log.Info("llm adjudicator configured", "provider", cfg.LLM.Provider)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

// InitDBCmd stamps the KV schema marker so health checks and migrations
// can tell an initialized deployment from a blank store.
type InitDBCmd struct{}

const schemaKey = "saqshy:schema_version"
const schemaVersion = "1"

func (c *InitDBCmd) Run() error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx := context.Background()
	client, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Set(ctx, schemaKey, schemaVersion, 0).Err(); err != nil {
		return fmt.Errorf("%w: write schema marker: %v", errDependency, err)
	}
	fmt.Printf("initialized schema version %s\n", schemaVersion)
	return nil
}

// SeedSpamDBCmd loads a YAML phrase file into the shared KV, where
// deployments without a remote spam-intelligence service read their seed
// corpus from.
type SeedSpamDBCmd struct {
	File string `arg:"" help:"YAML file: patterns: [{phrase, label}]." type:"existingfile"`
}

type seedFile struct {
	Patterns []seedPattern `yaml:"patterns"`
}

type seedPattern struct {
	Phrase string `yaml:"phrase"`
	Label  string `yaml:"label"`
}

const seedKey = "saqshy:spamdb_seed"

func (c *SeedSpamDBCmd) Run() error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("%w: parse seed file: %v", errConfig, err)
	}
	if len(seed.Patterns) == 0 {
		return fmt.Errorf("%w: seed file has no patterns", errConfig)
	}
	for i, p := range seed.Patterns {
		if p.Phrase == "" || p.Label == "" {
			return fmt.Errorf("%w: pattern %d missing phrase or label", errConfig, i)
		}
	}

	payload, err := json.Marshal(seed.Patterns)
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Set(ctx, seedKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("%w: write seed corpus: %v", errDependency, err)
	}
	fmt.Printf("seeded %d spam patterns\n", len(seed.Patterns))
	return nil
}

// OverrideCmd applies a manual admin trust override: the user is promoted
// to trusted immediately, regardless of their sandbox counters.
type OverrideCmd struct {
	ChatID int64 `arg:"" help:"Chat the override applies in."`
	UserID int64 `arg:"" help:"User to promote."`
}

func (c *OverrideCmd) Run() error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx := context.Background()
	client, err := connectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	mgr := trust.NewManager(kvredis.New(client), time.Now)
	state, err := mgr.AdminOverride(ctx, c.ChatID, c.UserID)
	if err != nil {
		return fmt.Errorf("%w: apply override: %v", errDependency, err)
	}
	fmt.Printf("user %d in chat %d is now %s (%s)\n", c.UserID, c.ChatID, state.Level, state.LastReleaseReason)
	return nil
}
