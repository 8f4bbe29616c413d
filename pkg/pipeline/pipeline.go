// Package pipeline orchestrates one message end-to-end: admission control,
// signal extraction, risk scoring, gray-zone LLM adjudication, action
// dispatch, trust-state update, and audit persistence. The analyzer
// fan-out collects results over a channel rather than a fail-fast group:
// a failing analyzer never cancels its siblings, and a hung one cannot
// hold the verdict past the hard deadline.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nauanbek/saqshy/pkg/action"
	"github.com/nauanbek/saqshy/pkg/analyzer"
	"github.com/nauanbek/saqshy/pkg/audit"
	"github.com/nauanbek/saqshy/pkg/breaker"
	"github.com/nauanbek/saqshy/pkg/cache"
	"github.com/nauanbek/saqshy/pkg/logging"
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/retry"
	"github.com/nauanbek/saqshy/pkg/risk"
	"github.com/nauanbek/saqshy/pkg/trust"
	"github.com/nauanbek/saqshy/pkg/types"
	"github.com/nauanbek/saqshy/pkg/weights"
)

// Default soft/hard deadlines for the analyzer stage and the LLM call.
const (
	DefaultAnalyzerSoftDeadline = 500 * time.Millisecond
	DefaultPipelineHardDeadline = 5 * time.Second
	DefaultLLMTimeout           = 10 * time.Second
)

// Default admission ceilings over a fixed one-minute window: 20/min
// per user in a chat, 200/min per chat overall.
const (
	UserRateLimitPerMinute  = 20
	GroupRateLimitPerMinute = 200
	RateWindowSeconds       = 60
)

// spamDBMatchThreshold is the similarity above which a message counts as a
// spam-database match for soft-watch observation purposes, matching the
// lowest tier risk/network.go scores against.
const spamDBMatchThreshold = 0.80

// Options configures a Pipeline.
type Options struct {
	Analyzers            []analyzer.Analyzer
	Breakers             *breaker.Registry
	LLM                  ports.LLMAdjudicator
	ActionEngine         *action.Engine
	TrustManager         *trust.Manager
	Trail                *audit.Trail
	Cache                cache.Store
	Metrics              ports.MetricsSink
	Log                  *slog.Logger
	AnalyzerSoftDeadline time.Duration
	PipelineHardDeadline time.Duration
	LLMTimeout           time.Duration
	Now                  func() time.Time
}

// Pipeline wires every stage of the decision core together.
type Pipeline struct {
	analyzers    []analyzer.Analyzer
	breakers     *breaker.Registry
	llm          ports.LLMAdjudicator
	actionEngine *action.Engine
	trustMgr     *trust.Manager
	trail        *audit.Trail
	cache        cache.Store
	metrics      ports.MetricsSink
	log          *slog.Logger

	analyzerSoftDeadline time.Duration
	pipelineHardDeadline time.Duration
	llmTimeout           time.Duration
	now                  func() time.Time
}

// New builds a Pipeline from Options, applying the package's timeout
// defaults for any zero-value duration.
func New(opts Options) *Pipeline {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		analyzers:            opts.Analyzers,
		breakers:             opts.Breakers,
		llm:                  opts.LLM,
		actionEngine:         opts.ActionEngine,
		trustMgr:             opts.TrustManager,
		trail:                opts.Trail,
		cache:                opts.Cache,
		metrics:              opts.Metrics,
		log:                  log,
		analyzerSoftDeadline: durationOrDefault(opts.AnalyzerSoftDeadline, DefaultAnalyzerSoftDeadline),
		pipelineHardDeadline: durationOrDefault(opts.PipelineHardDeadline, DefaultPipelineHardDeadline),
		llmTimeout:           durationOrDefault(opts.LLMTimeout, DefaultLLMTimeout),
		now:                  now,
	}
}

func durationOrDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// GroupPolicy is the slice of a group's configuration one Process call
// runs under: how aggressively to score, and whether new members enter
// the sandbox at all.
type GroupPolicy struct {
	// Sensitivity is 1-10 (5 = neutral); 0 is normalized to 5.
	Sensitivity int
	// SandboxEnabled gates the new -> sandbox transition for this group.
	SandboxEnabled bool
}

// DefaultGroupPolicy matches the per-group configuration defaults.
func DefaultGroupPolicy() GroupPolicy {
	return GroupPolicy{Sensitivity: 5, SandboxEnabled: true}
}

// Result is what one call to Process returns: the final decision plus a
// few process-level facts the caller (cmd/saqshy, a bot webhook handler)
// may want to log or expose.
type Result struct {
	Decision         types.Decision
	Degraded         bool
	DegradedReasons  []string
	RateLimited      bool
	ProcessingTimeMs int64
}

// Process runs one message through the full decision core.
func (p *Pipeline) Process(ctx context.Context, msg types.MessageContext, policy GroupPolicy) (Result, error) {
	start := p.now()
	ctx, cancel := context.WithTimeout(ctx, p.pipelineHardDeadline)
	defer cancel()

	if policy.Sensitivity == 0 {
		policy.Sensitivity = 5
	}

	if msg.IsAdmin || msg.IsWhitelisted {
		return p.finish(ctx, msg, allowResult("admin_or_whitelisted_bypass"), nil, false, nil, start)
	}

	if limited := p.admissionControl(ctx, msg); limited {
		p.log.InfoContext(ctx, "message rate-limited, short-circuiting to allow", logging.MessageAttrs(msg)...)
		res, err := p.finish(ctx, msg, rateLimitedResult(), nil, false, nil, start)
		res.RateLimited = true
		return res, err
	}

	signals, degraded, reasons := p.extractSignals(ctx, msg)

	trustLevel, sandboxState, softWatchState := p.resolveTrust(ctx, msg, policy)

	calc, err := risk.New(msg.GroupType, trustLevel, policy.Sensitivity)
	if err != nil {
		return Result{}, err
	}
	result, err := calc.Calculate(signals)
	if err != nil {
		return Result{}, err
	}

	if result.NeedsLLM && p.llm != nil {
		p.adjudicate(ctx, msg, &result)
	}

	blockThreshold := result.Score
	if w, err := weights.ForGroup(msg.GroupType); err == nil {
		blockThreshold = w.Thresholds.Block
	}
	plan := action.Plan(msg, result, blockThreshold)
	if p.actionEngine != nil {
		p.actionEngine.Execute(ctx, result.Verdict, msg, plan)
	}

	p.updateTrust(ctx, msg, result, sandboxState, softWatchState)

	return p.finish(ctx, msg, result, plan, degraded, reasons, start)
}

func (p *Pipeline) finish(ctx context.Context, msg types.MessageContext, result types.RiskResult, plan []types.Action, degraded bool, reasons []string, start time.Time) (Result, error) {
	elapsed := p.now().Sub(start)
	decision := types.Decision{
		ID:            uuid.NewString(),
		ChatID:        msg.ChatID,
		UserID:        msg.UserID,
		MessageID:     msg.MessageID,
		GroupType:     msg.GroupType,
		Risk:          result,
		Actions:       plan,
		CreatedAtUnix: p.now().Unix(),
		Metadata: map[string]any{
			"processing_time_ms": elapsed.Milliseconds(),
			"degraded":           degraded,
		},
	}
	if result.LLMUsed || result.NeedsLLM {
		decision.Metadata["llm_used"] = result.LLMUsed
		decision.Metadata["llm_latency_ms"] = result.LLMLatencyMs
	}
	// A deadline that fired mid-pipeline still yields a best-effort audit
	// record, flagged so downstream consumers know it is partial.
	if err := ctx.Err(); err != nil {
		decision.Metadata["incomplete"] = true
		decision.Metadata["cancel_cause"] = err.Error()
	}
	if p.trail != nil {
		// The audit write must survive pipeline cancellation: a partial
		// decision still gets recorded.
		auditCtx := context.WithoutCancel(ctx)
		if err := p.trail.Record(auditCtx, decision); err != nil {
			p.log.WarnContext(ctx, "failed to record decision", "err", err)
		}
	}
	return Result{
		Decision:         decision,
		Degraded:         degraded,
		DegradedReasons:  reasons,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}, nil
}

// admissionControl applies the per-user and per-chat fixed-window rate
// limits before any analyzer runs. It fails open: a cache error is treated
// as "allowed".
func (p *Pipeline) admissionControl(ctx context.Context, msg types.MessageContext) (limited bool) {
	if p.cache == nil {
		return false
	}
	_, userAllowed, err := p.cache.IncrementRate(ctx, cache.RateKey(msg.ChatID, msg.UserID), RateWindowSeconds, UserRateLimitPerMinute)
	if err == nil && !userAllowed {
		return true
	}
	_, groupAllowed, err := p.cache.IncrementRate(ctx, cache.GroupRateKey(msg.ChatID), RateWindowSeconds, GroupRateLimitPerMinute)
	if err != nil {
		return false
	}
	return !groupAllowed
}

// analyzerOutcome is what one fan-out goroutine reports back.
type analyzerOutcome struct {
	name    string
	signals types.Signals
	err     error
}

// extractSignals fans every configured analyzer out concurrently and
// collects results over a channel. One analyzer's error or soft-deadline
// timeout substitutes a zero-value category instead of cancelling its
// siblings, and an analyzer that ignores its context entirely cannot hold
// the verdict past the pipeline's hard deadline: the collector abandons
// stragglers when ctx expires and marks their categories degraded.
func (p *Pipeline) extractSignals(ctx context.Context, msg types.MessageContext) (types.Signals, bool, []string) {
	results := make(chan analyzerOutcome, len(p.analyzers))

	for _, an := range p.analyzers {
		an := an
		go func() {
			analyzerCtx, cancel := context.WithTimeout(ctx, p.analyzerSoftDeadline)
			defer cancel()

			started := p.now()
			signals, err := an.Analyze(analyzerCtx, msg)
			if p.metrics != nil {
				p.metrics.ObserveAnalyzerDuration(an.Name(), p.now().Sub(started).Seconds())
			}
			results <- analyzerOutcome{name: an.Name(), signals: signals, err: err}
		}()
	}

	var combined types.Signals
	var degraded bool
	var reasons []string
	reported := make(map[string]bool, len(p.analyzers))

	for range p.analyzers {
		select {
		case out := <-results:
			reported[out.name] = true
			if out.err != nil {
				degraded = true
				reasons = append(reasons, out.name+": "+out.err.Error())
				p.log.WarnContext(ctx, "analyzer failed, substituting defaults", "analyzer", out.name, "err", out.err)
				continue
			}
			mergeSignals(&combined, out.name, out.signals)
		case <-ctx.Done():
			for _, an := range p.analyzers {
				if !reported[an.Name()] {
					degraded = true
					reasons = append(reasons, an.Name()+": abandoned at pipeline deadline")
				}
			}
			return combined, degraded, reasons
		}
	}

	return combined, degraded, reasons
}

// mergeSignals folds one analyzer's output into combined by name, since
// each analyzer only populates its own Signals category and leaves the
// rest zero-valued.
func mergeSignals(combined *types.Signals, name string, s types.Signals) {
	switch name {
	case "profile":
		combined.Profile = s.Profile
	case "content":
		combined.Content = s.Content
	case "behavior":
		combined.Behavior = s.Behavior
	case "network":
		combined.Network = s.Network
	}
}

// sandboxGroupTypes are the group types whose new members enter the
// sandbox; deals groups use soft-watch instead.
var sandboxGroupTypes = map[types.GroupType]bool{
	types.GroupGeneral: true,
	types.GroupTech:    true,
	types.GroupCrypto:  true,
}

// resolveTrust loads the sandbox/soft-watch state appropriate to the
// group's policy and maps it to the risk calculator's TrustLevel axis.
// Deals groups use soft-watch (observation only, no restriction); every
// other group type uses the sandbox state machine, and a brand-new member
// enters it here, on their first observed action, when the group has the
// sandbox enabled.
func (p *Pipeline) resolveTrust(ctx context.Context, msg types.MessageContext, policy GroupPolicy) (risk.TrustLevel, *trust.SandboxState, *trust.SoftWatchState) {
	if p.trustMgr == nil {
		return risk.TrustUntrusted, nil, nil
	}
	if msg.GroupType == types.GroupDeals {
		sw, err := p.trustMgr.SoftWatch(ctx, msg.ChatID, msg.UserID)
		if err != nil {
			return risk.TrustUntrusted, nil, nil
		}
		return risk.TrustProvisional, nil, &sw
	}
	sb, err := p.trustMgr.Sandbox(ctx, msg.ChatID, msg.UserID)
	if err != nil {
		return risk.TrustUntrusted, nil, nil
	}
	if sb.Level == trust.LevelNew && policy.SandboxEnabled && sandboxGroupTypes[msg.GroupType] {
		entered, err := p.trustMgr.EnterSandbox(ctx, msg.ChatID, msg.UserID)
		if err != nil {
			p.log.WarnContext(ctx, "sandbox entry failed", "err", err)
			return trust.ToRiskLevel(sb.Level), &sb, nil
		}
		sb = entered
	}
	return trust.ToRiskLevel(sb.Level), &sb, nil
}

func (p *Pipeline) updateTrust(ctx context.Context, msg types.MessageContext, result types.RiskResult, sandboxState *trust.SandboxState, softWatchState *trust.SoftWatchState) {
	if p.trustMgr == nil {
		return
	}
	if softWatchState != nil {
		flagged := result.Verdict.AtLeast(types.VerdictLimit)
		spamMatch := result.Signals.Network.SpamDBSimilarity >= spamDBMatchThreshold
		if _, err := p.trustMgr.RecordSoftWatchMessage(ctx, msg.ChatID, msg.UserID, flagged, spamMatch); err != nil {
			p.log.WarnContext(ctx, "soft-watch update failed", "err", err)
		}
		return
	}
	if sandboxState == nil {
		return
	}
	// A confirmed linked-channel subscriber with a settled account skips
	// the rest of the sandbox and goes straight to trusted — but never on
	// the strength of a message that itself drew a restrictive verdict.
	if p.subscriberReleaseEligible(*sandboxState, result) {
		if _, err := p.trustMgr.ReleaseViaChannelSubscription(ctx, msg.ChatID, msg.UserID); err != nil {
			p.log.WarnContext(ctx, "channel-subscription release failed", "err", err)
		}
	}
	if _, err := p.trustMgr.RecordMessage(ctx, msg.ChatID, msg.UserID, result.Verdict); err != nil {
		p.log.WarnContext(ctx, "sandbox update failed", "err", err)
	}
}

// MinAccountAgeDaysForSubscriberRelease caps the compromised-account
// bypass: a subscription only skips the sandbox once the account itself
// has existed for a week.
const MinAccountAgeDaysForSubscriberRelease = 7

func (p *Pipeline) subscriberReleaseEligible(state trust.SandboxState, result types.RiskResult) bool {
	if state.Level != trust.LevelNew && state.Level != trust.LevelSandbox {
		return false
	}
	if result.Verdict.AtLeast(types.VerdictLimit) {
		return false
	}
	b := result.Signals.Behavior
	return b.IsChannelSubscriber &&
		result.Signals.Profile.AccountAgeDays >= MinAccountAgeDaysForSubscriberRelease
}

// adjudicate invokes the LLM adjudicator through the "llm" circuit breaker,
// with a hard timeout and one jittered retry on transient failure. On any
// terminal failure — breaker open, timeout, adapter error — the rule-based
// verdict stands unchanged; LLM adjudication can only resolve a gray-zone
// score, never substitute for it.
func (p *Pipeline) adjudicate(ctx context.Context, msg types.MessageContext, result *types.RiskResult) {
	llmCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	started := p.now()
	var verdict types.Verdict
	var explanation string
	var confidence float64
	err := retry.Do(llmCtx, retry.Config{
		MaxAttempts:   2,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      time.Second,
		Multiplier:    2.0,
		Jitter:        0.3,
		RetryableFunc: retry.TransientOnly,
	}, func() error {
		return p.breakerDo(llmCtx, "llm", func(ctx context.Context) error {
			var innerErr error
			verdict, explanation, confidence, innerErr = p.llm.Adjudicate(ctx, msg, *result)
			return innerErr
		})
	})
	result.LLMLatencyMs = p.now().Sub(started).Milliseconds()
	if err != nil {
		p.log.WarnContext(ctx, "llm adjudication failed, keeping rule-based verdict", "err", err)
		return
	}
	result.LLMUsed = true
	result.Verdict = verdict
	result.LLMVerdict = &verdict
	result.LLMExplanation = explanation
	result.Confidence = confidence
}

func (p *Pipeline) breakerDo(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if p.breakers == nil {
		return fn(ctx)
	}
	err := p.breakers.Do(ctx, name, fn)
	if err == breaker.ErrCircuitOpen && p.metrics != nil {
		p.metrics.IncCircuitOpen(name)
	}
	return err
}

func allowResult(reason string) types.RiskResult {
	return types.RiskResult{
		Verdict:             types.VerdictAllow,
		ThreatType:          types.ThreatNone,
		Confidence:          1.0,
		ContributingFactors: nil,
		MitigatingFactors:   []string{reason},
	}
}

// rateLimitedResult is the fail-open admission-control outcome: the
// message is allowed without analysis, and the rate-limit fact rides the
// factors list for the audit record.
func rateLimitedResult() types.RiskResult {
	return types.RiskResult{
		Verdict:             types.VerdictAllow,
		ThreatType:          types.ThreatNone,
		Confidence:          1.0,
		ContributingFactors: []string{"admission control: per-chat rate limit exceeded, analyzers skipped"},
	}
}
