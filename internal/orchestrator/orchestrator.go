// Package orchestrator drives the agentic verification loop: gather
// evidence in parallel, merge, rerank, label stances, evaluate, and widen
// the search until the evidence is decisive or the iteration budget runs
// out.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/veracify/veracify/internal/decompose"
	"github.com/veracify/veracify/internal/evidence"
	"github.com/veracify/veracify/internal/llm"
	"github.com/veracify/veracify/internal/model"
	"github.com/veracify/veracify/internal/rerank"
	"github.com/veracify/veracify/internal/retriever"
	"github.com/veracify/veracify/internal/telemetry"
	"github.com/veracify/veracify/internal/verdict"
	"github.com/veracify/veracify/internal/webagent"
)

const (
	// widenStep and maxTopK bound how retrieval widens between iterations.
	widenStep = 5
	maxTopK   = 20
)

// safeReasoning is returned when the pipeline fails or times out.
const safeReasoning = "Verification could not be completed. Please try again later."

// Config holds the loop parameters.
type Config struct {
	MaxIterations int
	InitialTopK   int
	NumPerQuery   int
	RerankTopK    int
	MinSources    int
	VerifyTimeout time.Duration
}

// Orchestrator coordinates one verification end to end.
type Orchestrator struct {
	cfg        Config
	webAgent   *webagent.Agent
	retriever  *retriever.Retriever
	reranker   *rerank.Reranker
	classifier *evidence.Classifier
	former     *verdict.Former
	decomposer *decompose.Decomposer
	llm        llm.Client
	logger     *slog.Logger
}

// New creates an orchestrator.
func New(cfg Config, agent *webagent.Agent, ret *retriever.Retriever, rr *rerank.Reranker,
	cls *evidence.Classifier, former *verdict.Former, dec *decompose.Decomposer,
	client llm.Client, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		webAgent:   agent,
		retriever:  ret,
		reranker:   rr,
		classifier: cls,
		former:     former,
		decomposer: dec,
		llm:        client,
		logger:     logger,
	}
}

var meter = telemetry.Meter("veracify/verify")

// Verify runs the full pipeline for a normalized claim. A non-nil error
// means the pipeline failed fatally (panic or wall-clock timeout); the
// accompanying result is the safe Not Enough Evidence tuple and must not
// be queued for review.
func (o *Orchestrator) Verify(ctx context.Context, claim string) (model.VerificationResult, error) {
	start := time.Now()
	result, err := o.verify(ctx, claim)
	o.recordMetrics(ctx, time.Since(start), result.Verdict, err)
	return result, err
}

func (o *Orchestrator) verify(ctx context.Context, claim string) (model.VerificationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.VerifyTimeout)
	defer cancel()

	subClaims := o.decomposer.Split(ctx, claim)
	if len(subClaims) == 1 {
		return o.verifyOne(ctx, claim)
	}

	subs := make([]model.SubResult, 0, len(subClaims))
	for _, sub := range subClaims {
		res, err := o.verifyOne(ctx, sub)
		if err != nil {
			return safeResult(), err
		}
		subs = append(subs, model.SubResult{
			Claim:     sub,
			Verdict:   res.Verdict,
			Reasoning: res.Reasoning,
			Citations: res.Citations,
		})
	}

	v, reasoning, citations := verdict.Aggregate(ctx, o.llm, o.logger, claim, subs)
	result := model.VerificationResult{
		Verdict:    v,
		Reasoning:  reasoning,
		Citations:  citations,
		SubResults: subs,
	}
	if v == model.VerdictNotEnoughEvidence || v == model.VerdictMixedDisputed {
		result.RequiresReview = true
		result.ClaimID = claimID(claim)
	}
	return result, nil
}

// verifyOne runs the agentic loop for a single claim.
func (o *Orchestrator) verifyOne(ctx context.Context, claim string) (result model.VerificationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("verification panicked", "claim", claim, "panic", fmt.Sprint(r))
			result = safeResult()
			err = fmt.Errorf("orchestrator: pipeline panic: %v", r)
		}
	}()

	topK := o.cfg.InitialTopK
	currentAffairsOnly := false

	var items []model.EvidenceItem
	var sufficient, conflict bool

	for iter := 0; iter < o.cfg.MaxIterations; iter++ {
		if ctx.Err() != nil {
			o.logger.Warn("verification timed out", "claim", claim, "iteration", iter)
			return safeResult(), fmt.Errorf("orchestrator: %w", ctx.Err())
		}

		web, rag := o.gather(ctx, claim, topK, currentAffairsOnly)
		merged := evidence.Merge(web, rag)

		if len(merged) == 0 {
			o.logger.Debug("no evidence, widening", "iteration", iter, "top_k", topK)
			topK, currentAffairsOnly = widen(topK)
			continue
		}

		items = o.reranker.Rerank(ctx, claim, merged, o.cfg.RerankTopK)
		o.classifier.Classify(ctx, claim, items)

		sufficient = evidence.IsSufficient(items, o.cfg.MinSources)
		conflict = evidence.HasConflict(items)
		if sufficient && !conflict {
			break
		}
		topK, currentAffairsOnly = widen(topK)
	}

	v, reasoning, citations := o.former.Form(ctx, claim, items, sufficient, conflict)
	result = model.VerificationResult{
		Verdict:   v,
		Reasoning: reasoning,
		Citations: citations,
	}
	if !sufficient || conflict {
		result.RequiresReview = true
		result.ClaimID = claimID(claim)
	}
	return result, nil
}

// gather runs the web agent and the retriever in parallel. Neither failure
// aborts the request; each just contributes nothing.
func (o *Orchestrator) gather(ctx context.Context, claim string, topK int, currentAffairsOnly bool) (web, rag []model.EvidenceItem) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		web = o.webAgent.Gather(gctx, claim, o.cfg.NumPerQuery)
		return nil
	})
	g.Go(func() error {
		items, err := o.retriever.Retrieve(gctx, claim, topK, currentAffairsOnly)
		if err != nil {
			o.logger.Warn("retrieval failed, continuing without local evidence", "error", err)
			return nil
		}
		rag = items
		return nil
	})
	_ = g.Wait()
	return web, rag
}

// recordMetrics emits the per-verification duration and verdict counter.
// Best-effort, instruments lazily created.
func (o *Orchestrator) recordMetrics(ctx context.Context, d time.Duration, v model.Verdict, err error) {
	outcome := string(v)
	if err != nil {
		outcome = "error"
	}
	attrs := otelmetric.WithAttributes(attribute.String("verdict", outcome))
	if counter, cerr := meter.Int64Counter("verify.count"); cerr == nil {
		counter.Add(ctx, 1, attrs)
	}
	if hist, herr := meter.Float64Histogram("verify.duration",
		otelmetric.WithUnit("ms")); herr == nil {
		hist.Record(ctx, float64(d.Milliseconds()), attrs)
	}
}

func widen(topK int) (int, bool) {
	topK += widenStep
	if topK > maxTopK {
		topK = maxTopK
	}
	return topK, true
}

func safeResult() model.VerificationResult {
	return model.VerificationResult{
		Verdict:   model.VerdictNotEnoughEvidence,
		Reasoning: safeReasoning,
	}
}

// claimID derives a stable-but-unique review key from the claim text and
// the current time.
func claimID(claim string) string {
	sum := sha256.Sum256([]byte(claim))
	return hex.EncodeToString(sum[:])[:16] + "_" + fmt.Sprintf("%d", time.Now().Unix())
}
