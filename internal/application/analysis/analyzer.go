package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bryanwahyu/linkhealth/internal/application"
	"github.com/bryanwahyu/linkhealth/internal/domain/ai"
	"github.com/bryanwahyu/linkhealth/internal/domain/links"
)

// DefaultCallDelay spaces consecutive AI calls in a batch (quota protection).
const DefaultCallDelay = 1000 * time.Millisecond

// PromptBuilder turns an analysis input into the model prompt.
type PromptBuilder func(in links.AnalysisInput) string

// Analyzer produces one AnalysisResult per broken link. The model path can
// fail in every way a remote model can; callers never see that. Transport and
// validation failures both land on the deterministic fallback.
type Analyzer struct {
	client ai.Client
	prompt PromptBuilder
	pacer  *application.Pacer
}

// New builds an Analyzer. A nil client is allowed and routes everything
// through the fallback.
func New(client ai.Client, prompt PromptBuilder, opts ...Option) *Analyzer {
	a := &Analyzer{
		client: client,
		prompt: prompt,
		pacer:  application.NewPacer(DefaultCallDelay),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type Option func(*Analyzer)

// WithCallDelay overrides the inter-call delay used by AnalyzeBatch.
func WithCallDelay(d time.Duration) Option {
	return func(a *Analyzer) { a.pacer = application.NewPacer(d) }
}

// AnalyzeOne never returns an error: the worst case is a fallback result.
func (a *Analyzer) AnalyzeOne(ctx context.Context, in links.AnalysisInput) *links.AnalysisResult {
	if a.client == nil {
		return Fallback(in)
	}
	raw, err := a.client.Generate(ctx, a.prompt(in))
	if err != nil {
		log.Printf("ai analysis failed url=%s err=%v, using fallback", in.URL, err)
		return Fallback(in)
	}
	res, err := ParseResponse(raw)
	if err != nil {
		log.Printf("ai response invalid url=%s err=%v, using fallback", in.URL, err)
		return Fallback(in)
	}
	return res
}

// AnalyzeBatch processes inputs strictly one at a time, in order, pausing
// between consecutive calls. Output order matches input order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, ins []links.AnalysisInput) []*links.AnalysisResult {
	out := make([]*links.AnalysisResult, 0, len(ins))
	for _, in := range ins {
		if len(ins) > 1 {
			if err := a.pacer.Wait(ctx); err != nil {
				out = append(out, Fallback(in))
				continue
			}
		}
		out = append(out, a.AnalyzeOne(ctx, in))
	}
	return out
}

// rawAnalysis tolerates partial model output: every field optional, score of
// any JSON type.
type rawAnalysis struct {
	IntendedDestination *string         `json:"intendedDestination"`
	LinkPurpose         *string         `json:"linkPurpose"`
	Importance          *string         `json:"importance"`
	BusinessImpact      *string         `json:"businessImpact"`
	SuggestedFixes      []string        `json:"suggestedFixes"`
	Reasoning           *string         `json:"reasoning"`
	PriorityScore       json.RawMessage `json:"priorityScore"`
}

// ParseResponse validates a raw model reply against the analysis schema.
// Markdown code fences are tolerated; missing fields get named defaults;
// importance and score are normalized. Anything that is not JSON at all is an
// error, which AnalyzeOne converts into a fallback.
func ParseResponse(raw string) (*links.AnalysisResult, error) {
	text := stripFences(strings.TrimSpace(raw))

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("parsing analysis response: %w", err)
	}

	res := &links.AnalysisResult{
		IntendedDestination: orDefault(parsed.IntendedDestination, "Unknown"),
		LinkPurpose:         orDefault(parsed.LinkPurpose, "Unknown"),
		Importance:          links.Importance(orDefault(parsed.Importance, string(links.ImportanceMedium))),
		BusinessImpact:      orDefault(parsed.BusinessImpact, "Unknown impact"),
		SuggestedFixes:      parsed.SuggestedFixes,
		Reasoning:           orDefault(parsed.Reasoning, "No reasoning provided"),
		PriorityScore:       coerceScore(parsed.PriorityScore),
	}
	if res.SuggestedFixes == nil {
		res.SuggestedFixes = []string{}
	}
	res.Normalize()
	return res, nil
}

// stripFences removes markdown code fence markers the model was told not to
// emit but sometimes emits anyway.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func orDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}

// coerceScore accepts a number, a numeric string, or garbage; garbage scores 50.
func coerceScore(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 50
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 50
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 50
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 50
	}
	return links.ClampScore(int(math.Round(f)))
}
