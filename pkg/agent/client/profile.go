// Package client simulates the client side of an advisory session: it
// produces a financial profile and answers the advisor's questions.
package client

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
)

// DefaultName is used when no client name is given.
const DefaultName = "John Doe"

// Profile generation modes.
const (
	ModeDeterministic = "deterministic"
	ModeLLM           = "llm"
)

var (
	goalTitles = []string{
		"Save for retirement",
		"Buy a house",
		"Start a business",
		"Children's education",
	}
	goalTimelines = []string{"5 years", "10 years", "15 years"}
	riskLevels    = []session.RiskLevel{session.RiskLow, session.RiskMedium, session.RiskHigh}
)

const profilePrompt = `You are simulating a financial client profile.
Generate a JSON object with these fields:
- name (string)
- age (integer)
- risk_aversion (low/medium/high)
- assets (float)
- investments (object: stocks, bonds, cash)
- financial_goals (list of objects with 'title', 'amount', and 'timeline' in years),
financial goals can be about savings goal for retirement, buying a house, education, children's education fund, etc.
Output valid JSON only.`

// Generator produces synthetic client profiles. The same seed always yields
// the same sequence of profiles.
type Generator struct {
	rng    *rand.Rand
	llm    llm.Caller
	logger *slog.Logger
}

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Seed uint64

	// LLM is only used by Generate in ModeLLM.
	LLM llm.Caller

	Logger *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(c GeneratorConfig) *Generator {
	return &Generator{
		rng:    rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15)),
		llm:    c.LLM,
		logger: logger.Component(c.Logger, "client"),
	}
}

// Generate returns a profile for name. In ModeLLM the model invents the
// profile and any failure falls back to a static one.
func (g *Generator) Generate(ctx context.Context, name, mode string) session.Profile {
	if name == "" {
		name = DefaultName
	}
	if mode == ModeLLM && g.llm != nil {
		p, err := g.fromLLM(ctx)
		if err == nil {
			p.Name = name
			return p
		}
		g.logger.Warn("llm profile unusable, falling back to a static profile", "error", err)
	}
	return g.Static(name)
}

// Static draws a profile from the generator's random source.
func (g *Generator) Static(name string) session.Profile {
	assets := round2(g.uniform(5000, 500000))
	return session.Profile{
		Name:         name,
		Age:          25 + g.rng.IntN(41),
		RiskAversion: riskLevels[g.rng.IntN(len(riskLevels))],
		Assets:       assets,
		Investments: map[string]float64{
			"stocks": round2(assets * g.uniform(0.2, 0.6)),
			"bonds":  round2(assets * g.uniform(0.1, 0.3)),
			"cash":   round2(assets * g.uniform(0.1, 0.3)),
		},
		FinancialGoals: []session.FinancialGoal{
			{
				Title:    goalTitles[g.rng.IntN(len(goalTitles))],
				Amount:   round2(g.uniform(20000, 300000)),
				Timeline: goalTimelines[g.rng.IntN(len(goalTimelines))],
			},
		},
	}
}

func (g *Generator) fromLLM(ctx context.Context) (session.Profile, error) {
	text, err := g.llm.Complete(ctx, profilePrompt)
	if err != nil {
		return session.Profile{}, err
	}
	p, err := llm.ExtractJSONObject[session.Profile](text)
	if err != nil {
		return session.Profile{}, err
	}
	if p.Name == "" {
		p.Name = DefaultName
	}
	if err := p.Validate(); err != nil {
		return session.Profile{}, err
	}
	return p, nil
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
