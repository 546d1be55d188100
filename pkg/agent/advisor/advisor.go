// Package advisor drives one advisory session: it questions the client,
// delegates research to the analyst, consults past sessions and produces a
// final recommendation.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/advisor/pkg/knowledge"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
)

const (
	// DefaultTopK is how many past sessions inform the final advice.
	DefaultTopK = 2

	// NoPastSessions stands in for the past-session context when the store
	// has nothing relevant.
	NoPastSessions = "No past similar sessions."
)

// DefaultQuestions are asked when the model does not produce usable ones.
var DefaultQuestions = []string{
	"Can you tell me more about your investment time horizon?",
	"Do you have any major upcoming expenses?",
	"How comfortable are you with short-term market fluctuations?",
}

// DefaultTasks are handed to the analyst when the model does not produce
// usable ones.
var DefaultTasks = []session.Task{
	{
		TaskDescription: "Research medium-risk index funds.",
		TaskType:        session.TaskResearch,
		Context:         "Client wants balanced growth.",
	},
	{
		TaskDescription: "Compare 401(k) vs Roth IRA returns.",
		TaskType:        session.TaskCompare,
		Context:         "Client focused on retirement savings.",
	},
}

// Store is the part of the knowledge store the advisor needs.
type Store interface {
	RetrieveSimilarSessions(ctx context.Context, query string, topK int) ([]knowledge.Match, error)
	SaveSession(ctx context.Context, in knowledge.SaveSessionInput) (*session.Record, error)
}

// Answerer answers clarifying questions on behalf of the client.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// TaskRunner executes analyst tasks and returns them with results, in order.
type TaskRunner interface {
	RunTasks(ctx context.Context, tasks []session.Task) ([]session.Task, error)
}

// Config configures an Advisor.
type Config struct {
	LLM     llm.Caller
	Client  Answerer
	Analyst TaskRunner

	// Store is optional. Without one, advice is given without past sessions
	// and Run does not save.
	Store Store

	// TopK defaults to DefaultTopK.
	TopK int

	Logger *slog.Logger
}

// Advisor runs advisory sessions.
type Advisor struct {
	llm     llm.Caller
	client  Answerer
	analyst TaskRunner
	store   Store
	topK    int
	logger  *slog.Logger
}

// New creates an Advisor.
func New(c Config) (*Advisor, error) {
	if c.LLM == nil {
		return nil, errors.New("advisor requires an llm caller")
	}
	if c.Client == nil {
		return nil, errors.New("advisor requires a client to question")
	}
	if c.Analyst == nil {
		return nil, errors.New("advisor requires an analyst")
	}
	topK := c.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Advisor{
		llm:     c.LLM,
		client:  c.Client,
		analyst: c.Analyst,
		store:   c.Store,
		topK:    topK,
		logger:  logger.Component(c.Logger, "advisor"),
	}, nil
}

// ClarifyingQuestions asks the model for one to three questions about the
// profile. followUps are extra questions raised by the user, if any.
func (a *Advisor) ClarifyingQuestions(ctx context.Context, profile session.Profile, followUps []string) []string {
	prompt := fmt.Sprintf(questionsPrompt, mustJSON(profile, ""), profile.RiskAversion, userContext(followUps))

	resp, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("clarifying questions unavailable, using defaults", "error", err)
		return clone(DefaultQuestions)
	}

	questions, err := llm.ExtractJSONArray[string](resp)
	if err != nil {
		a.logger.Warn("clarifying questions unparseable, using defaults", "error", err)
		return clone(DefaultQuestions)
	}

	out := make([]string, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return clone(DefaultQuestions)
	}
	return out
}

// AskClient collects one answer per question, in order.
func (a *Advisor) AskClient(ctx context.Context, questions []string) ([]session.QAPair, error) {
	pairs := make([]session.QAPair, 0, len(questions))
	for _, q := range questions {
		answer, err := a.client.Answer(ctx, q)
		if err != nil {
			return pairs, fmt.Errorf("asking %q: %w", q, err)
		}
		pairs = append(pairs, session.QAPair{Question: q, Answer: answer})
	}
	return pairs, nil
}

// AnalystTasks asks the model for research tasks based on the profile and
// the clarifying answers.
func (a *Advisor) AnalystTasks(ctx context.Context, profile session.Profile, transcript []session.QAPair, followUps []string) []session.Task {
	prompt := fmt.Sprintf(tasksPrompt,
		mustJSON(profile, "  "),
		mustJSON(transcript, "  "),
		userContext(followUps),
		mustJSON(DefaultTasks, "  "),
	)

	resp, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("analyst tasks unavailable, using defaults", "error", err)
		return cloneTasks(DefaultTasks)
	}

	tasks, err := llm.ExtractJSONArray[session.Task](resp)
	if err != nil {
		a.logger.Warn("analyst tasks unparseable, using defaults", "error", err)
		return cloneTasks(DefaultTasks)
	}

	out := make([]session.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.TrimSpace(t.TaskDescription) == "" {
			continue
		}
		t.Result = ""
		out = append(out, t)
	}
	if len(out) == 0 {
		return cloneTasks(DefaultTasks)
	}
	return out
}

// FinalAdvice produces one actionable recommendation from the session so far
// and the most similar past sessions.
func (a *Advisor) FinalAdvice(ctx context.Context, profile session.Profile, transcript []session.QAPair, results []session.Task) (string, error) {
	summary := make([]string, len(results))
	for i, t := range results {
		summary[i] = fmt.Sprintf("- %s: %s", t.TaskDescription, t.Result)
	}

	profileText := mustJSON(profile, "")
	qaText := mustJSON(transcript, "")
	past := a.pastSessions(ctx, fmt.Sprintf("Profile: %s, QA: %s", profileText, qaText))

	prompt := fmt.Sprintf(advicePrompt, profileText, qaText, strings.Join(summary, "\n"), past)
	advice, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating final advice: %w", err)
	}
	return strings.TrimSpace(advice), nil
}

func (a *Advisor) pastSessions(ctx context.Context, query string) string {
	if a.store == nil {
		return NoPastSessions
	}
	matches, err := a.store.RetrieveSimilarSessions(ctx, query, a.topK)
	if err != nil {
		a.logger.Warn("past sessions unavailable", "error", err)
		return NoPastSessions
	}
	if len(matches) == 0 {
		return NoPastSessions
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	a.logger.Debug("past sessions consulted", "count", len(matches))
	return strings.Join(texts, "\n\n")
}

// Run executes a whole session for profile and saves it. The returned record
// is the stored one when a store is configured.
func (a *Advisor) Run(ctx context.Context, profile session.Profile) (*session.Record, error) {
	questions := a.ClarifyingQuestions(ctx, profile, nil)
	transcript, err := a.AskClient(ctx, questions)
	if err != nil {
		return nil, err
	}

	tasks := a.AnalystTasks(ctx, profile, transcript, nil)
	results, err := a.analyst.RunTasks(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("running analyst tasks: %w", err)
	}

	advice, err := a.FinalAdvice(ctx, profile, transcript, results)
	if err != nil {
		return nil, err
	}

	in := knowledge.SaveSessionInput{
		ClientName:          profile.Name,
		Profile:             profile,
		QATranscript:        transcript,
		Tasks:               results,
		FinalRecommendation: advice,
	}
	if a.store == nil {
		in.SessionID = session.NewID(time.Now())
		rec := in.Record()
		return &rec, nil
	}
	return a.store.SaveSession(ctx, in)
}

func userContext(followUps []string) string {
	if len(followUps) == 0 {
		return ""
	}
	return "\nUser follow-up questions:\n" + strings.Join(followUps, "\n")
}

func mustJSON(v any, indent string) string {
	var (
		b   []byte
		err error
	)
	if indent == "" {
		b, err = json.Marshal(v)
	} else {
		b, err = json.MarshalIndent(v, "", indent)
	}
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}

func cloneTasks(t []session.Task) []session.Task {
	return append([]session.Task(nil), t...)
}
