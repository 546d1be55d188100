// Package analyst executes research tasks: it searches the web for each task
// and has a model summarize what it found.
package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/websearch"
	"github.com/papercomputeco/advisor/pkg/worker"
)

// UnsupportedResult is the result recorded for task types the analyst
// cannot execute.
const UnsupportedResult = "Unsupported task type"

const summaryPrompt = `You are an analyst tasked with summarizing web research.

Task description:
%s

Context:
%s

Search Results:
%s

Task Type:
%s

Output:
Write a concise summary (3-5 sentences) highlighting key points, comparisons, or recommendations as appropriate.
Respond in plain text, suitable for Advisor to use.`

// Config configures an Analyst.
type Config struct {
	LLM      llm.Caller
	Searcher websearch.Searcher

	// Pool runs tasks concurrently. Without one, tasks run in sequence.
	Pool *worker.Pool

	// MaxResults per search; defaults to websearch.DefaultMaxResults.
	MaxResults int

	Logger *slog.Logger
}

// Analyst executes analyst tasks.
type Analyst struct {
	llm        llm.Caller
	searcher   websearch.Searcher
	pool       *worker.Pool
	maxResults int
	logger     *slog.Logger
}

// New creates an Analyst.
func New(c Config) (*Analyst, error) {
	if c.LLM == nil {
		return nil, errors.New("analyst requires an llm caller")
	}
	if c.Searcher == nil {
		return nil, errors.New("analyst requires a web searcher")
	}
	maxResults := c.MaxResults
	if maxResults <= 0 {
		maxResults = websearch.DefaultMaxResults
	}
	return &Analyst{
		llm:        c.LLM,
		searcher:   c.Searcher,
		pool:       c.Pool,
		maxResults: maxResults,
		logger:     logger.Component(c.Logger, "analyst"),
	}, nil
}

// ExecuteTask runs one task and returns it with Result filled in. A missing
// task type is treated as research.
func (a *Analyst) ExecuteTask(ctx context.Context, task session.Task) (session.Task, error) {
	out := task
	if out.TaskType == "" {
		out.TaskType = session.TaskResearch
	}

	if !out.TaskType.Supported() {
		a.logger.Warn("unsupported task type", "task_type", out.TaskType, "task", out.TaskDescription)
		out.Result = UnsupportedResult
		return out, nil
	}

	results, err := a.searcher.Search(ctx, out.TaskDescription, a.maxResults)
	if err != nil {
		// A summary without sources is still useful to the advisor.
		a.logger.Warn("web search failed", "task", out.TaskDescription, "error", err)
		results = nil
	}

	snippets := make([]string, len(results))
	for i, r := range results {
		snippets[i] = r.String()
	}
	rendered, err := json.MarshalIndent(snippets, "", "  ")
	if err != nil {
		return out, fmt.Errorf("encoding search results: %w", err)
	}

	prompt := fmt.Sprintf(summaryPrompt, out.TaskDescription, out.Context, rendered, out.TaskType)
	summary, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return out, fmt.Errorf("summarizing task %q: %w", out.TaskDescription, err)
	}

	out.Result = strings.TrimSpace(summary)
	a.logger.Debug("task executed", "task", out.TaskDescription, "sources", len(results))
	return out, nil
}

type outcome struct {
	task session.Task
	err  error
}

// RunTasks executes every task and returns the results in input order.
func (a *Analyst) RunTasks(ctx context.Context, tasks []session.Task) ([]session.Task, error) {
	exec := func(ctx context.Context, t session.Task) outcome {
		done, err := a.ExecuteTask(ctx, t)
		return outcome{task: done, err: err}
	}

	var outcomes []outcome
	if a.pool != nil {
		var err error
		outcomes, err = worker.Map(ctx, a.pool, tasks, exec)
		if err != nil {
			return nil, err
		}
	} else {
		outcomes = make([]outcome, len(tasks))
		for i, t := range tasks {
			outcomes[i] = exec(ctx, t)
		}
	}

	results := make([]session.Task, len(outcomes))
	var errs []error
	for i, o := range outcomes {
		results[i] = o.task
		if o.err != nil {
			errs = append(errs, o.err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}
