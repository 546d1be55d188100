// Package sessioncmder provides the session command, which runs one advisory
// session end to end and saves it to the knowledge store.
package sessioncmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/advisor/cmd/advisor/setup"
	"github.com/papercomputeco/advisor/pkg/agent/advisor"
	"github.com/papercomputeco/advisor/pkg/agent/analyst"
	"github.com/papercomputeco/advisor/pkg/agent/client"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/knowledge"
	knowledgeutils "github.com/papercomputeco/advisor/pkg/knowledge/utils"
	llmutils "github.com/papercomputeco/advisor/pkg/llm/utils"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/utils"
	"github.com/papercomputeco/advisor/pkg/websearch/duckduckgo"
	"github.com/papercomputeco/advisor/pkg/worker"
)

type sessionCommander struct {
	clientName string
	seed       uint64
	mode       string
	workers    uint
	topK       int

	interactive bool

	env    *setup.Env
	out    io.Writer
	status io.Writer
	logger *slog.Logger
}

const sessionLongDesc string = `Run one advisory session.

A client profile is generated, the advisor asks clarifying questions which
are answered on stdin, an analyst researches the follow-up tasks on the web,
and the advisor writes a final recommendation informed by similar past
sessions. The completed session is saved to the knowledge store.

Profiles are deterministic for a given --seed. Use --mode llm to have the
completion model invent the profile instead.

Examples:
  advisor session
  advisor session --client "Ada Lovelace" --seed 42
  advisor session --llm-provider openai --llm-model gpt-4o-mini`

const sessionShortDesc string = "Run one advisory session"

var sessionFlags = append(append([]string{config.FlagTopK}, setup.StoreFlags...), setup.LLMFlags...)

func NewSessionCmd() *cobra.Command {
	cmder := &sessionCommander{}

	cmd := &cobra.Command{
		Use:   "session",
		Short: sessionShortDesc,
		Long:  sessionLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.mode != client.ModeDeterministic && cmder.mode != client.ModeLLM {
				return fmt.Errorf("invalid --mode %q: must be %s or %s", cmder.mode, client.ModeDeterministic, client.ModeLLM)
			}

			var err error
			cmder.env, err = setup.Load(cmd, sessionFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Past sessions in the final advice follow --top only when given.
			if cmd.Flags().Changed(config.Flags[config.FlagTopK].Name) {
				cmder.topK = cmder.env.Config.Search.TopK
			}
			cmder.out = cmd.OutOrStdout()
			cmder.status = cmd.ErrOrStderr()
			cmder.logger = setup.Logger(cmd)
			return cmder.run(cmd.Context(), cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&cmder.clientName, "client", client.DefaultName, "Name of the simulated client")
	cmd.Flags().Uint64Var(&cmder.seed, "seed", 1, "Seed for deterministic profile generation")
	cmd.Flags().StringVar(&cmder.mode, "mode", client.ModeDeterministic, "Profile generation mode (deterministic, llm)")
	cmd.Flags().UintVar(&cmder.workers, "workers", 3, "Number of analyst tasks researched concurrently")
	setup.AddFlags(cmd, sessionFlags...)

	return cmd
}

func (c *sessionCommander) run(ctx context.Context, in io.Reader) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var store *knowledge.Store
	err := cliui.Step(c.status, "Loading knowledge store", func() error {
		var err error
		store, err = knowledgeutils.NewStore(ctx, c.env.StoreOpts(c.logger))
		return err
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			c.logger.Error("closing knowledge store", "error", err)
		}
	}()

	caller, err := llmutils.NewCaller(c.env.CallerOpts(c.logger))
	if err != nil {
		return err
	}

	pool, err := worker.NewPool(worker.Config{NumWorkers: c.workers, Logger: c.logger})
	if err != nil {
		return err
	}
	defer pool.Close()

	researcher, err := analyst.New(analyst.Config{
		LLM:      caller,
		Searcher: duckduckgo.NewSearcher(duckduckgo.Config{Logger: c.logger}),
		Pool:     pool,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}

	adv, err := advisor.New(advisor.Config{
		LLM:     caller,
		Client:  c.interviewee(in),
		Analyst: researcher,
		Store:   store,
		TopK:    c.topK,
		Logger:  c.logger,
	})
	if err != nil {
		return err
	}

	gen := client.NewGenerator(client.GeneratorConfig{Seed: c.seed, LLM: caller, Logger: c.logger})
	var profile session.Profile
	_ = cliui.Step(c.status, "Generating client profile", func() error {
		profile = gen.Generate(ctx, c.clientName, c.mode)
		return nil
	})
	c.printProfile(profile)

	var questions []string
	_ = cliui.Step(c.status, "Drafting clarifying questions", func() error {
		questions = adv.ClarifyingQuestions(ctx, profile, nil)
		return nil
	})

	cliui.Header(c.out, "Interview")
	transcript, err := adv.AskClient(ctx, questions)
	if err != nil {
		return err
	}
	if !c.interactive {
		for _, qa := range transcript {
			cliui.KV(c.out, "Q", qa.Question)
			cliui.KV(c.out, "A", qa.Answer)
		}
	}

	var tasks []session.Task
	_ = cliui.Step(c.status, "Planning analyst tasks", func() error {
		tasks = adv.AnalystTasks(ctx, profile, transcript, nil)
		return nil
	})

	var results []session.Task
	err = cliui.Step(c.status, fmt.Sprintf("Researching %d tasks", len(tasks)), func() error {
		var err error
		results, err = researcher.RunTasks(ctx, tasks)
		return err
	})
	if err != nil {
		return fmt.Errorf("running analyst tasks: %w", err)
	}
	c.printTasks(results)

	var advice string
	err = cliui.Step(c.status, "Writing final recommendation", func() error {
		var err error
		advice, err = adv.FinalAdvice(ctx, profile, transcript, results)
		return err
	})
	if err != nil {
		return err
	}

	var saved *session.Record
	err = cliui.Step(c.status, "Saving session", func() error {
		var err error
		saved, err = store.SaveSession(ctx, knowledge.SaveSessionInput{
			ClientName:          profile.Name,
			Profile:             profile,
			QATranscript:        transcript,
			Tasks:               results,
			FinalRecommendation: advice,
		})
		return err
	})
	if err != nil {
		return err
	}

	cliui.Header(c.out, "Recommendation")
	rendered, err := cliui.RenderMarkdown(advice)
	if err != nil {
		c.logger.Debug("rendering recommendation", "error", err)
	}
	fmt.Fprintln(c.out, rendered)

	cliui.KV(c.out, "Session", saved.SessionID)
	cliui.KV(c.out, "Stored in", store.Log().Path())
	return nil
}

// interviewee reads answers from in, prompting only when a person is
// typing them.
func (c *sessionCommander) interviewee(in io.Reader) *client.Interviewee {
	f, ok := in.(*os.File)
	c.interactive = ok && term.IsTerminal(int(f.Fd()))
	if !c.interactive {
		return client.NewInterviewee(in, io.Discard)
	}
	return client.NewInterviewee(in, c.out)
}

func (c *sessionCommander) printProfile(p session.Profile) {
	cliui.Header(c.out, "Client profile")
	cliui.KV(c.out, "Name", p.Name)
	cliui.KV(c.out, "Age", p.Age)
	cliui.KV(c.out, "Risk aversion", p.RiskAversion)
	cliui.KV(c.out, "Assets", fmt.Sprintf("%.2f", p.Assets))

	if investments, err := json.Marshal(p.Investments); err == nil {
		cliui.KV(c.out, "Investments", string(investments))
	}
	for _, g := range p.FinancialGoals {
		cliui.KV(c.out, "Goal", fmt.Sprintf("%s: %.2f by %s", g.Title, g.Amount, g.Timeline))
	}
}

func (c *sessionCommander) printTasks(tasks []session.Task) {
	cliui.Header(c.out, "Analyst results")
	for i, t := range tasks {
		fmt.Fprintf(c.out, "  %s %s\n",
			cliui.RankStyle.Render(fmt.Sprintf("#%d", i+1)),
			cliui.KeyStyle.Render(t.TaskDescription),
		)
		fmt.Fprintf(c.out, "     %s\n", cliui.DimStyle.Render(utils.Truncate(t.Result, 240)))
	}
}
