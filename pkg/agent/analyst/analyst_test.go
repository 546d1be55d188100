package analyst_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/agent/analyst"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
	"github.com/papercomputeco/advisor/pkg/websearch"
	"github.com/papercomputeco/advisor/pkg/worker"
)

var _ = Describe("Analyst", func() {
	var (
		ctx      context.Context
		caller   *testutils.MockCaller
		searcher *testutils.MockSearcher
		a        *analyst.Analyst
	)

	BeforeEach(func() {
		ctx = context.Background()
		caller = testutils.NewMockCaller()
		caller.Default = "  Index funds are cheap and diversified.  "
		searcher = testutils.NewMockSearcher(
			websearch.Result{Title: "Index fund", Snippet: "Tracks a market index", URL: "https://example.com/index"},
		)

		var err error
		a, err = analyst.New(analyst.Config{LLM: caller, Searcher: searcher, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires an llm and a searcher", func() {
		_, err := analyst.New(analyst.Config{Searcher: searcher})
		Expect(err).To(HaveOccurred())
		_, err = analyst.New(analyst.Config{LLM: caller})
		Expect(err).To(HaveOccurred())
	})

	Describe("ExecuteTask", func() {
		It("searches and summarizes supported tasks", func() {
			task := session.Task{
				TaskDescription: "Research medium-risk index funds.",
				TaskType:        session.TaskResearch,
				Context:         "Client wants balanced growth.",
			}
			out, err := a.ExecuteTask(ctx, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Result).To(Equal("Index funds are cheap and diversified."))
			Expect(out.TaskDescription).To(Equal(task.TaskDescription))
			Expect(out.Context).To(Equal(task.Context))

			Expect(searcher.Queries()).To(Equal([]string{"Research medium-risk index funds."}))
			prompts := caller.Prompts()
			Expect(prompts).To(HaveLen(1))
			Expect(prompts[0]).To(ContainSubstring("Client wants balanced growth."))
			Expect(prompts[0]).To(ContainSubstring("Index fund: Tracks a market index (https://example.com/index)"))
			Expect(prompts[0]).To(ContainSubstring("Task Type:\nresearch"))
		})

		It("records unsupported task types without calling out", func() {
			out, err := a.ExecuteTask(ctx, session.Task{TaskDescription: "Buy stocks", TaskType: "trade"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Result).To(Equal(analyst.UnsupportedResult))
			Expect(searcher.Queries()).To(BeEmpty())
			Expect(caller.Prompts()).To(BeEmpty())
		})

		It("treats a missing task type as research", func() {
			out, err := a.ExecuteTask(ctx, session.Task{TaskDescription: "Look into bonds"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.TaskType).To(Equal(session.TaskResearch))
			Expect(out.Result).NotTo(Equal(analyst.UnsupportedResult))
		})

		It("summarizes without sources when search fails", func() {
			searcher.Err = errors.New("offline")
			out, err := a.ExecuteTask(ctx, session.Task{TaskDescription: "Compare ETFs", TaskType: session.TaskCompare})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Result).NotTo(BeEmpty())
			Expect(caller.Prompts()[0]).To(ContainSubstring("Search Results:\n[]"))
		})

		It("returns the llm error", func() {
			caller.Fail = true
			_, err := a.ExecuteTask(ctx, session.Task{TaskDescription: "x", TaskType: session.TaskSummarize})
			Expect(err).To(MatchError(testutils.ErrMockLLM))
		})
	})

	Describe("RunTasks", func() {
		tasks := []session.Task{
			{TaskDescription: "alpha", TaskType: session.TaskResearch},
			{TaskDescription: "beta", TaskType: "unknown"},
			{TaskDescription: "gamma", TaskType: session.TaskCompare},
		}

		It("keeps input order on the worker pool", func() {
			pool, err := worker.NewPool(worker.Config{NumWorkers: 3, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			defer pool.Close()

			caller.Responses["Task description:\nalpha"] = "A"
			caller.Responses["Task description:\ngamma"] = "G"

			pooled, err := analyst.New(analyst.Config{LLM: caller, Searcher: searcher, Pool: pool})
			Expect(err).NotTo(HaveOccurred())

			out, err := pooled.RunTasks(ctx, tasks)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(3))
			Expect(out[0].Result).To(Equal("A"))
			Expect(out[1].Result).To(Equal(analyst.UnsupportedResult))
			Expect(out[2].Result).To(Equal("G"))
		})

		It("runs sequentially without a pool", func() {
			out, err := a.RunTasks(ctx, tasks)
			Expect(err).NotTo(HaveOccurred())
			descs := make([]string, len(out))
			for i, t := range out {
				descs[i] = t.TaskDescription
			}
			Expect(strings.Join(descs, ",")).To(Equal("alpha,beta,gamma"))
		})

		It("fails when any task fails", func() {
			caller.Fail = true
			_, err := a.RunTasks(ctx, tasks)
			Expect(err).To(MatchError(testutils.ErrMockLLM))
		})

		It("returns an empty result for no tasks", func() {
			out, err := a.RunTasks(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(BeEmpty())
		})
	})
})
