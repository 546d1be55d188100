package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/embeddings/hashing"
	"github.com/papercomputeco/advisor/pkg/knowledge"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/sessionlog"
	"github.com/papercomputeco/advisor/pkg/vector/flat"
)

func newStore() *knowledge.Store {
	log, err := sessionlog.New(sessionlog.Config{
		Path:   filepath.Join(GinkgoT().TempDir(), "sessions.json"),
		Logger: logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())

	store, err := knowledge.New(context.Background(), knowledge.Config{
		Log:      log,
		Embedder: hashing.NewEmbedder(384),
		Index:    flat.NewIndex(384),
		Logger:   logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(store.Close)
	return store
}

func save(store *knowledge.Store, client, id, advice string) {
	_, err := store.SaveSession(context.Background(), knowledge.SaveSessionInput{
		SessionID:  id,
		ClientName: client,
		Profile: session.Profile{
			Name: client, Age: 40, RiskAversion: session.RiskMedium, Assets: 100000,
		},
		QATranscript:        []session.QAPair{{Question: "Horizon?", Answer: "ten years"}},
		FinalRecommendation: advice,
	})
	Expect(err).NotTo(HaveOccurred())
}

// connect starts the server over in-memory transports and returns a client
// session for it.
func connect(s *Server) *mcp.ClientSession {
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ss, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(ss.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(cs.Close)
	return cs
}

func text(res *mcp.CallToolResult) string {
	Expect(res.Content).NotTo(BeEmpty())
	tc, ok := res.Content[0].(*mcp.TextContent)
	Expect(ok).To(BeTrue())
	return tc.Text
}

var _ = Describe("MCP Server", func() {
	Describe("NewServer", func() {
		It("returns an error when the store is nil", func() {
			_, err := NewServer(Config{Logger: logger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("knowledge store is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Store: newStore()})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("builds an empty server in noop mode", func() {
			s, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Handler()).NotTo(BeNil())

			tools, err := connect(s).ListTools(context.Background(), &mcp.ListToolsParams{})
			Expect(err).NotTo(HaveOccurred())
			Expect(tools.Tools).To(BeEmpty())
		})
	})

	Describe("tools", func() {
		var (
			store *knowledge.Store
			cs    *mcp.ClientSession
			ctx   context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			store = newStore()
			s, err := NewServer(Config{Store: store, Logger: logger.Nop()})
			Expect(err).NotTo(HaveOccurred())
			cs = connect(s)
		})

		It("lists both tools", func() {
			tools, err := cs.ListTools(ctx, &mcp.ListToolsParams{})
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, len(tools.Tools))
			for i, t := range tools.Tools {
				names[i] = t.Name
			}
			Expect(names).To(ConsistOf("retrieve_similar_sessions", "list_client_sessions"))
		})

		It("retrieves the nearest sessions", func() {
			save(store, "Alice", "s-001", "Buy municipal bonds for tax free income.")
			save(store, "Bob", "s-002", "Put savings into a high growth technology fund.")

			res, err := cs.CallTool(ctx, &mcp.CallToolParams{
				Name:      "retrieve_similar_sessions",
				Arguments: map[string]any{"query": "municipal bonds tax free", "top_k": 1},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())

			var out RetrieveOutput
			Expect(json.Unmarshal([]byte(text(res)), &out)).To(Succeed())
			Expect(out.Count).To(Equal(1))
			Expect(out.Matches[0].SessionID).To(Equal("s-001"))
			Expect(out.Matches[0].ClientName).To(Equal("Alice"))
		})

		It("returns no matches from an empty store", func() {
			res, err := cs.CallTool(ctx, &mcp.CallToolParams{
				Name:      "retrieve_similar_sessions",
				Arguments: map[string]any{"query": "anything"},
			})
			Expect(err).NotTo(HaveOccurred())

			var out RetrieveOutput
			Expect(json.Unmarshal([]byte(text(res)), &out)).To(Succeed())
			Expect(out.Count).To(BeZero())
			Expect(out.Matches).To(BeEmpty())
		})

		It("reports a missing query as a tool error", func() {
			res, err := cs.CallTool(ctx, &mcp.CallToolParams{
				Name:      "retrieve_similar_sessions",
				Arguments: map[string]any{"query": ""},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("lists a client's sessions in save order", func() {
			save(store, "Alice", "s-001", "first")
			save(store, "Alice", "s-002", "second")
			save(store, "Bob", "s-003", "other")

			res, err := cs.CallTool(ctx, &mcp.CallToolParams{
				Name:      "list_client_sessions",
				Arguments: map[string]any{"client_name": "Alice"},
			})
			Expect(err).NotTo(HaveOccurred())

			var out ListOutput
			Expect(json.Unmarshal([]byte(text(res)), &out)).To(Succeed())
			Expect(out.Count).To(Equal(2))
			Expect(out.Sessions[0]).To(Equal(SessionSummary{SessionID: "s-001", Questions: 1, FinalRecommendation: "first"}))
			Expect(out.Sessions[1].SessionID).To(Equal("s-002"))
		})
	})
})
