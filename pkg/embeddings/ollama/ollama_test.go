package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/embeddings"
	"github.com/papercomputeco/advisor/pkg/embeddings/ollama"
)

var _ = Describe("Embedder", func() {
	var (
		server   *httptest.Server
		received map[string]any
		status   int
		response string
	)

	BeforeEach(func() {
		received = nil
		status = http.StatusOK
		response = `{"embeddings":[[0.1,0.2,0.3],[0.4,0.5,0.6]]}`

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/embed"))
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			w.WriteHeader(status)
			_, _ = w.Write([]byte(response))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newEmbedder := func() *ollama.Embedder {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    server.URL,
			Model:      "test-model",
			Dimensions: 3,
		})
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	It("applies defaults", func() {
		e, err := ollama.NewEmbedder(ollama.EmbedderConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Dimensions()).To(Equal(uint(ollama.DefaultDimensions)))
		Expect(e.Close()).To(Succeed())
	})

	It("sends the batch in one request and keeps order", func() {
		vectors, err := newEmbedder().EmbedBatch(context.Background(), []string{"first", "second"})
		Expect(err).NotTo(HaveOccurred())
		Expect(vectors).To(HaveLen(2))
		Expect(vectors[0]).To(Equal([]float32{0.1, 0.2, 0.3}))
		Expect(vectors[1]).To(Equal([]float32{0.4, 0.5, 0.6}))

		Expect(received["model"]).To(Equal("test-model"))
		Expect(received["input"]).To(Equal([]any{"first", "second"}))
	})

	It("embeds a single text", func() {
		response = `{"embeddings":[[1,0,0]]}`
		vec, err := newEmbedder().Embed(context.Background(), "hello")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(Equal([]float32{1, 0, 0}))
	})

	It("rejects empty text without calling the server", func() {
		_, err := newEmbedder().Embed(context.Background(), "  ")
		Expect(err).To(MatchError(embeddings.ErrEmptyText))
		Expect(received).To(BeNil())
	})

	It("fails on non-200 responses", func() {
		status = http.StatusInternalServerError
		response = `{"error":"model not loaded"}`
		_, err := newEmbedder().Embed(context.Background(), "hello")
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
		Expect(err.Error()).To(ContainSubstring("model not loaded"))
	})

	It("fails when the vector count does not match the inputs", func() {
		response = `{"embeddings":[[1,0,0]]}`
		_, err := newEmbedder().EmbedBatch(context.Background(), []string{"a", "b"})
		Expect(err).To(MatchError(embeddings.ErrEmbedding))
	})

	It("fails on a dimension mismatch", func() {
		response = `{"embeddings":[[1,0]]}`
		_, err := newEmbedder().Embed(context.Background(), "hello")
		Expect(err).To(MatchError(embeddings.ErrDimensionMismatch))
	})
})
