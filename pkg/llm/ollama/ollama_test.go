package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/ollama"
)

var _ = Describe("Caller", func() {
	It("sends a non-streaming generate request", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/generate"))

			var body map[string]any
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("model", "llama2"))
			Expect(body).To(HaveKeyWithValue("prompt", "Say hi"))
			Expect(body).To(HaveKeyWithValue("stream", false))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"model":"llama2","response":"Hi there","done":true}`))
		}))
		defer server.Close()

		caller, err := ollama.NewCaller(ollama.Config{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		out, err := caller.Complete(context.Background(), "Say hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Hi there"))
	})

	It("uses the configured model", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			var body map[string]any
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("model", "mistral"))
			_, _ = w.Write([]byte(`{"model":"mistral","response":"ok","done":true}`))
		}))
		defer server.Close()

		caller, err := ollama.NewCaller(ollama.Config{BaseURL: server.URL, Model: "mistral"})
		Expect(err).NotTo(HaveOccurred())
		_, err = caller.Complete(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
	})

	It("wraps server errors in ErrCompletion", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model 'llama2' not found"}`))
		}))
		defer server.Close()

		caller, err := ollama.NewCaller(ollama.Config{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		_, err = caller.Complete(context.Background(), "x")
		Expect(err).To(MatchError(llm.ErrCompletion))
		Expect(err.Error()).To(ContainSubstring("not found"))
	})

	It("rejects an unparsable base url", func() {
		_, err := ollama.NewCaller(ollama.Config{BaseURL: "://bad"})
		Expect(err).To(HaveOccurred())
	})
})
