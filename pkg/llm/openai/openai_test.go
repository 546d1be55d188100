package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/openai"
)

var _ = Describe("Caller", func() {
	It("requires an API key", func() {
		_, err := openai.NewCaller(openai.Config{})
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
	})

	It("returns the first choice", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))

			var body map[string]any
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("model", "gpt-test"))
			messages := body["messages"].([]any)
			Expect(messages).To(HaveLen(1))
			Expect(messages[0]).To(HaveKeyWithValue("content", "Recommend something"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"model": "gpt-test",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "Buy index funds."}, "finish_reason": "stop"}],
				"usage": {"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7}
			}`))
		}))
		defer server.Close()

		caller, err := openai.NewCaller(openai.Config{
			APIKey:  "test-key",
			BaseURL: server.URL + "/v1",
			Model:   "gpt-test",
		})
		Expect(err).NotTo(HaveOccurred())

		out, err := caller.Complete(context.Background(), "Recommend something")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Buy index funds."))
	})

	It("treats an empty choice list as a failure", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": []}`))
		}))
		defer server.Close()

		caller, err := openai.NewCaller(openai.Config{APIKey: "k", BaseURL: server.URL + "/v1"})
		Expect(err).NotTo(HaveOccurred())
		_, err = caller.Complete(context.Background(), "x")
		Expect(err).To(MatchError(llm.ErrCompletion))
	})

	It("wraps API errors in ErrCompletion", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
		}))
		defer server.Close()

		caller, err := openai.NewCaller(openai.Config{APIKey: "k", BaseURL: server.URL + "/v1"})
		Expect(err).NotTo(HaveOccurred())
		_, err = caller.Complete(context.Background(), "x")
		Expect(err).To(MatchError(llm.ErrCompletion))
		Expect(err.Error()).To(ContainSubstring("bad key"))
	})
})
