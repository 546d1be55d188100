package embeddingutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/embeddings/hashing"
	"github.com/papercomputeco/advisor/pkg/embeddings/ollama"
	embeddingutils "github.com/papercomputeco/advisor/pkg/embeddings/utils"
)

var _ = Describe("NewEmbedder", func() {
	It("builds an ollama embedder", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "ollama",
			TargetURL:    "http://localhost:11434",
			Model:        "all-minilm",
			Dimensions:   384,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&ollama.Embedder{}))
		Expect(e.Dimensions()).To(Equal(uint(384)))
	})

	It("builds a hashing embedder", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "hashing",
			Dimensions:   64,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&hashing.Embedder{}))
		Expect(e.Dimensions()).To(Equal(uint(64)))
	})

	It("rejects unknown providers", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{ProviderType: "nope"})
		Expect(err).To(MatchError(ContainSubstring("unsupported embedding provider")))
	})
})
