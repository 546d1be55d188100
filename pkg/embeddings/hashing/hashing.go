// Package hashing implements an offline, deterministic embeddings.Embedder.
//
// Text is lowercased and split into word tokens, common English stopwords
// are dropped and a trailing plural "s" is stripped. Every remaining token
// is hashed with FNV-1a into one of Dimensions buckets with a sign taken
// from the hash, and the resulting vector is L2-normalized. Texts sharing
// vocabulary land close together under Euclidean distance.
//
// Text that contains no usable tokens (for example only stopwords or
// punctuation) embeds to the all-zero vector. Empty or whitespace-only text
// is rejected like every other embedder.
package hashing

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/papercomputeco/advisor/pkg/embeddings"
)

// DefaultDimensions matches the size of the default Ollama model so the two
// providers are interchangeable in configuration.
const DefaultDimensions = 384

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "i": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "our": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {}, "will": {},
	"with": {}, "you": {}, "your": {},
}

// Embedder is a feature-hashing embedder.
type Embedder struct {
	dimensions uint
}

// NewEmbedder creates a hashing embedder producing vectors of the given size.
// Zero selects DefaultDimensions.
func NewEmbedder(dimensions uint) *Embedder {
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds every text independently.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := embeddings.ValidateInput(texts); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *Embedder) vector(text string) []float32 {
	acc := make([]float64, e.dimensions)
	for _, token := range Tokens(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := sum % uint64(e.dimensions)
		if sum>>63 == 1 {
			acc[bucket]--
		} else {
			acc[bucket]++
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dimensions)
	if norm == 0 {
		return vec
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}

// Tokens returns the normalized tokens the embedder hashes for text.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := stopwords[f]; ok {
			continue
		}
		tokens = append(tokens, stem(f))
	}
	return tokens
}

func stem(token string) string {
	if len(token) > 3 && strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") {
		return token[:len(token)-1]
	}
	return token
}

// Dimensions returns the vector size.
func (e *Embedder) Dimensions() uint {
	return e.dimensions
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
