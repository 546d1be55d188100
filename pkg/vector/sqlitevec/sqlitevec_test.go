package sqlitevec_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/vector"
	"github.com/papercomputeco/advisor/pkg/vector/sqlitevec"
)

var _ = Describe("Index", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("NewIndex", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewIndex(sqlitevec.Config{Dimensions: 4}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("database path is required")))
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewIndex(sqlitevec.Config{DBPath: ":memory:"}, logger.Nop())
			Expect(err).To(HaveOccurred())
		})

		It("should create an index with an in-memory database", func() {
			index, err := sqlitevec.NewIndex(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(index.Len()).To(Equal(0))
			Expect(index.Dimensions()).To(Equal(uint(4)))
			Expect(index.Close()).To(Succeed())
		})

		It("should start empty even when the file has old vectors", func() {
			path := filepath.Join(GinkgoT().TempDir(), "index.db")
			cfg := sqlitevec.Config{DBPath: path, Dimensions: 4}

			first, err := sqlitevec.NewIndex(cfg, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			_, err = first.Add(ctx, []float32{1, 2, 3, 4})
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Close()).To(Succeed())

			cfg.Dimensions = 2
			second, err := sqlitevec.NewIndex(cfg, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			defer second.Close()
			Expect(second.Len()).To(Equal(0))

			pos, err := second.Add(ctx, []float32{1, 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(pos).To(Equal(0))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Index", func() {
			var _ vector.Index = (*sqlitevec.Index)(nil)
		})
	})

	Context("with an open index", func() {
		var index *sqlitevec.Index

		BeforeEach(func() {
			var err error
			index, err = sqlitevec.NewIndex(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(index.Close()).To(Succeed())
		})

		Describe("Add", func() {
			It("should assign dense positions", func() {
				for want := range 3 {
					pos, err := index.Add(ctx, []float32{float32(want), 0, 0, 0})
					Expect(err).NotTo(HaveOccurred())
					Expect(pos).To(Equal(want))
				}
				Expect(index.Len()).To(Equal(3))
			})

			It("should reject a vector of the wrong dimension", func() {
				_, err := index.Add(ctx, []float32{1, 2, 3})
				Expect(err).To(MatchError(vector.ErrDimensionMismatch))
				Expect(index.Len()).To(Equal(0))
			})
		})

		Describe("Search", func() {
			BeforeEach(func() {
				vectors := [][]float32{
					{1.0, 0.0, 0.0, 0.0},
					{0.9, 0.1, 0.0, 0.0},
					{0.0, 1.0, 0.0, 0.0},
					{0.0, 0.0, 1.0, 0.0},
				}
				for _, v := range vectors {
					_, err := index.Add(ctx, v)
					Expect(err).NotTo(HaveOccurred())
				}
			})

			It("should return the closest vectors", func() {
				results, err := index.Search(ctx, []float32{1.0, 0.0, 0.0, 0.0}, 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(2))
				Expect(results[0].Position).To(Equal(0))
				Expect(results[0].Distance).To(BeNumerically("~", 0, 1e-6))
				Expect(results[1].Position).To(Equal(1))
			})

			It("should return distances in ascending order", func() {
				results, err := index.Search(ctx, []float32{0.5, 0.5, 0.0, 0.0}, 4)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(4))
				for i := 1; i < len(results); i++ {
					Expect(results[i].Distance).To(BeNumerically(">=", results[i-1].Distance))
				}
			})

			It("should cap results at the index size", func() {
				results, err := index.Search(ctx, []float32{1.0, 0.0, 0.0, 0.0}, 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(HaveLen(4))
			})

			It("should return nothing for k <= 0", func() {
				results, err := index.Search(ctx, []float32{1.0, 0.0, 0.0, 0.0}, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(BeEmpty())
			})
		})

		Describe("Reset", func() {
			It("should remove all vectors and restart positions", func() {
				_, err := index.Add(ctx, []float32{1, 0, 0, 0})
				Expect(err).NotTo(HaveOccurred())
				Expect(index.Reset(ctx)).To(Succeed())
				Expect(index.Len()).To(Equal(0))

				results, err := index.Search(ctx, []float32{1, 0, 0, 0}, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(results).To(BeEmpty())

				pos, err := index.Add(ctx, []float32{0, 1, 0, 0})
				Expect(err).NotTo(HaveOccurred())
				Expect(pos).To(Equal(0))
			})
		})
	})

	Describe("Close", func() {
		It("should reject use after close", func() {
			index, err := sqlitevec.NewIndex(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			Expect(index.Close()).To(Succeed())
			Expect(index.Close()).To(Succeed())

			_, err = index.Add(ctx, []float32{1, 0, 0, 0})
			Expect(err).To(MatchError(vector.ErrClosed))
		})
	})
})
