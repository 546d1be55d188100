package flat_test

import (
	"context"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/vector"
	"github.com/papercomputeco/advisor/pkg/vector/flat"
)

var _ = Describe("Index", func() {
	var (
		ctx   context.Context
		index *flat.Index
	)

	BeforeEach(func() {
		ctx = context.Background()
		index = flat.NewIndex(4)
	})

	AfterEach(func() {
		Expect(index.Close()).To(Succeed())
	})

	It("implements vector.Index", func() {
		var _ vector.Index = index
	})

	Describe("Add", func() {
		It("assigns dense positions", func() {
			for want := range 5 {
				pos, err := index.Add(ctx, []float32{float32(want), 0, 0, 0})
				Expect(err).NotTo(HaveOccurred())
				Expect(pos).To(Equal(want))
			}
			Expect(index.Len()).To(Equal(5))
		})

		It("rejects vectors of the wrong dimension", func() {
			_, err := index.Add(ctx, []float32{1, 2})
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
			Expect(index.Len()).To(Equal(0))
		})

		It("copies the input", func() {
			v := []float32{1, 1, 1, 1}
			_, err := index.Add(ctx, v)
			Expect(err).NotTo(HaveOccurred())
			v[0] = 100

			results, err := index.Search(ctx, []float32{1, 1, 1, 1}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Distance).To(BeNumerically("~", 0, 1e-6))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			for i := 1; i <= 5; i++ {
				f := float32(i) / 10
				_, err := index.Add(ctx, []float32{f, f, f, f})
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("returns the closest vectors first", func() {
			results, err := index.Search(ctx, []float32{0.3, 0.3, 0.3, 0.3}, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(results[0].Position).To(Equal(2))
			Expect(results[0].Distance).To(BeNumerically("~", 0, 1e-6))
			Expect([]int{results[1].Position, results[2].Position}).To(ConsistOf(1, 3))
		})

		It("reports true Euclidean distance", func() {
			results, err := index.Search(ctx, []float32{0, 0, 0, 0}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results[0].Position).To(Equal(0))
			Expect(results[0].Distance).To(BeNumerically("~", 0.2, 1e-5))
		})

		It("breaks ties by position", func() {
			ties := flat.NewIndex(2)
			for _, v := range [][]float32{{2, 0}, {0, 2}, {-2, 0}, {0, -2}} {
				_, err := ties.Add(ctx, v)
				Expect(err).NotTo(HaveOccurred())
			}

			results, err := ties.Search(ctx, []float32{0, 0}, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
			for pos, n := range results {
				Expect(n.Position).To(Equal(pos))
				Expect(n.Distance).To(Equal(float32(2)))
			}
		})

		It("returns everything when k exceeds the size", func() {
			results, err := index.Search(ctx, []float32{0, 0, 0, 0}, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(5))
		})

		It("returns nothing for k <= 0", func() {
			results, err := index.Search(ctx, []float32{0, 0, 0, 0}, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("rejects queries of the wrong dimension", func() {
			_, err := index.Search(ctx, []float32{0, 0}, 1)
			Expect(err).To(MatchError(vector.ErrDimensionMismatch))
		})

		It("orders random data by non-decreasing distance", func() {
			r := rand.New(rand.NewPCG(1, 2))
			big := flat.NewIndex(8)
			for range 200 {
				v := make([]float32, 8)
				for j := range v {
					v[j] = r.Float32()
				}
				_, err := big.Add(ctx, v)
				Expect(err).NotTo(HaveOccurred())
			}

			results, err := big.Search(ctx, []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, 25)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(25))
			for i := 1; i < len(results); i++ {
				Expect(results[i].Distance).To(BeNumerically(">=", results[i-1].Distance))
			}
		})
	})

	It("returns an empty result on an empty index", func() {
		results, err := index.Search(ctx, []float32{1, 2, 3, 4}, 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeEmpty())
	})

	It("starts over after Reset", func() {
		_, err := index.Add(ctx, []float32{1, 1, 1, 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(index.Reset(ctx)).To(Succeed())
		Expect(index.Len()).To(Equal(0))

		pos, err := index.Add(ctx, []float32{2, 2, 2, 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(pos).To(Equal(0))
	})
})
