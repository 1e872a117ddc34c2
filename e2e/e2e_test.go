// Package e2e_test exercises the end-to-end scenarios from the kernel's
// specification against the real object/filter/operation/seqscan
// packages, in the style of the teacher's ginkgo+gomega BDD suites
// (fuse/fs's cache_test.go).
package e2e_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/messif/metrickernel/filter"
	"github.com/messif/metrickernel/mstats"
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/objid"
	"github.com/messif/metrickernel/operation"
	"github.com/messif/metrickernel/seqscan"
)

func locatedVector(locator string, values ...float32) *object.VectorObject {
	v := object.NewVectorObject(values, object.L1)
	v.SetKey(objid.NewBasicKey(locator))
	return v
}

var _ = Describe("single k-NN over a tiny dataset", func() {
	It("returns the two nearest points to the origin, ordered by distance", func() {
		dataset := []*object.VectorObject{
			locatedVector("a", 0, 0),
			locatedVector("b", 1, 0),
			locatedVector("c", 0, 1),
			locatedVector("d", 5, 5),
		}
		query := object.NewVectorObject([]float32{0, 0}, object.L1)
		op := operation.NewRankKNNOperation(query, 2, operation.FullData)

		scope := &mstats.Counters{}
		for _, obj := range dataset {
			op.Evaluate(scope, obj)
		}

		items := op.Answer.Items()
		Expect(items).To(HaveLen(2))

		loc0, _ := items[0].Object.Key().Locator()
		loc1, _ := items[1].Object.Key().Locator()
		Expect(loc0).To(Equal("a"))
		Expect(items[0].Distance).To(BeEquivalentTo(0))
		Expect(loc1).To(Equal("b"))
		Expect(items[1].Distance).To(BeEquivalentTo(1))
	})
})

var _ = Describe("range search through a fixed-array filter", func() {
	buildFilter := func(distances ...float32) *filter.FixedArrayFilter {
		f := filter.NewFixedArrayFilter()
		f.AppendAll(distances)
		return f
	}

	It("does not prune at radius 0, since both pivot differences are equal", func() {
		q, x := buildFilter(10, 10), buildFilter(10, 10)
		Expect(q.Exclude(x, 0)).To(BeFalse())
	})

	It("cannot resolve radius 9.5 from the filter alone, since include is also false", func() {
		q, x := buildFilter(10, 10), buildFilter(10, 10)
		Expect(q.Include(x, 9.5)).To(BeFalse())
		Expect(q.Exclude(x, 9.5)).To(BeFalse())
	})
})

var _ = Describe("meta-object SUM aggregation", func() {
	It("ranks the meta-object with the smaller aggregated distance first", func() {
		a := object.NewMetaObject(map[string]object.LocalObject{
			"color": object.NewVectorObject([]float32{0, 0}, object.L1),
			"shape": object.NewVectorObject([]float32{3, 0}, object.L1),
		}, []string{"color", "shape"}, object.SumAggregator)
		b := object.NewMetaObject(map[string]object.LocalObject{
			"color": object.NewVectorObject([]float32{1, 0}, object.L1),
			"shape": object.NewVectorObject([]float32{0, 4}, object.L1),
		}, []string{"color", "shape"}, object.SumAggregator)
		query := object.NewMetaObject(map[string]object.LocalObject{
			"color": object.NewVectorObject([]float32{0, 0}, object.L1),
			"shape": object.NewVectorObject([]float32{0, 0}, object.L1),
		}, []string{"color", "shape"}, object.SumAggregator)

		op := operation.NewRankKNNOperation(query, 1, operation.FullData)
		scope := &mstats.Counters{}
		op.Evaluate(scope, a)
		op.Evaluate(scope, b)

		items := op.Answer.Items()
		Expect(items).To(HaveLen(1))
		Expect(items[0].Object).To(BeIdenticalTo(object.LocalObject(a)))
		Expect(items[0].Distance).To(BeEquivalentTo(3))
	})
})

var _ = Describe("text round-trip with filters", func() {
	It("reconstructs an object whose data and fixed-array filter compare equal to the original", func() {
		dir, err := os.MkdirTemp("", "messif-e2e")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		original := locatedVector("u/1", 1, 2)
		fa := filter.NewFixedArrayFilter()
		fa.AppendAll([]float32{0.5, 1.25, 3.0})
		_, err = original.Filters().Attach(fa, false)
		Expect(err).NotTo(HaveOccurred())

		path := filepath.Join(dir, "obj.msf")
		f, err := os.Create(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(original.WriteText(f)).To(Succeed())
		Expect(f.Close()).To(Succeed())

		source := seqscan.NewFileSource(path, object.L1)
		defer source.Close()
		got, err := source.Next()
		Expect(err).NotTo(HaveOccurred())

		Expect(got.DataEquals(original)).To(BeTrue())

		gotFilter, ok := got.Filters().Get(filter.KindFixedArray)
		Expect(ok).To(BeTrue())
		gotFA, ok := gotFilter.(*filter.FixedArrayFilter)
		Expect(ok).To(BeTrue())
		Expect(gotFA.Len()).To(Equal(fa.Len()))
		for i := 0; i < fa.Len(); i++ {
			Expect(gotFA.At(i)).To(BeEquivalentTo(fa.At(i)))
		}
	})
})
