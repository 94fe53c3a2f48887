package forest

import (
	"math"
	"math/rand"
	"sort"
)

// node is a single decision tree node. Leaves have left == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	class     int
}

// tree is a fitted CART classification tree stored as a flat node slice.
// Samples with x[feature] <= threshold descend left.
type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) int {
	i := 0
	for {
		n := &t.nodes[i]
		if n.left < 0 {
			return n.class
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// treeBuilder grows one tree over a bootstrap sample.
type treeBuilder struct {
	x          [][]float64
	y          []int
	numClasses int
	maxDepth   int
	minSplit   int
	maxFeat    int
	rng        *rand.Rand
	nodes      []node
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) build(idx []int, depth int) int {
	counts := make([]int, b.numClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, node{left: -1, right: -1, class: majority(counts)})

	if isPure(counts) || len(idx) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return id
	}

	best, ok := b.bestSplit(idx, counts)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	n := &b.nodes[id]
	n.feature = best.feature
	n.threshold = best.threshold
	n.left = l
	n.right = r
	return id
}

// bestSplit visits features in random order until maxFeat features that can
// actually split the node have been evaluated, and returns the split with the
// lowest weighted Gini impurity.
func (b *treeBuilder) bestSplit(idx []int, total []int) (split, bool) {
	numFeatures := len(b.x[idx[0]])
	order := b.rng.Perm(numFeatures)

	best := split{impurity: math.Inf(1)}
	found := false
	visited := 0

	sorted := make([]int, len(idx))
	left := make([]int, b.numClasses)
	right := make([]int, b.numClasses)

	for _, f := range order {
		if visited >= b.maxFeat {
			break
		}

		copy(sorted, idx)
		sort.Slice(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})
		lo, hi := b.x[sorted[0]][f], b.x[sorted[len(sorted)-1]][f]
		if lo == hi {
			// Constant features do not count toward maxFeat.
			continue
		}
		visited++

		for c := range left {
			left[c] = 0
			right[c] = total[c]
		}

		n := len(sorted)
		for i := 0; i < n-1; i++ {
			c := b.y[sorted[i]]
			left[c]++
			right[c]--

			v, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if v == next {
				continue
			}

			nl := i + 1
			nr := n - nl
			impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if impurity < best.impurity {
				threshold := v + (next-v)/2
				if threshold == next || math.IsInf(threshold, 0) || math.IsNaN(threshold) {
					threshold = v
				}
				best = split{feature: f, threshold: threshold, impurity: impurity}
				found = true
			}
		}
	}

	return best, found
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// majority returns the class with the highest count, lowest class on ties.
func majority(counts []int) int {
	best := 0
	for c := 1; c < len(counts); c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
