package training

import (
	"fmt"
	"math/rand"
	"sort"
)

// DecisionTreeTrainer implements CART classification trees with Gini impurity
type DecisionTreeTrainer struct{}

// Node is one node of a classification tree
type Node struct {
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      *Node   `json:"l,omitempty"`
	Right     *Node   `json:"r,omitempty"`
	// Distribution holds the class fractions of the training samples in a leaf
	Distribution []float64 `json:"d,omitempty"`
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return n.Left == nil
}

// DecisionTreeModel is a fitted classification tree
type DecisionTreeModel struct {
	Root    *Node `json:"root"`
	Classes int   `json:"classes"`
}

// NewDecisionTreeTrainer creates a new decision tree trainer
func NewDecisionTreeTrainer() *DecisionTreeTrainer {
	return &DecisionTreeTrainer{}
}

// Train fits a single tree on every row, considering all features at each split
// unless config.MaxFeatures says otherwise
func (t *DecisionTreeTrainer) Train(data *TrainingData, config *Config) (Model, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultConfig()
	}

	rows := make([]int, len(data.Features))
	for i := range rows {
		rows[i] = i
	}
	maxFeatures := config.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = len(data.Features[0])
	}

	b := newTreeBuilder(data, config, maxFeatures, rand.New(rand.NewSource(config.Seed)))
	return &DecisionTreeModel{Root: b.build(rows, 0), Classes: data.NumClasses}, nil
}

// GetType returns the model type
func (t *DecisionTreeTrainer) GetType() string {
	return ModelTypeDecisionTree
}

// PredictProba returns the class distribution of the leaf reached by features
func (m *DecisionTreeModel) PredictProba(features []float64) []float64 {
	node := m.Root
	for !node.IsLeaf() {
		if features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Distribution
}

// NumClasses returns the number of classes
func (m *DecisionTreeModel) NumClasses() int {
	return m.Classes
}

// validate checks that every split and leaf is consistent with the class count
func (m *DecisionTreeModel) validate(numFeatures int) error {
	var walk func(n *Node) error
	walk = func(n *Node) error {
		if n == nil {
			return fmt.Errorf("tree has a missing node")
		}
		if n.IsLeaf() {
			if len(n.Distribution) != m.Classes {
				return fmt.Errorf("leaf has %d classes, expected %d", len(n.Distribution), m.Classes)
			}
			return nil
		}
		if n.Right == nil {
			return fmt.Errorf("split node is missing its right child")
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return fmt.Errorf("split on feature %d outside [0, %d)", n.Feature, numFeatures)
		}
		if err := walk(n.Left); err != nil {
			return err
		}
		return walk(n.Right)
	}
	return walk(m.Root)
}

// treeBuilder grows one tree. Rows are indices into data and may repeat when
// the tree is fit on a bootstrap sample.
type treeBuilder struct {
	data        *TrainingData
	config      *Config
	maxFeatures int
	rng         *rand.Rand
	order       []int
}

func newTreeBuilder(data *TrainingData, config *Config, maxFeatures int, rng *rand.Rand) *treeBuilder {
	return &treeBuilder{
		data:        data,
		config:      config,
		maxFeatures: maxFeatures,
		rng:         rng,
	}
}

func (b *treeBuilder) classCounts(rows []int) []int {
	counts := make([]int, b.data.NumClasses)
	for _, r := range rows {
		counts[b.data.Labels[r]]++
	}
	return counts
}

func (b *treeBuilder) leaf(counts []int, total int) *Node {
	dist := make([]float64, len(counts))
	for i, c := range counts {
		dist[i] = float64(c) / float64(total)
	}
	return &Node{Distribution: dist}
}

func (b *treeBuilder) build(rows []int, level int) *Node {
	counts := b.classCounts(rows)
	minLeaf := b.config.MinSamplesLeaf
	if minLeaf < 1 {
		minLeaf = 1
	}

	if isPure(counts) || len(rows) < 2*minLeaf || (b.config.MaxDepth > 0 && level >= b.config.MaxDepth) {
		return b.leaf(counts, len(rows))
	}

	feature, threshold, ok := b.findBestSplit(rows, counts, minLeaf)
	if !ok {
		return b.leaf(counts, len(rows))
	}

	left := make([]int, 0, len(rows)/2)
	right := make([]int, 0, len(rows)/2)
	for _, r := range rows {
		if b.data.Features[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, level+1),
		Right:     b.build(right, level+1),
	}
}

// findBestSplit draws features in random order and evaluates them until
// maxFeatures non-constant features were tried and a split was found
func (b *treeBuilder) findBestSplit(rows []int, counts []int, minLeaf int) (int, float64, bool) {
	numFeatures := len(b.data.Features[0])
	bestFeature, bestThreshold := -1, 0.0
	bestScore := 0.0
	tried := 0

	for _, feature := range b.rng.Perm(numFeatures) {
		if tried >= b.maxFeatures && bestFeature >= 0 {
			break
		}
		threshold, score, constant, ok := b.bestThreshold(rows, counts, feature, minLeaf)
		if constant {
			continue
		}
		tried++
		if ok && (bestFeature < 0 || score < bestScore) {
			bestFeature, bestThreshold, bestScore = feature, threshold, score
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// bestThreshold sweeps the sorted values of one feature and returns the
// threshold minimizing the weighted Gini impurity of the children. The score
// is n_left*gini_left + n_right*gini_right.
func (b *treeBuilder) bestThreshold(rows []int, counts []int, feature int, minLeaf int) (threshold, score float64, constant, ok bool) {
	x := b.data.Features
	b.order = append(b.order[:0], rows...)
	order := b.order
	sort.Slice(order, func(i, j int) bool {
		return x[order[i]][feature] < x[order[j]][feature]
	})

	n := len(order)
	if x[order[0]][feature] == x[order[n-1]][feature] {
		return 0, 0, true, false
	}

	leftCounts := make([]int, len(counts))
	rightCounts := append([]int(nil), counts...)
	var leftSq, rightSq float64
	for _, c := range counts {
		rightSq += float64(c) * float64(c)
	}

	for i := 0; i < n-1; i++ {
		c := b.data.Labels[order[i]]
		leftSq += float64(2*leftCounts[c] + 1)
		rightSq -= float64(2*rightCounts[c] - 1)
		leftCounts[c]++
		rightCounts[c]--

		nLeft, nRight := i+1, n-i-1
		if nLeft < minLeaf || nRight < minLeaf {
			continue
		}
		lo, hi := x[order[i]][feature], x[order[i+1]][feature]
		if lo == hi {
			continue
		}

		s := float64(nLeft) - leftSq/float64(nLeft) + float64(nRight) - rightSq/float64(nRight)
		if !ok || s < score {
			score = s
			threshold = lo + (hi-lo)/2
			if threshold >= hi {
				threshold = lo
			}
			ok = true
		}
	}
	return threshold, score, false, ok
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
