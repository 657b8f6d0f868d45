package training

import (
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit shuffles row indices with seed and holds out ceil(testSize*n)
// of them for testing
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be between 0 and 1, got %v", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if n-nTest < 1 {
		return nil, nil, fmt.Errorf("not enough rows to split: %d", n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
