package training

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/examscore/pkg/errors"
)

// Split holds the row indices of the two partitions.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit shuffles 0..n-1 with seed and puts the first
// ceil(testSize·n) rows into the test partition. The same n, testSize and
// seed always give the same partitions.
func TrainTestSplit(n int, testSize float64, seed int64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 2 {
		return Split{}, errors.NewValueError("training.Split",
			"dataset too small: need at least 2 training rows and 1 test row")
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return Split{Train: perm[nTest:], Test: perm[:nTest]}, nil
}
