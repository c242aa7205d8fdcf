package dataset

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Partition is a disjoint cover of a table: every row of the original table
// appears in exactly one of the two subsets.
type Partition struct {
	Train Table
	Test  Table
}

// Split partitions a table into training and held-out subsets by a
// pseudo-random assignment seeded with seed. The same table, ratio and seed
// always reproduce the identical partition. The ratio is the fraction of rows
// assigned to the training subset and must leave both subsets non-empty.
func Split(t Table, ratio float64, seed int64) (Partition, error) {
	if ratio <= 0 || ratio >= 1 {
		return Partition{}, errors.Errorf("train ratio %v is outside (0,1)", ratio)
	}
	n := t.Len()
	if n == 0 {
		return Partition{}, errors.New("cannot split an empty table")
	}
	if len(t.Y) != n {
		return Partition{}, errors.Errorf("table has %d rows but %d labels", n, len(t.Y))
	}

	cut := int(ratio * float64(n))
	if cut == 0 || cut == n {
		return Partition{}, errors.Errorf("train ratio %v leaves an empty partition for %d rows", ratio, n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return Partition{
		Train: t.Subset(perm[:cut]),
		Test:  t.Subset(perm[cut:]),
	}, nil
}
