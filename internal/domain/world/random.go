package world

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// NewRand returns a deterministic PCG source for the seed. Different salts
// give independent streams from one seed.
func NewRand(seed int64, salt string) *rand.Rand {
	// #nosec G404
	return rand.New(rand.NewPCG(seedWord(seed, salt+":a"), seedWord(seed, salt+":b")))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}
