// Package rng derives independent deterministic random streams from a single
// run seed. Each named entity (an image id, a user id) gets its own stream by
// mixing the run seed with the name through xxh3, so results do not depend on
// the order entities are processed in or on how many workers process them.
package rng

import (
	"encoding/binary"
	"math/rand"
	"time"

	"github.com/zeebo/xxh3"
)

// Seed returns the given seed, or a clock-derived one when seed is 0.
func Seed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// New returns a rand.Rand whose stream is a pure function of (seed, name).
func New(seed int64, name string) *rand.Rand {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	h := xxh3.Hash(append(buf[:], name...))
	return rand.New(rand.NewSource(int64(h)))
}
