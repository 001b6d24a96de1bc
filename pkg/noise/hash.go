package noise

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v4/ring"
)

// Lattice hashing works in Z_q for the Mersenne prime q = 2^61 - 1. Each
// input is absorbed by adding it to the accumulator and applying the power
// map x -> x^17, which permutes Z_q since gcd(17, q-1) = 1, followed by a
// Barrett multiplication with a fixed odd constant.
const (
	hashModulus  = 1<<61 - 1
	hashExponent = 17
	hashInit     = 0x9E3779B97F4A7C15 % hashModulus
	hashMul      = 0x5851F42D4C957F2D % hashModulus
)

var hashRounds = [4]uint64{
	0x243F6A8885A308D3 % hashModulus,
	0x13198A2E03707344 % hashModulus,
	0xA4093822299F31D0 % hashModulus,
	0x082EFA98EC4E6C89 % hashModulus,
}

// Hasher maps lattice coordinates and a seed to an index in [0, k).
// It is not a cryptographic hash.
type Hasher struct {
	k     uint64
	bred  []uint64
	round [len(hashRounds)]uint64
}

// NewHasher creates a hasher with k outputs.
func NewHasher(k int) (*Hasher, error) {
	if k < 1 {
		return nil, fmt.Errorf("hasher needs at least one output, got %d", k)
	}
	return &Hasher{
		k:     uint64(k),
		bred:  ring.BRedParams(hashModulus),
		round: hashRounds,
	}, nil
}

// K returns the number of distinct outputs.
func (h *Hasher) K() int { return int(h.k) }

// Mix absorbs the inputs in order and returns the accumulator in [0, q).
// Negative inputs enter as their two's complement bit pattern.
func (h *Hasher) Mix(inputs ...int64) uint64 {
	acc := uint64(hashInit)
	for i, v := range inputs {
		acc = h.absorb(acc, uint64(v)%hashModulus, h.roundConst(i))
	}
	// Absorbing the arity keeps (a, b) and (a, b, 0) apart.
	return h.absorb(acc, uint64(len(inputs)), h.roundConst(len(inputs)))
}

// Sum returns Mix(inputs...) reduced to [0, k).
func (h *Hasher) Sum(inputs ...int64) int {
	return int(h.Mix(inputs...) % h.k)
}

func (h *Hasher) roundConst(i int) uint64 {
	return (h.round[i%len(h.round)] ^ uint64(i)) % hashModulus
}

func (h *Hasher) absorb(acc, x, c uint64) uint64 {
	// acc, x, c < 2^61 so the sum cannot overflow.
	acc = (acc + x + c) % hashModulus
	acc = ring.ModExp(acc, hashExponent, hashModulus)
	return ring.BRed(acc, hashMul, hashModulus, h.bred)
}
