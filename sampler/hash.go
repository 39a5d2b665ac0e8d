package sampler

import (
	"bytes"
	"math"

	"github.com/DataDog/mmh3"
)

// identityHash maps an observation identity to [0, 1]. Murmur3 is cheap, well
// spread and stable across processes, which the selection relies on.
func identityHash(id []byte) float64 {
	return float64(mmh3.Hash32(id)) / float64(math.MaxUint32)
}

// candidate is a bucket occupant together with its precomputed hash.
type candidate struct {
	obs  SampleObservation
	id   []byte
	hash float64
}

func newCandidate(obs SampleObservation) *candidate {
	id := obs.identity()
	return &candidate{obs: obs, id: id, hash: identityHash(id)}
}

// beats reports whether c should replace other as the bucket representative.
// Hash collisions fall back to the identity bytes so the order is total.
func (c *candidate) beats(other *candidate) bool {
	if other == nil {
		return true
	}
	if c.hash != other.hash {
		return c.hash < other.hash
	}
	return bytes.Compare(c.id, other.id) < 0
}
