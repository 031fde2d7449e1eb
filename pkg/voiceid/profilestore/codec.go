package profilestore

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// record is the on-disk representation of a Profile.
type record struct {
	Name       string    `msgpack:"name"`
	Embedding  []float64 `msgpack:"embedding"`
	Samples    int       `msgpack:"samples"`
	EnrolledAt time.Time `msgpack:"enrolled_at"`
}

func encodeProfile(p Profile) ([]byte, error) {
	if err := ValidateName(p.Name); err != nil {
		return nil, err
	}
	if err := checkEmbedding(p.Embedding); err != nil {
		return nil, fmt.Errorf("profilestore: %s: %w", p.Name, err)
	}
	return msgpack.Marshal(record{
		Name:       p.Name,
		Embedding:  p.Embedding,
		Samples:    p.Samples,
		EnrolledAt: p.EnrolledAt.UTC(),
	})
}

// decodeProfile decodes a record stored under name. A record whose embedded
// name differs from the key it was stored under is treated as corrupt.
func decodeProfile(name string, data []byte) (Profile, error) {
	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rec.Name != name {
		return Profile{}, fmt.Errorf("%w: record name %q does not match key %q", ErrCorrupt, rec.Name, name)
	}
	if err := checkEmbedding(rec.Embedding); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return Profile{
		Name:       rec.Name,
		Embedding:  rec.Embedding,
		Samples:    rec.Samples,
		EnrolledAt: rec.EnrolledAt,
	}, nil
}

func checkEmbedding(e []float64) error {
	if len(e) == 0 {
		return errors.New("empty embedding")
	}
	for i, v := range e {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("embedding[%d] is not finite", i)
		}
	}
	return nil
}
