package auth

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SaltLen is the size of generated salts in bytes.
const SaltLen = 16

// SaltSource produces per-credential salts.
//
// Each salt is a ULID: a millisecond timestamp followed by 80 bits drawn
// from crypto/rand through monotonic entropy, so salts from one source
// are strictly increasing and never repeat.
type SaltSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewSaltSource returns a SaltSource reading randomness from r.
func NewSaltSource(r io.Reader) *SaltSource {
	return &SaltSource{
		entropy: ulid.Monotonic(r, 0),
		now:     time.Now,
	}
}

var defaultSalts = NewSaltSource(rand.Reader)

// Next returns a new salt.
func (s *SaltSource) Next() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(s.now()), s.entropy)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, SaltLen)
	copy(salt, id[:])
	return salt, nil
}
