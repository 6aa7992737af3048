// Package random seeds math/rand sources from the OS entropy pool.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"time"
)

// NewSeed returns a crypto-quality seed, falling back to the clock if the
// entropy pool is unreadable.
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
