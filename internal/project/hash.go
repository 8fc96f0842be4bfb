package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest - фиксированный 256 битный хеш содержимого блоба или модуля
type Digest [32]byte

func DigestOf(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// Combine строит хеш модуля: H( part1 || part2 ... ).
// Порядок частей должен быть детерминированным.
func Combine(parts ...Digest) Digest {
	h := sha256.New()
	for _, d := range parts {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Short is the first 12 hex digits, enough for listings.
func (d Digest) Short() string { return d.String()[:12] }

func (d Digest) IsZero() bool { return d == Digest{} }
