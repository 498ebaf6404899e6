package program

import (
	"bytes"
	"crypto/sha256"

	"github.com/ezntek/prototypevm/types"
	"github.com/ezntek/prototypevm/vm"
)

type Hasher[T any] interface {
	Hash(T) (types.Hash, error)
}

// DefaultHasher hashes the gob encoding of a program, so equal
// instruction sequences share a hash.
type DefaultHasher struct{}

func (DefaultHasher) Hash(p vm.Program) (types.Hash, error) {
	buf := &bytes.Buffer{}
	err := NewGobEncoder(buf).Encode(p)
	if err != nil {
		return types.Hash{}, err
	}
	return types.Hash(sha256.Sum256(buf.Bytes())), nil
}
