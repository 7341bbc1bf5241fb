package serum

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"

	"marketScope/internal/model"
)

const (
	// ProgramIDV3 is the Serum DEX v3 program.
	ProgramIDV3 = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"

	// ZeroAddress is the base58 form of the all-zero public key.
	ZeroAddress = "11111111111111111111111111111111"

	MarketAccountSize = 388
	BaseMintOffset    = 53
	QuoteMintOffset   = 85

	headPadding = "serum"
	tailPadding = "padding"
	flagsSize   = 8
	pubkeySize  = 32

	slabHeaderSize  = 32
	slabNodeSize    = 72
	eventHeaderSize = 24
	eventSize       = 88
)

// Account flag bits.
const (
	flagInitialized uint64 = 1 << 0
	flagMarket      uint64 = 1 << 1
	flagEventQueue  uint64 = 1 << 3
	flagBids        uint64 = 1 << 5
	flagAsks        uint64 = 1 << 6
)

// body strips and validates the head and tail padding and returns the account
// flags plus the remaining bytes.
func body(data []byte, minBody int) (uint64, []byte, error) {
	minLen := len(headPadding) + flagsSize + minBody + len(tailPadding)
	if len(data) < minLen {
		return 0, nil, fmt.Errorf("%w: account length %d < %d", model.ErrDecode, len(data), minLen)
	}
	if !bytes.Equal(data[:len(headPadding)], []byte(headPadding)) {
		return 0, nil, fmt.Errorf("%w: missing head padding", model.ErrDecode)
	}
	if !bytes.Equal(data[len(data)-len(tailPadding):], []byte(tailPadding)) {
		return 0, nil, fmt.Errorf("%w: missing tail padding", model.ErrDecode)
	}
	flags := binary.LittleEndian.Uint64(data[len(headPadding):])
	if flags&flagInitialized == 0 {
		return 0, nil, fmt.Errorf("%w: account not initialized", model.ErrDecode)
	}
	return flags, data[len(headPadding)+flagsSize : len(data)-len(tailPadding)], nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) u128() (lo, hi uint64) {
	lo = r.u64()
	hi = r.u64()
	return lo, hi
}

func (r *reader) pubkey() string {
	v := base58.Encode(r.buf[r.off : r.off+pubkeySize])
	r.off += pubkeySize
	return v
}

func (r *reader) skip(n int) {
	r.off += n
}

func u128String(lo, hi uint64) string {
	v := new(big.Int).SetUint64(hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(lo))
	return v.String()
}

func bigU64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}
