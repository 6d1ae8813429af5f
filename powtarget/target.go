// Package powtarget implements compact-bits <-> 256-bit target conversion
// and proof-of-work verification.
package powtarget

import (
	"math/big"

	"archivalnode/encoding"
)

// TargetFromCompact expands the compact "nBits" encoding into a 256-bit
// target: exp = nbits>>24, mant = nbits&0x007fffff, target = mant *
// 256^(exp-3).
func TargetFromCompact(nbits uint32) *big.Int {
	exp := nbits >> 24
	mant := new(big.Int).SetUint64(uint64(nbits & 0x007fffff))

	target := new(big.Int)
	switch {
	case exp <= 3:
		shift := uint((3 - exp) * 8)
		target.Rsh(mant, shift)
	default:
		shift := uint((exp - 3) * 8)
		target.Lsh(mant, shift)
	}
	return target
}

// CompactFromTarget is the inverse of TargetFromCompact. It is idempotent:
// CompactFromTarget(TargetFromCompact(b)) == b for any canonical b.
func CompactFromTarget(target *big.Int) uint32 {
	if target.Sign() == 0 {
		return 0
	}

	raw := target.Bytes() // big-endian, no leading zero byte
	size := uint32(len(raw))

	var mant uint32
	switch {
	case size <= 3:
		for _, b := range raw {
			mant = mant<<8 | uint32(b)
		}
		mant <<= 8 * (3 - size)
	default:
		mant = uint32(raw[0])<<16 | uint32(raw[1])<<8 | uint32(raw[2])
	}

	// If the high bit of the mantissa's top byte is set, the value would be
	// misread as negative; shift right one byte and bump the exponent.
	if mant&0x00800000 != 0 {
		mant >>= 8
		size++
	}

	return size<<24 | mant
}

// MeetsDifficultyTarget reports whether headerHash, interpreted as a
// big-endian 256-bit integer after reversing its raw little-endian bytes,
// is at or below the target encoded by nbits.
func MeetsDifficultyTarget(headerHash encoding.Hash256, nbits uint32) bool {
	target := TargetFromCompact(nbits)
	reversed := headerHash.Reversed()
	value := new(big.Int).SetBytes(reversed[:])
	return value.Cmp(target) <= 0
}

// CompareHashToTarget compares a block hash (natural byte order) against a
// raw target using the same big-endian interpretation MeetsDifficultyTarget
// uses; exposed for callers that already hold a computed target.
func CompareHashToTarget(headerHash encoding.Hash256, target *big.Int) int {
	reversed := headerHash.Reversed()
	value := new(big.Int).SetBytes(reversed[:])
	return value.Cmp(target)
}
