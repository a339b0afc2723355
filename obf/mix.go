package obf

import (
	"fmt"
	"math/bits"
)

const (
	fmix     uint64 = 0xff51afd7ed558ccd
	indexMul uint64 = 1315423911

	heavyDomain uint64 = 0xc2b2ae3d27d4eb4f
)

// Mix derives the keystream byte for position index from key.
func Mix(key uint64, index int) byte {
	k := (key ^ key>>33) * fmix
	m := k ^ k>>33
	return byte(m + uint64(index)*indexMul)
}

// Keystream returns the first n keystream bytes for key in the given mode.
// It panics on an invalid mode.
func Keystream(key uint64, n int, mode Mode) []byte {
	ks := make([]byte, n)
	switch mode {
	case Light:
		for i := range ks {
			ks[i] = Mix(key, i)
		}
	case Heavy:
		hk := heavyKey(key)
		var prev byte
		for i := range ks {
			ks[i] = heavyByte(key, hk, i, prev)
			prev = ks[i]
		}
	default:
		panic(fmt.Sprintf("obf: keystream for invalid %v", mode))
	}
	return ks
}

func heavyKey(key uint64) uint64 {
	return bits.RotateLeft64(key, 29) ^ heavyDomain
}

// twisted marks the positions whose heavy keystream byte also depends on the
// previous keystream byte.
func twisted(key uint64, index int) bool {
	return uint64(index&3) == (key>>5)&3
}

func heavyByte(key, hk uint64, index int, prev byte) byte {
	if twisted(key, index) {
		return Mix(hk^uint64(prev)*Prime, index)
	}
	return Mix(hk, index)
}

// Seal XORs plain against the keystream and returns the ciphertext. It is the
// build-time half of Sealed.
func Seal(plain string, mode Mode, key uint64) []byte {
	ks := Keystream(key, len(plain), mode)
	out := make([]byte, len(plain))
	for i := range out {
		out[i] = plain[i] ^ ks[i]
	}
	wipe(ks)
	return out
}
