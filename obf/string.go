package obf

import (
	"runtime"

	"github.com/awnumar/memguard"
	"github.com/templexxx/xorsimd"
)

// noCopy trips go vet's copylocks check. Copying a String would duplicate
// the key and leave one copy unwiped.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// String owns an obfuscated, NUL-terminated buffer. The zero value is not
// usable; construct one with New, NewKeyed or Sealed.
type String struct {
	_ noCopy

	key    uint64
	mode   Mode
	n      int
	data   []byte // n+1 bytes, data[n] is always 0
	ks     []byte
	locked bool
	wiped  bool
}

// New obfuscates literal under a fresh key derived from BuildKey. The
// literal itself stays in the binary; use the generator to avoid that.
// New, NewKeyed and Sealed panic if mode is neither Light nor Heavy.
func New(literal string, mode Mode) *String {
	return NewKeyed(literal, mode, nextKey())
}

// NewKeyed obfuscates literal under key.
func NewKeyed(literal string, mode Mode, key uint64) *String {
	s := newString(len(literal), mode, key)
	copy(s.data, literal)
	s.transform()
	return s
}

// Sealed wraps ciphertext produced by Seal with the same mode and key. The
// cipher slice is copied; the caller's bytes are never modified.
func Sealed(cipher []byte, mode Mode, key uint64) *String {
	s := newString(len(cipher), mode, key)
	copy(s.data, cipher)
	return s
}

func newString(n int, mode Mode, key uint64) *String {
	if !mode.Valid() {
		panic("obf: invalid " + mode.String())
	}
	s := &String{
		key:    key,
		mode:   mode,
		n:      n,
		data:   make([]byte, n+1),
		ks:     Keystream(key, n, mode),
		locked: true,
	}
	runtime.SetFinalizer(s, (*String).Destroy)
	return s
}

// Unlock decodes the buffer in place if it is locked and returns it,
// terminator included. Calling it on an unlocked String returns the same
// slice untouched.
func (s *String) Unlock() []byte {
	if s.locked && !s.wiped {
		s.transform()
		s.locked = false
	}
	return s.data
}

// Lock re-encodes the buffer in place if it is unlocked. Slices returned by
// earlier Unlock calls now see ciphertext.
func (s *String) Lock() []byte {
	if !s.locked && !s.wiped {
		s.transform()
		s.locked = true
	}
	return s.data
}

// CString is Unlock under the name C callers expect.
func (s *String) CString() []byte {
	return s.Unlock()
}

// Bytes unlocks s and returns the plaintext without the terminator. The
// slice aliases the internal buffer.
func (s *String) Bytes() []byte {
	return s.Unlock()[:s.n:s.n]
}

// Text unlocks s and copies the plaintext into a Go string. The copy lives
// on the heap until collected and is never wiped.
func (s *String) Text() string {
	return string(s.Bytes())
}

// Len is the literal length, excluding the terminator.
func (s *String) Len() int { return s.n }

// Mode reports the keystream s was sealed with.
func (s *String) Mode() Mode { return s.mode }

// Locked reports whether the buffer currently holds ciphertext.
func (s *String) Locked() bool { return s.locked }

// Destroy zeroes the buffer, the keystream and the key. Afterwards Unlock
// and Lock return the zeroed buffer unchanged. Destroy runs automatically
// when an unreachable String is collected.
func (s *String) Destroy() {
	if s.wiped {
		return
	}
	wipe(s.data)
	wipe(s.ks)
	s.key = 0
	s.wiped = true
	runtime.SetFinalizer(s, nil)
}

// transform XORs data[:n] against the keystream. It is its own inverse, so
// the locked flag alone decides whether it encodes or decodes.
func (s *String) transform() {
	if s.n == 0 {
		return
	}
	switch s.mode {
	case Heavy:
		hk := heavyKey(s.key)
		var prev byte
		for i := 0; i < s.n; i++ {
			b := s.ks[i]
			if twisted(s.key, i) {
				b = heavyByte(s.key, hk, i, prev)
			}
			s.data[i] ^= b
			prev = b
		}
	default:
		xorsimd.Bytes(s.data[:s.n], s.data[:s.n], s.ks)
	}
	s.data[s.n] = 0
	runtime.KeepAlive(s.data)
}

func wipe(b []byte) {
	if len(b) > 0 {
		memguard.WipeBytes(b)
	}
}
